// Package batch defines the shared data model for the preprocessing
// orchestrator: batch and task state, phase tags, and the pure identity
// functions used to derive deterministic task ids.
package batch

import "time"

// PhaseTag identifies a processing phase (e.g. "TIFF_CONVERSION") or one of
// the two terminal batch statuses ("DONE", "ERROR"). BatchState.Status and
// BatchState.CurrentPhase are both expressed in terms of PhaseTag.
type PhaseTag string

const (
	// StatusDone indicates every task in every phase reached a terminal
	// state and the batch completed successfully.
	StatusDone PhaseTag = "DONE"

	// StatusError indicates the batch reached a fatal, non-retriable
	// condition: admin reset or retry-budget exhaustion.
	StatusError PhaseTag = "ERROR"
)

// TaskStatus is the lifecycle state of a single Task within its phase.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskProcessing TaskStatus = "processing"
	TaskCompleted  TaskStatus = "completed"
	TaskFailed     TaskStatus = "failed"
)

// Terminal reports whether a task status will never transition again within
// the same phase attempt.
func (s TaskStatus) Terminal() bool {
	return s == TaskCompleted || s == TaskFailed
}

// InputFile describes one file named in an inbound queue message.
type InputFile struct {
	R2Key       string `json:"r2_key"`
	LogicalPath string `json:"logical_path"`
	FileName    string `json:"file_name"`
	FileSize    int64  `json:"file_size"`
	ContentType string `json:"content_type"`
	CID         string `json:"cid,omitempty"`
}

// Directory groups input files under a common directory path, as delivered
// in the inbound queue message.
type Directory struct {
	DirectoryPath    string            `json:"directory_path"`
	ProcessingConfig map[string]string `json:"processing_config,omitempty"`
	Files            []InputFile       `json:"files"`
}

// QueueMessage is the inbound batch descriptor named in the external
// interfaces. It is immutable once recorded on a BatchState.
type QueueMessage struct {
	BatchID     string            `json:"batch_id"`
	R2Prefix    string            `json:"r2_prefix"`
	Directories []Directory       `json:"directories"`
	Uploader    string            `json:"uploader,omitempty"`
	RootPath    string            `json:"root_path,omitempty"`
	TotalFiles  int               `json:"total_files,omitempty"`
	TotalBytes  int64             `json:"total_bytes,omitempty"`
	UploadedAt  *time.Time        `json:"uploaded_at,omitempty"`
	FinalizedAt *time.Time        `json:"finalized_at,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// PerformanceMetrics carries optional worker-reported timing/throughput data
// from a successful callback.
type PerformanceMetrics struct {
	DurationMS int64 `json:"duration_ms,omitempty"`
	InputBytes int64 `json:"input_bytes,omitempty"`
}

// Task is the per-file unit of work within a phase. Its id is a pure
// function of (batch id, input key, phase tag); the same input always
// yields the same id.
type Task struct {
	TaskID      string     `json:"task_id"`
	BatchID     string     `json:"batch_id"`
	PhaseTag    PhaseTag   `json:"phase_tag"`
	Status      TaskStatus `json:"status"`
	RetryCount  int        `json:"retry_count"`
	InputKey    string     `json:"input_key"`
	InputName   string     `json:"input_name"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`

	// MachineHandle is the opaque handle returned by the remote spawner for
	// the machine currently (or most recently) processing this task.
	MachineHandle string `json:"machine_handle,omitempty"`

	// Outputs, populated once a success callback is reconciled.
	OutputKey   string              `json:"output_key,omitempty"`
	OutputName  string              `json:"output_name,omitempty"`
	OutputSize  int64               `json:"output_size,omitempty"`
	Performance *PerformanceMetrics `json:"performance,omitempty"`
}

// BatchState is the durable, singleton-per-batch record the orchestrator
// owns and mutates. It is retained after reaching a terminal state so
// status queries remain answerable.
type BatchState struct {
	BatchID      string          `json:"batch_id"`
	Status       PhaseTag        `json:"status"`
	QueueMessage QueueMessage    `json:"queue_message"`
	CurrentPhase PhaseTag        `json:"current_phase"`
	Tasks        map[string]Task `json:"current_phase_tasks"`

	TasksTotal     int `json:"tasks_total"`
	TasksCompleted int `json:"tasks_completed"`
	TasksFailed    int `json:"tasks_failed"`

	StartedAt   time.Time  `json:"started_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`

	// RetryCount is the number of consecutive no-progress alarm wakeups
	// since the last observed change, reset to zero on any progress.
	RetryCount int `json:"retry_count"`

	// NextAlarmAt is the time the next alarm should fire, persisted so a
	// process restart can recompute outstanding alarms from storage. Zero
	// means no alarm is currently scheduled.
	NextAlarmAt time.Time `json:"next_alarm_at,omitempty"`

	// Version is incremented on every Update, used by stores that support
	// optimistic concurrency control.
	Version int64 `json:"version"`
}

// Terminal reports whether the batch has reached DONE or ERROR.
func (b *BatchState) Terminal() bool {
	return b.Status == StatusDone || b.Status == StatusError
}

// StatusView is the read-only projection of BatchState exposed through
// GET /status/{batch_id}.
type StatusView struct {
	BatchID        string     `json:"batch_id"`
	Status         PhaseTag   `json:"status"`
	TasksTotal     int        `json:"tasks_total"`
	TasksCompleted int        `json:"tasks_completed"`
	TasksFailed    int        `json:"tasks_failed"`
	StartedAt      time.Time  `json:"started_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	Error          string     `json:"error,omitempty"`
}

// ToStatusView projects a BatchState into its external, read-only form.
func (b *BatchState) ToStatusView() StatusView {
	return StatusView{
		BatchID:        b.BatchID,
		Status:         b.Status,
		TasksTotal:     b.TasksTotal,
		TasksCompleted: b.TasksCompleted,
		TasksFailed:    b.TasksFailed,
		StartedAt:      b.StartedAt,
		UpdatedAt:      b.UpdatedAt,
		CompletedAt:    b.CompletedAt,
		Error:          b.Error,
	}
}

// CallbackStatus is the terminal outcome a worker reports for its task.
type CallbackStatus string

const (
	CallbackSuccess CallbackStatus = "success"
	CallbackError   CallbackStatus = "error"
)

// CallbackPayload is the body of POST /callback/{batch_id}/{task_id}.
type CallbackPayload struct {
	TaskID         string              `json:"task_id"`
	BatchID        string              `json:"batch_id"`
	Status         CallbackStatus      `json:"status"`
	OutputR2Key    string              `json:"output_r2_key,omitempty"`
	OutputFileName string              `json:"output_file_name,omitempty"`
	OutputFileSize int64               `json:"output_file_size,omitempty"`
	Performance    *PerformanceMetrics `json:"performance,omitempty"`
	Error          string              `json:"error,omitempty"`
}
