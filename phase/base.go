package phase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/getpup/preprocessing-orchestrator"
	"github.com/getpup/preprocessing-orchestrator/spawner"
)

// ResourceShape names the machine-API guest resource shape a phase requests
// for its workers.
type ResourceShape struct {
	MemoryMB int
	CPUs     int
	CPUKind  string
}

// EnvBundleFunc builds the per-task environment bundle handed to a spawned
// worker. Phases supply their own so the worker knows which transform to
// run and where to find its input.
type EnvBundleFunc func(task batch.Task, env Env) map[string]string

// Base implements ExecuteBatch and ReconcileCallback once, shared by every
// phase via composition, parameterized by what differs between phases: the
// resource shape and the environment bundle. Discover and NextPhase remain
// phase-specific and are implemented by the embedding type.
type Base struct {
	PhaseTag     batch.PhaseTag
	Resources    ResourceShape
	BuildEnvFunc EnvBundleFunc
}

// ExecuteBatch selects up to batchSize pending tasks (FIFO by task id,
// lexicographic) and spawns one worker per task concurrently, awaiting all
// spawn requests before returning. Spawn failures leave the task pending
// and are not counted as progress; spawn successes transition the task to
// processing and set started_at/machine_handle.
func (b *Base) ExecuteBatch(ctx context.Context, state *batch.BatchState, sp spawner.Spawner, env Env, batchSize int) (ExecuteResult, error) {
	pendingIDs := make([]string, 0, len(state.Tasks))
	for id, t := range state.Tasks {
		if t.Status == batch.TaskPending {
			pendingIDs = append(pendingIDs, id)
		}
	}
	sort.Strings(pendingIDs)
	if len(pendingIDs) > batchSize {
		pendingIDs = pendingIDs[:batchSize]
	}

	type spawnOutcome struct {
		taskID string
		handle string
		err    error
	}

	results := make([]spawnOutcome, len(pendingIDs))
	var wg sync.WaitGroup
	for i, id := range pendingIDs {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			task := state.Tasks[id]
			spec := b.buildSpec(task, env)
			handle, err := sp.Spawn(ctx, spec)
			results[i] = spawnOutcome{taskID: id, handle: handle, err: err}
		}(i, id)
	}
	wg.Wait()

	didSpawnAny := false
	spawnedCount := 0
	spawnErrorCount := 0
	now := time.Now()
	for _, r := range results {
		if r.err != nil {
			// Spawn failure is transient: leave pending, no counter touched,
			// no task-level retry consumed (reserved for worker-reported
			// errors; see spec §4.2/§9).
			spawnErrorCount++
			continue
		}
		task := state.Tasks[r.taskID]
		task.Status = batch.TaskProcessing
		task.StartedAt = &now
		task.MachineHandle = r.handle
		state.Tasks[r.taskID] = task
		didSpawnAny = true
		spawnedCount++
	}

	moreWork := false
	for _, t := range state.Tasks {
		if !t.Status.Terminal() {
			moreWork = true
			break
		}
	}

	return ExecuteResult{
		MoreWork:        moreWork,
		DidSpawnAny:     didSpawnAny,
		SpawnedCount:    spawnedCount,
		SpawnErrorCount: spawnErrorCount,
	}, nil
}

func (b *Base) buildSpec(task batch.Task, env Env) spawner.MachineSpec {
	callbackURL := fmt.Sprintf("%s/callback/%s/%s", env.OrchestratorURL, task.BatchID, task.TaskID)

	bundle := map[string]string{
		"TASK_ID":                  task.TaskID,
		"BATCH_ID":                 task.BatchID,
		"INPUT_KEY":                task.InputKey,
		"CALLBACK_URL":             callbackURL,
		"OBJECT_STORE_ACCOUNT_ID":  env.ObjectStoreAccountID,
		"OBJECT_STORE_ACCESS_KEY":  env.ObjectStoreAccessKey,
		"OBJECT_STORE_SECRET":      env.ObjectStoreSecret,
		"OBJECT_STORE_BUCKET":      env.ObjectStoreBucket,
	}
	if b.BuildEnvFunc != nil {
		for k, v := range b.BuildEnvFunc(task, env) {
			bundle[k] = v
		}
	}

	return spawner.MachineSpec{
		Image:       env.WorkerImage,
		Region:      env.Region,
		Env:         bundle,
		AutoDestroy: true,
		MemoryMB:    b.Resources.MemoryMB,
		CPUs:        b.Resources.CPUs,
		CPUKind:     b.Resources.CPUKind,
	}
}

// ReconcileCallback idempotently folds a worker's terminal report into the
// named task. Callbacks for tasks already in a terminal state are dropped
// without mutating any counter. On success, the task completes and
// tasks_completed is incremented. On worker-reported error, the task's
// retry_count is incremented and it returns to pending for respawn, unless
// maxTaskRetries has been reached, in which case it fails and
// tasks_failed is incremented.
func (b *Base) ReconcileCallback(state *batch.BatchState, taskID string, payload batch.CallbackPayload, maxTaskRetries int) error {
	task, ok := state.Tasks[taskID]
	if !ok {
		return batch.ErrTaskNotFound
	}

	if task.Status.Terminal() {
		// Idempotent drop: already-terminal tasks discard late/duplicate
		// callbacks without mutating counters.
		return nil
	}

	now := time.Now()

	switch payload.Status {
	case batch.CallbackSuccess:
		task.Status = batch.TaskCompleted
		task.CompletedAt = &now
		task.OutputKey = payload.OutputR2Key
		task.OutputName = payload.OutputFileName
		task.OutputSize = payload.OutputFileSize
		task.Performance = payload.Performance
		task.Error = ""
		state.Tasks[taskID] = task
		state.TasksCompleted++

	case batch.CallbackError:
		task.Error = payload.Error
		task.RetryCount++
		if task.RetryCount > maxTaskRetries {
			task.Status = batch.TaskFailed
			task.CompletedAt = &now
			state.Tasks[taskID] = task
			state.TasksFailed++
		} else {
			task.Status = batch.TaskPending
			task.StartedAt = nil
			task.MachineHandle = ""
			state.Tasks[taskID] = task
		}

	default:
		return fmt.Errorf("%w: unknown callback status %q", batch.ErrCallbackMalformed, payload.Status)
	}

	return nil
}
