package metrics

// Collector wraps the package's metric vectors with methods that match
// the orchestrator's vocabulary (batches, tasks, phases, alarms) rather
// than Prometheus's label-argument plumbing.
type Collector struct{}

// NewCollector creates a new Collector.
func NewCollector() *Collector {
	return &Collector{}
}

// IncBatchStarted increments the batches-started counter.
func (c *Collector) IncBatchStarted() {
	BatchesStartedTotal.WithLabelValues().Inc()
}

// IncBatchCompleted increments the batches-completed counter for the given
// terminal status ("DONE" or "ERROR").
func (c *Collector) IncBatchCompleted(status string) {
	BatchesCompletedTotal.WithLabelValues(status).Inc()
}

// IncTasksSpawned increments the tasks-spawned counter for phase by n.
func (c *Collector) IncTasksSpawned(phase string, n int) {
	TasksSpawnedTotal.WithLabelValues(phase).Add(float64(n))
}

// IncTaskCompleted increments the tasks-completed counter for phase.
func (c *Collector) IncTaskCompleted(phase string) {
	TasksCompletedTotal.WithLabelValues(phase).Inc()
}

// IncTaskFailed increments the tasks-failed counter for phase.
func (c *Collector) IncTaskFailed(phase string) {
	TasksFailedTotal.WithLabelValues(phase).Inc()
}

// IncSpawnError increments the spawn-errors counter for phase.
func (c *Collector) IncSpawnError(phase string) {
	SpawnErrorsTotal.WithLabelValues(phase).Inc()
}

// IncCallbackReceived increments the callbacks-received counter for the
// given reported status ("success" or "error").
func (c *Collector) IncCallbackReceived(status string) {
	CallbacksReceivedTotal.WithLabelValues(status).Inc()
}

// SetActiveBatches sets the active-batches gauge.
func (c *Collector) SetActiveBatches(count int) {
	ActiveBatches.WithLabelValues().Set(float64(count))
}

// IncAlarmWake increments the alarm-wakes counter for phase, labeled by
// whether the wake made progress.
func (c *Collector) IncAlarmWake(phase string, progressed bool) {
	AlarmWakesTotal.WithLabelValues(phase, boolLabel(progressed)).Inc()
}

// ObserveSpawnDuration records a spawn request latency observation.
func (c *Collector) ObserveSpawnDuration(phase string, seconds float64) {
	SpawnDuration.WithLabelValues(phase).Observe(seconds)
}

// ObservePhaseDuration records a phase duration observation.
func (c *Collector) ObservePhaseDuration(phase string, seconds float64) {
	PhaseDuration.WithLabelValues(phase).Observe(seconds)
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
