package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewCollector_CreatesCollector(t *testing.T) {
	collector := NewCollector()
	assert.NotNil(t, collector)
}

func TestCollector_IncBatchStarted(t *testing.T) {
	collector := NewCollector()

	before := testutil.ToFloat64(BatchesStartedTotal.WithLabelValues())
	collector.IncBatchStarted()
	after := testutil.ToFloat64(BatchesStartedTotal.WithLabelValues())

	assert.Equal(t, before+1, after)
}

func TestCollector_IncBatchCompleted(t *testing.T) {
	collector := NewCollector()

	before := testutil.ToFloat64(BatchesCompletedTotal.WithLabelValues("ERROR"))
	collector.IncBatchCompleted("ERROR")
	after := testutil.ToFloat64(BatchesCompletedTotal.WithLabelValues("ERROR"))

	assert.Equal(t, before+1, after)
}

func TestCollector_IncTasksSpawned(t *testing.T) {
	collector := NewCollector()

	before := testutil.ToFloat64(TasksSpawnedTotal.WithLabelValues("coll-phase-1"))
	collector.IncTasksSpawned("coll-phase-1", 4)
	after := testutil.ToFloat64(TasksSpawnedTotal.WithLabelValues("coll-phase-1"))

	assert.Equal(t, before+4, after)
}

func TestCollector_IncTaskCompleted(t *testing.T) {
	collector := NewCollector()

	before := testutil.ToFloat64(TasksCompletedTotal.WithLabelValues("coll-phase-2"))
	collector.IncTaskCompleted("coll-phase-2")
	after := testutil.ToFloat64(TasksCompletedTotal.WithLabelValues("coll-phase-2"))

	assert.Equal(t, before+1, after)
}

func TestCollector_IncTaskFailed(t *testing.T) {
	collector := NewCollector()

	before := testutil.ToFloat64(TasksFailedTotal.WithLabelValues("coll-phase-3"))
	collector.IncTaskFailed("coll-phase-3")
	after := testutil.ToFloat64(TasksFailedTotal.WithLabelValues("coll-phase-3"))

	assert.Equal(t, before+1, after)
}

func TestCollector_IncSpawnError(t *testing.T) {
	collector := NewCollector()

	before := testutil.ToFloat64(SpawnErrorsTotal.WithLabelValues("coll-phase-4"))
	collector.IncSpawnError("coll-phase-4")
	after := testutil.ToFloat64(SpawnErrorsTotal.WithLabelValues("coll-phase-4"))

	assert.Equal(t, before+1, after)
}

func TestCollector_IncCallbackReceived(t *testing.T) {
	collector := NewCollector()

	before := testutil.ToFloat64(CallbacksReceivedTotal.WithLabelValues("coll-status-1"))
	collector.IncCallbackReceived("coll-status-1")
	after := testutil.ToFloat64(CallbacksReceivedTotal.WithLabelValues("coll-status-1"))

	assert.Equal(t, before+1, after)
}

func TestCollector_SetActiveBatches(t *testing.T) {
	collector := NewCollector()

	collector.SetActiveBatches(7)
	value := testutil.ToFloat64(ActiveBatches.WithLabelValues())

	assert.Equal(t, float64(7), value)
}

func TestCollector_IncAlarmWake(t *testing.T) {
	collector := NewCollector()

	before := testutil.ToFloat64(AlarmWakesTotal.WithLabelValues("coll-phase-5", "false"))
	collector.IncAlarmWake("coll-phase-5", false)
	after := testutil.ToFloat64(AlarmWakesTotal.WithLabelValues("coll-phase-5", "false"))

	assert.Equal(t, before+1, after)
}

func TestCollector_ObserveSpawnDuration(t *testing.T) {
	collector := NewCollector()

	collector.ObserveSpawnDuration("coll-phase-6", 1.5)
	count := testutil.CollectAndCount(SpawnDuration)

	assert.Greater(t, count, 0)
}

func TestCollector_ObservePhaseDuration(t *testing.T) {
	collector := NewCollector()

	collector.ObservePhaseDuration("coll-phase-7", 0.5)
	count := testutil.CollectAndCount(PhaseDuration)

	assert.Greater(t, count, 0)
}

func TestCollector_MultipleOperations(t *testing.T) {
	collector := NewCollector()

	collector.IncBatchStarted()
	collector.IncTasksSpawned("coll-phase-multi", 2)
	collector.SetActiveBatches(3)

	startedValue := testutil.ToFloat64(BatchesStartedTotal.WithLabelValues())
	spawnedValue := testutil.ToFloat64(TasksSpawnedTotal.WithLabelValues("coll-phase-multi"))
	activeValue := testutil.ToFloat64(ActiveBatches.WithLabelValues())

	assert.Greater(t, startedValue, float64(0))
	assert.Greater(t, spawnedValue, float64(0))
	assert.Equal(t, float64(3), activeValue)
}
