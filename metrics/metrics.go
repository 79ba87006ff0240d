package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BatchesStartedTotal tracks the total number of batches started.
var BatchesStartedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "preprocessing_orchestrator_batches_started_total",
		Help: "Total number of batches started",
	},
	[]string{},
)

// BatchesCompletedTotal tracks the total number of batches reaching a
// terminal state, labeled by that state (DONE or ERROR).
var BatchesCompletedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "preprocessing_orchestrator_batches_completed_total",
		Help: "Total batches reaching a terminal state",
	},
	[]string{"status"},
)

// TasksSpawnedTotal tracks the total number of spawn requests issued,
// labeled by phase.
var TasksSpawnedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "preprocessing_orchestrator_tasks_spawned_total",
		Help: "Total spawn requests issued",
	},
	[]string{"phase"},
)

// TasksCompletedTotal tracks the total number of tasks reconciled as
// completed, labeled by phase.
var TasksCompletedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "preprocessing_orchestrator_tasks_completed_total",
		Help: "Total tasks reconciled as completed",
	},
	[]string{"phase"},
)

// TasksFailedTotal tracks the total number of tasks reconciled as failed
// (worker-reported error with retry budget exhausted), labeled by phase.
var TasksFailedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "preprocessing_orchestrator_tasks_failed_total",
		Help: "Total tasks reconciled as failed",
	},
	[]string{"phase"},
)

// SpawnErrorsTotal tracks the total number of failed spawn requests,
// labeled by phase.
var SpawnErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "preprocessing_orchestrator_spawn_errors_total",
		Help: "Total failed spawn requests",
	},
	[]string{"phase"},
)

// CallbacksReceivedTotal tracks the total number of inbound worker
// callbacks, labeled by the reported status.
var CallbacksReceivedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "preprocessing_orchestrator_callbacks_received_total",
		Help: "Total inbound worker callbacks",
	},
	[]string{"status"},
)

// ActiveBatches tracks the current number of non-terminal batches held in
// memory by this process.
var ActiveBatches = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "preprocessing_orchestrator_active_batches",
		Help: "Current number of non-terminal batches",
	},
	[]string{},
)

// AlarmWakesTotal tracks the total number of alarm wakeups processed,
// labeled by phase and whether the wake made progress.
var AlarmWakesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "preprocessing_orchestrator_alarm_wakes_total",
		Help: "Total alarm wakeups processed",
	},
	[]string{"phase", "progressed"},
)

// SpawnDuration tracks the latency of individual spawn requests.
var SpawnDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "preprocessing_orchestrator_spawn_duration_seconds",
		Help:    "Spawn request latency",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"phase"},
)

// PhaseDuration tracks the wall-clock time a batch spends in a single
// phase, from the alarm that installed its tasks to the one that advances
// past it.
var PhaseDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "preprocessing_orchestrator_phase_duration_seconds",
		Help:    "Time a batch spends in a single phase",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"phase"},
)
