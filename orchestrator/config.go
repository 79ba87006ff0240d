// Package orchestrator implements the durable, per-batch supervisor:
// the only component in this module that mutates BatchState. Each batch
// id owns exactly one actor — a goroutine reading a command channel —
// which sequences phases, bounds spawn fan-out, reconciles callbacks, and
// drives the alarm loop described for the batch orchestrator.
package orchestrator

import (
	"fmt"
	"time"

	"github.com/getpup/preprocessing-orchestrator/logging"
	"github.com/getpup/preprocessing-orchestrator/metrics"
	"github.com/getpup/preprocessing-orchestrator/notifier"
	"github.com/getpup/preprocessing-orchestrator/phase"
	"github.com/getpup/preprocessing-orchestrator/spawner"
	"github.com/getpup/preprocessing-orchestrator/store"
)

// Defaults, taken from the documented configuration surface.
const (
	DefaultBatchSizePhase       = 1000
	DefaultAlarmDelayPhase      = 5 * time.Second
	DefaultAlarmDelayErrorRetry = 30 * time.Second
	DefaultMaxRetryAttempts     = 5
)

// config holds every tunable for an Orchestrator, built up by Option
// functions and defaulted in New.
type config struct {
	store     store.BatchStore
	registry  *phase.Registry
	spawner   spawner.Spawner
	env       phase.Env
	notifier  notifier.Notifier
	logger    logging.Logger
	collector *metrics.Collector

	batchSizePhase       int
	alarmDelayPhase      time.Duration
	alarmDelayErrorRetry time.Duration
	maxRetryAttempts     int
	maxTaskRetries       int
}

// Option configures an Orchestrator constructed by New.
type Option func(*config)

// WithStore sets the durable BatchStore backing every batch's state.
// Required.
func WithStore(s store.BatchStore) Option {
	return func(c *config) { c.store = s }
}

// WithRegistry sets the phase registry driving the batch's phase sequence.
// Required.
func WithRegistry(r *phase.Registry) Option {
	return func(c *config) { c.registry = r }
}

// WithSpawner sets the remote spawner used to request ephemeral workers.
// Required.
func WithSpawner(s spawner.Spawner) Option {
	return func(c *config) { c.spawner = s }
}

// WithEnv sets the immutable environment bundle handed to every spawned
// worker. Required; Env.OrchestratorURL must be set.
func WithEnv(env phase.Env) Option {
	return func(c *config) { c.env = env }
}

// WithNotifier sets the downstream notifier invoked once a batch reaches
// DONE. Defaults to a no-op notifier.
func WithNotifier(n notifier.Notifier) Option {
	return func(c *config) { c.notifier = n }
}

// WithLogger sets the logger used for observability. Defaults to a no-op
// logger.
func WithLogger(logger logging.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// WithMetrics sets the collector instrumented with batch/task/phase
// counters and histograms. Defaults to nil, which every call site treats
// as "metrics disabled" rather than a required collaborator, matching the
// teacher's optional-collector convention.
func WithMetrics(c *metrics.Collector) Option {
	return func(cfg *config) { cfg.collector = c }
}

// WithBatchSizePhase sets the maximum number of concurrent spawns issued
// per alarm wake. Defaults to DefaultBatchSizePhase.
func WithBatchSizePhase(n int) Option {
	return func(c *config) { c.batchSizePhase = n }
}

// WithAlarmDelayPhase sets the delay between alarms while a batch is
// making progress. Defaults to DefaultAlarmDelayPhase.
func WithAlarmDelayPhase(d time.Duration) Option {
	return func(c *config) { c.alarmDelayPhase = d }
}

// WithAlarmDelayErrorRetry sets the delay between alarms while a batch has
// made no progress. Defaults to DefaultAlarmDelayErrorRetry.
func WithAlarmDelayErrorRetry(d time.Duration) Option {
	return func(c *config) { c.alarmDelayErrorRetry = d }
}

// WithMaxRetryAttempts sets the number of consecutive no-progress alarm
// wakeups tolerated before a batch transitions to ERROR. Defaults to
// DefaultMaxRetryAttempts.
func WithMaxRetryAttempts(n int) Option {
	return func(c *config) { c.maxRetryAttempts = n }
}

// WithMaxTaskRetries sets the number of worker-reported errors a single
// task tolerates before it is marked failed. Defaults to the same value
// as MaxRetryAttempts, matching the default phase's behavior.
func WithMaxTaskRetries(n int) Option {
	return func(c *config) { c.maxTaskRetries = n }
}

func defaultConfig() config {
	return config{
		notifier:             notifier.Nop{},
		logger:               logging.NewNop(),
		batchSizePhase:       DefaultBatchSizePhase,
		alarmDelayPhase:      DefaultAlarmDelayPhase,
		alarmDelayErrorRetry: DefaultAlarmDelayErrorRetry,
		maxRetryAttempts:     DefaultMaxRetryAttempts,
		maxTaskRetries:       DefaultMaxRetryAttempts,
	}
}

// New builds an Orchestrator from the given options. WithStore,
// WithRegistry, WithSpawner, and WithEnv (with a non-empty
// Env.OrchestratorURL) are required; every other option has a default.
func New(opts ...Option) (*Orchestrator, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.store == nil {
		return nil, fmt.Errorf("store is required: use WithStore option")
	}
	if cfg.registry == nil {
		return nil, fmt.Errorf("registry is required: use WithRegistry option")
	}
	if cfg.spawner == nil {
		return nil, fmt.Errorf("spawner is required: use WithSpawner option")
	}
	if cfg.env.OrchestratorURL == "" {
		return nil, fmt.Errorf("env.OrchestratorURL is required: use WithEnv option")
	}

	return &Orchestrator{
		cfg:    cfg,
		actors: make(map[string]*batchActor),
	}, nil
}
