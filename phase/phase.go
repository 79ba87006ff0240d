// Package phase implements the pluggable phase contract: discover,
// execute-batch, reconcile-callback, and next-phase. A Registry resolves
// phase tags to concrete implementations, forming the closed set of
// variants the orchestrator drives in sequence.
package phase

import (
	"context"
	"fmt"

	"github.com/getpup/preprocessing-orchestrator"
	"github.com/getpup/preprocessing-orchestrator/spawner"
)

// Env is the immutable, cross-batch configuration and credential bundle
// handed to every phase operation that spawns workers. It is never mutated
// after construction and is shared by every batch's actor.
type Env struct {
	// OrchestratorURL is the base URL embedded into callback URLs.
	OrchestratorURL string

	// WorkerImage is the container image reference for spawned workers.
	WorkerImage string

	// Region is the preferred machine-API region for spawned workers.
	Region string

	// ObjectStore credentials, passed through to the worker's environment
	// bundle; the orchestrator never uses these itself (§1 Non-goals: it
	// does not inspect file contents).
	ObjectStoreAccountID string
	ObjectStoreAccessKey string
	ObjectStoreSecret    string
	ObjectStoreBucket    string
}

// ExecuteResult is returned by ExecuteBatch.
type ExecuteResult struct {
	// MoreWork is true if any task remains pending or processing.
	MoreWork bool

	// DidSpawnAny is true if at least one spawn request succeeded during
	// this call, used by the orchestrator to decide whether progress was
	// made (resets the no-progress retry counter).
	DidSpawnAny bool

	// SpawnedCount and SpawnErrorCount break down how many of the
	// attempted spawns in this call succeeded versus failed, for
	// observability only; DidSpawnAny is the only field the retry logic
	// consults.
	SpawnedCount    int
	SpawnErrorCount int
}

// Phase is the four-operation contract every processing stage implements.
type Phase interface {
	// Tag returns this phase's identifying tag, used as BatchState.Status /
	// BatchState.CurrentPhase while the phase is active.
	Tag() batch.PhaseTag

	// Discover scans the batch message and returns the task list for this
	// phase. priorTasks holds the completed task set of the phase that ran
	// immediately before this one (nil for the first phase); phases after
	// the first may derive their input keys from priorTasks' outputs
	// rather than from the original queue message. Deterministic:
	// identical input yields an identical task id set.
	Discover(ctx context.Context, state *batch.BatchState, priorTasks map[string]batch.Task) ([]batch.Task, error)

	// ExecuteBatch advances up to batchSize pending tasks toward completion
	// by issuing spawn requests through spawner, mutating tasks in place
	// within state.Tasks.
	ExecuteBatch(ctx context.Context, state *batch.BatchState, sp spawner.Spawner, env Env, batchSize int) (ExecuteResult, error)

	// ReconcileCallback idempotently folds a worker's terminal report into
	// the named task and the batch's running counters.
	ReconcileCallback(state *batch.BatchState, taskID string, payload batch.CallbackPayload, maxTaskRetries int) error

	// NextPhase returns the tag of the phase that follows this one, or ""
	// if the batch is DONE after this phase.
	NextPhase() batch.PhaseTag
}

// Registry resolves phase tags to Phase implementations.
type Registry struct {
	phases map[batch.PhaseTag]Phase
	first  batch.PhaseTag
}

// NewRegistry builds a Registry from an ordered list of phases. The first
// phase in the slice is the batch's initial phase.
func NewRegistry(phases ...Phase) (*Registry, error) {
	if len(phases) == 0 {
		return nil, fmt.Errorf("phase: registry requires at least one phase")
	}

	r := &Registry{
		phases: make(map[batch.PhaseTag]Phase, len(phases)),
		first:  phases[0].Tag(),
	}
	for _, p := range phases {
		r.phases[p.Tag()] = p
	}
	return r, nil
}

// First returns the initial phase.
func (r *Registry) First() Phase {
	return r.phases[r.first]
}

// Get resolves a phase tag to its implementation.
func (r *Registry) Get(tag batch.PhaseTag) (Phase, error) {
	p, ok := r.phases[tag]
	if !ok {
		return nil, fmt.Errorf("%w: %s", batch.ErrPhaseNotRegistered, tag)
	}
	return p, nil
}
