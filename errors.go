package batch

import "errors"

var (
	// ErrBatchExists indicates start_batch was called for a batch id that
	// already has a BatchState. The call is a no-op, not an error to the
	// caller, but internal code uses this sentinel to detect the case.
	ErrBatchExists = errors.New("batch already exists")

	// ErrBatchNotFound indicates no BatchState exists for the given batch id.
	ErrBatchNotFound = errors.New("batch not found")

	// ErrTaskNotFound indicates the task id named in a callback is not
	// present in current_phase_tasks (late, duplicate, or post-reset).
	ErrTaskNotFound = errors.New("task not found")

	// ErrPhaseNotRegistered indicates a phase tag has no corresponding
	// Phase implementation in the registry.
	ErrPhaseNotRegistered = errors.New("phase not registered")

	// ErrCallbackMalformed indicates a callback payload failed to decode
	// or referenced a batch/task id mismatched with the URL path.
	ErrCallbackMalformed = errors.New("callback malformed")

	// ErrInvariantViolation indicates an internal consistency check failed
	// (e.g. counters exceeding totals). The batch transitions to ERROR.
	ErrInvariantViolation = errors.New("internal invariant violation")

	// ErrRetryBudgetExhausted indicates MAX_RETRY_ATTEMPTS consecutive
	// no-progress alarms elapsed. The batch transitions to ERROR.
	ErrRetryBudgetExhausted = errors.New("retry budget exhausted")

	// ErrAdminReset is recorded as BatchState.Error after an admin reset.
	ErrAdminReset = errors.New("reset by admin")
)
