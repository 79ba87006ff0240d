// Package spawner defines the thin contract over the external remote
// machine API: given a machine spec, request a new ephemeral worker and
// return its handle, or a classified error. Implementations are stateless.
package spawner

import "context"

// MachineSpec describes the ephemeral worker a Spawner should request.
type MachineSpec struct {
	Image       string
	Region      string
	Env         map[string]string
	AutoDestroy bool
	MemoryMB    int
	CPUs        int
	CPUKind     string
}

// ErrorClass distinguishes transient from permanent spawn failures. The
// orchestrator currently treats both the same (leave the task pending),
// but the classification is exposed so retry policy can evolve without
// changing the Spawner contract.
type ErrorClass int

const (
	// ClassTransient covers network failures, 5xx responses, and
	// rate-limiting — conditions expected to clear on retry.
	ClassTransient ErrorClass = iota

	// ClassPermanent covers 4xx responses other than rate-limiting and
	// malformed requests — conditions a bare retry will not fix.
	ClassPermanent
)

// SpawnError wraps a spawn failure with its classification.
type SpawnError struct {
	Class ErrorClass
	Err   error
}

func (e *SpawnError) Error() string {
	return e.Err.Error()
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// Spawner requests ephemeral workers from the external machine API. It
// does not retry internally; retries are an orchestrator-level concern.
type Spawner interface {
	// Spawn requests a new machine for the given spec and returns its
	// opaque handle, or a *SpawnError on failure.
	Spawn(ctx context.Context, spec MachineSpec) (handle string, err error)
}
