// Package mock provides a scriptable spawner.Spawner for orchestrator
// tests, mirroring the teacher's MockRunner: a call history plus an
// optional override function, falling back to a default policy.
package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/getpup/preprocessing-orchestrator/spawner"
)

// Spawner is a mock implementation of spawner.Spawner for testing.
type Spawner struct {
	mu sync.Mutex

	// SpawnFunc, if set, is called for every Spawn invocation and its
	// result returned directly.
	SpawnFunc func(ctx context.Context, spec spawner.MachineSpec) (string, error)

	// Failing, keyed by the spec's INPUT_KEY env entry, forces a transient
	// spawn error for that task's next N calls before succeeding.
	Failing map[string]int

	Calls []spawner.MachineSpec
}

// New creates a new Spawner with an empty call history.
func New() *Spawner {
	return &Spawner{Failing: make(map[string]int)}
}

// Spawn records the call, then: if SpawnFunc is set, delegates to it;
// otherwise, if the spec's input key has remaining scripted failures,
// returns a transient SpawnError and decrements the remaining count;
// otherwise returns a deterministic handle derived from the input key.
func (s *Spawner) Spawn(ctx context.Context, spec spawner.MachineSpec) (string, error) {
	s.mu.Lock()
	s.Calls = append(s.Calls, spec)
	fn := s.SpawnFunc
	key := spec.Env["INPUT_KEY"]
	remaining := s.Failing[key]
	if remaining > 0 {
		s.Failing[key] = remaining - 1
	}
	s.mu.Unlock()

	if fn != nil {
		return fn(ctx, spec)
	}

	if remaining > 0 {
		return "", &spawner.SpawnError{
			Class: spawner.ClassTransient,
			Err:   fmt.Errorf("mock: scripted spawn failure for %q", key),
		}
	}

	return "machine-" + key, nil
}

// CallCount returns the number of Spawn calls recorded so far.
func (s *Spawner) CallCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Calls)
}
