// Package memory provides an in-memory store.BatchStore for tests and
// single-process deployments where durability across restarts is not
// required.
package memory

import (
	"context"
	"sync"

	"github.com/getpup/preprocessing-orchestrator"
)

// Store is an in-memory implementation of store.BatchStore. It is safe for
// concurrent access via a sync.RWMutex.
type Store struct {
	mu     sync.RWMutex
	states map[string]batch.BatchState
}

// New creates a new in-memory store with an initialized map.
func New() *Store {
	return &Store{states: make(map[string]batch.BatchState)}
}

// Create implements store.BatchStore.
func (s *Store) Create(_ context.Context, state batch.BatchState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.states[state.BatchID]; ok {
		return batch.ErrBatchExists
	}

	s.states[state.BatchID] = state
	return nil
}

// Get implements store.BatchStore.
func (s *Store) Get(_ context.Context, batchID string) (batch.BatchState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[batchID]
	if !ok {
		return batch.BatchState{}, batch.ErrBatchNotFound
	}
	return state, nil
}

// Update implements store.BatchStore.
func (s *Store) Update(_ context.Context, state batch.BatchState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.states[state.BatchID]; !ok {
		return batch.ErrBatchNotFound
	}

	s.states[state.BatchID] = state
	return nil
}

// Delete implements store.BatchStore.
func (s *Store) Delete(_ context.Context, batchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.states[batchID]; !ok {
		return batch.ErrBatchNotFound
	}

	delete(s.states, batchID)
	return nil
}

// List implements store.BatchStore.
func (s *Store) List(_ context.Context) ([]batch.BatchState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]batch.BatchState, 0, len(s.states))
	for _, state := range s.states {
		out = append(out, state)
	}
	return out, nil
}
