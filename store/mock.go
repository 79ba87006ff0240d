package store

import (
	"context"
	"sync"

	"github.com/getpup/preprocessing-orchestrator"
)

var _ BatchStore = (*MockBatchStore)(nil)

// MockBatchStore is a configurable mock implementation of BatchStore for
// use in tests. It allows setting up expected return values, tracking
// method calls, and injecting errors for testing error paths.
type MockBatchStore struct {
	mu sync.Mutex

	CreateFunc func(ctx context.Context, state batch.BatchState) error
	GetFunc    func(ctx context.Context, batchID string) (batch.BatchState, error)
	UpdateFunc func(ctx context.Context, state batch.BatchState) error
	DeleteFunc func(ctx context.Context, batchID string) error
	ListFunc   func(ctx context.Context) ([]batch.BatchState, error)

	states map[string]batch.BatchState

	CreateCalls []batch.BatchState
	GetCalls    []string
	UpdateCalls []batch.BatchState
	DeleteCalls []string
	ListCalls   int
}

// NewMockBatchStore creates a new mock store backed by an in-memory map,
// used when a test needs real Create/Get/Update round-tripping without
// exercising the default error paths of the Func overrides.
func NewMockBatchStore() *MockBatchStore {
	return &MockBatchStore{states: make(map[string]batch.BatchState)}
}

// Create implements BatchStore.
func (m *MockBatchStore) Create(ctx context.Context, state batch.BatchState) error {
	m.mu.Lock()
	m.CreateCalls = append(m.CreateCalls, state)
	m.mu.Unlock()

	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, state)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.states[state.BatchID]; ok {
		return batch.ErrBatchExists
	}
	m.states[state.BatchID] = state
	return nil
}

// Get implements BatchStore.
func (m *MockBatchStore) Get(ctx context.Context, batchID string) (batch.BatchState, error) {
	m.mu.Lock()
	m.GetCalls = append(m.GetCalls, batchID)
	m.mu.Unlock()

	if m.GetFunc != nil {
		return m.GetFunc(ctx, batchID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.states[batchID]
	if !ok {
		return batch.BatchState{}, batch.ErrBatchNotFound
	}
	return state, nil
}

// Update implements BatchStore.
func (m *MockBatchStore) Update(ctx context.Context, state batch.BatchState) error {
	m.mu.Lock()
	m.UpdateCalls = append(m.UpdateCalls, state)
	m.mu.Unlock()

	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, state)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.states[state.BatchID]; !ok {
		return batch.ErrBatchNotFound
	}
	m.states[state.BatchID] = state
	return nil
}

// Delete implements BatchStore.
func (m *MockBatchStore) Delete(ctx context.Context, batchID string) error {
	m.mu.Lock()
	m.DeleteCalls = append(m.DeleteCalls, batchID)
	m.mu.Unlock()

	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, batchID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.states[batchID]; !ok {
		return batch.ErrBatchNotFound
	}
	delete(m.states, batchID)
	return nil
}

// List implements BatchStore.
func (m *MockBatchStore) List(ctx context.Context) ([]batch.BatchState, error) {
	m.mu.Lock()
	m.ListCalls++
	m.mu.Unlock()

	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]batch.BatchState, 0, len(m.states))
	for _, state := range m.states {
		out = append(out, state)
	}
	return out, nil
}

// Reset clears all call tracking data and stored state.
func (m *MockBatchStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.states = make(map[string]batch.BatchState)
	m.CreateCalls = nil
	m.GetCalls = nil
	m.UpdateCalls = nil
	m.DeleteCalls = nil
	m.ListCalls = 0
}
