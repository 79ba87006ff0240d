// Package cache wraps a store.BatchStore with a short-lived read cache, so
// a hot /status/{batch_id} poller does not hit the backing database on
// every request. Writes go straight through and evict the cached entry.
package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/getpup/preprocessing-orchestrator"
	"github.com/getpup/preprocessing-orchestrator/store"
)

// DefaultTTL is how long a cached BatchState is served before the next Get
// falls through to the backing store.
const DefaultTTL = 2 * time.Second

// Store wraps a store.BatchStore, caching Get results for a short TTL and
// invalidating on every Create/Update/Delete.
type Store struct {
	inner store.BatchStore
	cache *gocache.Cache
}

var _ store.BatchStore = (*Store)(nil)

// New wraps inner with a read cache using the given TTL. A TTL of zero
// uses DefaultTTL.
func New(inner store.BatchStore, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		inner: inner,
		cache: gocache.New(ttl, 2*ttl),
	}
}

// Create implements store.BatchStore.
func (s *Store) Create(ctx context.Context, state batch.BatchState) error {
	if err := s.inner.Create(ctx, state); err != nil {
		return err
	}
	s.cache.Delete(state.BatchID)
	return nil
}

// Get implements store.BatchStore, serving from cache when present.
func (s *Store) Get(ctx context.Context, batchID string) (batch.BatchState, error) {
	if cached, ok := s.cache.Get(batchID); ok {
		return cached.(batch.BatchState), nil
	}

	state, err := s.inner.Get(ctx, batchID)
	if err != nil {
		return batch.BatchState{}, err
	}

	s.cache.SetDefault(batchID, state)
	return state, nil
}

// Update implements store.BatchStore, invalidating the cached entry so the
// next Get observes the write.
func (s *Store) Update(ctx context.Context, state batch.BatchState) error {
	if err := s.inner.Update(ctx, state); err != nil {
		return err
	}
	s.cache.Delete(state.BatchID)
	return nil
}

// Delete implements store.BatchStore.
func (s *Store) Delete(ctx context.Context, batchID string) error {
	if err := s.inner.Delete(ctx, batchID); err != nil {
		return err
	}
	s.cache.Delete(batchID)
	return nil
}

// List implements store.BatchStore, always reading through: an inventory
// scan isn't worth caching against the staleness it would introduce.
func (s *Store) List(ctx context.Context) ([]batch.BatchState, error) {
	return s.inner.List(ctx)
}
