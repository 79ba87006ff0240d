// Package store defines persistence for BatchState: one logical record per
// batch id, keyed by batch_id, holding the full state as JSON. Concurrent
// writers never contend for a given batch id in practice (each batch has a
// single-writer actor), but implementations still guard against races from
// misuse and support process-restart recovery via List.
package store

import (
	"context"

	"github.com/getpup/preprocessing-orchestrator"
)

// BatchStore provides durable persistence for BatchState. Implementations
// must be safe for concurrent access from multiple batch actors, even
// though each batch id is in practice only ever written by one actor at a
// time.
type BatchStore interface {
	// Create persists a brand-new BatchState. Returns batch.ErrBatchExists
	// if a record for this batch id already exists.
	Create(ctx context.Context, state batch.BatchState) error

	// Get returns the current BatchState for a batch id. Returns
	// batch.ErrBatchNotFound if no record exists.
	Get(ctx context.Context, batchID string) (batch.BatchState, error)

	// Update overwrites the persisted BatchState for its batch id. Returns
	// batch.ErrBatchNotFound if no record exists to overwrite.
	Update(ctx context.Context, state batch.BatchState) error

	// Delete removes a batch's record. Returns batch.ErrBatchNotFound if no
	// record exists.
	Delete(ctx context.Context, batchID string) error

	// List returns every persisted BatchState, used at process start to
	// recover in-flight batches and by the retention sweep to find
	// long-terminal ones.
	List(ctx context.Context) ([]batch.BatchState, error)
}
