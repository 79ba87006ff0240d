package cache

import (
	"context"
	"testing"
	"time"

	"github.com/getpup/preprocessing-orchestrator"
	"github.com/getpup/preprocessing-orchestrator/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_ServesFromCacheWithoutHittingInner(t *testing.T) {
	inner := store.NewMockBatchStore()
	require.NoError(t, inner.Create(context.Background(), batch.BatchState{BatchID: "b1", TasksCompleted: 1}))

	c := New(inner, time.Minute)
	ctx := context.Background()

	first, err := c.Get(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, 1, first.TasksCompleted)

	inner.GetFunc = func(ctx context.Context, batchID string) (batch.BatchState, error) {
		t.Fatal("inner.Get should not be called on a cache hit")
		return batch.BatchState{}, nil
	}

	second, err := c.Get(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, 1, second.TasksCompleted)
}

func TestUpdate_InvalidatesCachedEntry(t *testing.T) {
	inner := store.NewMockBatchStore()
	require.NoError(t, inner.Create(context.Background(), batch.BatchState{BatchID: "b1", TasksCompleted: 1}))

	c := New(inner, time.Minute)
	ctx := context.Background()

	_, err := c.Get(ctx, "b1")
	require.NoError(t, err)

	require.NoError(t, c.Update(ctx, batch.BatchState{BatchID: "b1", TasksCompleted: 5}))

	got, err := c.Get(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, 5, got.TasksCompleted)
}

func TestDelete_InvalidatesCachedEntry(t *testing.T) {
	inner := store.NewMockBatchStore()
	require.NoError(t, inner.Create(context.Background(), batch.BatchState{BatchID: "b1"}))

	c := New(inner, time.Minute)
	ctx := context.Background()

	_, err := c.Get(ctx, "b1")
	require.NoError(t, err)

	require.NoError(t, c.Delete(ctx, "b1"))

	_, err = c.Get(ctx, "b1")
	assert.ErrorIs(t, err, batch.ErrBatchNotFound)
}
