package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/getpup/preprocessing-orchestrator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreate_NewBatch(t *testing.T) {
	s := New()
	ctx := context.Background()

	err := s.Create(ctx, batch.BatchState{BatchID: "b1", Status: batch.PhaseTag("TIFF_CONVERSION")})
	require.NoError(t, err)

	got, err := s.Get(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, "b1", got.BatchID)
}

func TestCreate_DuplicateReturnsErrBatchExists(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, batch.BatchState{BatchID: "b1"}))
	err := s.Create(ctx, batch.BatchState{BatchID: "b1"})
	assert.ErrorIs(t, err, batch.ErrBatchExists)
}

func TestGet_NotFound(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, batch.ErrBatchNotFound)
}

func TestUpdate_OverwritesExisting(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, batch.BatchState{BatchID: "b1", TasksCompleted: 0}))
	require.NoError(t, s.Update(ctx, batch.BatchState{BatchID: "b1", TasksCompleted: 5}))

	got, err := s.Get(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, 5, got.TasksCompleted)
}

func TestUpdate_NotFoundReturnsErrBatchNotFound(t *testing.T) {
	s := New()
	ctx := context.Background()

	err := s.Update(ctx, batch.BatchState{BatchID: "missing"})
	assert.ErrorIs(t, err, batch.ErrBatchNotFound)
}

func TestDelete_RemovesRecord(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, batch.BatchState{BatchID: "b1"}))
	require.NoError(t, s.Delete(ctx, "b1"))

	_, err := s.Get(ctx, "b1")
	assert.ErrorIs(t, err, batch.ErrBatchNotFound)
}

func TestDelete_NotFoundReturnsErrBatchNotFound(t *testing.T) {
	s := New()
	ctx := context.Background()

	err := s.Delete(ctx, "missing")
	assert.ErrorIs(t, err, batch.ErrBatchNotFound)
}

func TestList_ReturnsAllBatches(t *testing.T) {
	s := New()
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, batch.BatchState{BatchID: "b1"}))
	require.NoError(t, s.Create(ctx, batch.BatchState{BatchID: "b2"}))

	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestList_EmptyStoreReturnsEmptySlice(t *testing.T) {
	s := New()
	all, err := s.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestConcurrentAccess(t *testing.T) {
	s := New()
	ctx := context.Background()
	numBatches := 20

	var wg sync.WaitGroup
	for i := 0; i < numBatches; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := s.Create(ctx, batch.BatchState{BatchID: "b-" + string(rune('a'+i))})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	all, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, numBatches)
}
