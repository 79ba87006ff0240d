package retention

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getpup/preprocessing-orchestrator"
	"github.com/getpup/preprocessing-orchestrator/store/memory"
)

func seedBatch(t *testing.T, st *memory.Store, id string, status batch.PhaseTag, updatedAt time.Time) {
	t.Helper()
	require.NoError(t, st.Create(context.Background(), batch.BatchState{
		BatchID:   id,
		Status:    status,
		UpdatedAt: updatedAt,
	}))
}

func TestSweepNow_EvictsOnlyOldTerminalBatches(t *testing.T) {
	st := memory.New()
	seedBatch(t, st, "old-done", batch.StatusDone, time.Now().Add(-48*time.Hour))
	seedBatch(t, st, "old-error", batch.StatusError, time.Now().Add(-48*time.Hour))
	seedBatch(t, st, "recent-done", batch.StatusDone, time.Now())
	seedBatch(t, st, "in-flight", batch.PhaseTag("TIFF_CONVERSION"), time.Now().Add(-48*time.Hour))

	s, err := New(st, nil, "0 * * * *", 24*time.Hour)
	require.NoError(t, err)

	n, err := s.SweepNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	remaining, err := st.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, remaining, 2)
}

func TestNew_RejectsInvalidCronSchedule(t *testing.T) {
	st := memory.New()
	_, err := New(st, nil, "not a schedule", time.Hour)
	assert.Error(t, err)
}

func TestStartAndStop_RunsWithoutPanicking(t *testing.T) {
	st := memory.New()
	s, err := New(st, nil, "@every 1h", time.Hour)
	require.NoError(t, err)

	s.Start()
	s.Stop()
}
