// Package integration_test drives the preprocessing orchestrator through
// its real HTTP surface end to end, the same way a queue consumer and a
// worker's callback would: no shortcuts through orchestrator.Orchestrator
// directly. It uses the in-memory store and a scripted spawner, so unlike
// the teacher's own integration_test package it needs no external
// database and runs as part of the normal test suite.
package integration_test

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/getpup/preprocessing-orchestrator/api"
	"github.com/getpup/preprocessing-orchestrator/logging"
	"github.com/getpup/preprocessing-orchestrator/orchestrator"
	"github.com/getpup/preprocessing-orchestrator/phase"
	mockspawner "github.com/getpup/preprocessing-orchestrator/spawner/mock"
	"github.com/getpup/preprocessing-orchestrator/store/memory"
)

// newTestServer wires an Orchestrator with an in-memory store and a
// scripted spawner behind a real api.Server, and returns an
// httptest.Server fronting it plus the spawner for assertions/scripting.
func newTestServer(t *testing.T) (*httptest.Server, *mockspawner.Spawner) {
	t.Helper()

	registry, err := phase.NewRegistry(
		phase.NewTIFFConversion(phase.ResourceShape{MemoryMB: 256, CPUs: 1}),
		phase.NewThumbnail(phase.ResourceShape{MemoryMB: 128, CPUs: 1}),
	)
	require.NoError(t, err)

	sp := mockspawner.New()

	orch, err := orchestrator.New(
		orchestrator.WithStore(memory.New()),
		orchestrator.WithRegistry(registry),
		orchestrator.WithSpawner(sp),
		orchestrator.WithEnv(phase.Env{OrchestratorURL: "https://orchestrator.example.com", WorkerImage: "worker:latest"}),
		orchestrator.WithAlarmDelayPhase(20*time.Millisecond),
		orchestrator.WithAlarmDelayErrorRetry(20*time.Millisecond),
		orchestrator.WithMaxRetryAttempts(3),
		orchestrator.WithLogger(logging.NewNop()),
	)
	require.NoError(t, err)
	t.Cleanup(orch.Shutdown)

	srv := api.NewServer(orch, logging.NewNop())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return ts, sp
}
