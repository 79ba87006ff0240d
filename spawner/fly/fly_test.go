package fly

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getpup/preprocessing-orchestrator/spawner"
)

func TestSpawn_SuccessReturnsMachineID(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/apps/orchestrator-app/machines", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var body machineRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "worker:latest", body.Config.Image)
		assert.True(t, body.Config.AutoDestroy)
		assert.Equal(t, "no", body.Config.Restart.Policy)

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(machineResponse{ID: "machine-123"})
	}))
	defer ts.Close()

	s := New(Config{BaseURL: ts.URL, AppName: "orchestrator-app", Token: "test-token"})

	id, err := s.Spawn(context.Background(), spawner.MachineSpec{
		Image:       "worker:latest",
		AutoDestroy: true,
		MemoryMB:    512,
		CPUs:        1,
		CPUKind:     "shared",
	})
	require.NoError(t, err)
	assert.Equal(t, "machine-123", id)
}

func TestSpawn_ServerErrorIsTransient(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("capacity exceeded"))
	}))
	defer ts.Close()

	s := New(Config{BaseURL: ts.URL, AppName: "orchestrator-app", Token: "test-token"})

	_, err := s.Spawn(context.Background(), spawner.MachineSpec{Image: "worker:latest"})
	require.Error(t, err)

	var spawnErr *spawner.SpawnError
	require.ErrorAs(t, err, &spawnErr)
	assert.Equal(t, spawner.ClassTransient, spawnErr.Class)
}

func TestSpawn_RateLimitedIsTransient(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	s := New(Config{BaseURL: ts.URL, AppName: "orchestrator-app", Token: "test-token"})

	_, err := s.Spawn(context.Background(), spawner.MachineSpec{Image: "worker:latest"})
	require.Error(t, err)

	var spawnErr *spawner.SpawnError
	require.ErrorAs(t, err, &spawnErr)
	assert.Equal(t, spawner.ClassTransient, spawnErr.Class)
}

func TestSpawn_BadRequestIsPermanent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("invalid image reference"))
	}))
	defer ts.Close()

	s := New(Config{BaseURL: ts.URL, AppName: "orchestrator-app", Token: "test-token"})

	_, err := s.Spawn(context.Background(), spawner.MachineSpec{Image: "not-an-image"})
	require.Error(t, err)

	var spawnErr *spawner.SpawnError
	require.ErrorAs(t, err, &spawnErr)
	assert.Equal(t, spawner.ClassPermanent, spawnErr.Class)
}
