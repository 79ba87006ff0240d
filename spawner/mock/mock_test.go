package mock

import (
	"context"
	"testing"

	"github.com/getpup/preprocessing-orchestrator/spawner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpawner_DefaultPolicyIsDeterministic(t *testing.T) {
	s := New()
	handle, err := s.Spawn(context.Background(), spawner.MachineSpec{Env: map[string]string{"INPUT_KEY": "a"}})
	require.NoError(t, err)
	assert.Equal(t, "machine-a", handle)
	assert.Equal(t, 1, s.CallCount())
}

func TestSpawner_FailingScriptsTransientErrors(t *testing.T) {
	s := New()
	s.Failing["a"] = 2

	_, err := s.Spawn(context.Background(), spawner.MachineSpec{Env: map[string]string{"INPUT_KEY": "a"}})
	require.Error(t, err)
	var spawnErr *spawner.SpawnError
	require.ErrorAs(t, err, &spawnErr)
	assert.Equal(t, spawner.ClassTransient, spawnErr.Class)

	_, err = s.Spawn(context.Background(), spawner.MachineSpec{Env: map[string]string{"INPUT_KEY": "a"}})
	require.Error(t, err)

	handle, err := s.Spawn(context.Background(), spawner.MachineSpec{Env: map[string]string{"INPUT_KEY": "a"}})
	require.NoError(t, err)
	assert.Equal(t, "machine-a", handle)
}

func TestSpawner_SpawnFuncOverridesDefaultPolicy(t *testing.T) {
	s := New()
	s.SpawnFunc = func(_ context.Context, spec spawner.MachineSpec) (string, error) {
		return "custom-" + spec.Env["INPUT_KEY"], nil
	}

	handle, err := s.Spawn(context.Background(), spawner.MachineSpec{Env: map[string]string{"INPUT_KEY": "z"}})
	require.NoError(t, err)
	assert.Equal(t, "custom-z", handle)
}
