// Package fly implements spawner.Spawner against the Fly Machines API
// named in the orchestrator's external interfaces: one ephemeral,
// auto-destroying machine per task.
package fly

import (
	"context"
	"fmt"
	"time"

	"resty.dev/v3"

	"github.com/getpup/preprocessing-orchestrator/spawner"
)

// DefaultTimeout bounds a single spawn request; a timed-out spawn is
// treated as a transient error, exactly as untimed-out network failures
// are.
const DefaultTimeout = 10 * time.Second

// Spawner requests machines from the Fly Machines API.
type Spawner struct {
	client  *resty.Client
	appName string
}

// Config configures the Fly spawner.
type Config struct {
	// BaseURL is the machine API root, e.g. "https://api.machines.dev".
	BaseURL string

	// AppName is the Fly app new machines are created under.
	AppName string

	// Token is the machine-API bearer token.
	Token string

	// Timeout bounds each spawn request (default DefaultTimeout).
	Timeout time.Duration
}

// New creates a Fly Machines API spawner.
func New(cfg Config) *Spawner {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetAuthToken(cfg.Token).
		SetTimeout(timeout)

	return &Spawner{client: client, appName: cfg.AppName}
}

type machineRequest struct {
	Config machineConfig `json:"config"`
	Region string        `json:"region,omitempty"`
}

type machineConfig struct {
	Image   string            `json:"image"`
	Env     map[string]string `json:"env,omitempty"`
	Restart restartConfig     `json:"restart"`
	Guest   guestConfig       `json:"guest"`
	AutoDestroy bool          `json:"auto_destroy"`
}

type restartConfig struct {
	Policy string `json:"policy"`
}

type guestConfig struct {
	MemoryMB int    `json:"memory_mb"`
	CPUs     int    `json:"cpus"`
	CPUKind  string `json:"cpu_kind"`
}

type machineResponse struct {
	ID string `json:"id"`
}

// Spawn issues POST /v1/apps/{app}/machines and returns the new machine's
// opaque id, or a *spawner.SpawnError classified by the response.
func (s *Spawner) Spawn(ctx context.Context, spec spawner.MachineSpec) (string, error) {
	body := machineRequest{
		Region: spec.Region,
		Config: machineConfig{
			Image:       spec.Image,
			Env:         spec.Env,
			AutoDestroy: spec.AutoDestroy,
			Restart:     restartConfig{Policy: "no"},
			Guest: guestConfig{
				MemoryMB: spec.MemoryMB,
				CPUs:     spec.CPUs,
				CPUKind:  spec.CPUKind,
			},
		},
	}

	var result machineResponse
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		Post(fmt.Sprintf("/v1/apps/%s/machines", s.appName))

	if err != nil {
		return "", &spawner.SpawnError{Class: spawner.ClassTransient, Err: err}
	}

	switch {
	case resp.StatusCode() >= 200 && resp.StatusCode() < 300:
		return result.ID, nil
	case resp.StatusCode() == 429 || resp.StatusCode() >= 500:
		return "", &spawner.SpawnError{
			Class: spawner.ClassTransient,
			Err:   fmt.Errorf("fly: spawn failed with status %d: %s", resp.StatusCode(), resp.String()),
		}
	default:
		return "", &spawner.SpawnError{
			Class: spawner.ClassPermanent,
			Err:   fmt.Errorf("fly: spawn failed with status %d: %s", resp.StatusCode(), resp.String()),
		}
	}
}
