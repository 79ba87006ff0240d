// Package notifier implements the Downstream Notifier external
// collaborator: a single outbound HTTP call fired once when a batch
// reaches DONE, telling an ingest-side listener the batch finalized.
package notifier

import (
	"context"
	"fmt"

	"resty.dev/v3"

	"github.com/getpup/preprocessing-orchestrator"
)

// Notifier is invoked exactly once per batch, after it transitions to DONE.
type Notifier interface {
	NotifyDone(ctx context.Context, state batch.BatchState) error
}

// HTTPNotifier POSTs a completion notice to a fixed downstream URL.
type HTTPNotifier struct {
	client *resty.Client
	url    string
}

// New builds an HTTPNotifier that POSTs to url. An empty url produces a
// Notifier whose NotifyDone is a no-op, for deployments with no downstream
// listener configured.
func New(url string) *HTTPNotifier {
	return &HTTPNotifier{
		client: resty.New(),
		url:    url,
	}
}

// notifyPayload is the body POSTed to the downstream listener.
type notifyPayload struct {
	BatchID        string `json:"batch_id"`
	Status         string `json:"status"`
	TasksTotal     int    `json:"tasks_total"`
	TasksCompleted int    `json:"tasks_completed"`
	TasksFailed    int    `json:"tasks_failed"`
}

// NotifyDone POSTs the batch's final status to the configured URL. A
// non-2xx response or transport error is returned to the caller, which
// logs it; the batch itself has already reached DONE and is not affected.
func (n *HTTPNotifier) NotifyDone(ctx context.Context, state batch.BatchState) error {
	if n.url == "" {
		return nil
	}

	resp, err := n.client.R().
		SetContext(ctx).
		SetBody(notifyPayload{
			BatchID:        state.BatchID,
			Status:         string(state.Status),
			TasksTotal:     state.TasksTotal,
			TasksCompleted: state.TasksCompleted,
			TasksFailed:    state.TasksFailed,
		}).
		Post(n.url)
	if err != nil {
		return fmt.Errorf("notifier: request to %s failed: %w", n.url, err)
	}
	if resp.StatusCode() >= 300 {
		return fmt.Errorf("notifier: %s responded %d: %s", n.url, resp.StatusCode(), resp.String())
	}
	return nil
}

// Nop is a Notifier that does nothing, used when no downstream listener is
// configured and callers want an explicit Notifier value rather than nil
// checks scattered through the orchestrator.
type Nop struct{}

// NotifyDone implements Notifier by doing nothing.
func (Nop) NotifyDone(ctx context.Context, state batch.BatchState) error { return nil }
