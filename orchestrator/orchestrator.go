package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/getpup/preprocessing-orchestrator"
)

// Orchestrator is the Manager owning one batchActor per batch id. It is
// the entrypoint the HTTP surface calls into; all actual state mutation
// happens inside the actors it looks up or lazily creates.
type Orchestrator struct {
	cfg config

	mu     sync.Mutex
	actors map[string]*batchActor
}

// lookupActor resolves batchID to its actor, creating and registering one
// if allowCreate is true and none exists yet. When allowCreate is false
// and the batch is unknown both in memory and in the store, it returns
// (nil, false, nil) rather than spinning up an actor for a batch id that
// does not exist — keeping read/callback traffic against garbage ids from
// growing the actor map unbounded.
func (o *Orchestrator) lookupActor(ctx context.Context, batchID string, allowCreate bool) (*batchActor, bool, error) {
	o.mu.Lock()
	if a, ok := o.actors[batchID]; ok {
		o.mu.Unlock()
		return a, true, nil
	}
	o.mu.Unlock()

	state, err := o.cfg.store.Get(ctx, batchID)
	found := err == nil
	if !found {
		if !errors.Is(err, batch.ErrBatchNotFound) {
			return nil, false, fmt.Errorf("lookup batch %s: %w", batchID, err)
		}
		if !allowCreate {
			return nil, false, nil
		}
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if a, ok := o.actors[batchID]; ok {
		// Raced with another lookup between the unlock above and here.
		return a, true, nil
	}

	a := newBatchActor(o, batchID)
	o.actors[batchID] = a
	o.reportActiveBatchesLocked()

	var initial *batch.BatchState
	if found {
		initial = &state
	}
	go a.run(initial)

	return a, found, nil
}

// reportActiveBatchesLocked updates the active-batches gauge to the
// current in-memory actor count. Callers must hold o.mu.
func (o *Orchestrator) reportActiveBatchesLocked() {
	if c := o.cfg.collector; c != nil {
		c.SetActiveBatches(len(o.actors))
	}
}

// StartBatch implements start_batch: idempotent BatchState creation and
// initial discovery for a newly delivered queue message.
func (o *Orchestrator) StartBatch(ctx context.Context, msg batch.QueueMessage) error {
	if msg.BatchID == "" {
		return fmt.Errorf("%w: batch_id is required", batch.ErrCallbackMalformed)
	}

	a, _, err := o.lookupActor(ctx, msg.BatchID, true)
	if err != nil {
		return err
	}

	reply := a.send(ctx, actorCmd{kind: cmdStart, queueMessage: msg})
	return reply.err
}

// HandleCallback implements handle_callback. Callbacks against a batch id
// this process has never seen and that is absent from the store are
// dropped silently; the HTTP layer still responds 200.
func (o *Orchestrator) HandleCallback(ctx context.Context, batchID, taskID string, payload batch.CallbackPayload) error {
	a, found, err := o.lookupActor(ctx, batchID, false)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}

	reply := a.send(ctx, actorCmd{kind: cmdCallback, taskID: taskID, payload: payload})
	return reply.err
}

// GetStatus implements get_status.
func (o *Orchestrator) GetStatus(ctx context.Context, batchID string) (batch.StatusView, error) {
	a, found, err := o.lookupActor(ctx, batchID, false)
	if err != nil {
		return batch.StatusView{}, err
	}
	if !found {
		return batch.StatusView{}, batch.ErrBatchNotFound
	}

	reply := a.send(ctx, actorCmd{kind: cmdStatus})
	return reply.status, reply.err
}

// AdminReset implements admin_reset.
func (o *Orchestrator) AdminReset(ctx context.Context, batchID string) error {
	a, found, err := o.lookupActor(ctx, batchID, false)
	if err != nil {
		return err
	}
	if !found {
		return batch.ErrBatchNotFound
	}

	reply := a.send(ctx, actorCmd{kind: cmdReset})
	return reply.err
}

// Recover rehydrates an actor for every non-terminal batch found in the
// store, so in-flight batches resume their alarm loop after a process
// restart without waiting for an external trigger (callback or status
// poll) to lazily rehydrate them.
func (o *Orchestrator) Recover(ctx context.Context) error {
	states, err := o.cfg.store.List(ctx)
	if err != nil {
		return fmt.Errorf("recover: %w", err)
	}

	recovered := 0
	for _, state := range states {
		if state.Terminal() {
			continue
		}

		o.mu.Lock()
		_, exists := o.actors[state.BatchID]
		if !exists {
			a := newBatchActor(o, state.BatchID)
			o.actors[state.BatchID] = a
			o.reportActiveBatchesLocked()
			o.mu.Unlock()

			st := state
			go a.run(&st)
			recovered++
			continue
		}
		o.mu.Unlock()
	}

	o.cfg.logger.Info("recovery complete", zap.Int("batches_recovered", recovered))
	return nil
}

// Shutdown stops every in-memory actor's event loop. Outstanding alarms
// are not fired; a subsequent Recover call (on the next process start)
// picks up any batch that was not yet terminal.
func (o *Orchestrator) Shutdown() {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, a := range o.actors {
		close(a.cmds)
	}
	o.actors = make(map[string]*batchActor)
	o.reportActiveBatchesLocked()
}
