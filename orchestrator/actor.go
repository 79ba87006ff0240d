package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/getpup/preprocessing-orchestrator"
	"github.com/getpup/preprocessing-orchestrator/phase"
)

type cmdKind int

const (
	cmdStart cmdKind = iota
	cmdCallback
	cmdStatus
	cmdReset
)

type actorCmd struct {
	kind cmdKind

	queueMessage batch.QueueMessage
	taskID       string
	payload      batch.CallbackPayload

	reply chan actorReply
}

type actorReply struct {
	status batch.StatusView
	err    error
}

// batchActor is the single-writer serialized execution domain for one
// batch id: every mutation of its BatchState happens on this goroutine,
// driven either by a command arriving on cmds or by its own alarm timer.
type batchActor struct {
	batchID string
	mgr     *Orchestrator

	state  batch.BatchState
	exists bool

	// phaseStartedAt times the current phase for PhaseDuration observations
	// only; it is not persisted, so a process restart simply starts timing
	// the in-flight phase over rather than losing an in-progress batch.
	phaseStartedAt time.Time

	cmds  chan actorCmd
	timer *time.Timer
}

func newBatchActor(mgr *Orchestrator, batchID string) *batchActor {
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	return &batchActor{
		batchID: batchID,
		mgr:     mgr,
		cmds:    make(chan actorCmd),
		timer:   timer,
	}
}

// send delivers cmd to the actor and blocks for its reply, honoring ctx
// cancellation on both the send and the receive.
func (a *batchActor) send(ctx context.Context, cmd actorCmd) actorReply {
	cmd.reply = make(chan actorReply, 1)

	select {
	case a.cmds <- cmd:
	case <-ctx.Done():
		return actorReply{err: ctx.Err()}
	}

	select {
	case reply := <-cmd.reply:
		return reply
	case <-ctx.Done():
		return actorReply{err: ctx.Err()}
	}
}

// run is the actor's event loop. If initial is non-nil, the actor
// bootstraps from a previously persisted BatchState (process restart or
// lazy rehydration) and resumes any outstanding alarm before entering the
// loop.
func (a *batchActor) run(initial *batch.BatchState) {
	ctx := context.Background()

	if initial != nil {
		a.state = *initial
		a.exists = true
		if !a.state.Terminal() && !a.state.NextAlarmAt.IsZero() {
			delay := time.Until(a.state.NextAlarmAt)
			if delay < 0 {
				delay = 0
			}
			a.scheduleAlarm(delay)
		}
	}

	for {
		select {
		case cmd, ok := <-a.cmds:
			if !ok {
				a.cancelAlarm()
				return
			}
			a.dispatch(ctx, cmd)
		case <-a.timer.C:
			a.fireAlarm(ctx)
		}
	}
}

func (a *batchActor) dispatch(ctx context.Context, cmd actorCmd) {
	var reply actorReply
	switch cmd.kind {
	case cmdStart:
		reply.err = a.doStart(ctx, cmd.queueMessage)
	case cmdCallback:
		reply.err = a.doCallback(ctx, cmd.taskID, cmd.payload)
	case cmdStatus:
		reply.status, reply.err = a.doStatus()
	case cmdReset:
		reply.err = a.doReset(ctx)
	}
	cmd.reply <- reply
}

// doStart implements start_batch (spec §4.4): idempotent batch creation,
// initial discovery, and the immediate-DONE short circuit for an empty
// discovery result.
func (a *batchActor) doStart(ctx context.Context, msg batch.QueueMessage) error {
	if a.exists {
		a.mgr.cfg.logger.Info("start_batch: batch already exists, no-op",
			zap.String("batch_id", a.batchID))
		return nil
	}

	now := time.Now()
	a.state = batch.BatchState{
		BatchID:      a.batchID,
		QueueMessage: msg,
		Tasks:        map[string]batch.Task{},
		StartedAt:    now,
		UpdatedAt:    now,
	}

	firstPhase := a.mgr.cfg.registry.First()
	tasks, err := firstPhase.Discover(ctx, &a.state, nil)
	if err != nil {
		return fmt.Errorf("start_batch: discover: %w", err)
	}

	a.state.Tasks = tasksToMap(tasks)
	a.state.TasksTotal = len(tasks)
	a.state.CurrentPhase = firstPhase.Tag()
	a.state.Status = firstPhase.Tag()
	a.phaseStartedAt = now

	if err := a.mgr.cfg.store.Create(ctx, a.state); err != nil {
		if errors.Is(err, batch.ErrBatchExists) {
			// Lost a race with another lookup that created this batch
			// concurrently (e.g. duplicate queue delivery handled by two
			// goroutines before either registered in the in-memory map).
			state, getErr := a.mgr.cfg.store.Get(ctx, a.batchID)
			if getErr != nil {
				return fmt.Errorf("start_batch: %w", getErr)
			}
			a.state = state
			a.exists = true
			return nil
		}
		return fmt.Errorf("start_batch: %w", err)
	}
	a.exists = true

	if c := a.mgr.cfg.collector; c != nil {
		c.IncBatchStarted()
	}

	if len(tasks) == 0 {
		a.advancePhase(ctx, firstPhase)
		return nil
	}

	a.scheduleAlarm(0)
	a.touch()
	return a.persist(ctx)
}

// doCallback implements handle_callback (spec §4.4).
func (a *batchActor) doCallback(ctx context.Context, taskID string, payload batch.CallbackPayload) error {
	if !a.exists || a.state.Terminal() {
		// Unknown batch, or terminal: drop. The caller still responds 200.
		return nil
	}

	currentPhase, err := a.mgr.cfg.registry.Get(a.state.CurrentPhase)
	if err != nil {
		return a.fail(ctx, fmt.Errorf("%w: %v", batch.ErrInvariantViolation, err))
	}

	if _, ok := a.state.Tasks[taskID]; !ok {
		// Late/duplicate callback against a task no longer tracked (after
		// a phase transition or admin reset). Drop without mutating state.
		return nil
	}

	if err := currentPhase.ReconcileCallback(&a.state, taskID, payload, a.mgr.cfg.maxTaskRetries); err != nil {
		if errors.Is(err, batch.ErrTaskNotFound) {
			return nil
		}
		return fmt.Errorf("%w: %v", batch.ErrCallbackMalformed, err)
	}

	if c := a.mgr.cfg.collector; c != nil {
		c.IncCallbackReceived(string(payload.Status))
		switch a.state.Tasks[taskID].Status {
		case batch.TaskCompleted:
			c.IncTaskCompleted(string(currentPhase.Tag()))
		case batch.TaskFailed:
			c.IncTaskFailed(string(currentPhase.Tag()))
		}
	}

	a.touch()
	if err := a.persist(ctx); err != nil {
		return err
	}

	if a.allTerminal() {
		a.advancePhase(ctx, currentPhase)
		return nil
	}

	if a.state.NextAlarmAt.IsZero() {
		a.scheduleAlarm(a.mgr.cfg.alarmDelayPhase)
	}
	return nil
}

func (a *batchActor) doStatus() (batch.StatusView, error) {
	if !a.exists {
		return batch.StatusView{}, batch.ErrBatchNotFound
	}
	return a.state.ToStatusView(), nil
}

// doReset implements admin_reset (spec §4.4). current_phase_tasks is
// preserved for audit; it is simply no longer acted upon once Status is
// terminal.
func (a *batchActor) doReset(ctx context.Context) error {
	if !a.exists {
		return batch.ErrBatchNotFound
	}
	if a.state.Terminal() {
		return nil
	}

	a.cancelAlarm()
	a.state.Status = batch.StatusError
	a.state.Error = batch.ErrAdminReset.Error()
	a.touch()
	return a.persist(ctx)
}

// fireAlarm implements the internal timer algorithm (spec §4.4, steps 1-5).
func (a *batchActor) fireAlarm(ctx context.Context) {
	if a.state.Terminal() {
		return
	}

	currentPhase, err := a.mgr.cfg.registry.Get(a.state.CurrentPhase)
	if err != nil {
		_ = a.fail(ctx, fmt.Errorf("%w: %v", batch.ErrInvariantViolation, err))
		return
	}

	start := time.Now()
	result, err := currentPhase.ExecuteBatch(ctx, &a.state, a.mgr.cfg.spawner, a.mgr.cfg.env, a.mgr.cfg.batchSizePhase)
	if err != nil {
		_ = a.fail(ctx, fmt.Errorf("%w: execute_batch: %v", batch.ErrInvariantViolation, err))
		return
	}

	if c := a.mgr.cfg.collector; c != nil {
		tag := string(currentPhase.Tag())
		if result.SpawnedCount > 0 {
			c.IncTasksSpawned(tag, result.SpawnedCount)
			c.ObserveSpawnDuration(tag, time.Since(start).Seconds())
		}
		for i := 0; i < result.SpawnErrorCount; i++ {
			c.IncSpawnError(tag)
		}
		c.IncAlarmWake(tag, result.DidSpawnAny)
	}

	if !result.MoreWork {
		a.advancePhase(ctx, currentPhase)
		return
	}

	if result.DidSpawnAny {
		a.state.RetryCount = 0
		a.scheduleAlarm(a.mgr.cfg.alarmDelayPhase)
	} else {
		a.state.RetryCount++
		if a.state.RetryCount > a.mgr.cfg.maxRetryAttempts {
			_ = a.fail(ctx, batch.ErrRetryBudgetExhausted)
			return
		}
		a.scheduleAlarm(a.mgr.cfg.alarmDelayErrorRetry)
	}

	a.touch()
	if err := a.persist(ctx); err != nil {
		a.mgr.cfg.logger.Error("failed to persist batch state after alarm",
			zap.String("batch_id", a.batchID), zap.Error(err))
	}
}

// advancePhase transitions to the phase's successor, or to DONE if there
// is none, per spec §4.4 step 3.
func (a *batchActor) advancePhase(ctx context.Context, current phase.Phase) {
	if c := a.mgr.cfg.collector; c != nil && !a.phaseStartedAt.IsZero() {
		c.ObservePhaseDuration(string(current.Tag()), time.Since(a.phaseStartedAt).Seconds())
	}

	nextTag := current.NextPhase()
	if nextTag == "" {
		now := time.Now()
		a.state.Status = batch.StatusDone
		a.state.CompletedAt = &now
		a.touch()
		if c := a.mgr.cfg.collector; c != nil {
			c.IncBatchCompleted(string(batch.StatusDone))
		}
		if err := a.persist(ctx); err != nil {
			a.mgr.cfg.logger.Error("failed to persist completed batch",
				zap.String("batch_id", a.batchID), zap.Error(err))
		}
		if err := a.mgr.cfg.notifier.NotifyDone(ctx, a.state); err != nil {
			a.mgr.cfg.logger.Error("downstream notify failed",
				zap.String("batch_id", a.batchID), zap.Error(err))
		}
		return
	}

	nextPhase, err := a.mgr.cfg.registry.Get(nextTag)
	if err != nil {
		_ = a.fail(ctx, fmt.Errorf("%w: %v", batch.ErrInvariantViolation, err))
		return
	}

	priorTasks := a.state.Tasks
	tasks, err := nextPhase.Discover(ctx, &a.state, priorTasks)
	if err != nil {
		_ = a.fail(ctx, fmt.Errorf("%w: discover: %v", batch.ErrInvariantViolation, err))
		return
	}

	a.state.Tasks = tasksToMap(tasks)
	a.state.TasksTotal += len(tasks)
	a.state.CurrentPhase = nextTag
	a.state.Status = nextTag
	a.state.RetryCount = 0
	a.phaseStartedAt = time.Now()
	a.touch()

	if err := a.persist(ctx); err != nil {
		a.mgr.cfg.logger.Error("failed to persist phase transition",
			zap.String("batch_id", a.batchID), zap.Error(err))
		return
	}

	if len(tasks) == 0 {
		a.advancePhase(ctx, nextPhase)
		return
	}

	a.scheduleAlarm(0)
}

func (a *batchActor) fail(ctx context.Context, cause error) error {
	a.state.Status = batch.StatusError
	a.state.Error = cause.Error()
	a.touch()
	a.cancelAlarm()
	if err := a.persist(ctx); err != nil {
		a.mgr.cfg.logger.Error("failed to persist error state",
			zap.String("batch_id", a.batchID), zap.Error(err))
	}
	if c := a.mgr.cfg.collector; c != nil {
		c.IncBatchCompleted(string(batch.StatusError))
	}
	return cause
}

func (a *batchActor) allTerminal() bool {
	for _, t := range a.state.Tasks {
		if !t.Status.Terminal() {
			return false
		}
	}
	return true
}

func (a *batchActor) touch() {
	a.state.UpdatedAt = time.Now()
	a.state.Version++
}

func (a *batchActor) persist(ctx context.Context) error {
	if err := a.mgr.cfg.store.Update(ctx, a.state); err != nil {
		return fmt.Errorf("persist batch %s: %w", a.batchID, err)
	}
	return nil
}

// scheduleAlarm arms the actor's timer to fire after delay (treated as
// "immediately" when <= 0), replacing any outstanding alarm.
func (a *batchActor) scheduleAlarm(delay time.Duration) {
	a.cancelAlarm()
	if delay <= 0 {
		delay = time.Millisecond
	}
	a.state.NextAlarmAt = time.Now().Add(delay)
	a.timer.Reset(delay)
}

func (a *batchActor) cancelAlarm() {
	if !a.timer.Stop() {
		select {
		case <-a.timer.C:
		default:
		}
	}
	a.state.NextAlarmAt = time.Time{}
}

func tasksToMap(tasks []batch.Task) map[string]batch.Task {
	m := make(map[string]batch.Task, len(tasks))
	for _, t := range tasks {
		m[t.TaskID] = t
	}
	return m
}
