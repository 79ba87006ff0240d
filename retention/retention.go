// Package retention periodically evicts long-terminal BatchStates, an
// allowance beyond the core contract: a batch orchestrator may discard
// state for batches that finished (DONE or ERROR) more than a configured
// window ago, since status queries against them are no longer expected.
package retention

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/getpup/preprocessing-orchestrator"
	"github.com/getpup/preprocessing-orchestrator/logging"
	"github.com/getpup/preprocessing-orchestrator/store"
)

// Sweeper periodically deletes terminal BatchStates older than a TTL,
// scheduled by a cron expression.
type Sweeper struct {
	store  store.BatchStore
	logger logging.Logger
	ttl    time.Duration

	cron *cron.Cron
}

// New creates a Sweeper evicting terminal batches whose UpdatedAt is older
// than ttl, run on the given cron schedule (standard five-field syntax).
func New(st store.BatchStore, logger logging.Logger, schedule string, ttl time.Duration) (*Sweeper, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	s := &Sweeper{store: st, logger: logger, ttl: ttl, cron: cron.New()}

	if _, err := s.cron.AddFunc(schedule, s.sweepOnce); err != nil {
		return nil, fmt.Errorf("retention: invalid cron schedule %q: %w", schedule, err)
	}

	return s, nil
}

// Start begins running the sweep on its schedule. Non-blocking.
func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop halts the schedule, waiting for any in-progress sweep to finish.
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}

// SweepNow runs one eviction pass immediately, outside the schedule.
func (s *Sweeper) SweepNow(ctx context.Context) (int, error) {
	return s.sweep(ctx)
}

func (s *Sweeper) sweepOnce() {
	n, err := s.sweep(context.Background())
	if err != nil {
		s.logger.Error("retention sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Info("retention sweep evicted batches", zap.Int("count", n))
	}
}

func (s *Sweeper) sweep(ctx context.Context) (int, error) {
	states, err := s.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("retention: list: %w", err)
	}

	cutoff := time.Now().Add(-s.ttl)
	evicted := 0
	for _, state := range states {
		if !state.Terminal() || state.UpdatedAt.After(cutoff) {
			continue
		}
		if err := s.store.Delete(ctx, state.BatchID); err != nil {
			if errors.Is(err, batch.ErrBatchNotFound) {
				continue
			}
			return evicted, fmt.Errorf("retention: delete %s: %w", state.BatchID, err)
		}
		evicted++
	}

	return evicted, nil
}
