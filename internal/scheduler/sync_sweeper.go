package scheduler

import (
	"context"
	"time"

	"estate_crm_backend/platform/logger"
)

const (
	defaultSweepInterval = 5 * time.Minute
	defaultStaleAfter    = 15 * time.Minute
)

// StaleSyncFailer marks sync attempts that never finished as failed.
type StaleSyncFailer interface {
	FailStaleSyncs(ctx context.Context, startedBefore time.Time) (int64, error)
}

// StaleSyncSweeper periodically fails appointments left in "syncing" by a
// worker that died mid-attempt, so that a new attempt can be requested.
type StaleSyncSweeper struct {
	repo       StaleSyncFailer
	log        *logger.Logger
	interval   time.Duration
	staleAfter time.Duration
	now        func() time.Time
}

func NewStaleSyncSweeper(repo StaleSyncFailer, log *logger.Logger, interval, staleAfter time.Duration) *StaleSyncSweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	if staleAfter <= 0 {
		staleAfter = defaultStaleAfter
	}
	if log == nil {
		log = logger.Discard()
	}

	return &StaleSyncSweeper{
		repo:       repo,
		log:        log,
		interval:   interval,
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

func (s *StaleSyncSweeper) Run(ctx context.Context) {
	if s == nil || s.repo == nil {
		return
	}

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *StaleSyncSweeper) sweep(ctx context.Context) {
	failed, err := s.repo.FailStaleSyncs(ctx, s.now().UTC().Add(-s.staleAfter))
	if err != nil {
		s.log.Warn("stale calendar sync sweep failed", "error", err)
		return
	}

	if failed > 0 {
		s.log.Info("marked stale calendar syncs as failed", "count", failed)
	}
}
