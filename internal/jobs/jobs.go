// Package jobs runs the store's periodic housekeeping.
package jobs

import (
	"context"
	"fmt"
	"time"

	"textile-store/internal/config"
	"textile-store/internal/imagestore"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Default schedules.
const (
	PruneSessionsSpec = "@hourly"
	SweepImagesSpec   = "@daily"
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// SessionPruner drops revocation records whose tokens have expired.
type SessionPruner interface {
	PruneRevoked(ctx context.Context) (int64, error)
}

// ImageKeyLister lists the storage keys of images still referenced by
// products.
type ImageKeyLister interface {
	ImageKeys(ctx context.Context, backend string) ([]string, error)
}

// Scheduler owns the cron instance and the housekeeping tasks it runs.
type Scheduler struct {
	sched   *cron.Cron
	pruner  SessionPruner
	sweeper imagestore.Sweeper
	keys    ImageKeyLister
	grace   time.Duration
	timeout time.Duration
	now     func() time.Time
	logger  zerolog.Logger
}

// New registers the housekeeping tasks. The image sweep is only scheduled
// when store can sweep, which is the case for disk-backed uploads.
func New(
	pruner SessionPruner,
	store imagestore.Store,
	keys ImageKeyLister,
	grace time.Duration,
	logger zerolog.Logger,
) (*Scheduler, error) {
	s := &Scheduler{
		sched:   cron.New(cron.WithParser(cronParser)),
		pruner:  pruner,
		keys:    keys,
		grace:   grace,
		timeout: 5 * time.Minute,
		now:     time.Now,
		logger:  logger.With().Str("component", "jobs").Logger(),
	}
	if sweeper, ok := store.(imagestore.Sweeper); ok {
		s.sweeper = sweeper
	}

	if _, err := s.sched.AddFunc(PruneSessionsSpec, s.run("prune-sessions", s.PruneSessions)); err != nil {
		return nil, fmt.Errorf("failed to schedule session pruning: %w", err)
	}
	if s.sweeper != nil {
		if _, err := s.sched.AddFunc(SweepImagesSpec, s.run("sweep-images", s.SweepImages)); err != nil {
			return nil, fmt.Errorf("failed to schedule image sweep: %w", err)
		}
	}

	return s, nil
}

// Entries returns the number of scheduled tasks.
func (s *Scheduler) Entries() int {
	return len(s.sched.Entries())
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.sched.Start()
	s.logger.Info().Int("jobs", s.Entries()).Msg("scheduler started")
}

// Stop stops scheduling new runs and waits for running tasks until ctx is
// done.
func (s *Scheduler) Stop(ctx context.Context) error {
	select {
	case <-s.sched.Stop().Done():
		s.logger.Info().Msg("scheduler stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("failed to stop scheduler: %w", ctx.Err())
	}
}

func (s *Scheduler) run(name string, task func(context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		start := time.Now()
		if err := task(ctx); err != nil {
			s.logger.Error().Err(err).Str("job", name).Msg("job failed")
			return
		}
		s.logger.Debug().Str("job", name).Dur("duration", time.Since(start)).Msg("job finished")
	}
}

// PruneSessions removes expired session revocations.
func (s *Scheduler) PruneSessions(ctx context.Context) error {
	pruned, err := s.pruner.PruneRevoked(ctx)
	if err != nil {
		return err
	}
	if pruned > 0 {
		s.logger.Info().Int64("pruned", pruned).Msg("expired session revocations pruned")
	}
	return nil
}

// SweepImages removes uploaded files no product refers to. Files younger
// than the grace period are kept so that uploads of a product still being
// saved survive.
func (s *Scheduler) SweepImages(ctx context.Context) error {
	if s.sweeper == nil {
		return nil
	}

	keys, err := s.keys.ImageKeys(ctx, config.ImageBackendDisk)
	if err != nil {
		return fmt.Errorf("failed to list referenced images: %w", err)
	}

	removed, err := s.sweeper.Sweep(ctx, keys, s.now().Add(-s.grace))
	if err != nil {
		return fmt.Errorf("failed to sweep images: %w", err)
	}

	s.logger.Info().Int("referenced", len(keys)).Int("removed", removed).Msg("image sweep finished")
	return nil
}
