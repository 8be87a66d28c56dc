package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// StoryPurger deletes stories past their lifetime.
type StoryPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// Retention periodically purges expired stories.
type Retention struct {
	scheduler gocron.Scheduler
	purger    StoryPurger
	interval  time.Duration
	logger    *zap.Logger
}

func NewRetention(purger StoryPurger, interval time.Duration, logger *zap.Logger) (*Retention, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}
	return &Retention{
		scheduler: scheduler,
		purger:    purger,
		interval:  interval,
		logger:    logger.With(zap.String("component", "story_retention")),
	}, nil
}

// Start registers the sweep job, runs it once immediately and then every
// interval.
func (r *Retention) Start() error {
	_, err := r.scheduler.NewJob(
		gocron.DurationJob(r.interval),
		gocron.NewTask(r.sweep),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("schedule story sweep: %w", err)
	}
	r.scheduler.Start()
	r.logger.Info("story retention started", zap.Duration("interval", r.interval))
	return nil
}

func (r *Retention) Stop() error {
	return r.scheduler.Shutdown()
}

func (r *Retention) sweep(ctx context.Context) {
	n, err := r.purger.PurgeExpired(ctx)
	if err != nil {
		r.logger.Error("purge expired stories", zap.Error(err))
		return
	}
	if n > 0 {
		r.logger.Info("purged expired stories", zap.Int64("count", n))
	}
}
