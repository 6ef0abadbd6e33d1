// Package scheduler provides the adapter that runs the publication
// scheduler loop.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/draftline/draftline-go/config"
	"github.com/draftline/draftline-go/internal/core"
)

// Runner drives the scheduler service on a fixed interval. Every
// instance in the deployment runs one; the distributed lock inside
// Tick decides which instance does the work on each interval.
type Runner struct {
	scheduler core.PublicationScheduler
	interval  time.Duration
	logger    *slog.Logger
}

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	Scheduler core.PublicationScheduler
	Config    config.SchedulerConfig
	Logger    *slog.Logger
}

// NewRunner creates a scheduler runner with the given options.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Scheduler == nil {
		return nil, errors.New("scheduler service is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := opts.Config
	cfg.Sanitize()

	return &Runner{
		scheduler: opts.Scheduler,
		interval:  cfg.Interval,
		logger:    logger.With("component", "scheduler_runner"),
	}, nil
}

// Run starts the tick loop and runs until the context is cancelled.
// Tick errors are logged and the loop keeps going; a broken pass must
// not take the whole instance down.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting scheduler runner", "interval", r.interval)
	r.scheduler.SetActive(true)
	defer r.scheduler.SetActive(false)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "scheduler runner stopping", "reason", ctx.Err())
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case now := <-ticker.C:
			r.tick(ctx, now)
		}
	}
}

// RunNow performs a single pass outside the loop, for the ops endpoint
// that triggers an immediate run.
func (r *Runner) RunNow(ctx context.Context) (int, error) {
	return r.scheduler.Tick(ctx, time.Now())
}

func (r *Runner) tick(ctx context.Context, now time.Time) {
	processed, err := r.scheduler.Tick(ctx, now)
	if err != nil {
		r.logger.ErrorContext(ctx, "scheduler tick error", "error", err)
		return
	}
	if processed > 0 {
		r.logger.InfoContext(ctx, "scheduler tick complete", "processed", processed)
	}
}
