// Package reconcile provides the adapter that runs the queue reconciler:
// one pass at startup, then periodic passes on a cron schedule.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/draftline/draftline-go/config"
	"github.com/draftline/draftline-go/internal/core"
)

// Runner drives the reconciler service.
type Runner struct {
	reconciler core.Reconciler
	cfg        config.ReconcilerConfig
	logger     *slog.Logger
}

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	Reconciler core.Reconciler
	Config     config.ReconcilerConfig
	Logger     *slog.Logger
}

// NewRunner creates a reconciler runner with the given options.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Reconciler == nil {
		return nil, errors.New("reconciler service is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := opts.Config
	cfg.Sanitize()

	// Fail fast on a bad schedule instead of discovering it at AddFunc time.
	if cfg.CronSpec != "" {
		if _, err := cron.ParseStandard(cfg.CronSpec); err != nil {
			return nil, fmt.Errorf("parse reconciler cron spec %q: %w", cfg.CronSpec, err)
		}
	}

	return &Runner{
		reconciler: opts.Reconciler,
		cfg:        cfg,
		logger:     logger.With("component", "reconcile_runner"),
	}, nil
}

// Run performs the startup pass (when configured), then schedules the
// periodic pass and blocks until the context is cancelled. With no cron
// spec and no startup pass this is a no-op that returns immediately.
func (r *Runner) Run(ctx context.Context) error {
	if r.cfg.RunOnStart {
		r.pass(ctx, "startup")
	}

	if r.cfg.CronSpec == "" {
		r.logger.InfoContext(ctx, "periodic reconciliation disabled")
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(r.cfg.CronSpec, func() { r.pass(ctx, "periodic") }); err != nil {
		return fmt.Errorf("schedule reconcile pass: %w", err)
	}

	r.logger.InfoContext(ctx, "starting reconcile runner", "schedule", r.cfg.CronSpec)
	c.Start()
	<-ctx.Done()

	stopCtx := c.Stop()
	// Let an in-flight pass finish before reporting shutdown.
	<-stopCtx.Done()

	r.logger.InfoContext(ctx, "reconcile runner stopping", "reason", ctx.Err())
	if errors.Is(ctx.Err(), context.Canceled) {
		return nil
	}
	return ctx.Err()
}

// RunNow performs a single pass outside the schedule.
func (r *Runner) RunNow(ctx context.Context) (int, error) {
	return r.reconciler.Reconcile(ctx)
}

func (r *Runner) pass(ctx context.Context, kind string) {
	restored, err := r.reconciler.Reconcile(ctx)
	if err != nil {
		r.logger.ErrorContext(ctx, "reconcile pass error", "kind", kind, "error", err)
		return
	}
	if restored > 0 {
		r.logger.WarnContext(ctx, "reconcile pass restored entries", "kind", kind, "restored", restored)
	}
}
