package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/draftline/draftline-go/config"
	"github.com/draftline/draftline-go/internal/adapters/reconcile"
	"github.com/draftline/draftline-go/internal/adapters/scheduler"
)

// ServiceOrchestrationConfig contains configuration for service orchestration.
type ServiceOrchestrationConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// RunServicesWithShutdown starts all enabled services and manages their
// lifecycle. It blocks until a shutdown signal arrives or a service fails;
// either way all services are stopped before it returns.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	enabled, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var schedulerRunner *scheduler.Runner
	if enabled[config.ServiceModeScheduler] {
		schedulerRunner, err = scheduler.NewRunner(scheduler.RunnerOptions{
			Scheduler: cfg.Services.Scheduler,
			Config:    cfg.Config.Scheduler,
			Logger:    logger,
		})
		if err != nil {
			return fmt.Errorf("build scheduler runner: %w", err)
		}
	}

	var reconcileRunner *reconcile.Runner
	if enabled[config.ServiceModeReconciler] {
		reconcileRunner, err = reconcile.NewRunner(reconcile.RunnerOptions{
			Reconciler: cfg.Services.Reconciler,
			Config:     cfg.Config.Reconciler,
			Logger:     logger,
		})
		if err != nil {
			return fmt.Errorf("build reconcile runner: %w", err)
		}
	}

	group, groupCtx := errgroup.WithContext(ctx)

	httpServer := startHTTPServerIfEnabled(cfg, enabled, schedulerRunner, logger)

	if schedulerRunner != nil {
		group.Go(func() error { return schedulerRunner.Run(groupCtx) })
	}
	if reconcileRunner != nil {
		group.Go(func() error { return reconcileRunner.Run(groupCtx) })
	}

	// Block until a signal cancels ctx or a background service fails.
	<-groupCtx.Done()
	stop()

	if httpServer != nil {
		if shutdownErr := ShutdownHTTPServer(ShutdownConfig{
			Context: context.Background(),
			Server:  httpServer,
			Grace:   cfg.Config.HTTP.ShutdownGrace,
			Logger:  logger,
		}); shutdownErr != nil {
			logger.Error("HTTP shutdown failed", "error", shutdownErr)
		}
	}

	if waitErr := group.Wait(); waitErr != nil && !errors.Is(waitErr, context.Canceled) {
		return waitErr
	}

	logger.Info("all services stopped")
	return nil
}

func startHTTPServerIfEnabled(
	cfg *ServiceOrchestrationConfig,
	enabled map[config.ServiceMode]bool,
	schedulerRunner *scheduler.Runner,
	logger *slog.Logger,
) *http.Server {
	if !enabled[config.ServiceModeHTTP] {
		return nil
	}

	serverCfg := &HTTPServerConfig{
		Config:   cfg.Config,
		Services: cfg.Services,
		Logger:   logger,
	}
	if schedulerRunner != nil {
		serverCfg.TickRunner = schedulerRunner
	}
	return StartHTTPServer(serverCfg)
}
