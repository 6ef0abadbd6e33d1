package bootstrap

import (
	"database/sql"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/draftline/draftline-go/config"
	"github.com/draftline/draftline-go/internal/adapters/provider"
	"github.com/draftline/draftline-go/internal/core"
	"github.com/draftline/draftline-go/internal/data"
	"github.com/draftline/draftline-go/internal/observability/notify/webhook"
	"github.com/draftline/draftline-go/internal/observability/statsd"
	"github.com/draftline/draftline-go/internal/service"
	"github.com/draftline/draftline-go/internal/service/publishnotifier"
)

// ServiceContainer holds all application services.
type ServiceContainer struct {
	Posts      *service.PostService
	Scheduler  *service.SchedulerService
	Reconciler *service.ReconcilerService
	Notifier   *publishnotifier.Service

	Observability ObservabilityContainer
}

// ObservabilityContainer groups shared observability dependencies.
type ObservabilityContainer struct {
	MetricsSink   *statsd.Client
	MetricsConfig config.ObservabilityMetricsConfig
}

// ServiceDeps groups dependencies for service initialization.
type ServiceDeps struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// NewServices wires all application services from shared infrastructure.
// The Redis queue store and lock are wrapped in failover decorators so a
// Redis outage degrades to in-process behavior instead of taking the
// instance down.
func NewServices(deps *ServiceDeps) (ServiceContainer, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := deps.Config

	observability := buildObservability(logger, cfg.Observability)
	notifier := buildNotifier(logger, cfg)

	queue := data.NewFailoverQueueStore(
		data.NewRedisQueueRepo(deps.RedisClient),
		data.NewMemoryQueueRepo(),
		logger,
	)
	lock := data.NewFailoverLock(
		data.NewRedisLockRepo(deps.RedisClient),
		data.NewMemoryLock(),
		logger,
	)
	posts := data.NewPostRepo(deps.DB)

	gateway, err := provider.NewClient(provider.ClientOptions{
		Config: cfg.Provider,
		Logger: logger,
	})
	if err != nil {
		return ServiceContainer{}, err
	}

	var sink core.NotificationSink
	if notifier.Enabled() {
		sink = notifier
	}

	scheduler := service.NewSchedulerService(service.SchedulerServiceOptions{
		Posts:    posts,
		Queue:    queue,
		Lock:     lock,
		Gateway:  gateway,
		Notifier: sink,
		Metrics:  metricsSinkOrNil(observability.MetricsSink),
		Logger:   logger,
		Config:   cfg.Scheduler,
	})

	return ServiceContainer{
		Posts: service.NewPostService(service.PostServiceOptions{
			Posts:  posts,
			Queue:  queue,
			Logger: logger,
		}),
		Scheduler: scheduler,
		Reconciler: service.NewReconcilerService(service.ReconcilerServiceOptions{
			Posts:      posts,
			Queue:      queue,
			Logger:     logger,
			MaxRetries: cfg.Scheduler.MaxRetries,
			BatchSize:  cfg.Reconciler.BatchSize,
		}),
		Notifier:      notifier,
		Observability: observability,
	}, nil
}

// buildObservability configures the metrics adapter.
func buildObservability(logger *slog.Logger, cfg config.ObservabilityConfig) ObservabilityContainer {
	var metricsSink *statsd.Client
	if cfg.Metrics.IsEnabled() {
		client, err := statsd.NewClient(statsd.Config{
			Enabled: true,
			Address: cfg.Metrics.StatsdAddress,
			Prefix:  "draftline",
			Logger:  logger,
		})
		if err != nil {
			logger.Error("failed to initialise statsd client", "error", err)
		} else {
			metricsSink = client
		}
	}

	return ObservabilityContainer{
		MetricsSink:   metricsSink,
		MetricsConfig: cfg.Metrics,
	}
}

// buildNotifier assembles the outcome notifier from the configured sinks.
func buildNotifier(logger *slog.Logger, cfg *config.AppConfig) *publishnotifier.Service {
	var sinks []publishnotifier.SinkRegistration

	notifCfg := cfg.Observability.Notifications
	if notifCfg.Enabled && notifCfg.Webhook.Enabled {
		client, err := webhook.NewClient(webhook.Config{
			URL:        notifCfg.Webhook.URL,
			Source:     notifCfg.Webhook.Source,
			Timeout:    notifCfg.Timeout,
			RetryLimit: notifCfg.RetryLimit,
		})
		if err != nil {
			logger.Error("failed to initialise webhook notifier", "error", err)
		} else {
			sinks = append(sinks, publishnotifier.SinkRegistration{Name: "webhook", Sink: client})
		}
	}

	return publishnotifier.NewService(publishnotifier.Options{
		Logger: logger,
		Sinks:  sinks,
	})
}

// metricsSinkOrNil keeps a typed-nil *statsd.Client out of the Sink interface.
func metricsSinkOrNil(client *statsd.Client) statsd.Sink {
	if client == nil {
		return nil
	}
	return client
}
