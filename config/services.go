package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServiceMode represents the available service modes.
type ServiceMode string

const (
	// ServiceModeHTTP runs the HTTP server.
	ServiceModeHTTP ServiceMode = "http"
	// ServiceModeScheduler runs the publication scheduler loop.
	ServiceModeScheduler ServiceMode = "scheduler"
	// ServiceModeReconciler runs the queue reconciler (startup pass + periodic repair).
	ServiceModeReconciler ServiceMode = "reconciler"
)

// ValidServiceModes returns all valid service mode names.
func ValidServiceModes() []ServiceMode {
	return []ServiceMode{
		ServiceModeHTTP,
		ServiceModeScheduler,
		ServiceModeReconciler,
	}
}

// ParseServices parses a comma-delimited string of service names and returns the enabled services.
// It validates that all service names are valid and returns an error if any are invalid.
func ParseServices(servicesStr string) (map[ServiceMode]bool, error) {
	services := make(map[ServiceMode]bool)

	if servicesStr == "" {
		return services, errors.New("at least one service must be specified")
	}

	parts := strings.Split(servicesStr, ",")
	for _, part := range parts {
		serviceName := strings.TrimSpace(part)
		if serviceName == "" {
			continue
		}

		mode := ServiceMode(serviceName)
		switch mode {
		case ServiceModeHTTP, ServiceModeScheduler, ServiceModeReconciler:
			services[mode] = true
		default:
			return nil, fmt.Errorf(
				"invalid service name: %q (valid options: http, scheduler, reconciler)",
				serviceName,
			)
		}
	}

	if len(services) == 0 {
		return nil, errors.New("at least one valid service must be specified")
	}

	return services, nil
}

// SchedulerConfig contains publication scheduler configuration.
type SchedulerConfig struct {
	// Interval is the scheduler tick interval.
	Interval time.Duration `env:"SCHEDULER_INTERVAL" envDefault:"60s"`

	// BatchSize is the maximum number of ready jobs processed per tick.
	BatchSize int `env:"SCHEDULER_BATCH_SIZE" envDefault:"10"`

	// MaxRetries is the retry budget for transiently failing publish attempts.
	MaxRetries int `env:"SCHEDULER_MAX_RETRIES" envDefault:"3"`

	// RetryDelay is the fixed delay applied when a job is rescheduled after
	// a transient failure.
	RetryDelay time.Duration `env:"SCHEDULER_RETRY_DELAY" envDefault:"5m"`

	// LockTTL is the expiry on the distributed tick lock. A holder that dies
	// mid-batch is superseded once the TTL lapses.
	LockTTL time.Duration `env:"SCHEDULER_LOCK_TTL" envDefault:"2m"`
}

// Sanitize applies guardrails to scheduler configuration values.
func (s *SchedulerConfig) Sanitize() {
	if s.Interval < time.Second {
		s.Interval = time.Second
	}
	if s.BatchSize < 1 {
		s.BatchSize = 1
	}
	if s.MaxRetries < 0 {
		s.MaxRetries = 0
	}
	if s.RetryDelay < time.Second {
		s.RetryDelay = time.Second
	}
	// The lock must outlive a worst-case batch; keep a sane floor.
	if s.LockTTL < 5*time.Second {
		s.LockTTL = 5 * time.Second
	}
}

// ReconcilerConfig contains queue reconciler configuration.
type ReconcilerConfig struct {
	// RunOnStart controls the startup reconciliation pass.
	RunOnStart bool `env:"RECONCILER_RUN_ON_START" envDefault:"true"`

	// CronSpec is the periodic repair schedule (robfig/cron format).
	// Empty disables the periodic pass.
	CronSpec string `env:"RECONCILER_CRON" envDefault:"@hourly"`

	// BatchSize bounds how many scheduled records are scanned per pass.
	BatchSize int `env:"RECONCILER_BATCH_SIZE" envDefault:"500"`
}

// Sanitize applies guardrails to reconciler configuration values.
func (r *ReconcilerConfig) Sanitize() {
	r.CronSpec = strings.TrimSpace(r.CronSpec)
	if r.BatchSize < 1 {
		r.BatchSize = 1
	}
}

// ProviderConfig contains configuration for the external publishing provider.
type ProviderConfig struct {
	// BaseURL is the provider API base URL.
	BaseURL string `env:"PROVIDER_BASE_URL" envDefault:"https://api.publisher.example.com"`

	// Timeout bounds a single publish call.
	Timeout time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"30s"`

	// AccessToken is a static bearer token used when no token source is wired.
	// Token exchange/refresh lives outside this service.
	AccessToken string `env:"PROVIDER_ACCESS_TOKEN"`
}

// Sanitize applies guardrails to provider configuration values.
func (p *ProviderConfig) Sanitize() {
	p.BaseURL = strings.TrimRight(strings.TrimSpace(p.BaseURL), "/")
	if p.Timeout <= 0 {
		p.Timeout = 30 * time.Second
	}
}
