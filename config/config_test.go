package config

import (
	"reflect"
	"testing"
	"time"

	env "github.com/caarlos0/env/v11"
)

func TestParseServices(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    map[ServiceMode]bool
		expectError bool
	}{
		{
			name:  "single service - http",
			input: "http",
			expected: map[ServiceMode]bool{
				ServiceModeHTTP: true,
			},
		},
		{
			name:  "single service - scheduler",
			input: "scheduler",
			expected: map[ServiceMode]bool{
				ServiceModeScheduler: true,
			},
		},
		{
			name:  "all services",
			input: "http,scheduler,reconciler",
			expected: map[ServiceMode]bool{
				ServiceModeHTTP:       true,
				ServiceModeScheduler:  true,
				ServiceModeReconciler: true,
			},
		},
		{
			name:  "services with spaces",
			input: " http , scheduler ",
			expected: map[ServiceMode]bool{
				ServiceModeHTTP:      true,
				ServiceModeScheduler: true,
			},
		},
		{
			name:  "duplicate services",
			input: "http,http,scheduler",
			expected: map[ServiceMode]bool{
				ServiceModeHTTP:      true,
				ServiceModeScheduler: true,
			},
		},
		{
			name:        "empty string",
			input:       "",
			expectError: true,
		},
		{
			name:        "only spaces and commas",
			input:       " , , ",
			expectError: true,
		},
		{
			name:        "invalid service name",
			input:       "http,reaper",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseServices(tt.input)
			if tt.expectError {
				if err == nil {
					t.Fatalf("expected error for input %q, got none", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("ParseServices(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestSchedulerConfigSanitize(t *testing.T) {
	cfg := SchedulerConfig{
		Interval:   50 * time.Millisecond,
		BatchSize:  0,
		MaxRetries: -1,
		RetryDelay: 0,
		LockTTL:    time.Second,
	}
	cfg.Sanitize()

	if cfg.Interval != time.Second {
		t.Errorf("Interval = %v, want floor of 1s", cfg.Interval)
	}
	if cfg.BatchSize != 1 {
		t.Errorf("BatchSize = %d, want 1", cfg.BatchSize)
	}
	if cfg.MaxRetries != 0 {
		t.Errorf("MaxRetries = %d, want 0", cfg.MaxRetries)
	}
	if cfg.RetryDelay != time.Second {
		t.Errorf("RetryDelay = %v, want floor of 1s", cfg.RetryDelay)
	}
	if cfg.LockTTL != 5*time.Second {
		t.Errorf("LockTTL = %v, want floor of 5s", cfg.LockTTL)
	}
}

func TestSchedulerConfigDefaults(t *testing.T) {
	var cfg SchedulerConfig
	if err := env.Parse(&cfg); err != nil {
		t.Fatalf("parse scheduler config: %v", err)
	}
	cfg.Sanitize()

	if cfg.Interval != 60*time.Second {
		t.Errorf("Interval = %v, want 60s", cfg.Interval)
	}
	if cfg.BatchSize != 10 {
		t.Errorf("BatchSize = %d, want 10", cfg.BatchSize)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("MaxRetries = %d, want 3", cfg.MaxRetries)
	}
	if cfg.RetryDelay != 5*time.Minute {
		t.Errorf("RetryDelay = %v, want 5m", cfg.RetryDelay)
	}
}

func TestAppConfigSanitizeDisablesWebhookWithoutURL(t *testing.T) {
	cfg := AppConfig{
		Services: "http",
	}
	cfg.Observability.Notifications.Enabled = true
	cfg.Observability.Notifications.Webhook.Enabled = true
	cfg.Observability.Notifications.Webhook.URL = "   "

	cfg.Sanitize()

	if cfg.Observability.Notifications.Webhook.Enabled {
		t.Error("webhook sink should be disabled when no URL is configured")
	}
}

func TestProviderConfigSanitizeTrimsBaseURL(t *testing.T) {
	cfg := ProviderConfig{BaseURL: " https://api.example.com/ "}
	cfg.Sanitize()

	if cfg.BaseURL != "https://api.example.com" {
		t.Errorf("BaseURL = %q, want trimmed form", cfg.BaseURL)
	}
	if cfg.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s default", cfg.Timeout)
	}
}
