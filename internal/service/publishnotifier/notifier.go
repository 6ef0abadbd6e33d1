// Package publishnotifier fans post outcome notifications out to the
// configured sinks. Delivery is best effort: sink failures are logged and
// never reach the scheduler's critical path.
package publishnotifier

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/draftline/draftline-go/internal/core"
	"github.com/draftline/draftline-go/internal/domain/model"
	"github.com/draftline/draftline-go/internal/observability/notify"
)

// SinkRegistration pairs a sink with a name used in delivery logs.
type SinkRegistration struct {
	Name string
	Sink notify.Sink
}

// Options configures the notifier service.
type Options struct {
	Logger *slog.Logger
	Sinks  []SinkRegistration
}

// Service implements core.NotificationSink over the registered sinks.
type Service struct {
	logger *slog.Logger
	sinks  []SinkRegistration
}

var _ core.NotificationSink = (*Service)(nil)

// NewService constructs a notifier. Nil sinks are dropped.
func NewService(opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "publish_notifier")

	var sinks []SinkRegistration
	for _, entry := range opts.Sinks {
		if entry.Sink == nil {
			continue
		}
		if entry.Name == "" {
			entry.Name = "sink"
		}
		sinks = append(sinks, entry)
	}

	return &Service{logger: logger, sinks: sinks}
}

// Enabled reports whether the notifier has any active sinks.
func (s *Service) Enabled() bool {
	return len(s.sinks) > 0
}

// NotifyPublished delivers a success notification to the post owner.
func (s *Service) NotifyPublished(ctx context.Context, ownerID string, post *model.Post) error {
	payload := notify.PostEventPayload{
		PostID:     post.ID,
		OwnerID:    ownerID,
		AccountRef: post.AccountRef,
		Published:  true,
		Severity:   notify.SeverityInfo,
		OccurredAt: time.Now().UTC(),
	}
	if post.ExternalID != nil {
		payload.ExternalID = *post.ExternalID
	}
	s.fanOut(ctx, payload)
	return nil
}

// NotifyFailed delivers a terminal-failure notification to the post owner.
func (s *Service) NotifyFailed(ctx context.Context, ownerID string, post *model.Post, reason string) error {
	s.fanOut(ctx, notify.PostEventPayload{
		PostID:     post.ID,
		OwnerID:    ownerID,
		AccountRef: post.AccountRef,
		Published:  false,
		Error:      reason,
		Severity:   notify.SeverityCritical,
		OccurredAt: time.Now().UTC(),
	})
	return nil
}

func (s *Service) fanOut(ctx context.Context, payload notify.PostEventPayload) {
	if len(s.sinks) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, entry := range s.sinks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := entry.Sink.SendPostEvent(ctx, payload); err != nil {
				s.logger.Error("notification delivery error",
					"sink", entry.Name,
					"post_id", payload.PostID,
					"owner_id", payload.OwnerID,
					"error", err)
			}
		}()
	}
	wg.Wait()
}
