package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/draftline/draftline-go/config"
	"github.com/draftline/draftline-go/internal/core"
	"github.com/draftline/draftline-go/internal/domain/model"
	"github.com/draftline/draftline-go/internal/domain/publish"
	apperrors "github.com/draftline/draftline-go/internal/errors"
	"github.com/draftline/draftline-go/internal/observability/metrics"
	"github.com/draftline/draftline-go/internal/observability/statsd"
)

// SchedulerService implements core.PublicationScheduler. One Tick is one
// locking pass: acquire the shared lock, read the ready batch, publish
// each job sequentially, apply exactly one transition per job, release.
// Lock contention is a silent skip so N replicas can poll on the same
// interval.
type SchedulerService struct {
	posts    core.PostRepository
	queue    core.QueueStore
	lock     core.DistributedLock
	gateway  core.PublishGateway
	notifier core.NotificationSink
	resolver *publish.Resolver
	metrics  statsd.Sink
	logger   *slog.Logger
	cfg      config.SchedulerConfig

	// holderID identifies this instance in the lock for its whole lifetime.
	holderID   string
	active     atomic.Bool
	processing atomic.Bool
}

// SchedulerServiceOptions holds the dependencies for creating a SchedulerService.
type SchedulerServiceOptions struct {
	Posts    core.PostRepository
	Queue    core.QueueStore
	Lock     core.DistributedLock
	Gateway  core.PublishGateway
	Notifier core.NotificationSink
	Metrics  statsd.Sink
	Logger   *slog.Logger
	Config   config.SchedulerConfig
}

// NewSchedulerService creates a SchedulerService with the given dependencies.
func NewSchedulerService(opts SchedulerServiceOptions) *SchedulerService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := opts.Config
	cfg.Sanitize()

	return &SchedulerService{
		posts:    opts.Posts,
		queue:    opts.Queue,
		lock:     opts.Lock,
		gateway:  opts.Gateway,
		notifier: opts.Notifier,
		resolver: publish.NewResolver(publish.ResolverOptions{
			MaxRetries: cfg.MaxRetries,
			RetryDelay: cfg.RetryDelay,
		}),
		metrics:  opts.Metrics,
		logger:   logger.With("component", "scheduler"),
		cfg:      cfg,
		holderID: uuid.NewString(),
	}
}

// SetActive records whether the runner loop is ticking. Surfaced via Status.
func (s *SchedulerService) SetActive(active bool) {
	s.active.Store(active)
}

// HolderID returns this instance's lock holder identity.
func (s *SchedulerService) HolderID() string {
	return s.holderID
}

// Tick runs one locking pass. Returns (0, nil) when another instance
// holds the lock.
func (s *SchedulerService) Tick(ctx context.Context, now time.Time) (int, error) {
	started := time.Now()

	acquired, err := s.lock.TryAcquire(ctx, s.holderID, s.cfg.LockTTL)
	if err != nil {
		metrics.EmitSchedulerTick(s.metrics, metrics.TickMetric{Err: err, Duration: time.Since(started)})
		return 0, fmt.Errorf("acquire scheduler lock: %w", err)
	}
	if !acquired {
		metrics.EmitSchedulerTick(s.metrics, metrics.TickMetric{Acquired: false, Duration: time.Since(started)})
		return 0, nil
	}
	defer func() {
		if releaseErr := s.lock.Release(ctx, s.holderID); releaseErr != nil {
			// Best effort; the TTL reclaims an unreleased lock.
			s.logger.WarnContext(ctx, "scheduler lock release failed", "error", releaseErr)
		}
	}()

	s.processing.Store(true)
	defer s.processing.Store(false)

	processed, tickErr := s.processBatch(ctx, now)
	metrics.EmitSchedulerTick(s.metrics, metrics.TickMetric{
		Processed: processed,
		Acquired:  true,
		Duration:  time.Since(started),
		Err:       tickErr,
	})
	s.emitQueueDepth(ctx, now)
	return processed, tickErr
}

func (s *SchedulerService) processBatch(ctx context.Context, now time.Time) (int, error) {
	jobs, err := s.queue.GetReady(ctx, now, s.cfg.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("read ready batch: %w", err)
	}

	processed := 0
	for _, job := range jobs {
		if ctx.Err() != nil {
			return processed, ctx.Err()
		}
		if jobErr := s.processJob(ctx, job, now); jobErr != nil {
			// One broken job must not starve the rest of the batch.
			s.logger.ErrorContext(ctx, "publish attempt not resolved",
				"post_id", job.ID,
				"error", jobErr)
			continue
		}
		processed++
	}
	return processed, nil
}

// processJob runs one publish attempt and applies its single transition.
func (s *SchedulerService) processJob(ctx context.Context, job model.QueueJob, now time.Time) error {
	post, err := s.posts.GetByID(ctx, job.ID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			// Record gone; the queue entry is an orphan.
			return s.queue.Remove(ctx, job.ID)
		}
		return fmt.Errorf("load post record: %w", err)
	}
	if post.Status != model.PostStatusScheduled {
		// The record moved on (published elsewhere, failed, or withdrawn);
		// the queue copy is stale.
		s.logger.InfoContext(ctx, "dropping stale queue entry",
			"post_id", post.ID,
			"status", string(post.Status))
		return s.queue.Remove(ctx, job.ID)
	}

	attemptStart := time.Now()
	externalID, pubErr := s.gateway.Publish(ctx, post.AccountRef, post.Content)
	resolution := s.resolver.Resolve(pubErr, post.RetryCount, now)

	var applyErr error
	switch resolution.Action {
	case publish.ActionPublish:
		applyErr = s.applyPublished(ctx, post, resolvedExternalID(externalID, resolution))
	case publish.ActionRetry:
		applyErr = s.applyRetry(ctx, post, resolution)
	case publish.ActionDeadLetter:
		applyErr = s.applyDeadLetter(ctx, post, resolution)
	}

	s.emitAttempt(pubErr, resolution, applyErr, time.Since(attemptStart))
	return applyErr
}

func resolvedExternalID(fromGateway string, res publish.Resolution) string {
	// A duplicate-submission error carries the id in its text; the
	// gateway response is empty in that case.
	if res.ExternalID != "" {
		return res.ExternalID
	}
	return fromGateway
}

func (s *SchedulerService) applyPublished(ctx context.Context, post *model.Post, externalID string) error {
	publishedAt := time.Now().UTC()
	ok, err := s.posts.MarkPublished(ctx, core.MarkPublishedParams{
		ID:          post.ID,
		ExternalID:  externalID,
		PublishedAt: publishedAt,
	})
	if err != nil {
		return fmt.Errorf("mark published: %w", err)
	}
	if removeErr := s.queue.Remove(ctx, post.ID); removeErr != nil {
		return fmt.Errorf("remove published entry: %w", removeErr)
	}
	if !ok {
		// Lost a race with a concurrent transition; the record already
		// says something else, so no notification from this pass.
		return nil
	}

	post.Status = model.PostStatusPublished
	post.ExternalID = &externalID
	post.PublishedAt = &publishedAt
	s.notifyPublished(ctx, post)

	s.logger.InfoContext(ctx, "post published",
		"post_id", post.ID,
		"external_id", externalID)
	return nil
}

func (s *SchedulerService) applyRetry(ctx context.Context, post *model.Post, res publish.Resolution) error {
	ok, err := s.posts.MarkRetrying(ctx, core.MarkRetryingParams{
		ID:            post.ID,
		RetryCount:    res.RetryCount,
		FailureReason: res.Reason,
	})
	if err != nil {
		return fmt.Errorf("mark retrying: %w", err)
	}
	if !ok {
		return s.queue.Remove(ctx, post.ID)
	}

	// Re-add instead of score-only reschedule so the payload's retry
	// count stays in sync with the record.
	job := jobFromPost(post)
	job.RetryCount = res.RetryCount
	job.ScheduledAt = res.RescheduleAt
	if addErr := s.queue.Add(ctx, job); addErr != nil {
		return fmt.Errorf("reschedule entry: %w", addErr)
	}

	s.logger.WarnContext(ctx, "publish attempt failed, retrying",
		"post_id", post.ID,
		"retry_count", res.RetryCount,
		"next_attempt", res.RescheduleAt,
		"reason", res.Reason)
	return nil
}

func (s *SchedulerService) applyDeadLetter(ctx context.Context, post *model.Post, res publish.Resolution) error {
	ok, err := s.posts.MarkFailed(ctx, core.MarkFailedParams{
		ID:            post.ID,
		RetryCount:    res.RetryCount,
		FailureReason: res.Reason,
	})
	if err != nil {
		return fmt.Errorf("mark failed: %w", err)
	}
	if !ok {
		// Lost a race with a concurrent transition; the record is no
		// longer scheduled, so the entry is stale rather than dead.
		return s.queue.Remove(ctx, post.ID)
	}
	if moveErr := s.queue.MoveToDeadLetter(ctx, post.ID, res.Reason); moveErr != nil {
		return fmt.Errorf("move to dead letter: %w", moveErr)
	}

	post.Status = model.PostStatusFailed
	post.RetryCount = res.RetryCount
	s.notifyFailed(ctx, post, res.Reason)

	s.logger.ErrorContext(ctx, "post failed terminally",
		"post_id", post.ID,
		"outcome", res.Outcome.String(),
		"reason", res.Reason)
	return nil
}

// Notifications are best effort; a sink failure never disturbs the
// transition that was already applied.

func (s *SchedulerService) notifyPublished(ctx context.Context, post *model.Post) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyPublished(ctx, post.OwnerID, post); err != nil {
		s.logger.WarnContext(ctx, "publish notification failed",
			"post_id", post.ID,
			"error", err)
	}
}

func (s *SchedulerService) notifyFailed(ctx context.Context, post *model.Post, reason string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyFailed(ctx, post.OwnerID, post, reason); err != nil {
		s.logger.WarnContext(ctx, "failure notification failed",
			"post_id", post.ID,
			"error", err)
	}
}

func (s *SchedulerService) emitAttempt(pubErr error, res publish.Resolution, applyErr error, elapsed time.Duration) {
	result := metrics.ResultSuccess
	if applyErr != nil {
		result = metrics.ResultError
	}

	action := "publish"
	switch res.Action {
	case publish.ActionRetry:
		action = "retry"
	case publish.ActionDeadLetter:
		action = "dead_letter"
	}

	outcome := ""
	if pubErr != nil {
		outcome = res.Outcome.String()
	}

	metrics.EmitPublishAttempt(s.metrics, metrics.PublishMetric{
		Outcome:  outcome,
		Action:   action,
		Result:   result,
		Duration: elapsed,
		Err:      applyErr,
	})
}

func (s *SchedulerService) emitQueueDepth(ctx context.Context, now time.Time) {
	if s.metrics == nil {
		return
	}
	stats, err := s.queue.Stats(ctx, now)
	if err != nil {
		return
	}
	metrics.EmitQueueDepth(s.metrics, stats.Pending, stats.Ready, stats.Dead)
}

// Status reports the operational snapshot for the ops endpoints.
func (s *SchedulerService) Status(ctx context.Context) (model.SchedulerStatus, error) {
	stats, err := s.queue.Stats(ctx, time.Now())
	if err != nil {
		return model.SchedulerStatus{}, fmt.Errorf("queue stats: %w", err)
	}
	return model.SchedulerStatus{
		Active:     s.active.Load(),
		Processing: s.processing.Load(),
		Queue:      stats,
	}, nil
}

var _ core.PublicationScheduler = (*SchedulerService)(nil)
