// Package core defines the ports between the scheduling services and
// their collaborators (hexagonal architecture). Services depend on these
// interfaces, never on concrete adapters.
package core

import (
	"context"
	"time"

	"github.com/draftline/draftline-go/internal/domain/model"
)

// PostRepository is the authoritative record store for posts. Status
// written here is the only trustworthy indicator of a post's real-world
// state; the queue store is a secondary dispatch index over it.
type PostRepository interface {
	Create(ctx context.Context, req *model.CreatePostRequest) (*model.Post, error)
	GetByID(ctx context.Context, id string) (*model.Post, error)
	Update(ctx context.Context, id string, req model.UpdatePostRequest) (*model.Post, error)
	Delete(ctx context.Context, id string) (bool, error)
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*model.Post, error)

	// ListScheduled returns posts with status=scheduled and retry_count
	// below the cap, for reconciliation.
	ListScheduled(ctx context.Context, retryCountBelow, limit int) ([]*model.Post, error)

	// MarkPublished transitions scheduled→published. Returns false when the
	// post is missing or no longer scheduled.
	MarkPublished(ctx context.Context, params MarkPublishedParams) (bool, error)

	// MarkRetrying bumps retry_count and records the failure reason while
	// keeping status=scheduled.
	MarkRetrying(ctx context.Context, params MarkRetryingParams) (bool, error)

	// MarkFailed transitions scheduled→failed. Terminal.
	MarkFailed(ctx context.Context, params MarkFailedParams) (bool, error)

	// ResetForReschedule clears failure_reason and retry_count and sets
	// status back to scheduled (user re-scheduling a failed post).
	ResetForReschedule(ctx context.Context, id string, scheduledAt time.Time) (*model.Post, error)
}

// MarkPublishedParams groups parameters for PostRepository.MarkPublished.
type MarkPublishedParams struct {
	ID          string
	ExternalID  string
	PublishedAt time.Time
}

// MarkRetryingParams groups parameters for PostRepository.MarkRetrying.
type MarkRetryingParams struct {
	ID            string
	RetryCount    int
	FailureReason string
}

// MarkFailedParams groups parameters for PostRepository.MarkFailed.
type MarkFailedParams struct {
	ID            string
	RetryCount    int
	FailureReason string
}

// QueueStore is the durable time-ordered dispatch index plus payload map.
// All operations are idempotent on id; Add upserts the score in place so
// a job id never has two live entries.
type QueueStore interface {
	Add(ctx context.Context, job model.QueueJob) error
	// GetReady returns up to limit jobs with score <= now, earliest-due
	// first. It does not remove them.
	GetReady(ctx context.Context, now time.Time, limit int) ([]model.QueueJob, error)
	Remove(ctx context.Context, id string) error
	// Reschedule updates the score only; the payload is untouched.
	Reschedule(ctx context.Context, id string, scheduledAt time.Time) error
	// MoveToDeadLetter copies the payload (with reason and failure time
	// attached) into the dead-letter store, then removes the live entry.
	MoveToDeadLetter(ctx context.Context, id, reason string) error
	Exists(ctx context.Context, id string) (bool, error)
	Stats(ctx context.Context, now time.Time) (model.QueueStats, error)
	// DeadLetters returns up to limit dead-letter entries.
	DeadLetters(ctx context.Context, limit int) ([]model.DeadLetterEntry, error)
	// RemoveDeadLetter drops a dead-letter entry (admin requeue path).
	RemoveDeadLetter(ctx context.Context, id string) (bool, error)
}

// DistributedLock is the short-lived mutual-exclusion token shared by all
// scheduler instances. Acquisition is a single atomic create-if-absent
// with expiry; there is no fencing token, so a holder delayed past its
// TTL can briefly overlap with the next holder. Accepted risk, mitigated
// by duplicate-submission recovery.
type DistributedLock interface {
	// TryAcquire returns (false, nil) on contention; contention is not an error.
	TryAcquire(ctx context.Context, holderID string, ttl time.Duration) (bool, error)
	// Release is best effort; an unreleased lock expires with its TTL.
	Release(ctx context.Context, holderID string) error
}

// PublishGateway performs the single external publish call. Failures are
// reported as errors whose text carries the provider's classification
// signal (duplicate / auth / transient).
type PublishGateway interface {
	Publish(ctx context.Context, accountRef, content string) (externalID string, err error)
}

// NotificationSink delivers terminal-outcome notifications to the post
// owner. Best effort: callers log failures and never propagate them.
type NotificationSink interface {
	NotifyPublished(ctx context.Context, ownerID string, post *model.Post) error
	NotifyFailed(ctx context.Context, ownerID string, post *model.Post, reason string) error
}

// PublicationScheduler is the scheduler service surface consumed by the
// runner loop and the ops endpoints.
type PublicationScheduler interface {
	// Tick runs one locking pass over the ready batch. Returns the number
	// of jobs processed; (0, nil) when the lock was contended.
	Tick(ctx context.Context, now time.Time) (int, error)
	// Status reports the operational snapshot.
	Status(ctx context.Context) (model.SchedulerStatus, error)
	// SetActive records whether a runner loop is driving this scheduler.
	SetActive(active bool)
}

// Reconciler repairs drift between the record store and the queue store.
type Reconciler interface {
	// Reconcile re-inserts scheduled records missing from the queue.
	// Idempotent: a second run inserts nothing new.
	Reconcile(ctx context.Context) (int, error)
}
