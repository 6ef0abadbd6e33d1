package data

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/draftline/draftline-go/internal/core"
	"github.com/draftline/draftline-go/internal/domain/model"
)

// FailoverQueueStore serves queue operations from the primary (Redis)
// store and degrades per-call to the in-memory fallback when the primary
// is unreachable. Durability is lost in degraded mode (a restart drops
// every fallback entry) but the process keeps working. Transitions in
// and out of degraded mode are logged once, not per call.
type FailoverQueueStore struct {
	primary  core.QueueStore
	fallback core.QueueStore
	logger   *slog.Logger
	degraded atomic.Bool
}

// NewFailoverQueueStore wraps primary with the in-memory fallback.
func NewFailoverQueueStore(primary, fallback core.QueueStore, logger *slog.Logger) *FailoverQueueStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FailoverQueueStore{
		primary:  primary,
		fallback: fallback,
		logger:   logger.With("component", "queue_store"),
	}
}

// Degraded reports whether the last operation was served by the fallback.
func (s *FailoverQueueStore) Degraded() bool {
	return s.degraded.Load()
}

// shouldFailover decides whether an error means "primary unreachable"
// rather than a caller mistake. Validation errors and context errors pass
// through; anything else is treated as the store being down.
func shouldFailover(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, errIDRequired) || errors.Is(err, errHolderRequired) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}

func (s *FailoverQueueStore) noteDegraded(ctx context.Context, op string, err error) {
	if s.degraded.CompareAndSwap(false, true) {
		s.logger.WarnContext(ctx, "queue store unreachable, degrading to in-memory fallback (durability lost)",
			"op", op,
			"error", err)
	}
}

func (s *FailoverQueueStore) noteRecovered(ctx context.Context) {
	if s.degraded.CompareAndSwap(true, false) {
		s.logger.InfoContext(ctx, "queue store recovered, primary serving again")
	}
}

// Add upserts into the primary, or the fallback when degraded.
func (s *FailoverQueueStore) Add(ctx context.Context, job model.QueueJob) error {
	err := s.primary.Add(ctx, job)
	if err == nil {
		s.noteRecovered(ctx)
		return nil
	}
	if !shouldFailover(err) {
		return err
	}
	s.noteDegraded(ctx, "add", err)
	return s.fallback.Add(ctx, job)
}

// GetReady reads from the primary, or the fallback when degraded.
func (s *FailoverQueueStore) GetReady(ctx context.Context, now time.Time, limit int) ([]model.QueueJob, error) {
	jobs, err := s.primary.GetReady(ctx, now, limit)
	if err == nil {
		s.noteRecovered(ctx)
		return jobs, nil
	}
	if !shouldFailover(err) {
		return nil, err
	}
	s.noteDegraded(ctx, "get_ready", err)
	return s.fallback.GetReady(ctx, now, limit)
}

// Remove deletes from the primary, or the fallback when degraded.
func (s *FailoverQueueStore) Remove(ctx context.Context, id string) error {
	err := s.primary.Remove(ctx, id)
	if err == nil {
		s.noteRecovered(ctx)
		// Clear any fallback residue left from a degraded window.
		_ = s.fallback.Remove(ctx, id)
		return nil
	}
	if !shouldFailover(err) {
		return err
	}
	s.noteDegraded(ctx, "remove", err)
	return s.fallback.Remove(ctx, id)
}

// Reschedule updates the score in the primary, or the fallback when degraded.
func (s *FailoverQueueStore) Reschedule(ctx context.Context, id string, scheduledAt time.Time) error {
	err := s.primary.Reschedule(ctx, id, scheduledAt)
	if err == nil {
		s.noteRecovered(ctx)
		return nil
	}
	if !shouldFailover(err) {
		return err
	}
	s.noteDegraded(ctx, "reschedule", err)
	return s.fallback.Reschedule(ctx, id, scheduledAt)
}

// MoveToDeadLetter moves the entry in the primary, or the fallback when degraded.
func (s *FailoverQueueStore) MoveToDeadLetter(ctx context.Context, id, reason string) error {
	err := s.primary.MoveToDeadLetter(ctx, id, reason)
	if err == nil {
		s.noteRecovered(ctx)
		return nil
	}
	if !shouldFailover(err) {
		return err
	}
	s.noteDegraded(ctx, "move_to_dead_letter", err)
	return s.fallback.MoveToDeadLetter(ctx, id, reason)
}

// Exists checks the primary, or the fallback when degraded.
func (s *FailoverQueueStore) Exists(ctx context.Context, id string) (bool, error) {
	ok, err := s.primary.Exists(ctx, id)
	if err == nil {
		s.noteRecovered(ctx)
		return ok, nil
	}
	if !shouldFailover(err) {
		return false, err
	}
	s.noteDegraded(ctx, "exists", err)
	return s.fallback.Exists(ctx, id)
}

// Stats reads the primary, or the fallback when degraded.
func (s *FailoverQueueStore) Stats(ctx context.Context, now time.Time) (model.QueueStats, error) {
	stats, err := s.primary.Stats(ctx, now)
	if err == nil {
		s.noteRecovered(ctx)
		return stats, nil
	}
	if !shouldFailover(err) {
		return model.QueueStats{}, err
	}
	s.noteDegraded(ctx, "stats", err)
	return s.fallback.Stats(ctx, now)
}

// DeadLetters reads the primary, or the fallback when degraded.
func (s *FailoverQueueStore) DeadLetters(ctx context.Context, limit int) ([]model.DeadLetterEntry, error) {
	entries, err := s.primary.DeadLetters(ctx, limit)
	if err == nil {
		s.noteRecovered(ctx)
		return entries, nil
	}
	if !shouldFailover(err) {
		return nil, err
	}
	s.noteDegraded(ctx, "dead_letters", err)
	return s.fallback.DeadLetters(ctx, limit)
}

// RemoveDeadLetter deletes from the primary, or the fallback when degraded.
func (s *FailoverQueueStore) RemoveDeadLetter(ctx context.Context, id string) (bool, error) {
	ok, err := s.primary.RemoveDeadLetter(ctx, id)
	if err == nil {
		s.noteRecovered(ctx)
		return ok, nil
	}
	if !shouldFailover(err) {
		return false, err
	}
	s.noteDegraded(ctx, "remove_dead_letter", err)
	return s.fallback.RemoveDeadLetter(ctx, id)
}
