package data

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/draftline/draftline-go/internal/core"
)

// FailoverLock degrades from the Redis lock to the process-local one when
// Redis is unreachable. In degraded mode mutual exclusion only covers this
// process; cross-instance overlap becomes possible and is tolerated the
// same way a TTL-expired holder is.
type FailoverLock struct {
	primary  core.DistributedLock
	fallback core.DistributedLock
	logger   *slog.Logger
	degraded atomic.Bool
}

// NewFailoverLock wraps primary with the in-memory fallback.
func NewFailoverLock(primary, fallback core.DistributedLock, logger *slog.Logger) *FailoverLock {
	if logger == nil {
		logger = slog.Default()
	}
	return &FailoverLock{
		primary:  primary,
		fallback: fallback,
		logger:   logger.With("component", "scheduler_lock"),
	}
}

// TryAcquire attempts the primary lock, falling back when it is unreachable.
func (l *FailoverLock) TryAcquire(ctx context.Context, holderID string, ttl time.Duration) (bool, error) {
	ok, err := l.primary.TryAcquire(ctx, holderID, ttl)
	if err == nil {
		if l.degraded.CompareAndSwap(true, false) {
			l.logger.InfoContext(ctx, "lock store recovered, primary serving again")
		}
		return ok, nil
	}
	if !shouldFailover(err) {
		return false, err
	}
	if l.degraded.CompareAndSwap(false, true) {
		l.logger.WarnContext(ctx, "lock store unreachable, degrading to process-local lock (cross-instance exclusion lost)",
			"error", err)
	}
	return l.fallback.TryAcquire(ctx, holderID, ttl)
}

// Release releases whichever lock the holder may be holding. Best effort.
func (l *FailoverLock) Release(ctx context.Context, holderID string) error {
	err := l.primary.Release(ctx, holderID)
	if fbErr := l.fallback.Release(ctx, holderID); fbErr != nil && err == nil {
		err = fbErr
	}
	return err
}

// Degraded reports whether the last acquisition used the fallback.
func (l *FailoverLock) Degraded() bool {
	return l.degraded.Load()
}
