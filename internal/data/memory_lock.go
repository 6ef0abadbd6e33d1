package data

import (
	"context"
	"sync"
	"time"
)

// MemoryLock is the process-local fallback for the distributed lock.
// It only excludes goroutines within one process; cross-instance mutual
// exclusion is lost in degraded mode. Also used directly in tests.
type MemoryLock struct {
	mu        sync.Mutex
	holderID  string
	expiresAt time.Time
}

// NewMemoryLock creates an unheld MemoryLock.
func NewMemoryLock() *MemoryLock {
	return &MemoryLock{}
}

// TryAcquire mirrors the Redis SET NX + TTL semantics: expired holders
// are superseded silently.
func (l *MemoryLock) TryAcquire(_ context.Context, holderID string, ttl time.Duration) (bool, error) {
	if holderID == "" {
		return false, errHolderRequired
	}
	if ttl <= 0 {
		ttl = time.Second
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if l.holderID != "" && now.Before(l.expiresAt) {
		return false, nil
	}
	l.holderID = holderID
	l.expiresAt = now.Add(ttl)
	return true, nil
}

// Release clears the lock when still held by holderID.
func (l *MemoryLock) Release(_ context.Context, holderID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.holderID == holderID {
		l.holderID = ""
		l.expiresAt = time.Time{}
	}
	return nil
}
