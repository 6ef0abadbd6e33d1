package data

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// schedulerLockKey is shared by every scheduler instance; whoever sets it
// first owns the tick.
const schedulerLockKey = "draftline:scheduler:lock"

// RedisLockRepo implements core.DistributedLock with a single atomic
// SET NX + TTL. No fencing token is kept: a holder delayed past its TTL
// can overlap with the next holder until it finishes its batch.
type RedisLockRepo struct {
	client redis.UniversalClient
	key    string
}

// NewRedisLockRepo creates a RedisLockRepo with the default lock key.
func NewRedisLockRepo(client redis.UniversalClient) *RedisLockRepo {
	return &RedisLockRepo{client: client, key: schedulerLockKey}
}

// TryAcquire attempts the atomic create-if-absent. (false, nil) means the
// lock is held elsewhere; that is contention, not an error.
func (r *RedisLockRepo) TryAcquire(ctx context.Context, holderID string, ttl time.Duration) (bool, error) {
	if holderID == "" {
		return false, errHolderRequired
	}
	if ttl <= 0 {
		ttl = time.Second
	}

	// SETNX followed by EXPIRE is not atomic; SET with NX + TTL is.
	status, err := r.client.SetArgs(ctx, r.key, holderID, redis.SetArgs{
		Mode: "NX",
		TTL:  ttl,
	}).Result()
	if err != nil {
		// NX not met: Redis replies nil, go-redis surfaces redis.Nil.
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis lock acquire: %w", err)
	}
	return status == "OK", nil
}

// Release deletes the lock only when still held by holderID. Best effort:
// a stale holder simply lets the TTL expire.
func (r *RedisLockRepo) Release(ctx context.Context, holderID string) error {
	current, err := r.client.Get(ctx, r.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil // already expired
		}
		return fmt.Errorf("redis lock read: %w", err)
	}
	if current != holderID {
		return nil // superseded; not ours to delete
	}

	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("redis lock release: %w", err)
	}
	return nil
}
