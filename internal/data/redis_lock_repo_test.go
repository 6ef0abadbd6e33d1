package data

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisLockRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	client := setupTestRedis(t)
	defer client.Close()

	lock := NewRedisLockRepo(client)
	ctx := context.Background()

	t.Run("acquire and contention", func(t *testing.T) {
		client.FlushDB(ctx)

		ok, err := lock.TryAcquire(ctx, "holder-a", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)

		// Contention is (false, nil), not an error.
		ok, err = lock.TryAcquire(ctx, "holder-b", time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)

		// Re-acquire by the current holder is also refused; the TTL does
		// the renewing, not the caller.
		ok, err = lock.TryAcquire(ctx, "holder-a", time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("release frees the lock for others", func(t *testing.T) {
		client.FlushDB(ctx)

		ok, err := lock.TryAcquire(ctx, "holder-a", time.Minute)
		require.NoError(t, err)
		require.True(t, ok)

		require.NoError(t, lock.Release(ctx, "holder-a"))

		ok, err = lock.TryAcquire(ctx, "holder-b", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("release by another holder is a no-op", func(t *testing.T) {
		client.FlushDB(ctx)

		ok, err := lock.TryAcquire(ctx, "holder-a", time.Minute)
		require.NoError(t, err)
		require.True(t, ok)

		require.NoError(t, lock.Release(ctx, "holder-b"))

		ok, err = lock.TryAcquire(ctx, "holder-b", time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("ttl expiry frees the lock", func(t *testing.T) {
		client.FlushDB(ctx)

		ok, err := lock.TryAcquire(ctx, "holder-a", 50*time.Millisecond)
		require.NoError(t, err)
		require.True(t, ok)

		time.Sleep(100 * time.Millisecond)

		ok, err = lock.TryAcquire(ctx, "holder-b", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("requires holder id", func(t *testing.T) {
		_, err := lock.TryAcquire(ctx, "", time.Minute)
		assert.ErrorIs(t, err, errHolderRequired)
	})
}
