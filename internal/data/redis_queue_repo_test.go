package data

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftline/draftline-go/internal/testutil"
)

// setupTestRedis creates a Redis client for testing.
// Tests will be skipped if Redis is not available.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	return testutil.SetupTestRedis(t)
}

func TestRedisQueueRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	client := setupTestRedis(t)
	defer client.Close()

	repo := NewRedisQueueRepo(client)
	ctx := context.Background()
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	t.Run("add and get ready in due order", func(t *testing.T) {
		require.NoError(t, repo.Add(ctx, testJob("due-early", now.Add(-2*time.Minute))))
		require.NoError(t, repo.Add(ctx, testJob("due-late", now.Add(-time.Minute))))
		require.NoError(t, repo.Add(ctx, testJob("future", now.Add(time.Hour))))

		jobs, err := repo.GetReady(ctx, now, 10)
		require.NoError(t, err)
		require.Len(t, jobs, 2)
		assert.Equal(t, "due-early", jobs[0].ID)
		assert.Equal(t, "due-late", jobs[1].ID)

		// Same read again: nothing was consumed, only the scheduler's
		// Remove/Reschedule takes entries out.
		jobs, err = repo.GetReady(ctx, now, 10)
		require.NoError(t, err)
		assert.Len(t, jobs, 2)
	})

	t.Run("add is an upsert", func(t *testing.T) {
		job := testJob("upsert-1", now.Add(-time.Minute))
		require.NoError(t, repo.Add(ctx, job))

		job.Content = "edited content"
		job.ScheduledAt = now.Add(time.Hour)
		require.NoError(t, repo.Add(ctx, job))

		count, err := client.ZScore(ctx, queueIndexKey, "upsert-1").Result()
		require.NoError(t, err)
		assert.Equal(t, float64(job.ScoreMillis()), count)

		exists, err := repo.Exists(ctx, "upsert-1")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("reschedule keeps one entry", func(t *testing.T) {
		require.NoError(t, repo.Add(ctx, testJob("resched-1", now.Add(-time.Minute))))
		require.NoError(t, repo.Reschedule(ctx, "resched-1", now.Add(5*time.Minute)))
		require.NoError(t, repo.Reschedule(ctx, "resched-1", now.Add(10*time.Minute)))

		n, err := client.ZCount(ctx, queueIndexKey, "-inf", "+inf").Result()
		require.NoError(t, err)
		members, err := client.ZRange(ctx, queueIndexKey, 0, -1).Result()
		require.NoError(t, err)
		assert.Contains(t, members, "resched-1")
		assert.Equal(t, int64(len(members)), n)

		jobs, err := repo.GetReady(ctx, now.Add(time.Hour), 100)
		require.NoError(t, err)
		var seen int
		for _, j := range jobs {
			if j.ID == "resched-1" {
				seen++
			}
		}
		assert.Equal(t, 1, seen)
	})

	t.Run("remove deletes index and payload", func(t *testing.T) {
		require.NoError(t, repo.Add(ctx, testJob("remove-1", now)))
		require.NoError(t, repo.Remove(ctx, "remove-1"))

		exists, err := repo.Exists(ctx, "remove-1")
		require.NoError(t, err)
		assert.False(t, exists)

		err = client.HGet(ctx, queuePayloadKey, "remove-1").Err()
		assert.ErrorIs(t, err, redis.Nil)

		// Removing again is a no-op, not an error.
		require.NoError(t, repo.Remove(ctx, "remove-1"))
	})

	t.Run("move to dead letter", func(t *testing.T) {
		require.NoError(t, repo.Add(ctx, testJob("dead-1", now.Add(-time.Minute))))
		require.NoError(t, repo.MoveToDeadLetter(ctx, "dead-1", "token revoked"))

		exists, err := repo.Exists(ctx, "dead-1")
		require.NoError(t, err)
		assert.False(t, exists)

		entries, err := repo.DeadLetters(ctx, 100)
		require.NoError(t, err)
		var found bool
		for _, e := range entries {
			if e.Job.ID == "dead-1" {
				found = true
				assert.Equal(t, "token revoked", e.FailureReason)
				assert.False(t, e.FailedAt.IsZero())
			}
		}
		assert.True(t, found, "dead-1 should be in the dead-letter hash")

		removed, err := repo.RemoveDeadLetter(ctx, "dead-1")
		require.NoError(t, err)
		assert.True(t, removed)

		removed, err = repo.RemoveDeadLetter(ctx, "dead-1")
		require.NoError(t, err)
		assert.False(t, removed)
	})

	t.Run("stats", func(t *testing.T) {
		client.FlushDB(ctx)

		require.NoError(t, repo.Add(ctx, testJob("s-ready", now.Add(-time.Minute))))
		require.NoError(t, repo.Add(ctx, testJob("s-pending", now.Add(time.Hour))))
		require.NoError(t, repo.Add(ctx, testJob("s-dead", now.Add(-time.Minute))))
		require.NoError(t, repo.MoveToDeadLetter(ctx, "s-dead", "failed"))

		stats, err := repo.Stats(ctx, now)
		require.NoError(t, err)
		assert.Equal(t, int64(1), stats.Ready)
		assert.Equal(t, int64(1), stats.Pending)
		assert.Equal(t, int64(1), stats.Dead)
	})

	t.Run("orphan index entries are dropped", func(t *testing.T) {
		client.FlushDB(ctx)

		require.NoError(t, repo.Add(ctx, testJob("orphan-1", now.Add(-time.Minute))))
		require.NoError(t, client.HDel(ctx, queuePayloadKey, "orphan-1").Err())

		jobs, err := repo.GetReady(ctx, now, 10)
		require.NoError(t, err)
		assert.Empty(t, jobs)

		// The dangling index member is gone after the read.
		err = client.ZScore(ctx, queueIndexKey, "orphan-1").Err()
		assert.ErrorIs(t, err, redis.Nil)
	})

	t.Run("health", func(t *testing.T) {
		require.NoError(t, repo.Health(ctx))
	})
}
