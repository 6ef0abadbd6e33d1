package data

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftline/draftline-go/internal/domain/model"
)

func testJob(id string, scheduledAt time.Time) model.QueueJob {
	return model.QueueJob{
		ID:          id,
		OwnerID:     "owner-1",
		AccountRef:  "acct-1",
		Content:     "scheduled post " + id,
		ScheduledAt: scheduledAt,
		CreatedAt:   scheduledAt.Add(-time.Hour),
	}
}

func TestMemoryQueueRepo_AddAndGetReady(t *testing.T) {
	repo := NewMemoryQueueRepo()
	ctx := context.Background()
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Add(ctx, testJob("due-early", now.Add(-2*time.Minute))))
	require.NoError(t, repo.Add(ctx, testJob("due-late", now.Add(-1*time.Minute))))
	require.NoError(t, repo.Add(ctx, testJob("future", now.Add(time.Hour))))

	jobs, err := repo.GetReady(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	// Earliest due first; the future job is excluded.
	assert.Equal(t, "due-early", jobs[0].ID)
	assert.Equal(t, "due-late", jobs[1].ID)
}

func TestMemoryQueueRepo_GetReadyHonorsLimit(t *testing.T) {
	repo := NewMemoryQueueRepo()
	ctx := context.Background()
	now := time.Now()

	for _, id := range []string{"a", "b", "c", "d"} {
		require.NoError(t, repo.Add(ctx, testJob(id, now.Add(-time.Minute))))
	}

	jobs, err := repo.GetReady(ctx, now, 2)
	require.NoError(t, err)
	assert.Len(t, jobs, 2)

	jobs, err = repo.GetReady(ctx, now, 0)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestMemoryQueueRepo_AddIsUpsert(t *testing.T) {
	repo := NewMemoryQueueRepo()
	ctx := context.Background()
	now := time.Now()

	job := testJob("p1", now.Add(-time.Minute))
	require.NoError(t, repo.Add(ctx, job))

	// Re-adding the same id replaces the entry instead of duplicating it.
	job.Content = "edited content"
	require.NoError(t, repo.Add(ctx, job))

	jobs, err := repo.GetReady(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "edited content", jobs[0].Content)
}

func TestMemoryQueueRepo_RescheduleMovesSingleEntry(t *testing.T) {
	repo := NewMemoryQueueRepo()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.Add(ctx, testJob("p1", now.Add(-time.Minute))))
	require.NoError(t, repo.Reschedule(ctx, "p1", now.Add(30*time.Minute)))
	require.NoError(t, repo.Reschedule(ctx, "p1", now.Add(time.Hour)))

	// Still one entry, no longer ready.
	jobs, err := repo.GetReady(ctx, now, 10)
	require.NoError(t, err)
	assert.Empty(t, jobs)

	stats, err := repo.Stats(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Pending)

	jobs, err = repo.GetReady(ctx, now.Add(2*time.Hour), 10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "p1", jobs[0].ID)
}

func TestMemoryQueueRepo_MoveToDeadLetter(t *testing.T) {
	repo := NewMemoryQueueRepo()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.Add(ctx, testJob("p1", now.Add(-time.Minute))))
	require.NoError(t, repo.MoveToDeadLetter(ctx, "p1", "token revoked"))

	// Dead letters never come back from GetReady.
	jobs, err := repo.GetReady(ctx, now.Add(24*time.Hour), 10)
	require.NoError(t, err)
	assert.Empty(t, jobs)

	exists, err := repo.Exists(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, exists)

	entries, err := repo.DeadLetters(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "p1", entries[0].Job.ID)
	assert.Equal(t, "token revoked", entries[0].FailureReason)
	assert.False(t, entries[0].FailedAt.IsZero())

	stats, err := repo.Stats(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.Ready)
	assert.Equal(t, int64(1), stats.Dead)
}

func TestMemoryQueueRepo_RemoveDeadLetter(t *testing.T) {
	repo := NewMemoryQueueRepo()
	ctx := context.Background()

	require.NoError(t, repo.Add(ctx, testJob("p1", time.Now())))
	require.NoError(t, repo.MoveToDeadLetter(ctx, "p1", "failed"))

	removed, err := repo.RemoveDeadLetter(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.RemoveDeadLetter(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestMemoryQueueRepo_RemoveAndExists(t *testing.T) {
	repo := NewMemoryQueueRepo()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.Add(ctx, testJob("p1", now)))

	exists, err := repo.Exists(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, repo.Remove(ctx, "p1"))

	exists, err = repo.Exists(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, exists)

	// Removing a missing id is not an error.
	require.NoError(t, repo.Remove(ctx, "p1"))
}

func TestMemoryQueueRepo_ValidatesID(t *testing.T) {
	repo := NewMemoryQueueRepo()
	ctx := context.Background()

	assert.ErrorIs(t, repo.Add(ctx, model.QueueJob{}), errIDRequired)
	assert.ErrorIs(t, repo.Remove(ctx, ""), errIDRequired)
	assert.ErrorIs(t, repo.Reschedule(ctx, "", time.Now()), errIDRequired)
	assert.ErrorIs(t, repo.MoveToDeadLetter(ctx, "", "reason"), errIDRequired)

	_, err := repo.Exists(ctx, "")
	assert.ErrorIs(t, err, errIDRequired)
}

func TestMemoryLock_MutualExclusion(t *testing.T) {
	lock := NewMemoryLock()
	ctx := context.Background()

	ok, err := lock.TryAcquire(ctx, "holder-a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	// Second holder is refused without an error while the lock is live.
	ok, err = lock.TryAcquire(ctx, "holder-b", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, lock.Release(ctx, "holder-a"))

	ok, err = lock.TryAcquire(ctx, "holder-b", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryLock_ReleaseByOtherHolderIsNoop(t *testing.T) {
	lock := NewMemoryLock()
	ctx := context.Background()

	ok, err := lock.TryAcquire(ctx, "holder-a", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, lock.Release(ctx, "holder-b"))

	ok, err = lock.TryAcquire(ctx, "holder-b", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryLock_ExpiredHolderIsSuperseded(t *testing.T) {
	lock := NewMemoryLock()
	ctx := context.Background()

	ok, err := lock.TryAcquire(ctx, "holder-a", time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)

	time.Sleep(5 * time.Millisecond)

	ok, err = lock.TryAcquire(ctx, "holder-b", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryLock_RequiresHolderID(t *testing.T) {
	lock := NewMemoryLock()

	_, err := lock.TryAcquire(context.Background(), "", time.Minute)
	assert.ErrorIs(t, err, errHolderRequired)
}
