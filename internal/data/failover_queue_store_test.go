package data

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftline/draftline-go/internal/core"
	"github.com/draftline/draftline-go/internal/domain/model"
)

var errPrimaryDown = errors.New("dial tcp 127.0.0.1:6379: connect: connection refused")

// flakyQueueStore wraps a MemoryQueueRepo and fails every call while
// down is set, imitating an unreachable Redis.
type flakyQueueStore struct {
	inner *MemoryQueueRepo
	down  bool
}

func (f *flakyQueueStore) Add(ctx context.Context, job model.QueueJob) error {
	if f.down {
		return errPrimaryDown
	}
	return f.inner.Add(ctx, job)
}

func (f *flakyQueueStore) GetReady(ctx context.Context, now time.Time, limit int) ([]model.QueueJob, error) {
	if f.down {
		return nil, errPrimaryDown
	}
	return f.inner.GetReady(ctx, now, limit)
}

func (f *flakyQueueStore) Remove(ctx context.Context, id string) error {
	if f.down {
		return errPrimaryDown
	}
	return f.inner.Remove(ctx, id)
}

func (f *flakyQueueStore) Reschedule(ctx context.Context, id string, scheduledAt time.Time) error {
	if f.down {
		return errPrimaryDown
	}
	return f.inner.Reschedule(ctx, id, scheduledAt)
}

func (f *flakyQueueStore) MoveToDeadLetter(ctx context.Context, id, reason string) error {
	if f.down {
		return errPrimaryDown
	}
	return f.inner.MoveToDeadLetter(ctx, id, reason)
}

func (f *flakyQueueStore) Exists(ctx context.Context, id string) (bool, error) {
	if f.down {
		return false, errPrimaryDown
	}
	return f.inner.Exists(ctx, id)
}

func (f *flakyQueueStore) Stats(ctx context.Context, now time.Time) (model.QueueStats, error) {
	if f.down {
		return model.QueueStats{}, errPrimaryDown
	}
	return f.inner.Stats(ctx, now)
}

func (f *flakyQueueStore) DeadLetters(ctx context.Context, limit int) ([]model.DeadLetterEntry, error) {
	if f.down {
		return nil, errPrimaryDown
	}
	return f.inner.DeadLetters(ctx, limit)
}

func (f *flakyQueueStore) RemoveDeadLetter(ctx context.Context, id string) (bool, error) {
	if f.down {
		return false, errPrimaryDown
	}
	return f.inner.RemoveDeadLetter(ctx, id)
}

var _ core.QueueStore = (*flakyQueueStore)(nil)

func newFailoverFixture() (*FailoverQueueStore, *flakyQueueStore, *MemoryQueueRepo) {
	primary := &flakyQueueStore{inner: NewMemoryQueueRepo()}
	fallback := NewMemoryQueueRepo()
	store := NewFailoverQueueStore(primary, fallback, slog.New(slog.DiscardHandler))
	return store, primary, fallback
}

func TestFailoverQueueStore_HealthyPrimaryServes(t *testing.T) {
	store, primary, fallback := newFailoverFixture()
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, store.Add(ctx, testJob("p1", now.Add(-time.Minute))))
	assert.False(t, store.Degraded())

	jobs, err := store.GetReady(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	// Nothing leaked into the fallback.
	fbJobs, err := fallback.GetReady(ctx, now, 10)
	require.NoError(t, err)
	assert.Empty(t, fbJobs)

	primJobs, err := primary.inner.GetReady(ctx, now, 10)
	require.NoError(t, err)
	assert.Len(t, primJobs, 1)
}

func TestFailoverQueueStore_DegradesWhenPrimaryDown(t *testing.T) {
	store, primary, fallback := newFailoverFixture()
	ctx := context.Background()
	now := time.Now()

	primary.down = true

	require.NoError(t, store.Add(ctx, testJob("p1", now.Add(-time.Minute))))
	assert.True(t, store.Degraded())

	jobs, err := store.GetReady(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "p1", jobs[0].ID)

	fbJobs, err := fallback.GetReady(ctx, now, 10)
	require.NoError(t, err)
	assert.Len(t, fbJobs, 1)
}

func TestFailoverQueueStore_RecoversWhenPrimaryReturns(t *testing.T) {
	store, primary, _ := newFailoverFixture()
	ctx := context.Background()
	now := time.Now()

	primary.down = true
	require.NoError(t, store.Add(ctx, testJob("p1", now)))
	require.True(t, store.Degraded())

	primary.down = false
	require.NoError(t, store.Add(ctx, testJob("p2", now)))
	assert.False(t, store.Degraded())
}

func TestFailoverQueueStore_RemoveClearsFallbackResidue(t *testing.T) {
	store, primary, fallback := newFailoverFixture()
	ctx := context.Background()
	now := time.Now()

	// Job lands in the fallback during an outage.
	primary.down = true
	require.NoError(t, store.Add(ctx, testJob("p1", now.Add(-time.Minute))))

	// Primary comes back; the same job is published and removed. The copy
	// left in the fallback during the degraded window must go away too.
	primary.down = false
	require.NoError(t, primary.inner.Add(ctx, testJob("p1", now.Add(-time.Minute))))
	require.NoError(t, store.Remove(ctx, "p1"))

	exists, err := fallback.Exists(ctx, "p1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestFailoverQueueStore_ValidationErrorsDoNotFailover(t *testing.T) {
	store, _, fallback := newFailoverFixture()
	ctx := context.Background()

	err := store.Add(ctx, model.QueueJob{})
	assert.ErrorIs(t, err, errIDRequired)
	assert.False(t, store.Degraded())

	stats, statsErr := fallback.Stats(ctx, time.Now())
	require.NoError(t, statsErr)
	assert.Zero(t, stats.Pending+stats.Ready+stats.Dead)
}

func TestShouldFailover(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "validation", err: errIDRequired, want: false},
		{name: "canceled", err: context.Canceled, want: false},
		{name: "deadline", err: context.DeadlineExceeded, want: false},
		{name: "connection refused", err: errPrimaryDown, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, shouldFailover(tt.err))
		})
	}
}
