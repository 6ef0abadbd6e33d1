package data

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/draftline/draftline-go/internal/domain/model"
)

// MemoryQueueRepo is the non-durable fallback queue store. It mirrors the
// Redis layout (score index plus payload map) but lives in process memory:
// a restart loses every entry, which is exactly the degraded mode the
// failover wrapper warns about. Also used directly in tests.
type MemoryQueueRepo struct {
	mu       sync.Mutex
	scores   map[string]int64
	payloads map[string]model.QueueJob
	dead     map[string]model.DeadLetterEntry
}

// NewMemoryQueueRepo creates an empty in-memory queue store.
func NewMemoryQueueRepo() *MemoryQueueRepo {
	return &MemoryQueueRepo{
		scores:   make(map[string]int64),
		payloads: make(map[string]model.QueueJob),
		dead:     make(map[string]model.DeadLetterEntry),
	}
}

// Add upserts the score and payload for the job.
func (m *MemoryQueueRepo) Add(_ context.Context, job model.QueueJob) error {
	if job.ID == "" {
		return errIDRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.scores[job.ID] = job.ScoreMillis()
	m.payloads[job.ID] = job
	return nil
}

// GetReady returns up to limit jobs with score <= now, earliest-due first.
func (m *MemoryQueueRepo) GetReady(_ context.Context, now time.Time, limit int) ([]model.QueueJob, error) {
	if limit <= 0 {
		return nil, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	nowMillis := now.UnixMilli()
	type entry struct {
		id    string
		score int64
	}
	var ready []entry
	for id, score := range m.scores {
		if score <= nowMillis {
			ready = append(ready, entry{id: id, score: score})
		}
	}
	sort.Slice(ready, func(i, j int) bool {
		if ready[i].score != ready[j].score {
			return ready[i].score < ready[j].score
		}
		return ready[i].id < ready[j].id
	})

	if len(ready) > limit {
		ready = ready[:limit]
	}

	jobs := make([]model.QueueJob, 0, len(ready))
	for _, e := range ready {
		if job, ok := m.payloads[e.id]; ok {
			jobs = append(jobs, job)
		}
	}
	return jobs, nil
}

// Remove deletes the index entry and payload.
func (m *MemoryQueueRepo) Remove(_ context.Context, id string) error {
	if id == "" {
		return errIDRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.scores, id)
	delete(m.payloads, id)
	return nil
}

// Reschedule updates the score only.
func (m *MemoryQueueRepo) Reschedule(_ context.Context, id string, scheduledAt time.Time) error {
	if id == "" {
		return errIDRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.scores[id] = scheduledAt.UnixMilli()
	return nil
}

// MoveToDeadLetter moves the payload into the dead map with the reason.
func (m *MemoryQueueRepo) MoveToDeadLetter(_ context.Context, id, reason string) error {
	if id == "" {
		return errIDRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	job, ok := m.payloads[id]
	if !ok {
		job = model.QueueJob{ID: id}
	}
	m.dead[id] = model.DeadLetterEntry{
		Job:           job,
		FailureReason: reason,
		FailedAt:      time.Now().UTC(),
	}
	delete(m.scores, id)
	delete(m.payloads, id)
	return nil
}

// Exists reports live-queue membership.
func (m *MemoryQueueRepo) Exists(_ context.Context, id string) (bool, error) {
	if id == "" {
		return false, errIDRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.scores[id]
	return ok, nil
}

// Stats counts pending, ready, and dead entries.
func (m *MemoryQueueRepo) Stats(_ context.Context, now time.Time) (model.QueueStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	nowMillis := now.UnixMilli()
	var stats model.QueueStats
	for _, score := range m.scores {
		if score <= nowMillis {
			stats.Ready++
		} else {
			stats.Pending++
		}
	}
	stats.Dead = int64(len(m.dead))
	return stats, nil
}

// DeadLetters returns up to limit dead-letter entries.
func (m *MemoryQueueRepo) DeadLetters(_ context.Context, limit int) ([]model.DeadLetterEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := make([]model.DeadLetterEntry, 0, len(m.dead))
	for _, entry := range m.dead {
		if limit > 0 && len(entries) >= limit {
			break
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// RemoveDeadLetter drops a dead-letter entry.
func (m *MemoryQueueRepo) RemoveDeadLetter(_ context.Context, id string) (bool, error) {
	if id == "" {
		return false, errIDRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.dead[id]
	delete(m.dead, id)
	return ok, nil
}
