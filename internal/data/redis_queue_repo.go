package data

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/draftline/draftline-go/internal/domain/model"
)

// Redis key layout: a sorted set holds the time index (member = post id,
// score = scheduled epoch millis); payloads and dead letters live in
// hashes keyed by the same ids.
const (
	queueIndexKey   = "draftline:queue:index"
	queuePayloadKey = "draftline:queue:payload"
	queueDeadKey    = "draftline:queue:dead"
)

// RedisQueueRepo implements core.QueueStore on Redis.
type RedisQueueRepo struct {
	client redis.UniversalClient
}

// NewRedisQueueRepo creates a RedisQueueRepo with the given Redis client.
func NewRedisQueueRepo(client redis.UniversalClient) *RedisQueueRepo {
	return &RedisQueueRepo{client: client}
}

// Add upserts the index score and payload for the job. Calling Add twice
// for the same id leaves a single entry with the latest score.
func (r *RedisQueueRepo) Add(ctx context.Context, job model.QueueJob) error {
	if job.ID == "" {
		return errIDRequired
	}

	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode queue job: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.ZAdd(ctx, queueIndexKey, redis.Z{
		Score:  float64(job.ScoreMillis()),
		Member: job.ID,
	})
	pipe.HSet(ctx, queuePayloadKey, job.ID, payload)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis queue add: %w", err)
	}
	return nil
}

// GetReady returns up to limit jobs with score <= now, earliest-due first.
// Entries are left in place; removal is a separate, explicit transition.
func (r *RedisQueueRepo) GetReady(ctx context.Context, now time.Time, limit int) ([]model.QueueJob, error) {
	if limit <= 0 {
		return nil, nil
	}

	ids, err := r.client.ZRangeByScore(ctx, queueIndexKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(now.UnixMilli(), 10),
		Count: int64(limit),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("redis queue range: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	raw, err := r.client.HMGet(ctx, queuePayloadKey, ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis queue payloads: %w", err)
	}

	jobs := make([]model.QueueJob, 0, len(ids))
	for i, v := range raw {
		s, ok := v.(string)
		if !ok {
			// Index entry without payload: drop the orphan so it stops
			// surfacing; the reconciler restores it from the record store.
			_ = r.client.ZRem(ctx, queueIndexKey, ids[i]).Err()
			continue
		}
		var job model.QueueJob
		if err := json.Unmarshal([]byte(s), &job); err != nil {
			return nil, fmt.Errorf("decode queue job %s: %w", ids[i], err)
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// Remove deletes the index entry and payload atomically.
func (r *RedisQueueRepo) Remove(ctx context.Context, id string) error {
	if id == "" {
		return errIDRequired
	}

	pipe := r.client.TxPipeline()
	pipe.ZRem(ctx, queueIndexKey, id)
	pipe.HDel(ctx, queuePayloadKey, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis queue remove: %w", err)
	}
	return nil
}

// Reschedule updates the score in place. Missing members are added with
// the new score, which keeps the call idempotent; payload is untouched.
func (r *RedisQueueRepo) Reschedule(ctx context.Context, id string, scheduledAt time.Time) error {
	if id == "" {
		return errIDRequired
	}

	err := r.client.ZAdd(ctx, queueIndexKey, redis.Z{
		Score:  float64(scheduledAt.UnixMilli()),
		Member: id,
	}).Err()
	if err != nil {
		return fmt.Errorf("redis queue reschedule: %w", err)
	}
	return nil
}

// MoveToDeadLetter copies the current payload with reason and failure
// time into the dead-letter hash, then removes the live entry.
func (r *RedisQueueRepo) MoveToDeadLetter(ctx context.Context, id, reason string) error {
	if id == "" {
		return errIDRequired
	}

	raw, err := r.client.HGet(ctx, queuePayloadKey, id).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("redis dead-letter read payload: %w", err)
	}

	var job model.QueueJob
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &job); err != nil {
			return fmt.Errorf("decode queue job %s: %w", id, err)
		}
	} else {
		job = model.QueueJob{ID: id}
	}

	entry := model.DeadLetterEntry{
		Job:           job,
		FailureReason: reason,
		FailedAt:      time.Now().UTC(),
	}
	encoded, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode dead-letter entry: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, queueDeadKey, id, encoded)
	pipe.ZRem(ctx, queueIndexKey, id)
	pipe.HDel(ctx, queuePayloadKey, id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis dead-letter move: %w", err)
	}
	return nil
}

// Exists reports live-queue membership.
func (r *RedisQueueRepo) Exists(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, errIDRequired
	}

	_, err := r.client.ZScore(ctx, queueIndexKey, id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis queue exists: %w", err)
	}
	return true, nil
}

// Stats counts pending (score > now), ready (score <= now), and dead entries.
func (r *RedisQueueRepo) Stats(ctx context.Context, now time.Time) (model.QueueStats, error) {
	nowMillis := strconv.FormatInt(now.UnixMilli(), 10)

	pipe := r.client.Pipeline()
	readyCmd := pipe.ZCount(ctx, queueIndexKey, "-inf", nowMillis)
	pendingCmd := pipe.ZCount(ctx, queueIndexKey, "("+nowMillis, "+inf")
	deadCmd := pipe.HLen(ctx, queueDeadKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return model.QueueStats{}, fmt.Errorf("redis queue stats: %w", err)
	}

	return model.QueueStats{
		Pending: pendingCmd.Val(),
		Ready:   readyCmd.Val(),
		Dead:    deadCmd.Val(),
	}, nil
}

// DeadLetters returns up to limit dead-letter entries.
func (r *RedisQueueRepo) DeadLetters(ctx context.Context, limit int) ([]model.DeadLetterEntry, error) {
	raw, err := r.client.HGetAll(ctx, queueDeadKey).Result()
	if err != nil {
		return nil, fmt.Errorf("redis dead-letter list: %w", err)
	}

	entries := make([]model.DeadLetterEntry, 0, len(raw))
	for id, v := range raw {
		if limit > 0 && len(entries) >= limit {
			break
		}
		var entry model.DeadLetterEntry
		if err := json.Unmarshal([]byte(v), &entry); err != nil {
			return nil, fmt.Errorf("decode dead-letter entry %s: %w", id, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// RemoveDeadLetter drops a dead-letter entry. Returns false when absent.
func (r *RedisQueueRepo) RemoveDeadLetter(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, errIDRequired
	}

	n, err := r.client.HDel(ctx, queueDeadKey, id).Result()
	if err != nil {
		return false, fmt.Errorf("redis dead-letter remove: %w", err)
	}
	return n > 0, nil
}

// Health checks the Redis connection.
func (r *RedisQueueRepo) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
