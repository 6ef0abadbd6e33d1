package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/draftline/draftline-go/internal/core"
)

// ReconcilerService repairs drift between the record store and the queue:
// any record still marked scheduled must have a live queue entry. The
// record store is the sole authority; reconciliation only ever flows
// record → queue, never the reverse.
type ReconcilerService struct {
	posts  core.PostRepository
	queue  core.QueueStore
	logger *slog.Logger

	// maxRetries mirrors the scheduler budget. Records at the cap are
	// still scheduled until their next attempt, so the scan bound is
	// maxRetries inclusive.
	maxRetries int
	batchSize  int
}

// ReconcilerServiceOptions holds the dependencies for creating a ReconcilerService.
type ReconcilerServiceOptions struct {
	Posts      core.PostRepository
	Queue      core.QueueStore
	Logger     *slog.Logger
	MaxRetries int
	BatchSize  int
}

// NewReconcilerService creates a ReconcilerService.
func NewReconcilerService(opts ReconcilerServiceOptions) *ReconcilerService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxRetries := opts.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	batchSize := opts.BatchSize
	if batchSize < 1 {
		batchSize = 500
	}
	return &ReconcilerService{
		posts:      opts.Posts,
		queue:      opts.Queue,
		logger:     logger.With("component", "reconciler"),
		maxRetries: maxRetries,
		batchSize:  batchSize,
	}
}

// Reconcile re-inserts scheduled records missing from the queue and
// returns how many were restored. Idempotent: a second run restores
// nothing new.
func (r *ReconcilerService) Reconcile(ctx context.Context) (int, error) {
	posts, err := r.posts.ListScheduled(ctx, r.maxRetries+1, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("list scheduled posts: %w", err)
	}

	restored := 0
	for _, post := range posts {
		if ctx.Err() != nil {
			return restored, ctx.Err()
		}

		exists, existsErr := r.queue.Exists(ctx, post.ID)
		if existsErr != nil {
			return restored, fmt.Errorf("check queue entry %s: %w", post.ID, existsErr)
		}
		if exists {
			continue
		}

		// Add carries the record's retry count so the payload does not
		// reset drifted jobs back to a fresh budget.
		if addErr := r.queue.Add(ctx, jobFromPost(post)); addErr != nil {
			return restored, fmt.Errorf("restore queue entry %s: %w", post.ID, addErr)
		}
		restored++
		r.logger.InfoContext(ctx, "restored missing queue entry",
			"post_id", post.ID,
			"scheduled_at", post.ScheduledAt,
			"retry_count", post.RetryCount)
	}

	r.logger.InfoContext(ctx, "reconcile pass complete",
		"scanned", len(posts),
		"restored", restored)
	return restored, nil
}

var _ core.Reconciler = (*ReconcilerService)(nil)
