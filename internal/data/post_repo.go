// Package data provides concrete store adapters: the PostgreSQL record
// store and the Redis (or in-memory fallback) queue store and lock.
package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/draftline/draftline-go/internal/core"
	"github.com/draftline/draftline-go/internal/domain/model"
	apperrors "github.com/draftline/draftline-go/internal/errors"
)

// PostRepo implements core.PostRepository on PostgreSQL.
type PostRepo struct {
	DB *sql.DB
}

// NewPostRepo creates a PostRepo backed by the given database handle.
func NewPostRepo(db *sql.DB) *PostRepo {
	return &PostRepo{DB: db}
}

const postColumns = `id, owner_id, account_ref, content, status, scheduled_at,
	retry_count, failure_reason, published_at, external_id, created_at, updated_at`

func scanPost(row interface{ Scan(...any) error }) (*model.Post, error) {
	var p model.Post
	err := row.Scan(
		&p.ID, &p.OwnerID, &p.AccountRef, &p.Content, &p.Status, &p.ScheduledAt,
		&p.RetryCount, &p.FailureReason, &p.PublishedAt, &p.ExternalID,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a post with status=scheduled.
func (r *PostRepo) Create(ctx context.Context, req *model.CreatePostRequest) (*model.Post, error) {
	if req == nil {
		return nil, errors.New("create post request is required")
	}

	id := uuid.NewString()
	row := r.DB.QueryRowContext(ctx, `
		INSERT INTO posts (id, owner_id, account_ref, content, status, scheduled_at)
		VALUES ($1, $2, $3, $4, 'scheduled', $5)
		RETURNING `+postColumns,
		id, req.OwnerID, req.AccountRef, req.Content, req.ScheduledAt)

	post, err := scanPost(row)
	if err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("insert post: %w", err))
	}
	return post, nil
}

// GetByID fetches a post by id.
func (r *PostRepo) GetByID(ctx context.Context, id string) (*model.Post, error) {
	if strings.TrimSpace(id) == "" {
		return nil, apperrors.Validation("post id is required")
	}

	row := r.DB.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE id = $1`, id)
	post, err := scanPost(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFoundf("post %s not found", id)
		}
		return nil, apperrors.MapDBError(fmt.Errorf("get post: %w", err))
	}
	return post, nil
}

// Update edits content and/or scheduled time. Nil request fields are kept.
func (r *PostRepo) Update(ctx context.Context, id string, req model.UpdatePostRequest) (*model.Post, error) {
	row := r.DB.QueryRowContext(ctx, `
		UPDATE posts
		SET content      = COALESCE($2, content),
		    scheduled_at = COALESCE($3, scheduled_at),
		    updated_at   = now()
		WHERE id = $1
		RETURNING `+postColumns,
		id, req.Content, req.ScheduledAt)

	post, err := scanPost(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFoundf("post %s not found", id)
		}
		return nil, apperrors.MapDBError(fmt.Errorf("update post: %w", err))
	}
	return post, nil
}

// Delete removes a post. Returns false when no row matched.
func (r *PostRepo) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return false, apperrors.MapDBError(fmt.Errorf("delete post: %w", err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete post rows affected: %w", err)
	}
	return n > 0, nil
}

// ListByOwner returns a page of posts for one owner, newest schedule first.
func (r *PostRepo) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]*model.Post, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+postColumns+`
		FROM posts
		WHERE owner_id = $1
		ORDER BY scheduled_at DESC, created_at DESC
		LIMIT $2 OFFSET $3`,
		ownerID, limit, offset)
	if err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("list posts: %w", err))
	}
	defer rows.Close()

	return collectPosts(rows)
}

// ListScheduled returns scheduled posts below the retry cap, oldest due
// first. Used by the reconciler.
func (r *PostRepo) ListScheduled(ctx context.Context, retryCountBelow, limit int) ([]*model.Post, error) {
	if limit <= 0 {
		limit = 500
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT `+postColumns+`
		FROM posts
		WHERE status = 'scheduled' AND retry_count < $1
		ORDER BY scheduled_at ASC
		LIMIT $2`,
		retryCountBelow, limit)
	if err != nil {
		return nil, apperrors.MapDBError(fmt.Errorf("list scheduled posts: %w", err))
	}
	defer rows.Close()

	return collectPosts(rows)
}

func collectPosts(rows *sql.Rows) ([]*model.Post, error) {
	var posts []*model.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return posts, nil
}

// MarkPublished transitions scheduled→published. The status guard makes
// the transition a no-op when a concurrent edit already moved the post.
func (r *PostRepo) MarkPublished(ctx context.Context, params core.MarkPublishedParams) (bool, error) {
	publishedAt := params.PublishedAt
	if publishedAt.IsZero() {
		publishedAt = time.Now().UTC()
	}

	res, err := r.DB.ExecContext(ctx, `
		UPDATE posts
		SET status = 'published',
		    external_id = $2,
		    published_at = $3,
		    failure_reason = NULL,
		    updated_at = now()
		WHERE id = $1 AND status = 'scheduled'`,
		params.ID, params.ExternalID, publishedAt)
	if err != nil {
		return false, apperrors.MapDBError(fmt.Errorf("mark post published: %w", err))
	}
	return oneRowAffected(res)
}

// MarkRetrying records a transient failure: retry_count and reason are
// updated, status stays scheduled.
func (r *PostRepo) MarkRetrying(ctx context.Context, params core.MarkRetryingParams) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE posts
		SET retry_count = $2,
		    failure_reason = $3,
		    updated_at = now()
		WHERE id = $1 AND status = 'scheduled'`,
		params.ID, params.RetryCount, params.FailureReason)
	if err != nil {
		return false, apperrors.MapDBError(fmt.Errorf("mark post retrying: %w", err))
	}
	return oneRowAffected(res)
}

// MarkFailed transitions scheduled→failed. Terminal.
func (r *PostRepo) MarkFailed(ctx context.Context, params core.MarkFailedParams) (bool, error) {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE posts
		SET status = 'failed',
		    retry_count = $2,
		    failure_reason = $3,
		    updated_at = now()
		WHERE id = $1 AND status = 'scheduled'`,
		params.ID, params.RetryCount, params.FailureReason)
	if err != nil {
		return false, apperrors.MapDBError(fmt.Errorf("mark post failed: %w", err))
	}
	return oneRowAffected(res)
}

// ResetForReschedule returns a failed (or scheduled) post to a clean
// scheduled state: failure_reason and retry_count cleared, new schedule.
func (r *PostRepo) ResetForReschedule(ctx context.Context, id string, scheduledAt time.Time) (*model.Post, error) {
	row := r.DB.QueryRowContext(ctx, `
		UPDATE posts
		SET status = 'scheduled',
		    scheduled_at = $2,
		    retry_count = 0,
		    failure_reason = NULL,
		    external_id = NULL,
		    published_at = NULL,
		    updated_at = now()
		WHERE id = $1 AND status IN ('scheduled', 'failed', 'draft')
		RETURNING `+postColumns,
		id, scheduledAt)

	post, err := scanPost(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFoundf("post %s not found or already published", id)
		}
		return nil, apperrors.MapDBError(fmt.Errorf("reset post: %w", err))
	}
	return post, nil
}

func oneRowAffected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
