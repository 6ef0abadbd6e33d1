// Package service provides the business logic for scheduling and
// publishing posts.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/draftline/draftline-go/internal/core"
	"github.com/draftline/draftline-go/internal/domain/model"
	apperrors "github.com/draftline/draftline-go/internal/errors"
)

// PostService owns the post lifecycle on the write path: scheduling,
// editing, deleting, and returning failed posts to the queue. Every
// mutation goes to the record store first, then to the queue index, so a
// crash between the two leaves drift the reconciler can repair.
type PostService struct {
	posts  core.PostRepository
	queue  core.QueueStore
	logger *slog.Logger
}

// PostServiceOptions holds the dependencies for creating a PostService.
type PostServiceOptions struct {
	Posts  core.PostRepository
	Queue  core.QueueStore
	Logger *slog.Logger
}

// NewPostService creates a PostService.
func NewPostService(opts PostServiceOptions) *PostService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &PostService{
		posts:  opts.Posts,
		queue:  opts.Queue,
		logger: logger.With("component", "post_service"),
	}
}

// Schedule validates the request, records the post, and enqueues it.
func (s *PostService) Schedule(ctx context.Context, req *model.CreatePostRequest) (*model.Post, error) {
	if err := validateCreateRequest(req); err != nil {
		return nil, err
	}

	post, err := s.posts.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create post record: %w", err)
	}

	if queueErr := s.queue.Add(ctx, jobFromPost(post)); queueErr != nil {
		// The record exists but the queue entry does not; the startup
		// reconciler restores it. Surface the degraded write anyway.
		s.logger.WarnContext(ctx, "post recorded but not enqueued, reconciler will repair",
			"post_id", post.ID,
			"error", queueErr)
	}
	return post, nil
}

// Get fetches one post.
func (s *PostService) Get(ctx context.Context, id string) (*model.Post, error) {
	return s.posts.GetByID(ctx, id)
}

// List returns a page of the owner's posts.
func (s *PostService) List(ctx context.Context, ownerID string, limit, offset int) ([]*model.Post, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, apperrors.Validation("owner id is required")
	}
	return s.posts.ListByOwner(ctx, ownerID, limit, offset)
}

// Edit updates content and/or scheduled time on a still-scheduled post
// and refreshes the queue entry (payload and score) in one upsert.
func (s *PostService) Edit(ctx context.Context, id string, req model.UpdatePostRequest) (*model.Post, error) {
	if req.Content == nil && req.ScheduledAt == nil {
		return nil, apperrors.Validation("nothing to update")
	}
	if req.Content != nil {
		if err := validateContent(*req.Content); err != nil {
			return nil, err
		}
	}
	if req.ScheduledAt != nil && req.ScheduledAt.IsZero() {
		return nil, apperrors.ValidationField("scheduled_at", "scheduled time is required")
	}

	current, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != model.PostStatusScheduled {
		return nil, apperrors.Conflict(fmt.Sprintf("post %s is %s and can no longer be edited", id, current.Status))
	}

	post, err := s.posts.Update(ctx, id, req)
	if err != nil {
		return nil, fmt.Errorf("update post record: %w", err)
	}

	if queueErr := s.queue.Add(ctx, jobFromPost(post)); queueErr != nil {
		s.logger.WarnContext(ctx, "post updated but queue entry not refreshed",
			"post_id", post.ID,
			"error", queueErr)
	}
	return post, nil
}

// Delete removes the record and its queue entry.
func (s *PostService) Delete(ctx context.Context, id string) error {
	deleted, err := s.posts.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete post record: %w", err)
	}
	if !deleted {
		return apperrors.NotFoundf("post %s not found", id)
	}

	if queueErr := s.queue.Remove(ctx, id); queueErr != nil {
		s.logger.WarnContext(ctx, "post deleted but queue entry not removed",
			"post_id", id,
			"error", queueErr)
	}
	return nil
}

// RescheduleFailed returns a failed post to a clean scheduled state and
// re-enqueues it with a zeroed retry budget.
func (s *PostService) RescheduleFailed(ctx context.Context, id string, scheduledAt time.Time) (*model.Post, error) {
	if err := validateScheduledAt(scheduledAt); err != nil {
		return nil, err
	}

	post, err := s.posts.ResetForReschedule(ctx, id, scheduledAt)
	if err != nil {
		return nil, err
	}

	// Dead-letter residue for the id is dropped; it is live again.
	if _, dlErr := s.queue.RemoveDeadLetter(ctx, id); dlErr != nil {
		s.logger.WarnContext(ctx, "dead-letter entry not removed on reschedule",
			"post_id", id,
			"error", dlErr)
	}
	if queueErr := s.queue.Add(ctx, jobFromPost(post)); queueErr != nil {
		s.logger.WarnContext(ctx, "post rescheduled but not enqueued, reconciler will repair",
			"post_id", id,
			"error", queueErr)
	}
	return post, nil
}

func validateCreateRequest(req *model.CreatePostRequest) error {
	if req == nil {
		return apperrors.Validation("request body is required")
	}
	if strings.TrimSpace(req.OwnerID) == "" {
		return apperrors.ValidationField("owner_id", "owner id is required")
	}
	if strings.TrimSpace(req.AccountRef) == "" {
		return apperrors.ValidationField("account_ref", "account reference is required")
	}
	if err := validateContent(req.Content); err != nil {
		return err
	}
	return validateScheduledAt(req.ScheduledAt)
}

func validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return apperrors.ValidationField("content", "content is required")
	}
	if len(content) > model.MaxContentLength {
		return apperrors.ValidationField("content",
			fmt.Sprintf("content exceeds %d characters", model.MaxContentLength))
	}
	return nil
}

func validateScheduledAt(at time.Time) error {
	if at.IsZero() {
		return apperrors.ValidationField("scheduled_at", "scheduled time is required")
	}
	return nil
}

// jobFromPost derives the queue payload for a post record.
func jobFromPost(post *model.Post) model.QueueJob {
	return model.QueueJob{
		ID:          post.ID,
		OwnerID:     post.OwnerID,
		AccountRef:  post.AccountRef,
		Content:     post.Content,
		ScheduledAt: post.ScheduledAt,
		RetryCount:  post.RetryCount,
		CreatedAt:   post.CreatedAt,
	}
}
