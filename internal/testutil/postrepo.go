package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/draftline/draftline-go/internal/core"
	"github.com/draftline/draftline-go/internal/domain/model"
	apperrors "github.com/draftline/draftline-go/internal/errors"
)

// InMemoryPostRepo is an in-memory core.PostRepository with the same
// status-guard semantics as the SQL implementation. For tests that do
// not want database infrastructure.
type InMemoryPostRepo struct {
	mu    sync.Mutex
	posts map[string]*model.Post
}

var _ core.PostRepository = (*InMemoryPostRepo)(nil)

// NewInMemoryPostRepo creates an empty in-memory post repository.
func NewInMemoryPostRepo() *InMemoryPostRepo {
	return &InMemoryPostRepo{posts: make(map[string]*model.Post)}
}

// Put stores a copy of the post, replacing any existing record.
func (f *InMemoryPostRepo) Put(post *model.Post) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *post
	f.posts[post.ID] = &cp
}

// Snapshot returns a copy of the stored record, or nil when absent.
func (f *InMemoryPostRepo) Snapshot(id string) *model.Post {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.posts[id]; ok {
		cp := *p
		return &cp
	}
	return nil
}

func (f *InMemoryPostRepo) Create(_ context.Context, req *model.CreatePostRequest) (*model.Post, error) {
	now := time.Now().UTC()
	post := &model.Post{
		ID:          uuid.NewString(),
		OwnerID:     req.OwnerID,
		AccountRef:  req.AccountRef,
		Content:     req.Content,
		Status:      model.PostStatusScheduled,
		ScheduledAt: req.ScheduledAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.Put(post)
	return f.Snapshot(post.ID), nil
}

func (f *InMemoryPostRepo) GetByID(_ context.Context, id string) (*model.Post, error) {
	if post := f.Snapshot(id); post != nil {
		return post, nil
	}
	return nil, apperrors.NotFoundf("post %s not found", id)
}

func (f *InMemoryPostRepo) Update(_ context.Context, id string, req model.UpdatePostRequest) (*model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	post, ok := f.posts[id]
	if !ok {
		return nil, apperrors.NotFoundf("post %s not found", id)
	}
	if req.Content != nil {
		post.Content = *req.Content
	}
	if req.ScheduledAt != nil {
		post.ScheduledAt = *req.ScheduledAt
	}
	post.UpdatedAt = time.Now().UTC()
	cp := *post
	return &cp, nil
}

func (f *InMemoryPostRepo) Delete(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.posts[id]
	delete(f.posts, id)
	return ok, nil
}

func (f *InMemoryPostRepo) ListByOwner(_ context.Context, ownerID string, limit, offset int) ([]*model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Post
	for _, p := range f.posts {
		if p.OwnerID == ownerID {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.After(out[j].ScheduledAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *InMemoryPostRepo) ListScheduled(_ context.Context, retryCountBelow, limit int) ([]*model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*model.Post
	for _, p := range f.posts {
		if p.Status == model.PostStatusScheduled && p.RetryCount < retryCountBelow {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *InMemoryPostRepo) MarkPublished(_ context.Context, params core.MarkPublishedParams) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	post, ok := f.posts[params.ID]
	if !ok || post.Status != model.PostStatusScheduled {
		return false, nil
	}
	publishedAt := params.PublishedAt
	if publishedAt.IsZero() {
		publishedAt = time.Now().UTC()
	}
	externalID := params.ExternalID
	post.Status = model.PostStatusPublished
	post.ExternalID = &externalID
	post.PublishedAt = &publishedAt
	post.FailureReason = nil
	post.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (f *InMemoryPostRepo) MarkRetrying(_ context.Context, params core.MarkRetryingParams) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	post, ok := f.posts[params.ID]
	if !ok || post.Status != model.PostStatusScheduled {
		return false, nil
	}
	reason := params.FailureReason
	post.RetryCount = params.RetryCount
	post.FailureReason = &reason
	post.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (f *InMemoryPostRepo) MarkFailed(_ context.Context, params core.MarkFailedParams) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	post, ok := f.posts[params.ID]
	if !ok || post.Status != model.PostStatusScheduled {
		return false, nil
	}
	reason := params.FailureReason
	post.Status = model.PostStatusFailed
	post.RetryCount = params.RetryCount
	post.FailureReason = &reason
	post.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (f *InMemoryPostRepo) ResetForReschedule(_ context.Context, id string, scheduledAt time.Time) (*model.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	post, ok := f.posts[id]
	if !ok || post.Status == model.PostStatusPublished {
		return nil, apperrors.NotFoundf("post %s not found or already published", id)
	}
	post.Status = model.PostStatusScheduled
	post.ScheduledAt = scheduledAt
	post.RetryCount = 0
	post.FailureReason = nil
	post.ExternalID = nil
	post.PublishedAt = nil
	post.UpdatedAt = time.Now().UTC()
	cp := *post
	return &cp, nil
}
