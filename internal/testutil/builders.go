// Package testutil provides testing utilities and helpers for the draftline scheduling system.
package testutil

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/draftline/draftline-go/internal/domain/model"
)

// PostRequestBuilder provides a fluent interface for building CreatePostRequest objects for testing.
type PostRequestBuilder struct {
	req *model.CreatePostRequest
}

// NewPostRequest creates a new PostRequestBuilder with sensible defaults.
func NewPostRequest() *PostRequestBuilder {
	return &PostRequestBuilder{
		req: &model.CreatePostRequest{
			OwnerID:     "owner-1",
			AccountRef:  "acct-1",
			Content:     "hello from draftline",
			ScheduledAt: TestTime().Add(time.Hour),
		},
	}
}

// WithOwnerID sets the owning user.
func (b *PostRequestBuilder) WithOwnerID(ownerID string) *PostRequestBuilder {
	b.req.OwnerID = ownerID
	return b
}

// WithAccountRef sets the destination account reference.
func (b *PostRequestBuilder) WithAccountRef(ref string) *PostRequestBuilder {
	b.req.AccountRef = ref
	return b
}

// WithContent sets the post body.
func (b *PostRequestBuilder) WithContent(content string) *PostRequestBuilder {
	b.req.Content = content
	return b
}

// WithScheduledAt sets the publication time.
func (b *PostRequestBuilder) WithScheduledAt(at time.Time) *PostRequestBuilder {
	b.req.ScheduledAt = at
	return b
}

// Build returns the constructed request.
func (b *PostRequestBuilder) Build() *model.CreatePostRequest {
	return b.req
}

// QueueJobBuilder provides a fluent interface for building QueueJob values for testing.
type QueueJobBuilder struct {
	job model.QueueJob
}

// NewQueueJob creates a new QueueJobBuilder with sensible defaults.
func NewQueueJob() *QueueJobBuilder {
	return &QueueJobBuilder{
		job: model.QueueJob{
			ID:          uuid.NewString(),
			OwnerID:     "owner-1",
			AccountRef:  "acct-1",
			Content:     "hello from draftline",
			ScheduledAt: TestTime(),
			CreatedAt:   TestTime().Add(-time.Hour),
		},
	}
}

// WithID sets the job id.
func (b *QueueJobBuilder) WithID(id string) *QueueJobBuilder {
	b.job.ID = id
	return b
}

// WithOwnerID sets the owning user.
func (b *QueueJobBuilder) WithOwnerID(ownerID string) *QueueJobBuilder {
	b.job.OwnerID = ownerID
	return b
}

// WithContent sets the post body.
func (b *QueueJobBuilder) WithContent(content string) *QueueJobBuilder {
	b.job.Content = content
	return b
}

// WithScheduledAt sets the due time that becomes the queue score.
func (b *QueueJobBuilder) WithScheduledAt(at time.Time) *QueueJobBuilder {
	b.job.ScheduledAt = at
	return b
}

// WithRetryCount sets the attempt counter.
func (b *QueueJobBuilder) WithRetryCount(n int) *QueueJobBuilder {
	b.job.RetryCount = n
	return b
}

// Build returns the constructed job.
func (b *QueueJobBuilder) Build() model.QueueJob {
	return b.job
}

// UniqueContent returns content tagged with a fresh suffix so concurrent
// tests against the shared DB don't collide.
func UniqueContent(prefix string) string {
	return fmt.Sprintf("%s %s", prefix, uuid.NewString()[:8])
}
