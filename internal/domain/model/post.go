// Package model defines the core data types shared by the draftline
// scheduling and publication system.
package model

import (
	"fmt"
	"strings"
	"time"
)

// PostStatus represents the authoritative lifecycle status of a post.
// The record store owns this field; the queue is only a dispatch index
// over records in StatusScheduled.
type PostStatus string

const (
	// PostStatusDraft indicates content that is saved but not scheduled.
	PostStatusDraft PostStatus = "draft"
	// PostStatusScheduled indicates a post awaiting publication.
	PostStatusScheduled PostStatus = "scheduled"
	// PostStatusPublished indicates the post reached the external platform.
	PostStatusPublished PostStatus = "published"
	// PostStatusFailed indicates a terminal failure; the job lives in the
	// dead-letter store and is never retried automatically.
	PostStatusFailed PostStatus = "failed"
)

// Valid returns true if the PostStatus is valid.
func (s PostStatus) Valid() bool {
	return s == PostStatusDraft || s == PostStatusScheduled ||
		s == PostStatusPublished || s == PostStatusFailed
}

// UnmarshalText implements encoding.TextUnmarshaler for PostStatus.
func (s *PostStatus) UnmarshalText(text []byte) error {
	v := PostStatus(strings.ToLower(strings.TrimSpace(string(text))))
	if !v.Valid() {
		return fmt.Errorf("invalid PostStatus: %q", v)
	}
	*s = v
	return nil
}

// MaxContentLength is the largest post body accepted at schedule time.
// Oversized content is rejected synchronously and never enters the queue.
const MaxContentLength = 3000

// Post is the authoritative record for one piece of scheduled content.
// Its ID is shared with the queue entry for the same logical item.
type Post struct {
	ID            string     `json:"id"                       db:"id"`
	OwnerID       string     `json:"owner_id"                 db:"owner_id"`
	AccountRef    string     `json:"account_ref"              db:"account_ref"`
	Content       string     `json:"content"                  db:"content"`
	Status        PostStatus `json:"status"                   db:"status"`
	ScheduledAt   time.Time  `json:"scheduled_at"             db:"scheduled_at"`
	RetryCount    int        `json:"retry_count"              db:"retry_count"`
	FailureReason *string    `json:"failure_reason,omitempty" db:"failure_reason"`
	PublishedAt   *time.Time `json:"published_at,omitempty"   db:"published_at"`
	ExternalID    *string    `json:"external_id,omitempty"    db:"external_id"`
	CreatedAt     time.Time  `json:"created_at"               db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"               db:"updated_at"`
}

// CreatePostRequest represents a request to schedule a new post.
type CreatePostRequest struct {
	OwnerID     string    `json:"owner_id"`
	AccountRef  string    `json:"account_ref"`
	Content     string    `json:"content"`
	ScheduledAt time.Time `json:"scheduled_at"`
}

// UpdatePostRequest represents an edit to a scheduled post. Nil fields
// are left unchanged.
type UpdatePostRequest struct {
	Content     *string    `json:"content,omitempty"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
}
