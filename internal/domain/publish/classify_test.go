package publish_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftline/draftline-go/internal/domain/publish"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want publish.Outcome
	}{
		{"duplicate content", errors.New("duplicate content, already posted as urn:X999"), publish.OutcomeDuplicate},
		{"already been posted", errors.New("this update has already been posted"), publish.OutcomeDuplicate},
		{"already shared", errors.New("content already shared by member"), publish.OutcomeDuplicate},
		{"unauthorized", errors.New("provider returned status 401 Unauthorized"), publish.OutcomeAuth},
		{"forbidden", errors.New("provider returned status 403 Forbidden"), publish.OutcomeAuth},
		{"revoked token", errors.New("the token has been revoked"), publish.OutcomeAuth},
		{"expired token", errors.New("expired token, please re-authenticate"), publish.OutcomeAuth},
		{"rate limited", errors.New("provider returned status 429 Too Many Requests"), publish.OutcomeTransient},
		{"server error", errors.New("provider returned status 503 Service Unavailable"), publish.OutcomeTransient},
		{"timeout text", errors.New("request timed out"), publish.OutcomeTransient},
		{"deadline", context.DeadlineExceeded, publish.OutcomeTransient},
		{"unknown error", errors.New("something odd happened"), publish.OutcomeTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, publish.Classify(tt.err))
		})
	}
}

// The duplicate signal must win even when the same message carries markers
// from other categories (e.g. a 4xx status around a duplicate report).
func TestClassifyDuplicateWinsOverOtherMarkers(t *testing.T) {
	err := errors.New("status 400: duplicate content, already posted as urn:X123")
	assert.Equal(t, publish.OutcomeDuplicate, publish.Classify(err))
}

func TestExtractExternalID(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		wantID string
		wantOK bool
	}{
		{"simple urn", errors.New("duplicate content, already posted as urn:X999"), "X999", true},
		{"namespaced urn", errors.New("duplicate of urn:li:share:6573"), "li:share:6573", true},
		{"no urn", errors.New("duplicate content"), "", false},
		{"nil", nil, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := publish.ExtractExternalID(tt.err)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestResolveSuccess(t *testing.T) {
	r := publish.NewResolver(publish.ResolverOptions{MaxRetries: 3, RetryDelay: 5 * time.Minute})
	res := r.Resolve(nil, 0, time.Now())
	assert.Equal(t, publish.ActionPublish, res.Action)
	assert.Empty(t, res.ExternalID)
}

func TestResolveDuplicateRecoversID(t *testing.T) {
	r := publish.NewResolver(publish.ResolverOptions{MaxRetries: 3, RetryDelay: 5 * time.Minute})

	err := errors.New("duplicate content, already posted as urn:X123")
	res := r.Resolve(err, 2, time.Now())

	assert.Equal(t, publish.ActionPublish, res.Action)
	assert.Equal(t, "X123", res.ExternalID)
}

func TestResolveAuthDeadLettersImmediately(t *testing.T) {
	r := publish.NewResolver(publish.ResolverOptions{MaxRetries: 3, RetryDelay: 5 * time.Minute})

	// Retry budget untouched: auth failures never retry.
	res := r.Resolve(errors.New("provider returned status 401 Unauthorized"), 0, time.Now())

	assert.Equal(t, publish.ActionDeadLetter, res.Action)
	assert.Equal(t, publish.OutcomeAuth, res.Outcome)
	assert.Contains(t, res.Reason, "401")
}

func TestResolveTransientWithinBudget(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	r := publish.NewResolver(publish.ResolverOptions{MaxRetries: 3, RetryDelay: 5 * time.Minute})

	for retryCount := range 3 {
		res := r.Resolve(errors.New("503 service unavailable"), retryCount, now)
		require.Equal(t, publish.ActionRetry, res.Action, "retryCount=%d", retryCount)
		assert.Equal(t, now.Add(5*time.Minute), res.RescheduleAt)
	}
}

func TestResolveTransientBudgetExhausted(t *testing.T) {
	r := publish.NewResolver(publish.ResolverOptions{MaxRetries: 3, RetryDelay: 5 * time.Minute})

	res := r.Resolve(errors.New("503 service unavailable"), 3, time.Now())

	assert.Equal(t, publish.ActionDeadLetter, res.Action)
	assert.Equal(t, publish.OutcomeTransient, res.Outcome)
}

func TestResolverDefaults(t *testing.T) {
	r := publish.NewResolver(publish.ResolverOptions{MaxRetries: -1})
	res := r.Resolve(fmt.Errorf("wrapped: %w", errors.New("429 too many requests")), 0, time.Now())

	// MaxRetries clamps to zero, so the first transient failure is terminal.
	assert.Equal(t, publish.ActionDeadLetter, res.Action)
}
