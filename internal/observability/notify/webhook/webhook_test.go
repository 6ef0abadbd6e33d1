package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/draftline/draftline-go/internal/observability/notify"
)

func TestClient_SendPostEvent(t *testing.T) {
	var got wireEvent
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := NewClient(Config{URL: srv.URL, Source: "draftline-test"})
	require.NoError(t, err)

	err = client.SendPostEvent(context.Background(), notify.PostEventPayload{
		PostID:     "p1",
		OwnerID:    "owner-1",
		AccountRef: "acct-1",
		Published:  true,
		ExternalID: "X999",
	})
	require.NoError(t, err)

	assert.Equal(t, "draftline-test", got.Source)
	assert.Equal(t, "post.published", got.Kind)
	assert.Equal(t, "X999", got.ExternalID)
	assert.Equal(t, notify.SeverityInfo, got.Severity)
	assert.False(t, got.OccurredAt.IsZero())
}

func TestClient_FailureEventDefaultsCritical(t *testing.T) {
	var got wireEvent
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	}))
	defer srv.Close()

	client, err := NewClient(Config{URL: srv.URL})
	require.NoError(t, err)

	err = client.SendPostEvent(context.Background(), notify.PostEventPayload{
		PostID:  "p1",
		OwnerID: "owner-1",
		Error:   "authorization revoked",
	})
	require.NoError(t, err)

	assert.Equal(t, "post.failed", got.Kind)
	assert.Equal(t, "authorization revoked", got.Error)
	assert.Equal(t, notify.SeverityCritical, got.Severity)
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client, err := NewClient(Config{URL: srv.URL, RetryLimit: 3, Timeout: time.Second})
	require.NoError(t, err)

	err = client.SendPostEvent(context.Background(), notify.PostEventPayload{PostID: "p1"})
	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_ExhaustedRetriesReturnLastError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, err := NewClient(Config{URL: srv.URL, RetryLimit: 1})
	require.NoError(t, err)

	err = client.SendPostEvent(context.Background(), notify.PostEventPayload{PostID: "p1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "webhook responded 500")
}

func TestNewClient_RequiresURL(t *testing.T) {
	_, err := NewClient(Config{})
	require.Error(t, err)
}
