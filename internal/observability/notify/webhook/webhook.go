// Package webhook delivers post outcome notifications to the
// push-notification bridge over a plain JSON webhook.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/draftline/draftline-go/internal/observability/notify"
)

// Config captures the webhook behaviour we need.
type Config struct {
	URL        string
	Source     string
	Timeout    time.Duration
	RetryLimit int
	Client     *http.Client
}

// Client posts outcome events to the configured webhook.
type Client struct {
	url        string
	source     string
	retryLimit int
	client     *http.Client
}

var _ notify.Sink = (*Client)(nil)

// NewClient builds a webhook client. Callers should pass a validated config.
func NewClient(cfg Config) (*Client, error) {
	url := strings.TrimSpace(cfg.URL)
	if url == "" {
		return nil, errors.New("webhook url is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	retries := cfg.RetryLimit
	if retries < 0 {
		retries = 0
	}
	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}

	source := strings.TrimSpace(cfg.Source)
	if source == "" {
		source = "draftline"
	}

	return &Client{
		url:        url,
		source:     source,
		retryLimit: retries,
		client:     hc,
	}, nil
}

// wireEvent is the bridge's expected JSON shape.
type wireEvent struct {
	Source     string            `json:"source"`
	Kind       string            `json:"kind"`
	PostID     string            `json:"post_id"`
	OwnerID    string            `json:"owner_id"`
	AccountRef string            `json:"account_ref,omitempty"`
	ExternalID string            `json:"external_id,omitempty"`
	Error      string            `json:"error,omitempty"`
	Severity   string            `json:"severity"`
	OccurredAt time.Time         `json:"occurred_at"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// SendPostEvent posts the event, retrying transport failures with a
// linear backoff.
func (c *Client) SendPostEvent(ctx context.Context, payload notify.PostEventPayload) error {
	body, err := json.Marshal(c.toWire(payload))
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	attempts := c.retryLimit + 1
	var lastErr error
	for attempt := range attempts {
		err = c.post(ctx, body)
		if err == nil {
			return nil
		}
		lastErr = err
		if attempt < attempts-1 {
			delay := time.Duration(attempt+1) * 200 * time.Millisecond
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				if !timer.Stop() {
					<-timer.C
				}
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	return lastErr
}

func (c *Client) toWire(payload notify.PostEventPayload) wireEvent {
	occurredAt := payload.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	kind := "post.failed"
	severity := payload.Severity
	if payload.Published {
		kind = "post.published"
		if severity == "" {
			severity = notify.SeverityInfo
		}
	} else if severity == "" {
		severity = notify.SeverityCritical
	}

	return wireEvent{
		Source:     c.source,
		Kind:       kind,
		PostID:     payload.PostID,
		OwnerID:    payload.OwnerID,
		AccountRef: payload.AccountRef,
		ExternalID: payload.ExternalID,
		Error:      payload.Error,
		Severity:   severity,
		OccurredAt: occurredAt,
		Metadata:   payload.Metadata,
	}
}

func (c *Client) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook responded %d", resp.StatusCode)
	}
	return nil
}
