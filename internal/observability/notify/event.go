// Package notify defines the outbound notification surface for terminal
// post outcomes.
package notify

import (
	"context"
	"time"
)

// Severity constants recognised by downstream sinks.
const (
	SeverityInfo     = "info"
	SeverityCritical = "critical"
)

// PostEventPayload is the canonical data emitted for post outcome
// notifications, both success and terminal failure.
type PostEventPayload struct {
	PostID     string
	OwnerID    string
	AccountRef string
	Published  bool
	ExternalID string
	Error      string
	Severity   string
	OccurredAt time.Time
	Metadata   map[string]string
}

// Sink is a destination capable of consuming post outcome notifications.
type Sink interface {
	SendPostEvent(ctx context.Context, payload PostEventPayload) error
}

// SinkFunc adapts a function to the Sink interface (useful for tests).
type SinkFunc func(ctx context.Context, payload PostEventPayload) error

// SendPostEvent implements the Sink interface.
func (f SinkFunc) SendPostEvent(ctx context.Context, payload PostEventPayload) error {
	if f == nil {
		return nil
	}
	return f(ctx, payload)
}
