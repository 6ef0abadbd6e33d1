// Package metrics centralises metric names and tagging for the
// publication pipeline.
package metrics

import (
	"time"

	obserrors "github.com/draftline/draftline-go/internal/observability/errors"
	"github.com/draftline/draftline-go/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// PublishMetric captures one publish attempt for metric emission.
type PublishMetric struct {
	Outcome  string
	Action   string
	Result   string
	Duration time.Duration
	Err      error
}

// EmitPublishAttempt emits standardised publish-attempt metrics.
func EmitPublishAttempt(sink statsd.Sink, in PublishMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"outcome": in.Outcome,
		"action":  in.Action,
		"result":  in.Result,
	}
	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("publish.attempt", 1, tags)
	if in.Duration > 0 {
		sink.Timing("publish.duration", in.Duration, CloneTags(tags))
	}
}

// TickMetric captures one scheduler pass for metric emission.
type TickMetric struct {
	Processed int
	Acquired  bool
	Duration  time.Duration
	Err       error
}

// EmitSchedulerTick emits the standardised per-pass metrics.
func EmitSchedulerTick(sink statsd.Sink, in TickMetric) {
	if sink == nil {
		return
	}

	result := ResultSuccess
	switch {
	case in.Err != nil:
		result = ResultError
	case !in.Acquired:
		result = ResultNoop
	}

	tags := map[string]string{"result": result}
	if in.Err != nil {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("scheduler.tick", 1, tags)
	sink.Count("scheduler.processed", int64(in.Processed), nil)
	if in.Duration > 0 {
		sink.Timing("scheduler.tick_duration", in.Duration, CloneTags(tags))
	}
}

// EmitQueueDepth publishes queue gauges from a stats snapshot.
func EmitQueueDepth(sink statsd.Sink, pending, ready, dead int64) {
	if sink == nil {
		return
	}
	sink.Gauge("queue.pending", float64(pending), nil)
	sink.Gauge("queue.ready", float64(ready), nil)
	sink.Gauge("queue.dead", float64(dead), nil)
}

// CloneTags creates a shallow copy of a tag map, filtering out empty keys.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		if k == "" {
			continue
		}
		out[k] = v
	}
	return out
}
