package publish

import "time"

// Action is the single transition the scheduler applies after an attempt.
type Action int

const (
	// ActionPublish marks the record published and removes the queue entry.
	ActionPublish Action = iota
	// ActionRetry increments the retry count and reschedules the entry.
	ActionRetry
	// ActionDeadLetter marks the record failed and moves the entry to the
	// dead-letter store. Terminal.
	ActionDeadLetter
)

// ResolverOptions configures retry behaviour.
type ResolverOptions struct {
	// MaxRetries is the transient-failure budget.
	MaxRetries int
	// RetryDelay is the fixed delay applied on each reschedule.
	RetryDelay time.Duration
}

// Resolver turns a publish error plus the job's retry state into exactly
// one transition. It is pure: no clocks, stores, or side effects.
type Resolver struct {
	maxRetries int
	retryDelay time.Duration
}

// Resolution describes the transition to apply.
type Resolution struct {
	Action Action
	// Outcome is the classified failure category (meaningless for a clean success).
	Outcome Outcome
	// ExternalID is set for ActionPublish when the id was recovered from a
	// duplicate-submission error rather than a normal response.
	ExternalID string
	// RescheduleAt is set for ActionRetry.
	RescheduleAt time.Time
	// RetryCount is the attempt count to record for ActionRetry and
	// ActionDeadLetter. A non-retryable failure counts its own attempt;
	// an exhausted budget keeps the count the retries already built up.
	RetryCount int
	// Reason carries the failure text recorded on the record and, for
	// ActionDeadLetter, on the dead-letter entry.
	Reason string
}

// NewResolver constructs a Resolver with guardrails on the options.
func NewResolver(opts ResolverOptions) *Resolver {
	maxRetries := opts.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	delay := opts.RetryDelay
	if delay <= 0 {
		delay = 5 * time.Minute
	}
	return &Resolver{maxRetries: maxRetries, retryDelay: delay}
}

// Resolve classifies err and decides the transition for a job currently at
// retryCount attempts. A nil err resolves to ActionPublish with no
// recovered id (the caller already has the real one from the gateway).
func (r *Resolver) Resolve(err error, retryCount int, now time.Time) Resolution {
	if err == nil {
		return Resolution{Action: ActionPublish}
	}

	outcome := Classify(err)
	switch outcome {
	case OutcomeDuplicate:
		res := Resolution{Action: ActionPublish, Outcome: outcome}
		if id, ok := ExtractExternalID(err); ok {
			res.ExternalID = id
		}
		return res

	case OutcomeAuth:
		// The rejected attempt itself is counted on the terminal record.
		return Resolution{
			Action:     ActionDeadLetter,
			Outcome:    outcome,
			RetryCount: retryCount + 1,
			Reason:     err.Error(),
		}

	default:
		if retryCount < r.maxRetries {
			return Resolution{
				Action:       ActionRetry,
				Outcome:      outcome,
				RescheduleAt: now.Add(r.retryDelay),
				RetryCount:   retryCount + 1,
				Reason:       err.Error(),
			}
		}
		// Budget exhausted: transient failures become terminal. The
		// retries that spent the budget were already counted.
		return Resolution{
			Action:     ActionDeadLetter,
			Outcome:    outcome,
			RetryCount: retryCount,
			Reason:     err.Error(),
		}
	}
}
