package model

import "time"

// QueueJob is the payload stored alongside a queue index entry. The queue
// score for the same id is ScheduledAt as epoch milliseconds.
type QueueJob struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	AccountRef  string    `json:"account_ref"`
	Content     string    `json:"content"`
	ScheduledAt time.Time `json:"scheduled_at"`
	RetryCount  int       `json:"retry_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// ScoreMillis returns the queue index score for this job.
func (j QueueJob) ScoreMillis() int64 {
	return j.ScheduledAt.UnixMilli()
}

// DeadLetterEntry is a terminally failed job. Once present, the same id
// must not exist in the live queue and the record status must be failed.
type DeadLetterEntry struct {
	Job           QueueJob  `json:"job"`
	FailureReason string    `json:"failure_reason"`
	FailedAt      time.Time `json:"failed_at"`
}

// QueueStats summarizes the queue store contents at a point in time.
type QueueStats struct {
	// Pending counts entries scheduled in the future (score > now).
	Pending int64 `json:"pending"`
	// Ready counts entries whose scheduled instant has passed (score <= now).
	Ready int64 `json:"ready"`
	// Dead counts dead-letter entries.
	Dead int64 `json:"dead"`
}

// SchedulerStatus is the operational snapshot exposed by the scheduler.
type SchedulerStatus struct {
	Active     bool       `json:"active"`
	Processing bool       `json:"processing"`
	Queue      QueueStats `json:"queue"`
}
