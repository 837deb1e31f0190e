package model

import (
	"time"
)

// JobOutcome represents the overall result of one job attempt
type JobOutcome string

const (
	JobOutcomeSuccess JobOutcome = "success"
	JobOutcomeFailure JobOutcome = "failure"
)

// JobHistoryEntry is the append-only record of a single run attempt
// of a scheduled report. Written exactly once per attempt.
type JobHistoryEntry struct {
	ID         string        `json:"id"`
	ScheduleID string        `json:"schedule_id"`
	RunAt      time.Time     `json:"run_at"`
	Outcome    JobOutcome    `json:"outcome"`
	Duration   time.Duration `json:"duration"`
	Error      string        `json:"error,omitempty"`
	VersionID  string        `json:"version_id,omitempty"`
}

// DispatchStatus represents the result of handing one artifact to the
// mailer for one recipient
type DispatchStatus string

const (
	DispatchSent   DispatchStatus = "sent"
	DispatchFailed DispatchStatus = "failed"
)

// DispatchRecord logs a single per-recipient dispatch attempt
type DispatchRecord struct {
	ID         string         `json:"id"`
	ScheduleID string         `json:"schedule_id,omitempty"`
	VersionID  string         `json:"version_id"`
	Recipient  string         `json:"recipient"`
	Subject    string         `json:"subject,omitempty"`
	Status     DispatchStatus `json:"status"`
	Error      string         `json:"error,omitempty"`
	SentAt     time.Time      `json:"sent_at"`
}
