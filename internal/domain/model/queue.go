package model

import (
	"encoding/json"
	"errors"
	"time"
)

// QueueJobState represents the dispatch state of a queue job.
type QueueJobState string

const (
	// QueueJobWaiting indicates a job is queued for dispatch.
	QueueJobWaiting QueueJobState = "waiting"
	// QueueJobActive indicates a job is being executed by a dispatcher.
	QueueJobActive QueueJobState = "active"
	// QueueJobCompleted indicates a job finished successfully.
	QueueJobCompleted QueueJobState = "completed"
	// QueueJobFailed indicates a job failed after its attempts.
	QueueJobFailed QueueJobState = "failed"
	// QueueJobDelayed indicates a job is held until a later dispatch time.
	QueueJobDelayed QueueJobState = "delayed"
)

// Valid returns true if the QueueJobState is one of the known states.
func (s QueueJobState) Valid() bool {
	switch s {
	case QueueJobWaiting, QueueJobActive, QueueJobCompleted, QueueJobFailed, QueueJobDelayed:
		return true
	}
	return false
}

// QueueJobStates lists every queue job state, in stats-reporting order.
func QueueJobStates() []QueueJobState {
	return []QueueJobState{QueueJobWaiting, QueueJobActive, QueueJobCompleted, QueueJobFailed, QueueJobDelayed}
}

// QueueJob is one small asynchronous task in a named queue. Its lifecycle is
// independent of migration jobs; many may exist concurrently per queue.
type QueueJob struct {
	ID        string          `json:"id"`
	Queue     string          `json:"queue"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	State     QueueJobState   `json:"state"`
	Attempts  int             `json:"attempts"`
	LastError string          `json:"last_error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// AddQueueJobRequest is the boundary shape for enqueuing a job.
type AddQueueJobRequest struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Validate validates the AddQueueJobRequest fields.
func (r *AddQueueJobRequest) Validate() error {
	if r.Type == "" {
		return errors.New("job type is required")
	}
	if len(r.Payload) == 0 {
		return errors.New("payload is required")
	}
	if !json.Valid(r.Payload) {
		return errors.New("payload must be valid JSON")
	}
	return nil
}

// QueueStats reports per-queue counts and the paused flag.
type QueueStats struct {
	Queue     string `json:"queue"`
	Waiting   int    `json:"waiting"`
	Active    int    `json:"active"`
	Completed int    `json:"completed"`
	Failed    int    `json:"failed"`
	Delayed   int    `json:"delayed"`
	Paused    bool   `json:"paused"`
}

// Depth returns the count of jobs not yet in a terminal state.
func (s QueueStats) Depth() int {
	return s.Waiting + s.Active + s.Delayed
}

// QueueHealth summarises a queue for operator dashboards.
type QueueHealth struct {
	Queue        string  `json:"queue"`
	Depth        int     `json:"depth"`
	FailureRatio float64 `json:"failure_ratio"`
	Paused       bool    `json:"paused"`
}

// RetryOutcome reports the per-job result of a queue retry request.
type RetryOutcome struct {
	JobID   string `json:"job_id"`
	Retried bool   `json:"retried"`
	Reason  string `json:"reason,omitempty"`
}
