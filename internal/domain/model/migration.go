// Package model defines the core data types for the PSA sync and migration engine.
package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// MigrationStatus represents the lifecycle state of a migration job.
type MigrationStatus string

const (
	// MigrationStatusPending indicates a job has been accepted but not started.
	MigrationStatusPending MigrationStatus = "pending"
	// MigrationStatusRunning indicates a job is actively processing batches.
	MigrationStatusRunning MigrationStatus = "running"
	// MigrationStatusPaused indicates a job was paused at a batch boundary.
	MigrationStatusPaused MigrationStatus = "paused"
	// MigrationStatusCompleted indicates all batches were processed; per-record
	// failures do not prevent this state.
	MigrationStatusCompleted MigrationStatus = "completed"
	// MigrationStatusFailed indicates a systemic failure (e.g., the accounting
	// system unreachable across a whole batch).
	MigrationStatusFailed MigrationStatus = "failed"
	// MigrationStatusCancelled indicates an operator cancelled the job.
	MigrationStatusCancelled MigrationStatus = "cancelled"
)

// Valid returns true if the MigrationStatus is one of the known states.
func (s MigrationStatus) Valid() bool {
	switch s {
	case MigrationStatusPending, MigrationStatusRunning, MigrationStatusPaused,
		MigrationStatusCompleted, MigrationStatusFailed, MigrationStatusCancelled:
		return true
	}
	return false
}

// Terminal returns true if no further transitions are allowed from s.
func (s MigrationStatus) Terminal() bool {
	return s == MigrationStatusCompleted || s == MigrationStatusFailed || s == MigrationStatusCancelled
}

// ErrorClass distinguishes retryable from non-retryable record failures.
type ErrorClass string

const (
	// ErrorClassTransient marks failures expected to succeed on retry
	// (timeouts, rate limits, 5xx responses).
	ErrorClassTransient ErrorClass = "transient"
	// ErrorClassPermanent marks failures that will not succeed on retry
	// (rejected or malformed data).
	ErrorClassPermanent ErrorClass = "permanent"
)

const (
	// MinBatchSize is the smallest allowed migration batch size.
	MinBatchSize = 1
	// MaxBatchSize is the largest allowed migration batch size.
	MaxBatchSize = 100
)

// DateRange bounds the source records a migration targets. End is inclusive.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Validate checks the range ordering.
func (r DateRange) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return errors.New("date range start and end are required")
	}
	if r.End.Before(r.Start) {
		return errors.New("date range end must not precede start")
	}
	return nil
}

// MigrationConfig is the operator-supplied configuration for one migration run.
type MigrationConfig struct {
	BatchSize             int        `json:"batch_size"`
	DelayBetweenBatchesMs int        `json:"delay_between_batches_ms"`
	MaxRetries            int        `json:"max_retries"`
	DryRun                bool       `json:"dry_run"`
	DateRange             *DateRange `json:"date_range,omitempty"`
	IncludeRejected       bool       `json:"include_rejected,omitempty"`
	// Force allows starting despite blocking validation errors. Audited.
	Force bool `json:"force,omitempty"`
}

// Validate validates the MigrationConfig fields.
func (c *MigrationConfig) Validate() error {
	if c.BatchSize < MinBatchSize || c.BatchSize > MaxBatchSize {
		return fmt.Errorf("batch size must be between %d and %d", MinBatchSize, MaxBatchSize)
	}
	if c.DelayBetweenBatchesMs < 0 {
		return errors.New("delay between batches must be >= 0")
	}
	if c.MaxRetries < 0 {
		return errors.New("max retries must be >= 0")
	}
	if c.DateRange != nil {
		if err := c.DateRange.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Delay returns the inter-batch delay as a duration.
func (c *MigrationConfig) Delay() time.Duration {
	return time.Duration(c.DelayBetweenBatchesMs) * time.Millisecond
}

// Scope derives the logical exclusivity scope for this configuration. At most
// one job may be running or paused per scope at any time.
func (c *MigrationConfig) Scope() string {
	var b strings.Builder
	b.WriteString("timesheet")
	if c.DateRange != nil {
		fmt.Fprintf(&b, ":%s..%s",
			c.DateRange.Start.UTC().Format("2006-01-02"),
			c.DateRange.End.UTC().Format("2006-01-02"))
	} else {
		b.WriteString(":all")
	}
	if c.IncludeRejected {
		b.WriteString(":rejected")
	}
	return b.String()
}

// ErrorEntry records one record-level failure or retry history. Entries are
// append-only for the lifetime of a job.
type ErrorEntry struct {
	RecordID   string     `json:"record_id"   db:"record_id"`
	Message    string     `json:"message"     db:"message"`
	Class      ErrorClass `json:"class"       db:"class"`
	RetryCount int        `json:"retry_count" db:"retry_count"`
	OccurredAt time.Time  `json:"occurred_at" db:"occurred_at"`
}

// MigrationJob is one run of the migration state machine. It is owned by the
// coordinator for its lifetime and becomes immutable once terminal, except
// that the error list is append-only while the job is active.
type MigrationJob struct {
	ID     string          `json:"id"     db:"id"`
	Scope  string          `json:"scope"  db:"scope"`
	Status MigrationStatus `json:"status" db:"status"`
	Config MigrationConfig `json:"config" db:"config"`

	TotalRecords     int `json:"total_records"     db:"total_records"`
	ProcessedRecords int `json:"processed_records" db:"processed_records"`
	SucceededRecords int `json:"succeeded_records" db:"succeeded_records"`
	FailedRecords    int `json:"failed_records"    db:"failed_records"`

	// CurrentBatch is the number of fully settled batches; resume continues
	// at batch index CurrentBatch.
	CurrentBatch int `json:"current_batch" db:"current_batch"`
	TotalBatches int `json:"total_batches" db:"total_batches"`

	StartedAt             *time.Time `json:"started_at,omitempty"              db:"started_at"`
	LastBatchAt           *time.Time `json:"last_batch_at,omitempty"           db:"last_batch_at"`
	EstimatedCompletionAt *time.Time `json:"estimated_completion_at,omitempty" db:"estimated_completion_at"`
	CompletedAt           *time.Time `json:"completed_at,omitempty"            db:"completed_at"`
	LeaseExpiresAt        *time.Time `json:"lease_expires_at,omitempty"        db:"lease_expires_at"`

	Errors []ErrorEntry `json:"errors" db:"-"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// CanTransition reports whether the state machine allows moving to next.
// Idempotent repeats (same state) are allowed and treated as no-ops upstream.
func (j *MigrationJob) CanTransition(next MigrationStatus) bool {
	if j.Status == next {
		return true
	}
	switch j.Status {
	case MigrationStatusPending:
		return next == MigrationStatusRunning || next == MigrationStatusCancelled
	case MigrationStatusRunning:
		return next == MigrationStatusPaused || next == MigrationStatusCompleted ||
			next == MigrationStatusFailed || next == MigrationStatusCancelled
	case MigrationStatusPaused:
		return next == MigrationStatusRunning || next == MigrationStatusCancelled
	default:
		return false
	}
}

// Snapshot builds a progress snapshot from the persisted job state. Live
// jobs publish snapshots through their tracker instead.
func (j *MigrationJob) Snapshot() *ProgressSnapshot {
	return &ProgressSnapshot{
		JobID:                 j.ID,
		Status:                j.Status,
		TotalRecords:          j.TotalRecords,
		ProcessedRecords:      j.ProcessedRecords,
		SucceededRecords:      j.SucceededRecords,
		FailedRecords:         j.FailedRecords,
		CurrentBatch:          j.CurrentBatch,
		TotalBatches:          j.TotalBatches,
		StartedAt:             j.StartedAt,
		LastBatchAt:           j.LastBatchAt,
		EstimatedCompletionAt: j.EstimatedCompletionAt,
		Errors:                append([]ErrorEntry(nil), j.Errors...),
	}
}

// ProgressSnapshot is an immutable, internally consistent view of a
// migration's progress, safe to hand to concurrent readers.
type ProgressSnapshot struct {
	JobID                 string          `json:"job_id"`
	Status                MigrationStatus `json:"status"`
	TotalRecords          int             `json:"total_records"`
	ProcessedRecords      int             `json:"processed_records"`
	SucceededRecords      int             `json:"succeeded_records"`
	FailedRecords         int             `json:"failed_records"`
	CurrentBatch          int             `json:"current_batch"`
	TotalBatches          int             `json:"total_batches"`
	StartedAt             *time.Time      `json:"started_at,omitempty"`
	LastBatchAt           *time.Time      `json:"last_batch_at,omitempty"`
	EstimatedCompletionAt *time.Time      `json:"estimated_completion_at,omitempty"`
	Errors                []ErrorEntry    `json:"errors"`
}
