// Package core declares the service-layer contracts for the PSA sync engine.
// External collaborators (record store, accounting API, audit sink) are
// specified here at their interface boundary only.
package core

import (
	"context"
	"time"

	"github.com/psai-foundry/project-foundry-psa-sub001/internal/domain/model"
)

//go:generate mockgen -source=interfaces.go -destination=../mocks/core_mocks.go -package=mocks

// RecordStore exposes the source business records a migration targets.
// Implementations must return records in deterministic order (work date, id)
// so that resume semantics are exact.
type RecordStore interface {
	// FetchCandidates returns the records matching the migration
	// configuration, ordered deterministically.
	FetchCandidates(ctx context.Context, cfg model.MigrationConfig) ([]model.TimesheetRecord, error)
	// MarkSynced records the external identifier assigned to a record.
	MarkSynced(ctx context.Context, recordID, externalID string) error
}

// SubmissionResult is returned by the accounting client for one record.
type SubmissionResult struct {
	ExternalID string
}

// AccountingClient submits one record to the external accounting system.
// Errors should implement Transient() bool where the classification is known;
// unclassified errors are treated as transient by the retry manager.
type AccountingClient interface {
	SubmitTimesheet(ctx context.Context, rec model.TimesheetRecord) (SubmissionResult, error)
}

// AuditEvent is one control-plane mutation record.
type AuditEvent struct {
	Actor   string    `json:"actor"`
	Action  string    `json:"action"`
	Scope   string    `json:"scope"`
	Outcome string    `json:"outcome"`
	Count   int       `json:"count,omitempty"`
	At      time.Time `json:"at"`
}

// AuditSink receives control-plane audit events. Sink failures must not
// abort the mutation they describe; callers log and continue.
type AuditSink interface {
	Record(ctx context.Context, event AuditEvent) error
}

// MigrationJobRepository persists migration jobs and their error entries.
type MigrationJobRepository interface {
	// Create persists a new job. Returns ErrScopeConflict when another
	// running or paused job exists for the same scope.
	Create(ctx context.Context, job *model.MigrationJob) error
	// Update persists counters, cursor, status, and timestamps.
	Update(ctx context.Context, job *model.MigrationJob) error
	// AppendErrors appends error entries for a job.
	AppendErrors(ctx context.Context, jobID string, entries []model.ErrorEntry) error
	// Get loads a job with its error entries.
	Get(ctx context.Context, id string) (*model.MigrationJob, error)
	// List returns recent jobs, newest first.
	List(ctx context.Context, limit int) ([]*model.MigrationJob, error)
	// ActiveExistsForScope reports whether a running or paused job exists
	// for the scope.
	ActiveExistsForScope(ctx context.Context, scope string) (bool, error)
	// Heartbeat extends the worker lease on a running job.
	Heartbeat(ctx context.Context, id string, until time.Time) error
	// FailExpired marks running jobs whose lease expired before now as
	// failed, returning the ids of the jobs reaped.
	FailExpired(ctx context.Context, now time.Time) ([]string, error)
}

// QueueStore is the storage backend for named ad-hoc job queues. Operations
// on one queue must never block operations on another.
type QueueStore interface {
	Add(ctx context.Context, queue string, job *model.QueueJob) error
	Get(ctx context.Context, queue, jobID string) (*model.QueueJob, error)
	// List returns jobs in the given states; empty states means all states.
	List(ctx context.Context, queue string, states []model.QueueJobState) ([]*model.QueueJob, error)
	// Remove deletes the given jobs, returning how many existed.
	Remove(ctx context.Context, queue string, jobIDs []string) (int, error)
	// UpdateState moves a job between states, preserving its payload.
	UpdateState(ctx context.Context, queue, jobID string, state model.QueueJobState, lastError string) error
	Stats(ctx context.Context, queue string) (model.QueueStats, error)
	// Queues returns the names of all known queues.
	Queues(ctx context.Context) ([]string, error)
	SetPaused(ctx context.Context, queue string, paused bool) error
	IsPaused(ctx context.Context, queue string) (bool, error)
	// NextWaiting atomically claims the oldest waiting job, moving it to
	// active and incrementing its attempt count. Returns nil when nothing
	// is waiting.
	NextWaiting(ctx context.Context, queue string) (*model.QueueJob, error)
}

// Clock abstracts time for deterministic tests.
type Clock interface {
	Now() time.Time
}

// Sleeper abstracts cancellable delays (inter-batch delay, retry backoff).
type Sleeper interface {
	// Sleep blocks for d or until ctx is done, returning ctx.Err() in the
	// latter case.
	Sleep(ctx context.Context, d time.Duration) error
}
