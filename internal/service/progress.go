package service

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/psai-foundry/project-foundry-psa-sub001/internal/core"
	"github.com/psai-foundry/project-foundry-psa-sub001/internal/domain/model"
)

// ProgressTracker accumulates a migration's live counters and publishes
// internally consistent snapshots. Writes go through a mutex held by the
// processing side; reads load an atomically swapped snapshot and never touch
// the write path.
type ProgressTracker struct {
	mu    sync.Mutex
	clock core.Clock

	jobID        string
	status       model.MigrationStatus
	total        int
	processed    int
	succeeded    int
	failed       int
	currentBatch int
	totalBatches int

	startedAt   *time.Time
	lastBatchAt *time.Time

	batchTime     time.Duration
	settledInRun  int
	errs          []model.ErrorEntry
	pendingErrs   []model.ErrorEntry
	snap          atomic.Pointer[model.ProgressSnapshot]
	interBatchGap time.Duration
}

// NewProgressTracker seeds a tracker from a persisted job so that counters
// survive pause/resume and process restarts.
func NewProgressTracker(job *model.MigrationJob, clock core.Clock) *ProgressTracker {
	if clock == nil {
		clock = RealClock{}
	}
	t := &ProgressTracker{
		clock:         clock,
		jobID:         job.ID,
		status:        job.Status,
		total:         job.TotalRecords,
		processed:     job.ProcessedRecords,
		succeeded:     job.SucceededRecords,
		failed:        job.FailedRecords,
		currentBatch:  job.CurrentBatch,
		totalBatches:  job.TotalBatches,
		startedAt:     job.StartedAt,
		lastBatchAt:   job.LastBatchAt,
		errs:          append([]model.ErrorEntry(nil), job.Errors...),
		interBatchGap: job.Config.Delay(),
	}
	t.publishLocked()
	return t
}

// Start marks the job running and stamps the start time on first use.
func (t *ProgressTracker) Start() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = model.MigrationStatusRunning
	if t.startedAt == nil {
		now := t.clock.Now()
		t.startedAt = &now
	}
	t.publishLocked()
}

// Record accounts for one settled record. The processed counter and its
// success/failure counterpart move together under one lock so no snapshot
// can observe them out of step.
func (t *ProgressTracker) Record(ok bool, entry *model.ErrorEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.processed++
	if ok {
		t.succeeded++
	} else {
		t.failed++
	}
	if entry != nil {
		t.errs = append(t.errs, *entry)
		t.pendingErrs = append(t.pendingErrs, *entry)
	}
	t.publishLocked()
}

// EndBatch advances the batch cursor after a batch fully settles and folds
// the batch duration into the completion estimate.
func (t *ProgressTracker) EndBatch(elapsed time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.currentBatch++
	t.settledInRun++
	t.batchTime += elapsed
	now := t.clock.Now()
	t.lastBatchAt = &now
	t.publishLocked()
}

// SetStatus publishes a status change.
func (t *ProgressTracker) SetStatus(status model.MigrationStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = status
	t.publishLocked()
}

// Snapshot returns the latest published snapshot. Safe for concurrent use.
func (t *ProgressTracker) Snapshot() *model.ProgressSnapshot {
	return t.snap.Load()
}

// DrainNewErrors returns error entries recorded since the previous drain,
// for append-only persistence.
func (t *ProgressTracker) DrainNewErrors() []model.ErrorEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.pendingErrs
	t.pendingErrs = nil
	return out
}

// ApplyTo copies the tracker's current state onto a job for persistence.
func (t *ProgressTracker) ApplyTo(job *model.MigrationJob) {
	t.mu.Lock()
	defer t.mu.Unlock()

	job.Status = t.status
	job.ProcessedRecords = t.processed
	job.SucceededRecords = t.succeeded
	job.FailedRecords = t.failed
	job.CurrentBatch = t.currentBatch
	job.StartedAt = t.startedAt
	job.LastBatchAt = t.lastBatchAt
	job.EstimatedCompletionAt = t.estimateLocked()
}

// publishLocked rebuilds the snapshot; callers hold t.mu.
func (t *ProgressTracker) publishLocked() {
	s := &model.ProgressSnapshot{
		JobID:                 t.jobID,
		Status:                t.status,
		TotalRecords:          t.total,
		ProcessedRecords:      t.processed,
		SucceededRecords:      t.succeeded,
		FailedRecords:         t.failed,
		CurrentBatch:          t.currentBatch,
		TotalBatches:          t.totalBatches,
		StartedAt:             t.startedAt,
		LastBatchAt:           t.lastBatchAt,
		EstimatedCompletionAt: t.estimateLocked(),
		Errors:                append([]model.ErrorEntry(nil), t.errs...),
	}
	t.snap.Store(s)
}

// estimateLocked derives the estimated completion time from the average
// batch duration observed in this run; callers hold t.mu.
func (t *ProgressTracker) estimateLocked() *time.Time {
	if t.settledInRun == 0 || t.currentBatch >= t.totalBatches {
		return nil
	}
	avg := t.batchTime / time.Duration(t.settledInRun)
	remaining := time.Duration(t.totalBatches-t.currentBatch) * (avg + t.interBatchGap)
	eta := t.clock.Now().Add(remaining)
	return &eta
}
