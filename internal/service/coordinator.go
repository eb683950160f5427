package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/psai-foundry/project-foundry-psa-sub001/internal/core"
	"github.com/psai-foundry/project-foundry-psa-sub001/internal/domain/model"
	"github.com/psai-foundry/project-foundry-psa-sub001/internal/observability/metrics"
	"github.com/psai-foundry/project-foundry-psa-sub001/internal/observability/statsd"
)

// ErrCoordinatorClosed is returned when starting work on a shut-down coordinator.
var ErrCoordinatorClosed = errors.New("coordinator is shut down")

// errRunActive signals that a run handle for the job is already registered.
var errRunActive = errors.New("job already has an active worker")

// ValidationBlockedError is returned by Start when the pre-flight check
// finds blocking errors and the configuration does not force past them.
type ValidationBlockedError struct {
	Report *model.ValidationReport
}

func (e *ValidationBlockedError) Error() string {
	return fmt.Sprintf("validation blocked start: %d of %d records have blocking errors",
		e.Report.InvalidRecords, e.Report.TotalRecords)
}

// CoordinatorOptions groups dependencies for Coordinator.
type CoordinatorOptions struct {
	Repo    core.MigrationJobRepository // required
	Records core.RecordStore            // required
	Client  core.AccountingClient       // required: live submission client
	Audit   core.AuditSink              // required

	// DryRunClient replaces Client for dry-run jobs. Defaults to a no-op
	// submitter that always simulates success.
	DryRunClient core.AccountingClient

	Validator *ValidationEngine
	Logger    *slog.Logger
	Metrics   statsd.Sink
	Clock     core.Clock
	Sleeper   core.Sleeper

	// Parallelism is the in-batch submission pool size, clamped to [1, 5].
	Parallelism int
	// Lease is the worker heartbeat lease; the reaper fails running jobs
	// whose lease lapses. Defaults to 2 minutes.
	Lease time.Duration
	// BackoffBase seeds the retry manager's increasing backoff.
	BackoffBase time.Duration
}

// Coordinator owns the migration job lifecycle state machine. Each started
// job runs as a single sequential worker goroutine; operator controls are
// observed only at batch boundaries so a batch is never left half-committed.
type Coordinator struct {
	repo      core.MigrationJobRepository
	records   core.RecordStore
	client    core.AccountingClient
	dryRun    core.AccountingClient
	audit     core.AuditSink
	validator *ValidationEngine
	logger    *slog.Logger
	metrics   statsd.Sink
	clock     core.Clock
	sleeper   core.Sleeper

	parallelism int
	lease       time.Duration
	backoffBase time.Duration

	mu     sync.Mutex
	runs   map[string]*jobRun
	closed bool
	wg     sync.WaitGroup
}

// NewCoordinator constructs a Coordinator.
func NewCoordinator(opts CoordinatorOptions) (*Coordinator, error) {
	if opts.Repo == nil {
		return nil, errors.New("migration job repository is required")
	}
	if opts.Records == nil {
		return nil, errors.New("record store is required")
	}
	if opts.Client == nil {
		return nil, errors.New("accounting client is required")
	}
	if opts.Audit == nil {
		return nil, errors.New("audit sink is required")
	}

	dryRun := opts.DryRunClient
	if dryRun == nil {
		dryRun = noopSubmitter{}
	}
	validator := opts.Validator
	if validator == nil {
		validator = NewValidationEngine(ValidationEngineOptions{Clock: opts.Clock})
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := opts.Clock
	if clock == nil {
		clock = RealClock{}
	}
	sleeper := opts.Sleeper
	if sleeper == nil {
		sleeper = RealSleeper{}
	}
	lease := opts.Lease
	if lease <= 0 {
		lease = 2 * time.Minute
	}

	return &Coordinator{
		repo:        opts.Repo,
		records:     opts.Records,
		client:      opts.Client,
		dryRun:      dryRun,
		audit:       opts.Audit,
		validator:   validator,
		logger:      logger.With("component", "migration_coordinator"),
		metrics:     opts.Metrics,
		clock:       clock,
		sleeper:     sleeper,
		parallelism: opts.Parallelism,
		lease:       lease,
		backoffBase: opts.BackoffBase,
		runs:        make(map[string]*jobRun),
	}, nil
}

// MustNewCoordinator constructs a Coordinator and panics on error.
func MustNewCoordinator(opts CoordinatorOptions) *Coordinator {
	c, err := NewCoordinator(opts)
	if err != nil {
		panic(fmt.Sprintf("failed to create Coordinator: %v", err))
	}
	return c
}

// jobRun is the in-memory control handle for one active job goroutine.
type jobRun struct {
	mu        sync.Mutex
	requested model.MigrationStatus // "" | paused | cancelled
	wake      chan struct{}
	tracker   *ProgressTracker
}

func newJobRun(tracker *ProgressTracker) *jobRun {
	return &jobRun{wake: make(chan struct{}, 1), tracker: tracker}
}

// request records an operator signal. Cancel wins over a pending pause and
// is never downgraded.
func (r *jobRun) request(status model.MigrationStatus) {
	r.mu.Lock()
	if r.requested != model.MigrationStatusCancelled {
		r.requested = status
	}
	r.mu.Unlock()
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// clearPause withdraws a pending pause request; a pending cancel stands. The
// withdrawn request's wake token is drained so the next inter-batch wait is
// not cut short.
func (r *jobRun) clearPause() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.requested != model.MigrationStatusPaused {
		return
	}
	r.requested = ""
	select {
	case <-r.wake:
	default:
	}
}

func (r *jobRun) pending() model.MigrationStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.requested
}

// StartResult carries the accepted job and its pre-flight report.
type StartResult struct {
	Job    *model.MigrationJob     `json:"job"`
	Report *model.ValidationReport `json:"validation"`
}

// Preview runs the pre-flight validation for a configuration without
// starting anything or mutating any state.
func (c *Coordinator) Preview(ctx context.Context, cfg model.MigrationConfig) (*model.ValidationReport, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	records, err := c.records.FetchCandidates(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("fetch candidate records: %w", err)
	}
	return c.validator.Inspect(records, cfg), nil
}

// Start validates the configuration and record set, persists a new job, and
// launches its processing goroutine. A blocking validation result refuses
// the start unless the configuration carries the audited force flag.
func (c *Coordinator) Start(ctx context.Context, cfg model.MigrationConfig, actor string) (*StartResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrCoordinatorClosed
	}
	c.mu.Unlock()

	records, err := c.records.FetchCandidates(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("fetch candidate records: %w", err)
	}

	report := c.validator.Inspect(records, cfg)
	if report.Blocking() && !cfg.Force {
		c.recordAudit(ctx, actor, "migration.start", cfg.Scope(), "refused_validation", report.InvalidRecords)
		return nil, &ValidationBlockedError{Report: report}
	}
	if report.Blocking() && cfg.Force {
		c.recordAudit(ctx, actor, "migration.force_start", cfg.Scope(), "override", report.InvalidRecords)
	}

	scope := cfg.Scope()
	if exists, checkErr := c.repo.ActiveExistsForScope(ctx, scope); checkErr != nil {
		return nil, fmt.Errorf("check scope: %w", checkErr)
	} else if exists {
		return nil, core.ErrScopeConflict
	}

	now := c.clock.Now()
	job := &model.MigrationJob{
		ID:           uuid.NewString(),
		Scope:        scope,
		Status:       model.MigrationStatusPending,
		Config:       cfg,
		TotalRecords: len(records),
		TotalBatches: PlanBatches(len(records), cfg.BatchSize),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	run, err := c.reserveRun(job)
	if err != nil {
		return nil, err
	}
	if err := c.repo.Create(ctx, job); err != nil {
		c.releaseRun(job.ID)
		return nil, fmt.Errorf("create migration job: %w", err)
	}

	c.recordAudit(ctx, actor, "migration.start", job.ID, "accepted", len(records))
	go c.processJob(job, records, run)

	return &StartResult{Job: job, Report: report}, nil
}

// reserveRun atomically registers the control handle for a job. Registration
// happens before any slow work, so a concurrent start or resume of the same
// job observes it as active instead of launching a second worker, and the
// shutdown check shares the critical section with wg.Add.
func (c *Coordinator) reserveRun(job *model.MigrationJob) (*jobRun, error) {
	run := newJobRun(NewProgressTracker(job, c.clock))

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrCoordinatorClosed
	}
	if _, active := c.runs[job.ID]; active {
		return nil, errRunActive
	}
	c.runs[job.ID] = run
	c.wg.Add(1)
	return run, nil
}

// releaseRun withdraws a reservation whose goroutine never started.
func (c *Coordinator) releaseRun(jobID string) {
	c.mu.Lock()
	delete(c.runs, jobID)
	c.mu.Unlock()
	c.wg.Done()
}

func (c *Coordinator) removeRun(jobID string) {
	c.mu.Lock()
	delete(c.runs, jobID)
	c.mu.Unlock()
}

func (c *Coordinator) activeRun(jobID string) *jobRun {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runs[jobID]
}

// processJob is the single sequential worker for one migration job. Batches
// never overlap; pause and cancel take effect only between batches.
func (c *Coordinator) processJob(job *model.MigrationJob, records []model.TimesheetRecord, run *jobRun) {
	defer c.wg.Done()
	defer c.removeRun(job.ID)

	// The run outlives the start request; it is controlled through the run
	// handle, not through request cancellation.
	ctx := context.Background()
	start := c.clock.Now()

	run.tracker.Start()
	c.persist(ctx, job, run.tracker)

	retry := NewRetryManager(RetryManagerOptions{
		MaxRetries:  job.Config.MaxRetries,
		BackoffBase: c.backoffBase,
		Sleeper:     c.sleeper,
	})
	processor, err := NewBatchProcessor(BatchProcessorOptions{
		Records:     c.records,
		Retry:       retry,
		Logger:      c.logger,
		Metrics:     c.metrics,
		Clock:       c.clock,
		Parallelism: c.parallelism,
	})
	if err != nil {
		c.finish(ctx, job, run, model.MigrationStatusFailed, start)
		return
	}

	submitter := c.client
	if job.Config.DryRun {
		submitter = c.dryRun
	}

	for idx := job.CurrentBatch; idx < job.TotalBatches; idx++ {
		if st := run.pending(); st != "" {
			c.finish(ctx, job, run, st, start)
			return
		}

		batch := BatchSlice(records, idx, job.Config.BatchSize)
		outcome, procErr := processor.ProcessBatch(ctx, ProcessBatchInput{
			Batch:     batch,
			Submitter: submitter,
			Tracker:   run.tracker,
			DryRun:    job.Config.DryRun,
		})
		if procErr != nil {
			// Context cancellation mid-batch only happens on hard teardown;
			// park the job so it can be resumed cleanly.
			c.finish(ctx, job, run, model.MigrationStatusPaused, start)
			return
		}

		run.tracker.EndBatch(outcome.Elapsed)
		c.persist(ctx, job, run.tracker)

		if outcome.Systemic(len(batch)) {
			c.logger.ErrorContext(ctx, "systemic batch failure, failing job",
				"job_id", job.ID, "batch", idx+1, "batch_size", len(batch))
			c.recordAudit(ctx, "system", "migration.systemic_failure", job.ID, "failed", len(batch))
			c.finish(ctx, job, run, model.MigrationStatusFailed, start)
			return
		}

		if idx+1 < job.TotalBatches {
			c.interBatchWait(ctx, job.Config.Delay(), run)
		}
	}

	c.finish(ctx, job, run, model.MigrationStatusCompleted, start)
}

// interBatchWait sleeps the configured delay but returns as soon as a
// control signal arrives, so pause/cancel never waits out the delay.
func (c *Coordinator) interBatchWait(ctx context.Context, delay time.Duration, run *jobRun) {
	if delay <= 0 {
		return
	}
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-run.wake:
	case <-t.C:
	}
}

// finish moves the job to its end-of-run status (terminal or paused),
// persists it, and emits lifecycle telemetry.
func (c *Coordinator) finish(
	ctx context.Context,
	job *model.MigrationJob,
	run *jobRun,
	status model.MigrationStatus,
	startedAt time.Time,
) {
	run.tracker.SetStatus(status)
	if status.Terminal() {
		now := c.clock.Now()
		job.CompletedAt = &now
	}
	job.LeaseExpiresAt = nil
	c.persist(ctx, job, run.tracker)

	result := metrics.ResultSuccess
	if status == model.MigrationStatusFailed {
		result = metrics.ResultError
	}
	metrics.EmitMigrationLifecycle(c.metrics, metrics.MigrationMetric{
		Transition: string(status),
		Result:     result,
		Duration:   c.clock.Now().Sub(startedAt),
	})

	snap := run.tracker.Snapshot()
	c.logger.InfoContext(ctx, "migration run finished",
		"job_id", job.ID,
		"status", status,
		"processed", snap.ProcessedRecords,
		"succeeded", snap.SucceededRecords,
		"failed", snap.FailedRecords)
}

// persist flushes tracker state and new error entries to the repository.
func (c *Coordinator) persist(ctx context.Context, job *model.MigrationJob, tracker *ProgressTracker) {
	tracker.ApplyTo(job)
	job.UpdatedAt = c.clock.Now()
	if job.Status == model.MigrationStatusRunning {
		until := c.clock.Now().Add(c.lease)
		job.LeaseExpiresAt = &until
	}
	if err := c.repo.Update(ctx, job); err != nil {
		c.logger.ErrorContext(ctx, "persist migration job failed", "job_id", job.ID, "error", err)
	}
	if entries := tracker.DrainNewErrors(); len(entries) > 0 {
		if err := c.repo.AppendErrors(ctx, job.ID, entries); err != nil {
			c.logger.ErrorContext(ctx, "persist migration errors failed", "job_id", job.ID, "error", err)
		}
	}
}

// Pause requests a pause at the next batch boundary. Pausing a job the
// action does not apply to is a no-op success, never an error.
func (c *Coordinator) Pause(ctx context.Context, jobID, actor string) (*model.MigrationJob, error) {
	if run := c.activeRun(jobID); run != nil {
		run.request(model.MigrationStatusPaused)
		c.recordAudit(ctx, actor, "migration.pause", jobID, "requested", 0)
		return c.repo.Get(ctx, jobID)
	}

	job, err := c.repo.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status == model.MigrationStatusRunning {
		// No live worker for a running job: a previous process died. Park it.
		job.Status = model.MigrationStatusPaused
		job.LeaseExpiresAt = nil
		job.UpdatedAt = c.clock.Now()
		if updateErr := c.repo.Update(ctx, job); updateErr != nil {
			return nil, fmt.Errorf("pause orphaned job: %w", updateErr)
		}
		c.recordAudit(ctx, actor, "migration.pause", jobID, "applied", 0)
	}
	return job, nil
}

// Resume continues a paused job from its next unprocessed batch. Records are
// refetched with the original configuration; ordering is deterministic, so
// already-settled batches are never re-run.
func (c *Coordinator) Resume(ctx context.Context, jobID, actor string) (*model.MigrationJob, error) {
	if run := c.activeRun(jobID); run != nil {
		// Withdraw a not-yet-honored pause; a live run needs nothing else.
		run.clearPause()
		c.recordAudit(ctx, actor, "migration.resume", jobID, "noop", 0)
		return c.repo.Get(ctx, jobID)
	}

	job, err := c.repo.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != model.MigrationStatusPaused {
		return job, nil
	}

	run, err := c.reserveRun(job)
	if errors.Is(err, errRunActive) {
		// Lost the race to a concurrent resume of the same job.
		c.recordAudit(ctx, actor, "migration.resume", jobID, "noop", 0)
		return c.repo.Get(ctx, jobID)
	}
	if err != nil {
		return nil, err
	}

	records, err := c.records.FetchCandidates(ctx, job.Config)
	if err != nil {
		c.releaseRun(jobID)
		return nil, fmt.Errorf("fetch candidate records: %w", err)
	}

	job.Status = model.MigrationStatusRunning
	c.recordAudit(ctx, actor, "migration.resume", jobID, "accepted", 0)
	go c.processJob(job, records, run)
	return job, nil
}

// Cancel terminally cancels a job at the next batch boundary. Cancelling a
// job already in a terminal state is a no-op success.
func (c *Coordinator) Cancel(ctx context.Context, jobID, actor string) (*model.MigrationJob, error) {
	if run := c.activeRun(jobID); run != nil {
		run.request(model.MigrationStatusCancelled)
		c.recordAudit(ctx, actor, "migration.cancel", jobID, "requested", 0)
		return c.repo.Get(ctx, jobID)
	}

	job, err := c.repo.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status.Terminal() {
		return job, nil
	}

	job.Status = model.MigrationStatusCancelled
	now := c.clock.Now()
	job.CompletedAt = &now
	job.LeaseExpiresAt = nil
	job.UpdatedAt = now
	if updateErr := c.repo.Update(ctx, job); updateErr != nil {
		return nil, fmt.Errorf("cancel job: %w", updateErr)
	}
	c.recordAudit(ctx, actor, "migration.cancel", jobID, "applied", 0)
	metrics.EmitMigrationLifecycle(c.metrics, metrics.MigrationMetric{
		Transition: string(model.MigrationStatusCancelled),
		Result:     metrics.ResultSuccess,
	})
	return job, nil
}

// Progress returns the live snapshot for an active job, or the persisted
// snapshot for a finished one.
func (c *Coordinator) Progress(ctx context.Context, jobID string) (*model.ProgressSnapshot, error) {
	if run := c.activeRun(jobID); run != nil {
		return run.tracker.Snapshot(), nil
	}
	job, err := c.repo.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return job.Snapshot(), nil
}

// Get loads one job.
func (c *Coordinator) Get(ctx context.Context, jobID string) (*model.MigrationJob, error) {
	return c.repo.Get(ctx, jobID)
}

// List returns recent jobs, newest first.
func (c *Coordinator) List(ctx context.Context, limit int) ([]*model.MigrationJob, error) {
	return c.repo.List(ctx, limit)
}

// ActiveJobs returns the ids of jobs with a live processing goroutine.
func (c *Coordinator) ActiveJobs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.runs))
	for id := range c.runs {
		ids = append(ids, id)
	}
	return ids
}

// Heartbeat extends the lease on an active job. The worker runner calls this
// between batch boundaries so long batches do not trip the reaper.
func (c *Coordinator) Heartbeat(ctx context.Context, jobID string) error {
	if c.activeRun(jobID) == nil {
		return nil
	}
	return c.repo.Heartbeat(ctx, jobID, c.clock.Now().Add(c.lease))
}

// Shutdown pauses all active runs at their next batch boundary and waits for
// them to park, bounded by ctx.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	c.closed = true
	for _, run := range c.runs {
		run.request(model.MigrationStatusPaused)
	}
	c.mu.Unlock()

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (c *Coordinator) recordAudit(ctx context.Context, actor, action, scope, outcome string, count int) {
	event := core.AuditEvent{
		Actor:   actor,
		Action:  action,
		Scope:   scope,
		Outcome: outcome,
		Count:   count,
		At:      c.clock.Now(),
	}
	if err := c.audit.Record(ctx, event); err != nil {
		c.logger.ErrorContext(ctx, "audit record failed", "action", action, "scope", scope, "error", err)
	}
}

// noopSubmitter is the default dry-run client: the full pipeline runs but
// nothing leaves the process.
type noopSubmitter struct{}

func (noopSubmitter) SubmitTimesheet(_ context.Context, rec model.TimesheetRecord) (core.SubmissionResult, error) {
	return core.SubmissionResult{ExternalID: "dry-run:" + rec.ID}, nil
}
