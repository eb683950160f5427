// Package migrationrunner provides the adapter that runs the migration
// coordinator as a long-lived worker.
package migrationrunner

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/psai-foundry/project-foundry-psa-sub001/config"
	"github.com/psai-foundry/project-foundry-psa-sub001/internal/core"
	"github.com/psai-foundry/project-foundry-psa-sub001/internal/data"
	"github.com/psai-foundry/project-foundry-psa-sub001/internal/observability/statsd"
	"github.com/psai-foundry/project-foundry-psa-sub001/internal/service"
)

// Runner hosts a Coordinator for the lifetime of the process. It keeps the
// leases of active jobs fresh and drains them gracefully on shutdown.
type Runner struct {
	coordinator *service.Coordinator
	interval    time.Duration
	logger      *slog.Logger
}

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	DB     *sql.DB
	Config config.MigrationWorkerConfig
	Client core.AccountingClient // Required: live submission client
	Logger *slog.Logger

	// Optional dependency injection for testing/decoupling
	Repo    core.MigrationJobRepository
	Records core.RecordStore
	Audit   core.AuditSink
	Metrics statsd.Sink
}

// NewRunner creates a new migration worker runner with the given options.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if err := validateRunnerOptions(&opts); err != nil {
		return nil, err
	}

	coordinator, err := service.NewCoordinator(service.CoordinatorOptions{
		Repo:        wireJobRepository(opts),
		Records:     wireRecordStore(opts),
		Client:      opts.Client,
		Audit:       wireAuditSink(opts),
		Logger:      opts.Logger,
		Metrics:     opts.Metrics,
		Parallelism: opts.Config.Parallelism,
		Lease:       opts.Config.Lease,
		BackoffBase: opts.Config.RetryBackoffBase,
	})
	if err != nil {
		return nil, err
	}

	return &Runner{
		coordinator: coordinator,
		interval:    opts.Config.HeartbeatInterval,
		logger:      opts.Logger.With("component", "migration_runner"),
	}, nil
}

// validateRunnerOptions validates and sets defaults for RunnerOptions.
func validateRunnerOptions(opts *RunnerOptions) error {
	needsDB := opts.Repo == nil || opts.Records == nil || opts.Audit == nil
	if needsDB && opts.DB == nil {
		return errors.New("database connection is required")
	}
	if opts.Client == nil {
		return errors.New("accounting client is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Config.HeartbeatInterval <= 0 {
		opts.Config.HeartbeatInterval = 30 * time.Second
	}
	return nil
}

func wireJobRepository(opts RunnerOptions) core.MigrationJobRepository {
	if opts.Repo != nil {
		return opts.Repo
	}
	return data.NewMigrationRepo(opts.DB)
}

func wireRecordStore(opts RunnerOptions) core.RecordStore {
	if opts.Records != nil {
		return opts.Records
	}
	return data.NewTimesheetStore(opts.DB)
}

func wireAuditSink(opts RunnerOptions) core.AuditSink {
	if opts.Audit != nil {
		return opts.Audit
	}
	return data.NewAuditRepo(opts.DB)
}

// Coordinator exposes the hosted coordinator for the HTTP control plane.
func (r *Runner) Coordinator() *service.Coordinator {
	return r.coordinator
}

// Run keeps job leases fresh until the context is cancelled, then drains
// active jobs. Returns nil on graceful shutdown.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting migration runner", "heartbeat_interval", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "migration runner stopping", "reason", ctx.Err())
			return r.drain()

		case <-ticker.C:
			r.heartbeatActive(ctx)
		}
	}
}

// heartbeatActive extends the lease of every job this worker still owns.
func (r *Runner) heartbeatActive(ctx context.Context) {
	for _, jobID := range r.coordinator.ActiveJobs() {
		if err := r.coordinator.Heartbeat(ctx, jobID); err != nil {
			r.logger.WarnContext(ctx, "failed to extend job lease",
				"job_id", jobID,
				"error", err)
		}
	}
}

// drain pauses active jobs at their next batch boundary and waits for their
// goroutines to settle.
func (r *Runner) drain() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := r.coordinator.Shutdown(shutdownCtx); err != nil {
		r.logger.Error("migration coordinator shutdown incomplete", "error", err)
		return err
	}
	return nil
}
