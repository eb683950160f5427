// Package reaper provides the adapter that reclaims migration jobs whose
// worker lease lapsed.
package reaper

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/psai-foundry/project-foundry-psa-sub001/config"
	"github.com/psai-foundry/project-foundry-psa-sub001/internal/core"
	"github.com/psai-foundry/project-foundry-psa-sub001/internal/data"
	obserrors "github.com/psai-foundry/project-foundry-psa-sub001/internal/observability/errors"
	"github.com/psai-foundry/project-foundry-psa-sub001/internal/observability/metrics"
	"github.com/psai-foundry/project-foundry-psa-sub001/internal/observability/statsd"
)

// Runner periodically fails running jobs whose lease expired, so a crashed
// worker never leaves a job stuck in running forever.
type Runner struct {
	repo     core.MigrationJobRepository
	audit    core.AuditSink
	interval time.Duration
	logger   *slog.Logger
	metrics  statsd.Sink
}

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	DB     *sql.DB
	Config config.ReaperConfig
	Logger *slog.Logger

	// Optional dependency injection for testing/decoupling
	Repo    core.MigrationJobRepository
	Audit   core.AuditSink
	Metrics statsd.Sink
}

// NewRunner creates a new reaper runner with the given options.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if (opts.Repo == nil || opts.Audit == nil) && opts.DB == nil {
		return nil, errors.New("database connection is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Config.Interval <= 0 {
		opts.Config.Interval = time.Minute
	}

	repo := opts.Repo
	if repo == nil {
		repo = data.NewMigrationRepo(opts.DB)
	}
	audit := opts.Audit
	if audit == nil {
		audit = data.NewAuditRepo(opts.DB)
	}

	return &Runner{
		repo:     repo,
		audit:    audit,
		interval: opts.Config.Interval,
		logger:   opts.Logger.With("component", "lease_reaper"),
		metrics:  opts.Metrics,
	}, nil
}

// Run starts the reaper loop and runs until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting lease reaper", "interval", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "lease reaper stopping", "reason", ctx.Err())
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case now := <-ticker.C:
			if err := r.reap(ctx, now); err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					continue
				}
				r.logger.ErrorContext(ctx, "reap expired jobs failed", "error", err)
			}
		}
	}
}

// reap fails every running job whose lease expired before now.
func (r *Runner) reap(ctx context.Context, now time.Time) error {
	reaped, err := r.repo.FailExpired(ctx, now)
	r.emitReapMetrics(len(reaped), err)
	if err != nil {
		return err
	}
	if len(reaped) == 0 {
		return nil
	}

	r.logger.WarnContext(ctx, "failed migration jobs with expired leases",
		"count", len(reaped),
		"job_ids", reaped)

	for _, jobID := range reaped {
		if auditErr := r.audit.Record(ctx, core.AuditEvent{
			Actor:   "system:reaper",
			Action:  "migration.reaped",
			Scope:   jobID,
			Outcome: "failed",
			At:      now,
		}); auditErr != nil {
			r.logger.WarnContext(ctx, "failed to record reap audit event",
				"job_id", jobID,
				"error", auditErr)
		}
	}
	return nil
}

func (r *Runner) emitReapMetrics(count int, err error) {
	if r.metrics == nil {
		return
	}

	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	} else if count == 0 {
		result = metrics.ResultNoop
	}

	tags := map[string]string{"result": result}
	if err != nil {
		if class := obserrors.Classify(err); class != "" {
			tags["error_class"] = class
		}
	}

	r.metrics.Count("reaper.tick", 1, tags)
	if count > 0 {
		r.metrics.Count("reaper.jobs_reaped", int64(count), metrics.CloneTags(tags))
	}
	if err == nil {
		r.metrics.Gauge("reaper.last_success_epoch", float64(time.Now().Unix()), nil)
	}
}
