package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/psai-foundry/project-foundry-psa-sub001/internal/core"
	"github.com/psai-foundry/project-foundry-psa-sub001/internal/domain/model"
	"github.com/psai-foundry/project-foundry-psa-sub001/internal/observability/metrics"
	"github.com/psai-foundry/project-foundry-psa-sub001/internal/observability/statsd"
)

// QueueHandler executes one claimed queue job. A nil return marks the job
// completed; an error sends it back to waiting until its attempts run out.
type QueueHandler func(ctx context.Context, job *model.QueueJob) error

const (
	defaultDispatchInterval = 2 * time.Second
	defaultMaxAttempts      = 3
	// defaultDrainLimit bounds how many jobs one queue may yield per tick so
	// a deep queue cannot starve the others.
	defaultDrainLimit = 25
)

// QueueDispatcherOptions groups dependencies for QueueDispatcher.
type QueueDispatcherOptions struct {
	Store        core.QueueStore // Required: queue storage backend
	Interval     time.Duration   // Optional: poll interval (default 2s)
	MaxAttempts  int             // Optional: attempts before a job is failed (default 3)
	DrainLimit   int             // Optional: max jobs per queue per tick (default 25)
	Logger       *slog.Logger    // Optional: structured logger
	Metrics      statsd.Sink     // Optional: metrics sink (StatsD-compatible)
	TimeProvider core.Clock      // Optional: clock override for tests
}

// QueueDispatcher polls the named queues and executes waiting jobs through
// registered per-type handlers. Paused queues keep accepting jobs but are
// skipped here until resumed.
type QueueDispatcher struct {
	store       core.QueueStore
	interval    time.Duration
	maxAttempts int
	drainLimit  int
	handlers    map[string]QueueHandler
	logger      *slog.Logger
	metrics     statsd.Sink
	clock       core.Clock
}

// NewQueueDispatcher constructs a new QueueDispatcher.
func NewQueueDispatcher(opts QueueDispatcherOptions) (*QueueDispatcher, error) {
	if opts.Store == nil {
		return nil, errors.New("QueueStore is required")
	}
	if opts.Interval <= 0 {
		opts.Interval = defaultDispatchInterval
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = defaultMaxAttempts
	}
	if opts.DrainLimit <= 0 {
		opts.DrainLimit = defaultDrainLimit
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.TimeProvider == nil {
		opts.TimeProvider = RealClock{}
	}

	return &QueueDispatcher{
		store:       opts.Store,
		interval:    opts.Interval,
		maxAttempts: opts.MaxAttempts,
		drainLimit:  opts.DrainLimit,
		handlers:    make(map[string]QueueHandler),
		logger:      opts.Logger.With("component", "queue_dispatcher"),
		metrics:     opts.Metrics,
		clock:       opts.TimeProvider,
	}, nil
}

// Register installs the handler for a job type. Registering the same type
// twice replaces the earlier handler. Not safe to call after Run has started.
func (d *QueueDispatcher) Register(jobType string, handler QueueHandler) {
	d.handlers[jobType] = handler
}

// Run polls until the context is cancelled. Returns nil on graceful shutdown.
func (d *QueueDispatcher) Run(ctx context.Context) error {
	d.logger.InfoContext(ctx, "starting queue dispatcher",
		"interval", d.interval,
		"max_attempts", d.maxAttempts,
		"handlers", len(d.handlers))

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.InfoContext(ctx, "queue dispatcher stopping", "reason", ctx.Err())
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()

		case <-ticker.C:
			if _, err := d.Tick(ctx); err != nil {
				if isContextCancellation(err) {
					continue
				}
				d.logger.ErrorContext(ctx, "dispatch tick failed", "error", err)
			}
		}
	}
}

// Tick processes one round of waiting jobs across all non-paused queues and
// returns the number of jobs executed.
func (d *QueueDispatcher) Tick(ctx context.Context) (int, error) {
	queues, err := d.store.Queues(ctx)
	if err != nil {
		return 0, fmt.Errorf("list queues: %w", err)
	}

	dispatched := 0
	var errs []error
	for _, queue := range queues {
		n, err := d.drainQueue(ctx, queue)
		dispatched += n
		if err != nil {
			if isContextCancellation(err) {
				errs = append(errs, err)
				break
			}
			errs = append(errs, fmt.Errorf("queue %s: %w", queue, err))
		}
	}

	if len(errs) > 0 {
		return dispatched, errors.Join(errs...)
	}
	return dispatched, nil
}

// drainQueue claims and runs waiting jobs from one queue, up to the drain
// limit for this tick.
func (d *QueueDispatcher) drainQueue(ctx context.Context, queue string) (int, error) {
	paused, err := d.store.IsPaused(ctx, queue)
	if err != nil {
		return 0, fmt.Errorf("check paused: %w", err)
	}
	if paused {
		return 0, nil
	}

	processed := 0
	for processed < d.drainLimit {
		if ctx.Err() != nil {
			return processed, ctx.Err()
		}

		job, err := d.store.NextWaiting(ctx, queue)
		if err != nil {
			return processed, fmt.Errorf("claim next job: %w", err)
		}
		if job == nil {
			return processed, nil
		}

		d.execute(ctx, job)
		processed++
	}
	return processed, nil
}

// execute runs one claimed job and settles its state. Handler failures are
// recorded on the job, never returned; a broken job must not stall the queue.
func (d *QueueDispatcher) execute(ctx context.Context, job *model.QueueJob) {
	handler, ok := d.handlers[job.Type]
	if !ok {
		d.settle(ctx, job, model.QueueJobFailed, fmt.Sprintf("no handler registered for job type %q", job.Type))
		metrics.EmitQueueAction(d.metrics, job.Queue, "dispatch", metrics.ResultError)
		return
	}

	start := d.clock.Now()
	err := handler(ctx, job)
	elapsed := d.clock.Now().Sub(start)

	if d.metrics != nil {
		result := metrics.ResultSuccess
		if err != nil {
			result = metrics.ResultError
		}
		d.metrics.Timing("queue.job_duration", elapsed, map[string]string{
			"queue":  job.Queue,
			"type":   job.Type,
			"result": result,
		})
	}

	if err == nil {
		d.settle(ctx, job, model.QueueJobCompleted, "")
		metrics.EmitQueueAction(d.metrics, job.Queue, "dispatch", metrics.ResultSuccess)
		return
	}

	if job.Attempts >= d.maxAttempts {
		d.logger.ErrorContext(ctx, "queue job exhausted its attempts",
			"queue", job.Queue,
			"job_id", job.ID,
			"job_type", job.Type,
			"attempts", job.Attempts,
			"error", err)
		d.settle(ctx, job, model.QueueJobFailed, err.Error())
		metrics.EmitQueueAction(d.metrics, job.Queue, "dispatch", metrics.ResultError)
		return
	}

	d.logger.WarnContext(ctx, "queue job failed, requeueing",
		"queue", job.Queue,
		"job_id", job.ID,
		"job_type", job.Type,
		"attempts", job.Attempts,
		"error", err)
	d.settle(ctx, job, model.QueueJobWaiting, err.Error())
}

func (d *QueueDispatcher) settle(ctx context.Context, job *model.QueueJob, state model.QueueJobState, lastError string) {
	if err := d.store.UpdateState(ctx, job.Queue, job.ID, state, lastError); err != nil {
		d.logger.ErrorContext(ctx, "failed to settle queue job",
			"queue", job.Queue,
			"job_id", job.ID,
			"state", state,
			"error", err)
	}
}
