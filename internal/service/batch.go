package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/psai-foundry/project-foundry-psa-sub001/internal/core"
	"github.com/psai-foundry/project-foundry-psa-sub001/internal/domain/model"
	"github.com/psai-foundry/project-foundry-psa-sub001/internal/observability/metrics"
	"github.com/psai-foundry/project-foundry-psa-sub001/internal/observability/statsd"
)

const (
	// maxBatchParallelism bounds concurrent in-flight submissions per batch.
	maxBatchParallelism = 5
)

// PlanBatches returns the number of batches needed for total records at the
// given batch size.
func PlanBatches(total, batchSize int) int {
	if total <= 0 || batchSize <= 0 {
		return 0
	}
	return (total + batchSize - 1) / batchSize
}

// BatchSlice returns the records belonging to batch idx, preserving the
// original ordering.
func BatchSlice(records []model.TimesheetRecord, idx, batchSize int) []model.TimesheetRecord {
	start := idx * batchSize
	if start >= len(records) {
		return nil
	}
	end := start + batchSize
	if end > len(records) {
		end = len(records)
	}
	return records[start:end]
}

// BatchOutcome reports how one batch settled.
type BatchOutcome struct {
	Succeeded          int
	Failed             int
	TransientExhausted int
	Elapsed            time.Duration
}

// Systemic reports whether the whole batch failed with exhausted transient
// retries, which the coordinator escalates to a job-level failure.
func (o BatchOutcome) Systemic(batchLen int) bool {
	return batchLen > 0 && o.TransientExhausted == batchLen
}

// BatchProcessorOptions groups dependencies for BatchProcessor.
type BatchProcessorOptions struct {
	Records core.RecordStore
	Retry   *RetryManager
	Logger  *slog.Logger
	Metrics statsd.Sink
	Clock   core.Clock
	// Parallelism is the in-batch worker pool size, clamped to [1, 5].
	Parallelism int
}

// BatchProcessor settles one batch at a time: every record is driven through
// the retry manager to success or final failure before the batch reports.
// Records within a batch may be in flight concurrently, bounded by the pool
// size; the batch as a whole settles before control returns.
type BatchProcessor struct {
	records     core.RecordStore
	retry       *RetryManager
	logger      *slog.Logger
	metrics     statsd.Sink
	clock       core.Clock
	parallelism int
}

// NewBatchProcessor constructs a BatchProcessor.
func NewBatchProcessor(opts BatchProcessorOptions) (*BatchProcessor, error) {
	if opts.Records == nil {
		return nil, fmt.Errorf("record store is required")
	}
	if opts.Retry == nil {
		return nil, fmt.Errorf("retry manager is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := opts.Clock
	if clock == nil {
		clock = RealClock{}
	}
	parallelism := opts.Parallelism
	if parallelism < 1 {
		parallelism = 1
	}
	if parallelism > maxBatchParallelism {
		parallelism = maxBatchParallelism
	}
	return &BatchProcessor{
		records:     opts.Records,
		retry:       opts.Retry,
		logger:      logger,
		metrics:     opts.Metrics,
		clock:       clock,
		parallelism: parallelism,
	}, nil
}

// ProcessBatchInput carries per-call parameters for ProcessBatch.
type ProcessBatchInput struct {
	Batch     []model.TimesheetRecord
	Submitter core.AccountingClient
	Tracker   *ProgressTracker
	DryRun    bool
}

// ProcessBatch submits every record in the batch and reports the settled
// outcome to the progress tracker. It never returns early on record-level
// failure; only a context cancellation propagates as an error.
func (p *BatchProcessor) ProcessBatch(ctx context.Context, in ProcessBatchInput) (BatchOutcome, error) {
	start := p.clock.Now()
	outcome := BatchOutcome{}

	results := make([]recordResult, len(in.Batch))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.parallelism)
	for i := range in.Batch {
		g.Go(func() error {
			results[i] = p.submitRecord(gctx, in, in.Batch[i])
			return nil
		})
	}
	// Worker funcs never return errors; Wait only orders settlement.
	_ = g.Wait()

	// Report in original record order so error lists stay deterministic.
	for i := range results {
		res := results[i]
		if res.entry != nil {
			in.Tracker.Record(res.ok, res.entry)
		} else {
			in.Tracker.Record(res.ok, nil)
		}
		if res.ok {
			outcome.Succeeded++
		} else {
			outcome.Failed++
		}
		if res.exhausted {
			outcome.TransientExhausted++
		}
	}

	outcome.Elapsed = p.clock.Now().Sub(start)
	metrics.EmitBatchOutcome(p.metrics, metrics.BatchMetric{
		Succeeded: outcome.Succeeded,
		Failed:    outcome.Failed,
		Duration:  outcome.Elapsed,
		DryRun:    in.DryRun,
	})

	return outcome, ctx.Err()
}

type recordResult struct {
	ok        bool
	exhausted bool
	entry     *model.ErrorEntry
}

func (p *BatchProcessor) submitRecord(
	ctx context.Context,
	in ProcessBatchInput,
	rec model.TimesheetRecord,
) recordResult {
	var result core.SubmissionResult
	outcome := p.retry.Do(ctx, func(ctx context.Context) error {
		var err error
		result, err = in.Submitter.SubmitTimesheet(ctx, rec)
		return err
	})

	if outcome.Succeeded() {
		res := recordResult{ok: true}
		// Retries that eventually succeeded are still visible to operators.
		if outcome.Retries() > 0 {
			res.entry = &model.ErrorEntry{
				RecordID:   rec.ID,
				Message:    "succeeded after retries",
				Class:      model.ErrorClassTransient,
				RetryCount: outcome.Retries(),
				OccurredAt: p.clock.Now(),
			}
		}
		if !in.DryRun {
			if err := p.records.MarkSynced(ctx, rec.ID, result.ExternalID); err != nil {
				p.logger.ErrorContext(ctx, "mark record synced failed",
					"record_id", rec.ID, "external_id", result.ExternalID, "error", err)
			}
		}
		return res
	}

	return recordResult{
		ok:        false,
		exhausted: p.retry.Exhausted(outcome),
		entry: &model.ErrorEntry{
			RecordID:   rec.ID,
			Message:    outcome.Err.Error(),
			Class:      outcome.Class,
			RetryCount: outcome.Retries(),
			OccurredAt: p.clock.Now(),
		},
	}
}
