package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psai-foundry/project-foundry-psa-sub001/internal/core"
	"github.com/psai-foundry/project-foundry-psa-sub001/internal/domain/model"
)

func TestPlanBatches(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		batchSize int
		want      int
	}{
		{name: "exact multiple", total: 100, batchSize: 25, want: 4},
		{name: "remainder adds a batch", total: 101, batchSize: 25, want: 5},
		{name: "single short batch", total: 3, batchSize: 50, want: 1},
		{name: "no records", total: 0, batchSize: 50, want: 0},
		{name: "invalid batch size", total: 10, batchSize: 0, want: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, PlanBatches(tc.total, tc.batchSize))
		})
	}
}

func TestBatchSlice(t *testing.T) {
	records := makeRecords(7)

	first := BatchSlice(records, 0, 3)
	require.Len(t, first, 3)
	assert.Equal(t, records[0].ID, first[0].ID)

	last := BatchSlice(records, 2, 3)
	require.Len(t, last, 1)
	assert.Equal(t, records[6].ID, last[0].ID)

	assert.Nil(t, BatchSlice(records, 3, 3), "out of range index yields no records")
}

func TestBatchOutcomeSystemic(t *testing.T) {
	assert.True(t, BatchOutcome{TransientExhausted: 4, Failed: 4}.Systemic(4))
	assert.False(t, BatchOutcome{TransientExhausted: 3, Failed: 4}.Systemic(4))
	assert.False(t, BatchOutcome{}.Systemic(0), "an empty batch is never systemic")
}

func TestProcessBatchMixedOutcomes(t *testing.T) {
	records := makeRecords(4)
	store := newMemRecordStore(records)
	proc := newTestBatchProcessor(t, store, 0)

	client := &scriptedClient{submit: func(rec model.TimesheetRecord, _ int) (core.SubmissionResult, error) {
		if rec.ID == records[1].ID {
			return core.SubmissionResult{}, fakeSubmitError{msg: "project not mapped", transient: false}
		}
		return core.SubmissionResult{ExternalID: "ext-" + rec.ID}, nil
	}}

	tracker := newTestTracker(len(records), 1)
	outcome, err := proc.ProcessBatch(context.Background(), ProcessBatchInput{
		Batch:     records,
		Submitter: client,
		Tracker:   tracker,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, outcome.Succeeded)
	assert.Equal(t, 1, outcome.Failed)
	assert.Equal(t, 0, outcome.TransientExhausted)
	assert.Equal(t, 3, store.syncedCount())

	snap := tracker.Snapshot()
	assert.Equal(t, 4, snap.ProcessedRecords)
	assert.Equal(t, 3, snap.SucceededRecords)
	assert.Equal(t, 1, snap.FailedRecords)
	require.Len(t, snap.Errors, 1)
	assert.Equal(t, records[1].ID, snap.Errors[0].RecordID)
	assert.Equal(t, model.ErrorClassPermanent, snap.Errors[0].Class)
}

func TestProcessBatchDryRunSkipsMarkSynced(t *testing.T) {
	records := makeRecords(3)
	store := newMemRecordStore(records)
	proc := newTestBatchProcessor(t, store, 0)

	tracker := newTestTracker(len(records), 1)
	outcome, err := proc.ProcessBatch(context.Background(), ProcessBatchInput{
		Batch:     records,
		Submitter: &scriptedClient{},
		Tracker:   tracker,
		DryRun:    true,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, outcome.Succeeded)
	assert.Zero(t, store.syncedCount(), "dry runs must not mark records synced")
}

func TestProcessBatchSystemicFailure(t *testing.T) {
	records := makeRecords(3)
	proc := newTestBatchProcessor(t, newMemRecordStore(records), 1)

	client := &scriptedClient{submit: func(model.TimesheetRecord, int) (core.SubmissionResult, error) {
		return core.SubmissionResult{}, fakeSubmitError{msg: "upstream unavailable", transient: true}
	}}

	tracker := newTestTracker(len(records), 1)
	outcome, err := proc.ProcessBatch(context.Background(), ProcessBatchInput{
		Batch:     records,
		Submitter: client,
		Tracker:   tracker,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, outcome.Failed)
	assert.Equal(t, 3, outcome.TransientExhausted)
	assert.True(t, outcome.Systemic(len(records)))
	assert.Equal(t, 6, client.callCount(), "each record gets the initial attempt plus one retry")
}

func TestProcessBatchErrorOrderFollowsRecordOrder(t *testing.T) {
	records := makeRecords(5)
	proc := newTestBatchProcessor(t, newMemRecordStore(records), 0)

	client := &scriptedClient{submit: func(rec model.TimesheetRecord, _ int) (core.SubmissionResult, error) {
		return core.SubmissionResult{}, fakeSubmitError{msg: "rejected: " + rec.ID, transient: false}
	}}

	tracker := newTestTracker(len(records), 1)
	_, err := proc.ProcessBatch(context.Background(), ProcessBatchInput{
		Batch:     records,
		Submitter: client,
		Tracker:   tracker,
	})
	require.NoError(t, err)

	snap := tracker.Snapshot()
	require.Len(t, snap.Errors, len(records))
	for i, entry := range snap.Errors {
		assert.Equal(t, records[i].ID, entry.RecordID, "error entries must keep record order")
	}
}

func TestProcessBatchRetriedSuccessLeavesTrace(t *testing.T) {
	records := makeRecords(1)
	store := newMemRecordStore(records)
	proc := newTestBatchProcessor(t, store, 2)

	client := &scriptedClient{submit: func(rec model.TimesheetRecord, call int) (core.SubmissionResult, error) {
		if call == 1 {
			return core.SubmissionResult{}, fakeSubmitError{msg: "rate limited", transient: true}
		}
		return core.SubmissionResult{ExternalID: "ext-" + rec.ID}, nil
	}}

	tracker := newTestTracker(len(records), 1)
	outcome, err := proc.ProcessBatch(context.Background(), ProcessBatchInput{
		Batch:     records,
		Submitter: client,
		Tracker:   tracker,
	})
	require.NoError(t, err)

	assert.Equal(t, 1, outcome.Succeeded)
	assert.Equal(t, 1, store.syncedCount())

	snap := tracker.Snapshot()
	assert.Equal(t, 1, snap.SucceededRecords)
	assert.Zero(t, snap.FailedRecords)
	require.Len(t, snap.Errors, 1, "a retried success still leaves its retry trace")
	assert.Equal(t, "succeeded after retries", snap.Errors[0].Message)
	assert.Equal(t, 1, snap.Errors[0].RetryCount)
}

func newTestBatchProcessor(t *testing.T, store core.RecordStore, maxRetries int) *BatchProcessor {
	t.Helper()
	proc, err := NewBatchProcessor(BatchProcessorOptions{
		Records: store,
		Retry: NewRetryManager(RetryManagerOptions{
			MaxRetries:  maxRetries,
			BackoffBase: time.Millisecond,
			Sleeper:     &stubSleeper{},
		}),
		Clock:       newStubClock(),
		Parallelism: 2,
	})
	require.NoError(t, err)
	return proc
}

func newTestTracker(total, totalBatches int) *ProgressTracker {
	return NewProgressTracker(&model.MigrationJob{
		ID:           "job-1",
		Status:       model.MigrationStatusRunning,
		TotalRecords: total,
		TotalBatches: totalBatches,
	}, newStubClock())
}

func makeRecords(n int) []model.TimesheetRecord {
	out := make([]model.TimesheetRecord, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, model.TimesheetRecord{
			ID:         fmt.Sprintf("ts-%03d", i),
			ProjectRef: "proj-1",
			ClientRef:  "client-1",
			WorkDate:   time.Date(2026, 3, 1+i, 0, 0, 0, 0, time.UTC),
			Hours:      7.5,
			BillRate:   120,
			Status:     model.TimesheetApproved,
			UserRef:    "user-1",
		})
	}
	return out
}
