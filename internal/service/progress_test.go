package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psai-foundry/project-foundry-psa-sub001/internal/domain/model"
)

func TestProgressTrackerStartStampsOnce(t *testing.T) {
	clock := newStubClock()
	clock.step = time.Second
	tracker := NewProgressTracker(&model.MigrationJob{ID: "job-1", Status: model.MigrationStatusPending}, clock)

	tracker.Start()
	first := tracker.Snapshot()
	require.NotNil(t, first.StartedAt)
	assert.Equal(t, model.MigrationStatusRunning, first.Status)

	tracker.Start()
	second := tracker.Snapshot()
	assert.Equal(t, first.StartedAt, second.StartedAt, "start time must not move on restart")
}

func TestProgressTrackerCountersStayConsistent(t *testing.T) {
	tracker := newTestTracker(10, 2)

	tracker.Record(true, nil)
	tracker.Record(true, nil)
	tracker.Record(false, &model.ErrorEntry{RecordID: "ts-002", Message: "boom", Class: model.ErrorClassPermanent})

	snap := tracker.Snapshot()
	assert.Equal(t, 3, snap.ProcessedRecords)
	assert.Equal(t, 2, snap.SucceededRecords)
	assert.Equal(t, 1, snap.FailedRecords)
	assert.Equal(t, snap.ProcessedRecords, snap.SucceededRecords+snap.FailedRecords)
	require.Len(t, snap.Errors, 1)
}

func TestProgressTrackerSeedsFromPersistedJob(t *testing.T) {
	job := &model.MigrationJob{
		ID:               "job-1",
		Status:           model.MigrationStatusPaused,
		TotalRecords:     50,
		ProcessedRecords: 20,
		SucceededRecords: 18,
		FailedRecords:    2,
		CurrentBatch:     2,
		TotalBatches:     5,
		Errors:           []model.ErrorEntry{{RecordID: "ts-007", Message: "bad rate"}},
	}
	tracker := NewProgressTracker(job, newStubClock())

	snap := tracker.Snapshot()
	assert.Equal(t, 20, snap.ProcessedRecords)
	assert.Equal(t, 2, snap.CurrentBatch)
	assert.Len(t, snap.Errors, 1)
	assert.Nil(t, snap.EstimatedCompletionAt, "no estimate before this run settles a batch")
}

func TestProgressTrackerEstimate(t *testing.T) {
	clock := newStubClock()
	tracker := NewProgressTracker(&model.MigrationJob{
		ID:           "job-1",
		Status:       model.MigrationStatusRunning,
		TotalRecords: 40,
		TotalBatches: 4,
		Config:       model.MigrationConfig{BatchSize: 10, DelayBetweenBatchesMs: 1000},
	}, clock)

	tracker.EndBatch(2 * time.Second)

	snap := tracker.Snapshot()
	assert.Equal(t, 1, snap.CurrentBatch)
	require.NotNil(t, snap.EstimatedCompletionAt)
	// Three batches remain at ~2s each plus the 1s inter-batch gap.
	want := clock.now.Add(3 * (2*time.Second + time.Second))
	assert.Equal(t, want, *snap.EstimatedCompletionAt)
}

func TestProgressTrackerEstimateClearsWhenDone(t *testing.T) {
	tracker := NewProgressTracker(&model.MigrationJob{
		ID:           "job-1",
		Status:       model.MigrationStatusRunning,
		TotalRecords: 10,
		TotalBatches: 1,
	}, newStubClock())

	tracker.EndBatch(time.Second)

	snap := tracker.Snapshot()
	assert.Equal(t, 1, snap.CurrentBatch)
	assert.Nil(t, snap.EstimatedCompletionAt, "no estimate once every batch settled")
}

func TestProgressTrackerDrainNewErrors(t *testing.T) {
	tracker := newTestTracker(5, 1)

	tracker.Record(false, &model.ErrorEntry{RecordID: "ts-001", Message: "first"})
	tracker.Record(false, &model.ErrorEntry{RecordID: "ts-002", Message: "second"})

	drained := tracker.DrainNewErrors()
	require.Len(t, drained, 2)
	assert.Empty(t, tracker.DrainNewErrors(), "drain must be consumed once")

	snap := tracker.Snapshot()
	assert.Len(t, snap.Errors, 2, "snapshots keep the full error history after a drain")
}

func TestProgressTrackerApplyTo(t *testing.T) {
	tracker := newTestTracker(4, 2)
	tracker.Start()
	tracker.Record(true, nil)
	tracker.Record(false, &model.ErrorEntry{RecordID: "ts-001", Message: "rejected"})
	tracker.EndBatch(time.Second)
	tracker.SetStatus(model.MigrationStatusPaused)

	var job model.MigrationJob
	tracker.ApplyTo(&job)

	assert.Equal(t, model.MigrationStatusPaused, job.Status)
	assert.Equal(t, 2, job.ProcessedRecords)
	assert.Equal(t, 1, job.SucceededRecords)
	assert.Equal(t, 1, job.FailedRecords)
	assert.Equal(t, 1, job.CurrentBatch)
	assert.NotNil(t, job.StartedAt)
	assert.NotNil(t, job.LastBatchAt)
}

func TestProgressTrackerSnapshotIsolation(t *testing.T) {
	tracker := newTestTracker(2, 1)
	tracker.Record(false, &model.ErrorEntry{RecordID: "ts-001", Message: "bad"})

	snap := tracker.Snapshot()
	snap.Errors[0].Message = "mutated"

	fresh := tracker.Snapshot()
	tracker.Record(true, nil)
	assert.Equal(t, "bad", tracker.Snapshot().Errors[0].Message, "snapshot mutation must not leak back")
	assert.Equal(t, 1, fresh.ProcessedRecords, "a held snapshot never changes under the reader")
}
