package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psai-foundry/project-foundry-psa-sub001/internal/core"
	"github.com/psai-foundry/project-foundry-psa-sub001/internal/domain/model"
)

func newTestQueueService(t *testing.T) (*QueueService, *memQueueStore, *memAuditSink) {
	t.Helper()
	store := newMemQueueStore()
	audit := &memAuditSink{}
	svc, err := NewQueueService(QueueServiceOptions{
		Store: store,
		Audit: audit,
		Clock: newStubClock(),
	})
	require.NoError(t, err)
	return svc, store, audit
}

func seedQueueJob(t *testing.T, store *memQueueStore, queue, id, jobType string, state model.QueueJobState, payload string, at time.Time) {
	t.Helper()
	job := &model.QueueJob{
		ID:        id,
		Queue:     queue,
		Type:      jobType,
		Payload:   json.RawMessage(payload),
		State:     state,
		CreatedAt: at,
		UpdatedAt: at,
	}
	require.NoError(t, store.Add(context.Background(), queue, job))
}

func TestQueueServiceStats(t *testing.T) {
	svc, store, _ := newTestQueueService(t)
	base := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	seedQueueJob(t, store, "reports", "q1", "report.generate", model.QueueJobWaiting, `{}`, base)
	seedQueueJob(t, store, "reports", "q2", "report.generate", model.QueueJobFailed, `{}`, base)
	seedQueueJob(t, store, "reports", "q3", "report.generate", model.QueueJobCompleted, `{}`, base)

	result, err := svc.Execute(context.Background(), "reports", core.QueueStatsCommand{}, "op")
	require.NoError(t, err)

	stats, ok := result.(model.QueueStats)
	require.True(t, ok)
	assert.Equal(t, 1, stats.Waiting)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 1, stats.Depth())
}

func TestQueueServiceRequiresQueueName(t *testing.T) {
	svc, _, _ := newTestQueueService(t)

	_, err := svc.Execute(context.Background(), "", core.QueueStatsCommand{}, "op")
	assert.ErrorContains(t, err, "queue name is required")
}

func TestQueueServiceJobsFilteredByState(t *testing.T) {
	svc, store, _ := newTestQueueService(t)
	base := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	seedQueueJob(t, store, "reports", "q1", "a", model.QueueJobWaiting, `{}`, base)
	seedQueueJob(t, store, "reports", "q2", "b", model.QueueJobFailed, `{}`, base.Add(time.Minute))

	result, err := svc.Execute(context.Background(), "reports", core.QueueJobsCommand{State: model.QueueJobFailed}, "op")
	require.NoError(t, err)

	jobs, ok := result.([]*model.QueueJob)
	require.True(t, ok)
	require.Len(t, jobs, 1)
	assert.Equal(t, "q2", jobs[0].ID)
}

func TestQueueServicePauseResume(t *testing.T) {
	svc, store, audit := newTestQueueService(t)
	seedQueueJob(t, store, "reports", "q1", "a", model.QueueJobWaiting, `{}`, time.Now())

	result, err := svc.Execute(context.Background(), "reports", core.QueuePauseCommand{}, "op")
	require.NoError(t, err)
	stats, ok := result.(model.QueueStats)
	require.True(t, ok)
	assert.True(t, stats.Paused)
	assert.Equal(t, 1, stats.Waiting, "paused queues keep their waiting jobs")

	result, err = svc.Execute(context.Background(), "reports", core.QueueResumeCommand{}, "op")
	require.NoError(t, err)
	stats, ok = result.(model.QueueStats)
	require.True(t, ok)
	assert.False(t, stats.Paused)

	actions := audit.actions()
	assert.Contains(t, actions, "queue.pause")
	assert.Contains(t, actions, "queue.resume")
}

func TestQueueServiceClearAll(t *testing.T) {
	svc, store, _ := newTestQueueService(t)
	base := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	seedQueueJob(t, store, "reports", "q1", "a", model.QueueJobWaiting, `{}`, base)
	seedQueueJob(t, store, "reports", "q2", "b", model.QueueJobFailed, `{}`, base)

	result, err := svc.Execute(context.Background(), "reports", core.QueueClearCommand{}, "op")
	require.NoError(t, err)

	cleared, ok := result.(QueueClearResult)
	require.True(t, ok)
	assert.Equal(t, 2, cleared.Cleared)

	stats, err := store.Stats(context.Background(), "reports")
	require.NoError(t, err)
	assert.Zero(t, stats.Waiting+stats.Failed)
}

func TestQueueServiceClearByStateFilter(t *testing.T) {
	svc, store, _ := newTestQueueService(t)
	base := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	seedQueueJob(t, store, "reports", "q1", "a", model.QueueJobWaiting, `{}`, base)
	seedQueueJob(t, store, "reports", "q2", "b", model.QueueJobFailed, `{}`, base)

	result, err := svc.Execute(context.Background(), "reports", core.QueueClearCommand{
		StateFilter: []model.QueueJobState{model.QueueJobFailed},
	}, "op")
	require.NoError(t, err)
	assert.Equal(t, 1, result.(QueueClearResult).Cleared)

	_, err = store.Get(context.Background(), "reports", "q1")
	assert.NoError(t, err, "waiting job survives a failed-only clear")
}

func TestQueueServiceClearByExactType(t *testing.T) {
	svc, store, _ := newTestQueueService(t)
	base := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	seedQueueJob(t, store, "reports", "q1", "report.generate", model.QueueJobWaiting, `{}`, base)
	seedQueueJob(t, store, "reports", "q2", "export.csv", model.QueueJobWaiting, `{}`, base)

	result, err := svc.Execute(context.Background(), "reports", core.QueueClearCommand{
		TypeFilter: "report.generate",
	}, "op")
	require.NoError(t, err)
	assert.Equal(t, 1, result.(QueueClearResult).Cleared)

	_, err = store.Get(context.Background(), "reports", "q2")
	assert.NoError(t, err)
}

func TestQueueServiceClearByExpression(t *testing.T) {
	svc, store, _ := newTestQueueService(t)
	base := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	seedQueueJob(t, store, "reports", "q1", "export.csv", model.QueueJobWaiting, `{"tenant":"acme"}`, base)
	seedQueueJob(t, store, "reports", "q2", "export.csv", model.QueueJobWaiting, `{"tenant":"globex"}`, base)

	result, err := svc.Execute(context.Background(), "reports", core.QueueClearCommand{
		TypeFilter: `payload.tenant == 'acme'`,
	}, "op")
	require.NoError(t, err)
	assert.Equal(t, 1, result.(QueueClearResult).Cleared)

	_, err = store.Get(context.Background(), "reports", "q1")
	assert.ErrorIs(t, err, core.ErrQueueJobNotFound)
	_, err = store.Get(context.Background(), "reports", "q2")
	assert.NoError(t, err)
}

func TestQueueServiceRetryOnlyFailedJobs(t *testing.T) {
	svc, store, _ := newTestQueueService(t)
	base := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	seedQueueJob(t, store, "reports", "failed-1", "a", model.QueueJobFailed, `{}`, base)
	seedQueueJob(t, store, "reports", "done-1", "a", model.QueueJobCompleted, `{}`, base)

	result, err := svc.Execute(context.Background(), "reports", core.QueueRetryCommand{
		JobIDs: []string{"failed-1", "done-1", "ghost"},
	}, "op")
	require.NoError(t, err)

	outcomes, ok := result.([]model.RetryOutcome)
	require.True(t, ok)
	require.Len(t, outcomes, 3)

	assert.True(t, outcomes[0].Retried)
	assert.False(t, outcomes[1].Retried)
	assert.Contains(t, outcomes[1].Reason, "only failed jobs can be retried")
	assert.False(t, outcomes[2].Retried)
	assert.Equal(t, "not found", outcomes[2].Reason)

	job, err := store.Get(context.Background(), "reports", "failed-1")
	require.NoError(t, err)
	assert.Equal(t, model.QueueJobWaiting, job.State)
	assert.Empty(t, job.LastError, "retry clears the previous failure")
}

func TestQueueServiceRemove(t *testing.T) {
	svc, store, _ := newTestQueueService(t)
	seedQueueJob(t, store, "reports", "q1", "a", model.QueueJobWaiting, `{}`, time.Now())

	result, err := svc.Execute(context.Background(), "reports", core.QueueRemoveCommand{
		JobIDs: []string{"q1", "ghost"},
	}, "op")
	require.NoError(t, err)
	assert.Equal(t, 1, result.(QueueRemoveResult).Removed)
}

func TestQueueServiceAdd(t *testing.T) {
	svc, store, audit := newTestQueueService(t)

	result, err := svc.Execute(context.Background(), "reports", core.QueueAddCommand{
		Job: model.AddQueueJobRequest{Type: "report.generate", Payload: json.RawMessage(`{"month":"2026-03"}`)},
	}, "op")
	require.NoError(t, err)

	job, ok := result.(*model.QueueJob)
	require.True(t, ok)
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, model.QueueJobWaiting, job.State)
	assert.Equal(t, "reports", job.Queue)

	stored, err := store.Get(context.Background(), "reports", job.ID)
	require.NoError(t, err)
	assert.Equal(t, "report.generate", stored.Type)
	assert.Contains(t, audit.actions(), "queue.add")
}

func TestQueueServiceAddToPausedQueue(t *testing.T) {
	svc, store, _ := newTestQueueService(t)
	require.NoError(t, store.SetPaused(context.Background(), "reports", true))

	result, err := svc.Execute(context.Background(), "reports", core.QueueAddCommand{
		Job: model.AddQueueJobRequest{Type: "a", Payload: json.RawMessage(`{}`)},
	}, "op")
	require.NoError(t, err, "paused queues still accept jobs")

	job := result.(*model.QueueJob)
	assert.Equal(t, model.QueueJobWaiting, job.State)
}

func TestQueueServiceRejectsInvalidCommand(t *testing.T) {
	svc, _, _ := newTestQueueService(t)

	_, err := svc.Execute(context.Background(), "reports", core.QueueRemoveCommand{}, "op")
	assert.Error(t, err, "remove with no ids is invalid")
}

func TestQueueServiceHealth(t *testing.T) {
	svc, store, _ := newTestQueueService(t)
	base := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	seedQueueJob(t, store, "reports", "q1", "a", model.QueueJobWaiting, `{}`, base)
	seedQueueJob(t, store, "reports", "q2", "a", model.QueueJobFailed, `{}`, base)
	seedQueueJob(t, store, "reports", "q3", "a", model.QueueJobCompleted, `{}`, base)
	seedQueueJob(t, store, "reports", "q4", "a", model.QueueJobCompleted, `{}`, base)

	result, err := svc.Execute(context.Background(), "reports", core.QueueHealthCommand{}, "op")
	require.NoError(t, err)

	health, ok := result.(model.QueueHealth)
	require.True(t, ok)
	assert.Equal(t, 1, health.Depth)
	assert.InDelta(t, 1.0/3.0, health.FailureRatio, 0.001)
	assert.False(t, health.Paused)
}

func TestQueueServiceStatsAll(t *testing.T) {
	svc, store, _ := newTestQueueService(t)
	base := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	seedQueueJob(t, store, "alpha", "q1", "a", model.QueueJobWaiting, `{}`, base)
	seedQueueJob(t, store, "beta", "q2", "a", model.QueueJobFailed, `{}`, base)

	all, err := svc.StatsAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "alpha", all[0].Queue)
	assert.Equal(t, 1, all[0].Waiting)
	assert.Equal(t, "beta", all[1].Queue)
	assert.Equal(t, 1, all[1].Failed)
}
