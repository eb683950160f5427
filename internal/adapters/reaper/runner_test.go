package reaper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/psai-foundry/project-foundry-psa-sub001/config"
	"github.com/psai-foundry/project-foundry-psa-sub001/internal/core"
	"github.com/psai-foundry/project-foundry-psa-sub001/internal/mocks"
)

func newTestRunner(t *testing.T, repo core.MigrationJobRepository, audit core.AuditSink, interval time.Duration) *Runner {
	t.Helper()
	r, err := NewRunner(RunnerOptions{
		Repo:   repo,
		Audit:  audit,
		Config: config.ReaperConfig{Interval: interval},
	})
	require.NoError(t, err)
	return r
}

func TestNewRunnerRequiresDatabaseOrInjection(t *testing.T) {
	_, err := NewRunner(RunnerOptions{})
	assert.ErrorContains(t, err, "database connection is required")
}

func TestReapFailsExpiredJobsAndAudits(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockMigrationJobRepository(ctrl)
	audit := mocks.NewMockAuditSink(ctrl)

	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	repo.EXPECT().FailExpired(gomock.Any(), now).Return([]string{"job-1", "job-2"}, nil)
	audit.EXPECT().Record(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, event core.AuditEvent) error {
			assert.Equal(t, "system:reaper", event.Actor)
			assert.Equal(t, "migration.reaped", event.Action)
			assert.Equal(t, "failed", event.Outcome)
			return nil
		}).Times(2)

	r := newTestRunner(t, repo, audit, time.Minute)
	require.NoError(t, r.reap(context.Background(), now))
}

func TestReapNothingExpired(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockMigrationJobRepository(ctrl)
	audit := mocks.NewMockAuditSink(ctrl)

	now := time.Now()
	repo.EXPECT().FailExpired(gomock.Any(), now).Return(nil, nil)

	r := newTestRunner(t, repo, audit, time.Minute)
	require.NoError(t, r.reap(context.Background(), now))
}

func TestReapPropagatesRepositoryError(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockMigrationJobRepository(ctrl)
	audit := mocks.NewMockAuditSink(ctrl)

	now := time.Now()
	repo.EXPECT().FailExpired(gomock.Any(), now).Return(nil, errors.New("db gone"))

	r := newTestRunner(t, repo, audit, time.Minute)
	assert.ErrorContains(t, r.reap(context.Background(), now), "db gone")
}

func TestReapSurvivesAuditFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockMigrationJobRepository(ctrl)
	audit := mocks.NewMockAuditSink(ctrl)

	now := time.Now()
	repo.EXPECT().FailExpired(gomock.Any(), now).Return([]string{"job-1"}, nil)
	audit.EXPECT().Record(gomock.Any(), gomock.Any()).Return(errors.New("sink unavailable"))

	r := newTestRunner(t, repo, audit, time.Minute)
	assert.NoError(t, r.reap(context.Background(), now), "audit failures never abort the sweep")
}

func TestRunStopsCleanlyOnCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockMigrationJobRepository(ctrl)
	audit := mocks.NewMockAuditSink(ctrl)

	repo.EXPECT().FailExpired(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()

	r := newTestRunner(t, repo, audit, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("reaper did not stop after cancellation")
	}
}
