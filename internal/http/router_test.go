package httpx_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/psai-foundry/project-foundry-psa-sub001/internal/core"
	"github.com/psai-foundry/project-foundry-psa-sub001/internal/domain/model"
	httpx "github.com/psai-foundry/project-foundry-psa-sub001/internal/http"
	"github.com/psai-foundry/project-foundry-psa-sub001/internal/mocks"
	"github.com/psai-foundry/project-foundry-psa-sub001/internal/service"
)

// staticVerifier resolves every request to a fixed actor.
type staticVerifier struct{ actor string }

func (v staticVerifier) Actor(context.Context, string) (string, error) { return v.actor, nil }

// rejectVerifier refuses every token.
type rejectVerifier struct{}

func (rejectVerifier) Actor(context.Context, string) (string, error) {
	return "", errors.New("token rejected")
}

type staticAuditReader struct{ events []core.AuditEvent }

func (r staticAuditReader) RecentEvents(context.Context, int) ([]core.AuditEvent, error) {
	return r.events, nil
}

type routerFixture struct {
	repo       *mocks.MockMigrationJobRepository
	records    *mocks.MockRecordStore
	client     *mocks.MockAccountingClient
	queueStore *mocks.MockQueueStore
	coord      *service.Coordinator
	handler    http.Handler
}

func newRouterFixture(t *testing.T, verifier httpx.ActorVerifier) *routerFixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := &routerFixture{
		repo:       mocks.NewMockMigrationJobRepository(ctrl),
		records:    mocks.NewMockRecordStore(ctrl),
		client:     mocks.NewMockAccountingClient(ctrl),
		queueStore: mocks.NewMockQueueStore(ctrl),
	}

	audit := mocks.NewMockAuditSink(ctrl)
	audit.EXPECT().Record(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	coord := service.MustNewCoordinator(service.CoordinatorOptions{
		Repo:    f.repo,
		Records: f.records,
		Client:  f.client,
		Audit:   audit,
	})
	f.coord = coord
	t.Cleanup(func() { _ = coord.Shutdown(context.Background()) })

	queues, err := service.NewQueueService(service.QueueServiceOptions{
		Store: f.queueStore,
		Audit: audit,
	})
	require.NoError(t, err)

	f.handler = httpx.NewRouter(httpx.RouterServices{
		Coordinator: coord,
		Queues:      queues,
		Audit: staticAuditReader{events: []core.AuditEvent{
			{Actor: "operator@psa", Action: "migration.start", Outcome: "accepted"},
		}},
		Verifier: verifier,
	})
	return f
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealthz(t *testing.T) {
	f := newRouterFixture(t, staticVerifier{actor: "operator@psa"})

	rec := doJSON(t, f.handler, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAPIRequiresAuthentication(t *testing.T) {
	f := newRouterFixture(t, rejectVerifier{})

	rec := doJSON(t, f.handler, http.MethodGet, "/api/migrations", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "authentication_required", decodeBody(t, rec)["error"])

	// The health probe stays open regardless.
	rec = doJSON(t, f.handler, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateMigration(t *testing.T) {
	f := newRouterFixture(t, staticVerifier{actor: "operator@psa"})

	f.records.EXPECT().FetchCandidates(gomock.Any(), gomock.Any()).Return(nil, nil)
	f.repo.EXPECT().ActiveExistsForScope(gomock.Any(), "timesheet:all").Return(false, nil)
	f.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
	// The launched worker persists its terminal state asynchronously.
	f.repo.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	rec := doJSON(t, f.handler, http.MethodPost, "/api/migrations", `{"batch_size":10}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decodeBody(t, rec)
	job, ok := body["job"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "timesheet:all", job["scope"])
	assert.NotEmpty(t, job["id"])
	require.Contains(t, body, "validation")

	// Let the launched worker park before the mock controller shuts down.
	require.Eventually(t, func() bool {
		return len(f.coord.ActiveJobs()) == 0
	}, 2*time.Second, 5*time.Millisecond)
}

func TestCreateMigrationInvalidJSON(t *testing.T) {
	f := newRouterFixture(t, staticVerifier{actor: "operator@psa"})

	rec := doJSON(t, f.handler, http.MethodPost, "/api/migrations", `{"batch_size": }`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_json", decodeBody(t, rec)["error"])
}

func TestCreateMigrationValidationBlocked(t *testing.T) {
	f := newRouterFixture(t, staticVerifier{actor: "operator@psa"})

	f.records.EXPECT().FetchCandidates(gomock.Any(), gomock.Any()).Return([]model.TimesheetRecord{
		{ID: "not-a-uuid", Hours: 8, BillRate: 100, Status: model.TimesheetApproved},
	}, nil)

	rec := doJSON(t, f.handler, http.MethodPost, "/api/migrations", `{"batch_size":10}`)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "validation_blocked", body["error"])
	validation, ok := body["validation"].(map[string]any)
	require.True(t, ok, "the full report rides along so operators see every issue")
	assert.Equal(t, float64(1), validation["invalid_records"])
}

func TestCreateMigrationScopeConflict(t *testing.T) {
	f := newRouterFixture(t, staticVerifier{actor: "operator@psa"})

	f.records.EXPECT().FetchCandidates(gomock.Any(), gomock.Any()).Return(nil, nil)
	f.repo.EXPECT().ActiveExistsForScope(gomock.Any(), "timesheet:all").Return(true, nil)

	rec := doJSON(t, f.handler, http.MethodPost, "/api/migrations", `{"batch_size":10}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "scope_conflict", decodeBody(t, rec)["error"])
}

func TestPreviewMigration(t *testing.T) {
	f := newRouterFixture(t, staticVerifier{actor: "operator@psa"})

	f.records.EXPECT().FetchCandidates(gomock.Any(), gomock.Any()).Return(nil, nil)

	rec := doJSON(t, f.handler, http.MethodPost, "/api/migrations/preview", `{"batch_size":10}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(100), decodeBody(t, rec)["readiness_percent"])
}

func TestControlUnknownAction(t *testing.T) {
	f := newRouterFixture(t, staticVerifier{actor: "operator@psa"})

	rec := doJSON(t, f.handler, http.MethodPost, "/api/migrations/job-1/control", `{"action":"restart"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "unknown_action", decodeBody(t, rec)["error"])
}

func TestControlUnknownJob(t *testing.T) {
	f := newRouterFixture(t, staticVerifier{actor: "operator@psa"})

	f.repo.EXPECT().Get(gomock.Any(), "missing").Return(nil, core.ErrJobNotFound)

	rec := doJSON(t, f.handler, http.MethodPost, "/api/migrations/missing/control", `{"action":"pause"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeBody(t, rec)["error"])
}

func TestListMigrations(t *testing.T) {
	f := newRouterFixture(t, staticVerifier{actor: "operator@psa"})

	f.repo.EXPECT().List(gomock.Any(), 5).Return([]*model.MigrationJob{
		{ID: "job-1", Status: model.MigrationStatusCompleted},
	}, nil)

	rec := doJSON(t, f.handler, http.MethodGet, "/api/migrations?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)

	jobs, ok := decodeBody(t, rec)["jobs"].([]any)
	require.True(t, ok)
	assert.Len(t, jobs, 1)
}

func TestProgressForPersistedJob(t *testing.T) {
	f := newRouterFixture(t, staticVerifier{actor: "operator@psa"})

	started := time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
	f.repo.EXPECT().Get(gomock.Any(), "job-1").Return(&model.MigrationJob{
		ID:               "job-1",
		Status:           model.MigrationStatusCompleted,
		TotalRecords:     10,
		ProcessedRecords: 10,
		SucceededRecords: 9,
		FailedRecords:    1,
		StartedAt:        &started,
	}, nil)

	rec := doJSON(t, f.handler, http.MethodGet, "/api/migrations/job-1/progress", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "completed", body["status"])
	assert.Equal(t, float64(9), body["succeeded_records"])
}

func TestQueueStatsEndpoint(t *testing.T) {
	f := newRouterFixture(t, staticVerifier{actor: "operator@psa"})

	f.queueStore.EXPECT().Queues(gomock.Any()).Return([]string{"reports"}, nil)
	f.queueStore.EXPECT().Stats(gomock.Any(), "reports").Return(model.QueueStats{Queue: "reports", Waiting: 3}, nil)

	rec := doJSON(t, f.handler, http.MethodGet, "/api/queues", "")
	require.Equal(t, http.StatusOK, rec.Code)

	queues, ok := decodeBody(t, rec)["queues"].([]any)
	require.True(t, ok)
	require.Len(t, queues, 1)
	assert.Equal(t, float64(3), queues[0].(map[string]any)["waiting"])
}

func TestQueueCommandStats(t *testing.T) {
	f := newRouterFixture(t, staticVerifier{actor: "operator@psa"})

	f.queueStore.EXPECT().Stats(gomock.Any(), "reports").Return(model.QueueStats{Queue: "reports", Failed: 2}, nil)

	rec := doJSON(t, f.handler, http.MethodPost, "/api/queues/reports/command", `{"action":"stats"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody(t, rec)
	assert.Equal(t, "reports", body["queue"])
	assert.Equal(t, "stats", body["action"])
	result, ok := body["result"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(2), result["failed"])
}

func TestQueueCommandUnknownAction(t *testing.T) {
	f := newRouterFixture(t, staticVerifier{actor: "operator@psa"})

	rec := doJSON(t, f.handler, http.MethodPost, "/api/queues/reports/command", `{"action":"drain"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_command", decodeBody(t, rec)["error"])
}

func TestQueueCommandInvalidArguments(t *testing.T) {
	f := newRouterFixture(t, staticVerifier{actor: "operator@psa"})

	rec := doJSON(t, f.handler, http.MethodPost, "/api/queues/reports/command",
		`{"action":"remove","args":{"job_ids":[]}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_command", decodeBody(t, rec)["error"])
}

func TestQueueCommandExecutionFailure(t *testing.T) {
	f := newRouterFixture(t, staticVerifier{actor: "operator@psa"})

	f.queueStore.EXPECT().List(gomock.Any(), "reports", gomock.Nil()).Return(nil, errors.New("redis down"))

	rec := doJSON(t, f.handler, http.MethodPost, "/api/queues/reports/command", `{"action":"jobs"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "command_failed", decodeBody(t, rec)["error"])
}

func TestAuditEventsEndpoint(t *testing.T) {
	f := newRouterFixture(t, staticVerifier{actor: "operator@psa"})

	rec := doJSON(t, f.handler, http.MethodGet, "/api/audit/events", "")
	require.Equal(t, http.StatusOK, rec.Code)

	events, ok := decodeBody(t, rec)["events"].([]any)
	require.True(t, ok)
	require.Len(t, events, 1)
	assert.Equal(t, "operator@psa", events[0].(map[string]any)["actor"])
}
