package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/psai-foundry/project-foundry-psa-sub001/internal/core"
	"github.com/psai-foundry/project-foundry-psa-sub001/internal/domain/model"
)

// stubClock hands out a fixed instant, advancing a fixed step per read so
// durations are deterministic but non-zero.
type stubClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func newStubClock() *stubClock {
	return &stubClock{now: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *stubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now
	c.now = c.now.Add(c.step)
	return now
}

// stubSleeper records requested delays without sleeping.
type stubSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
	err    error
}

func (s *stubSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	if s.err != nil {
		return s.err
	}
	return ctx.Err()
}

func (s *stubSleeper) recorded() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.delays...)
}

// memJobRepo is an in-memory MigrationJobRepository for coordinator tests.
type memJobRepo struct {
	mu     sync.Mutex
	jobs   map[string]model.MigrationJob
	errors map[string][]model.ErrorEntry
}

func newMemJobRepo() *memJobRepo {
	return &memJobRepo{
		jobs:   make(map[string]model.MigrationJob),
		errors: make(map[string][]model.ErrorEntry),
	}
}

func (r *memJobRepo) Create(_ context.Context, job *model.MigrationJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[job.ID] = *job
	return nil
}

func (r *memJobRepo) Update(_ context.Context, job *model.MigrationJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[job.ID]; !ok {
		return core.ErrJobNotFound
	}
	r.jobs[job.ID] = *job
	return nil
}

func (r *memJobRepo) AppendErrors(_ context.Context, jobID string, entries []model.ErrorEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors[jobID] = append(r.errors[jobID], entries...)
	return nil
}

func (r *memJobRepo) Get(_ context.Context, id string) (*model.MigrationJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, core.ErrJobNotFound
	}
	job.Errors = append([]model.ErrorEntry(nil), r.errors[id]...)
	return &job, nil
}

func (r *memJobRepo) List(_ context.Context, limit int) ([]*model.MigrationJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.MigrationJob, 0, len(r.jobs))
	for id := range r.jobs {
		job := r.jobs[id]
		out = append(out, &job)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memJobRepo) ActiveExistsForScope(_ context.Context, scope string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, job := range r.jobs {
		if job.Scope == scope && !job.Status.Terminal() {
			return true, nil
		}
	}
	return false, nil
}

func (r *memJobRepo) Heartbeat(_ context.Context, id string, until time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok || job.Status != model.MigrationStatusRunning {
		return nil
	}
	job.LeaseExpiresAt = &until
	r.jobs[id] = job
	return nil
}

func (r *memJobRepo) FailExpired(_ context.Context, now time.Time) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var reaped []string
	for id, job := range r.jobs {
		if job.Status == model.MigrationStatusRunning && job.LeaseExpiresAt != nil && job.LeaseExpiresAt.Before(now) {
			job.Status = model.MigrationStatusFailed
			r.jobs[id] = job
			reaped = append(reaped, id)
		}
	}
	return reaped, nil
}

// memRecordStore serves a fixed candidate set and records sync marks.
type memRecordStore struct {
	mu      sync.Mutex
	records []model.TimesheetRecord
	synced  map[string]string
}

func newMemRecordStore(records []model.TimesheetRecord) *memRecordStore {
	return &memRecordStore{records: records, synced: make(map[string]string)}
}

func (s *memRecordStore) FetchCandidates(_ context.Context, _ model.MigrationConfig) ([]model.TimesheetRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.TimesheetRecord(nil), s.records...), nil
}

func (s *memRecordStore) MarkSynced(_ context.Context, recordID, externalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.synced[recordID] = externalID
	return nil
}

func (s *memRecordStore) syncedCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.synced)
}

// scriptedClient delegates submissions to a function, counting calls.
type scriptedClient struct {
	mu     sync.Mutex
	calls  int
	submit func(rec model.TimesheetRecord, call int) (core.SubmissionResult, error)
}

func (c *scriptedClient) SubmitTimesheet(_ context.Context, rec model.TimesheetRecord) (core.SubmissionResult, error) {
	c.mu.Lock()
	c.calls++
	call := c.calls
	c.mu.Unlock()
	if c.submit == nil {
		return core.SubmissionResult{ExternalID: "ext-" + rec.ID}, nil
	}
	return c.submit(rec, call)
}

func (c *scriptedClient) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// memAuditSink collects audit events.
type memAuditSink struct {
	mu     sync.Mutex
	events []core.AuditEvent
}

func (s *memAuditSink) Record(_ context.Context, event core.AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *memAuditSink) actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.events))
	for _, e := range s.events {
		out = append(out, e.Action)
	}
	return out
}

// memQueueStore is an in-memory QueueStore with list-ordered dispatch.
type memQueueStore struct {
	mu      sync.Mutex
	jobs    map[string]map[string]*model.QueueJob
	waiting map[string][]string
	paused  map[string]bool
}

func newMemQueueStore() *memQueueStore {
	return &memQueueStore{
		jobs:    make(map[string]map[string]*model.QueueJob),
		waiting: make(map[string][]string),
		paused:  make(map[string]bool),
	}
}

func (s *memQueueStore) Add(_ context.Context, queue string, job *model.QueueJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.jobs[queue] == nil {
		s.jobs[queue] = make(map[string]*model.QueueJob)
	}
	cp := *job
	s.jobs[queue][job.ID] = &cp
	if job.State == model.QueueJobWaiting {
		s.waiting[queue] = append(s.waiting[queue], job.ID)
	}
	return nil
}

func (s *memQueueStore) Get(_ context.Context, queue, jobID string) (*model.QueueJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[queue][jobID]
	if !ok {
		return nil, core.ErrQueueJobNotFound
	}
	cp := *job
	return &cp, nil
}

func (s *memQueueStore) List(_ context.Context, queue string, states []model.QueueJobState) ([]*model.QueueJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	match := func(st model.QueueJobState) bool {
		if len(states) == 0 {
			return true
		}
		for _, want := range states {
			if st == want {
				return true
			}
		}
		return false
	}
	var out []*model.QueueJob
	for _, job := range s.jobs[queue] {
		if match(job.State) {
			cp := *job
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *memQueueStore) Remove(_ context.Context, queue string, jobIDs []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for _, id := range jobIDs {
		if _, ok := s.jobs[queue][id]; ok {
			delete(s.jobs[queue], id)
			s.dropWaitingLocked(queue, id)
			removed++
		}
	}
	return removed, nil
}

func (s *memQueueStore) UpdateState(_ context.Context, queue, jobID string, state model.QueueJobState, lastError string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[queue][jobID]
	if !ok {
		return core.ErrQueueJobNotFound
	}
	s.dropWaitingLocked(queue, jobID)
	job.State = state
	job.LastError = lastError
	if state == model.QueueJobWaiting {
		s.waiting[queue] = append(s.waiting[queue], jobID)
	}
	return nil
}

func (s *memQueueStore) Stats(_ context.Context, queue string) (model.QueueStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := model.QueueStats{Queue: queue, Paused: s.paused[queue]}
	for _, job := range s.jobs[queue] {
		switch job.State {
		case model.QueueJobWaiting:
			stats.Waiting++
		case model.QueueJobActive:
			stats.Active++
		case model.QueueJobCompleted:
			stats.Completed++
		case model.QueueJobFailed:
			stats.Failed++
		case model.QueueJobDelayed:
			stats.Delayed++
		}
	}
	return stats, nil
}

func (s *memQueueStore) Queues(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.jobs))
	for q := range s.jobs {
		out = append(out, q)
	}
	sort.Strings(out)
	return out, nil
}

func (s *memQueueStore) SetPaused(_ context.Context, queue string, paused bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paused[queue] = paused
	return nil
}

func (s *memQueueStore) IsPaused(_ context.Context, queue string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused[queue], nil
}

func (s *memQueueStore) NextWaiting(_ context.Context, queue string) (*model.QueueJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.waiting[queue]) > 0 {
		id := s.waiting[queue][0]
		s.waiting[queue] = s.waiting[queue][1:]
		job, ok := s.jobs[queue][id]
		if !ok {
			continue
		}
		job.State = model.QueueJobActive
		job.Attempts++
		cp := *job
		return &cp, nil
	}
	return nil, nil
}

func (s *memQueueStore) dropWaitingLocked(queue, jobID string) {
	ids := s.waiting[queue]
	for i, id := range ids {
		if id == jobID {
			s.waiting[queue] = append(ids[:i:i], ids[i+1:]...)
			return
		}
	}
}

var (
	_ core.MigrationJobRepository = (*memJobRepo)(nil)
	_ core.RecordStore            = (*memRecordStore)(nil)
	_ core.AccountingClient       = (*scriptedClient)(nil)
	_ core.AuditSink              = (*memAuditSink)(nil)
	_ core.QueueStore             = (*memQueueStore)(nil)
	_ core.Clock                  = (*stubClock)(nil)
	_ core.Sleeper                = (*stubSleeper)(nil)
)
