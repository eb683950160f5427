package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	jmespath "github.com/jmespath-community/go-jmespath"

	"github.com/psai-foundry/project-foundry-psa-sub001/internal/core"
	"github.com/psai-foundry/project-foundry-psa-sub001/internal/domain/model"
	"github.com/psai-foundry/project-foundry-psa-sub001/internal/observability/metrics"
	"github.com/psai-foundry/project-foundry-psa-sub001/internal/observability/statsd"
)

// QueueServiceOptions groups dependencies for QueueService.
type QueueServiceOptions struct {
	Store   core.QueueStore // required
	Audit   core.AuditSink  // required
	Logger  *slog.Logger
	Metrics statsd.Sink
	Clock   core.Clock
}

// QueueService manages named ad-hoc job queues. Multi-step mutations are
// serialised per queue; operations on different queues never contend.
type QueueService struct {
	store   core.QueueStore
	audit   core.AuditSink
	logger  *slog.Logger
	metrics statsd.Sink
	clock   core.Clock

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewQueueService constructs a QueueService.
func NewQueueService(opts QueueServiceOptions) (*QueueService, error) {
	if opts.Store == nil {
		return nil, errors.New("queue store is required")
	}
	if opts.Audit == nil {
		return nil, errors.New("audit sink is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := opts.Clock
	if clock == nil {
		clock = RealClock{}
	}
	return &QueueService{
		store:   opts.Store,
		audit:   opts.Audit,
		logger:  logger.With("component", "queue_service"),
		metrics: opts.Metrics,
		clock:   clock,
		locks:   make(map[string]*sync.Mutex),
	}, nil
}

// queueLock returns the mutex serialising mutations for one queue.
func (s *QueueService) queueLock(queue string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[queue]
	if !ok {
		l = &sync.Mutex{}
		s.locks[queue] = l
	}
	return l
}

// QueueClearResult reports how many jobs a clear removed.
type QueueClearResult struct {
	Cleared int `json:"cleared"`
}

// QueueRemoveResult reports how many jobs a remove deleted.
type QueueRemoveResult struct {
	Removed int `json:"removed"`
}

// Execute runs one typed queue command and returns its action-specific
// result. Mutating commands are audited with the acting identity.
func (s *QueueService) Execute(ctx context.Context, queue string, cmd core.QueueCommand, actor string) (any, error) {
	if queue == "" {
		return nil, errors.New("queue name is required")
	}
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var (
		result any
		err    error
	)
	switch c := cmd.(type) {
	case core.QueueStatsCommand:
		result, err = s.store.Stats(ctx, queue)
	case core.QueueJobsCommand:
		result, err = s.listJobs(ctx, queue, c)
	case core.QueueHealthCommand:
		result, err = s.health(ctx, queue)
	case core.QueuePauseCommand:
		err = s.setPaused(ctx, queue, actor, true)
		if err == nil {
			result, err = s.store.Stats(ctx, queue)
		}
	case core.QueueResumeCommand:
		err = s.setPaused(ctx, queue, actor, false)
		if err == nil {
			result, err = s.store.Stats(ctx, queue)
		}
	case core.QueueClearCommand:
		result, err = s.clear(ctx, queue, c, actor)
	case core.QueueRetryCommand:
		result, err = s.retry(ctx, queue, c, actor)
	case core.QueueRemoveCommand:
		result, err = s.remove(ctx, queue, c, actor)
	case core.QueueAddCommand:
		result, err = s.add(ctx, queue, c, actor)
	default:
		// The command set is closed; reaching this is a programming error.
		return nil, fmt.Errorf("unhandled queue command %T", cmd)
	}

	outcome := metrics.ResultSuccess
	if err != nil {
		outcome = metrics.ResultError
	}
	metrics.EmitQueueAction(s.metrics, queue, cmd.Name(), outcome)
	return result, err
}

func (s *QueueService) listJobs(ctx context.Context, queue string, cmd core.QueueJobsCommand) ([]*model.QueueJob, error) {
	var states []model.QueueJobState
	if cmd.State != "" {
		states = []model.QueueJobState{cmd.State}
	}
	return s.store.List(ctx, queue, states)
}

func (s *QueueService) health(ctx context.Context, queue string) (model.QueueHealth, error) {
	stats, err := s.store.Stats(ctx, queue)
	if err != nil {
		return model.QueueHealth{}, err
	}
	health := model.QueueHealth{
		Queue:  queue,
		Depth:  stats.Depth(),
		Paused: stats.Paused,
	}
	settled := stats.Completed + stats.Failed
	if settled > 0 {
		health.FailureRatio = float64(stats.Failed) / float64(settled)
	}
	return health, nil
}

func (s *QueueService) setPaused(ctx context.Context, queue, actor string, paused bool) error {
	lock := s.queueLock(queue)
	lock.Lock()
	defer lock.Unlock()

	if err := s.store.SetPaused(ctx, queue, paused); err != nil {
		return err
	}
	action := "queue.resume"
	if paused {
		action = "queue.pause"
	}
	s.recordAudit(ctx, actor, action, queue, "applied", 0)
	return nil
}

// clear removes jobs matching the command's filters. With no filters, every
// job in the queue is removed.
func (s *QueueService) clear(ctx context.Context, queue string, cmd core.QueueClearCommand, actor string) (QueueClearResult, error) {
	lock := s.queueLock(queue)
	lock.Lock()
	defer lock.Unlock()

	jobs, err := s.store.List(ctx, queue, cmd.StateFilter)
	if err != nil {
		return QueueClearResult{}, err
	}

	matcher := compileTypeFilter(cmd.TypeFilter)

	var ids []string
	for _, job := range jobs {
		ok, matchErr := matcher(job)
		if matchErr != nil {
			s.logger.WarnContext(ctx, "type filter evaluation failed",
				"queue", queue, "job_id", job.ID, "error", matchErr)
			continue
		}
		if ok {
			ids = append(ids, job.ID)
		}
	}

	removed := 0
	if len(ids) > 0 {
		removed, err = s.store.Remove(ctx, queue, ids)
		if err != nil {
			return QueueClearResult{}, err
		}
	}
	s.recordAudit(ctx, actor, "queue.clear", queue, "applied", removed)
	return QueueClearResult{Cleared: removed}, nil
}

func (s *QueueService) retry(ctx context.Context, queue string, cmd core.QueueRetryCommand, actor string) ([]model.RetryOutcome, error) {
	lock := s.queueLock(queue)
	lock.Lock()
	defer lock.Unlock()

	outcomes := make([]model.RetryOutcome, 0, len(cmd.JobIDs))
	retried := 0
	for _, id := range cmd.JobIDs {
		job, err := s.store.Get(ctx, queue, id)
		switch {
		case errors.Is(err, core.ErrQueueJobNotFound):
			outcomes = append(outcomes, model.RetryOutcome{JobID: id, Reason: "not found"})
			continue
		case err != nil:
			return nil, err
		}
		if job.State != model.QueueJobFailed {
			outcomes = append(outcomes, model.RetryOutcome{
				JobID:  id,
				Reason: fmt.Sprintf("job is %s, only failed jobs can be retried", job.State),
			})
			continue
		}
		if err := s.store.UpdateState(ctx, queue, id, model.QueueJobWaiting, ""); err != nil {
			return nil, err
		}
		outcomes = append(outcomes, model.RetryOutcome{JobID: id, Retried: true})
		retried++
	}
	s.recordAudit(ctx, actor, "queue.retry", queue, "applied", retried)
	return outcomes, nil
}

func (s *QueueService) remove(ctx context.Context, queue string, cmd core.QueueRemoveCommand, actor string) (QueueRemoveResult, error) {
	lock := s.queueLock(queue)
	lock.Lock()
	defer lock.Unlock()

	removed, err := s.store.Remove(ctx, queue, cmd.JobIDs)
	if err != nil {
		return QueueRemoveResult{}, err
	}
	s.recordAudit(ctx, actor, "queue.remove", queue, "applied", removed)
	return QueueRemoveResult{Removed: removed}, nil
}

// add enqueues a job. A paused queue still accepts jobs; they sit waiting
// until the queue is resumed.
func (s *QueueService) add(ctx context.Context, queue string, cmd core.QueueAddCommand, actor string) (*model.QueueJob, error) {
	now := s.clock.Now()
	job := &model.QueueJob{
		ID:        uuid.NewString(),
		Queue:     queue,
		Type:      cmd.Job.Type,
		Payload:   cmd.Job.Payload,
		State:     model.QueueJobWaiting,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Add(ctx, queue, job); err != nil {
		return nil, err
	}
	s.recordAudit(ctx, actor, "queue.add", queue, "applied", 1)
	return job, nil
}

// StatsAll reports stats for every known queue.
func (s *QueueService) StatsAll(ctx context.Context) ([]model.QueueStats, error) {
	queues, err := s.store.Queues(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.QueueStats, 0, len(queues))
	for _, q := range queues {
		stats, statsErr := s.store.Stats(ctx, q)
		if statsErr != nil {
			return nil, statsErr
		}
		out = append(out, stats)
	}
	return out, nil
}

func (s *QueueService) recordAudit(ctx context.Context, actor, action, queue, outcome string, count int) {
	event := core.AuditEvent{
		Actor:   actor,
		Action:  action,
		Scope:   queue,
		Outcome: outcome,
		Count:   count,
		At:      s.clock.Now(),
	}
	if err := s.audit.Record(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "audit record failed", "action", action, "queue", queue, "error", err)
	}
}

// compileTypeFilter builds a predicate over queue jobs. An empty filter
// matches everything; an exact job-type name matches by name; any other
// filter must be a JMESPath expression evaluated against
// {type, state, attempts, payload}.
func compileTypeFilter(filter string) func(*model.QueueJob) (bool, error) {
	if filter == "" {
		return func(*model.QueueJob) (bool, error) { return true, nil }
	}

	expr, compileErr := jmespath.Compile(filter)

	return func(j *model.QueueJob) (bool, error) {
		if j.Type == filter {
			return true, nil
		}
		if compileErr != nil {
			return false, nil
		}
		var payload any
		if len(j.Payload) > 0 {
			if err := json.Unmarshal(j.Payload, &payload); err != nil {
				return false, fmt.Errorf("decode payload: %w", err)
			}
		}
		env := map[string]any{
			"type":     j.Type,
			"state":    string(j.State),
			"attempts": j.Attempts,
			"payload":  payload,
		}
		v, err := expr.Search(env)
		if err != nil {
			return false, fmt.Errorf("evaluate filter: %w", err)
		}
		return truthy(v), nil
	}
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}
