// Package redis provides Redis-backed adapters for the PSA sync system.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/psai-foundry/project-foundry-psa-sub001/internal/core"
	"github.com/psai-foundry/project-foundry-psa-sub001/internal/domain/model"
	"github.com/redis/go-redis/v9"
)

const queueKeyPrefix = "psaq"

// QueueStore is a Redis-backed store for named ad-hoc job queues.
//
// Layout per queue:
//
//	psaq:queues              set of known queue names
//	psaq:{q}:job:{id}        job document (JSON)
//	psaq:{q}:waiting         list of waiting job ids, FIFO
//	psaq:{q}:state:{state}   set of job ids per state
//	psaq:{q}:paused          pause marker
//
// Claim order comes from the waiting list; the per-state sets serve counts
// and listings. Writers for one queue are serialized by the queue service,
// so the list and sets stay consistent.
type QueueStore struct {
	client redis.UniversalClient
	now    func() time.Time
}

// NewQueueStore creates a new Redis-backed queue store.
func NewQueueStore(client redis.UniversalClient) *QueueStore {
	return &QueueStore{
		client: client,
		now:    time.Now,
	}
}

func queueSetKey() string { return queueKeyPrefix + ":queues" }

func jobKey(queue, id string) string {
	return fmt.Sprintf("%s:%s:job:%s", queueKeyPrefix, queue, id)
}

func waitingKey(queue string) string {
	return fmt.Sprintf("%s:%s:waiting", queueKeyPrefix, queue)
}

func stateKey(queue string, state model.QueueJobState) string {
	return fmt.Sprintf("%s:%s:state:%s", queueKeyPrefix, queue, state)
}

func pausedKey(queue string) string {
	return fmt.Sprintf("%s:%s:paused", queueKeyPrefix, queue)
}

// Add persists a new job in the waiting state.
func (s *QueueStore) Add(ctx context.Context, queue string, job *model.QueueJob) error {
	if queue == "" {
		return errors.New("queue name cannot be empty")
	}
	if job == nil || job.ID == "" {
		return errors.New("job with id is required")
	}

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal queue job: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.SAdd(ctx, queueSetKey(), queue)
	pipe.Set(ctx, jobKey(queue, job.ID), data, 0)
	pipe.SAdd(ctx, stateKey(queue, job.State), job.ID)
	if job.State == model.QueueJobWaiting {
		pipe.RPush(ctx, waitingKey(queue), job.ID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("add queue job: %w", err)
	}
	return nil
}

// Get loads one job by id.
func (s *QueueStore) Get(ctx context.Context, queue, jobID string) (*model.QueueJob, error) {
	data, err := s.client.Get(ctx, jobKey(queue, jobID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, core.ErrQueueJobNotFound
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var job model.QueueJob
	if err := json.Unmarshal([]byte(data), &job); err != nil {
		return nil, fmt.Errorf("unmarshal queue job: %w", err)
	}
	return &job, nil
}

// List returns jobs in the given states, oldest first. Empty states means
// all states.
func (s *QueueStore) List(
	ctx context.Context,
	queue string,
	states []model.QueueJobState,
) ([]*model.QueueJob, error) {
	if len(states) == 0 {
		states = model.QueueJobStates()
	}

	var ids []string
	for _, state := range states {
		members, err := s.client.SMembers(ctx, stateKey(queue, state)).Result()
		if err != nil {
			return nil, fmt.Errorf("list queue state %s: %w", state, err)
		}
		ids = append(ids, members...)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = jobKey(queue, id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("fetch queue jobs: %w", err)
	}

	jobs := make([]*model.QueueJob, 0, len(values))
	for _, v := range values {
		raw, ok := v.(string)
		if !ok {
			// id present in a state set but the document is gone; skip
			continue
		}
		var job model.QueueJob
		if err := json.Unmarshal([]byte(raw), &job); err != nil {
			return nil, fmt.Errorf("unmarshal queue job: %w", err)
		}
		jobs = append(jobs, &job)
	}

	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].CreatedAt.Equal(jobs[j].CreatedAt) {
			return jobs[i].ID < jobs[j].ID
		}
		return jobs[i].CreatedAt.Before(jobs[j].CreatedAt)
	})
	return jobs, nil
}

// Remove deletes the given jobs, returning how many existed.
func (s *QueueStore) Remove(ctx context.Context, queue string, jobIDs []string) (int, error) {
	removed := 0
	for _, id := range jobIDs {
		job, err := s.Get(ctx, queue, id)
		if err != nil {
			if errors.Is(err, core.ErrQueueJobNotFound) {
				continue
			}
			return removed, err
		}

		pipe := s.client.TxPipeline()
		pipe.Del(ctx, jobKey(queue, id))
		pipe.SRem(ctx, stateKey(queue, job.State), id)
		if job.State == model.QueueJobWaiting {
			pipe.LRem(ctx, waitingKey(queue), 0, id)
		}
		if _, err := pipe.Exec(ctx); err != nil {
			return removed, fmt.Errorf("remove queue job %s: %w", id, err)
		}
		removed++
	}
	return removed, nil
}

// UpdateState moves a job between states, preserving its payload.
func (s *QueueStore) UpdateState(
	ctx context.Context,
	queue, jobID string,
	state model.QueueJobState,
	lastError string,
) error {
	job, err := s.Get(ctx, queue, jobID)
	if err != nil {
		return err
	}

	prev := job.State
	job.State = state
	job.LastError = lastError
	job.UpdatedAt = s.now().UTC()

	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal queue job: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, jobKey(queue, jobID), data, 0)
	if prev != state {
		pipe.SRem(ctx, stateKey(queue, prev), jobID)
		pipe.SAdd(ctx, stateKey(queue, state), jobID)
	}
	if prev == model.QueueJobWaiting && state != model.QueueJobWaiting {
		pipe.LRem(ctx, waitingKey(queue), 0, jobID)
	}
	if state == model.QueueJobWaiting && prev != model.QueueJobWaiting {
		pipe.RPush(ctx, waitingKey(queue), jobID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("update queue job state: %w", err)
	}
	return nil
}

// Stats reports per-state counts and the paused flag for one queue.
func (s *QueueStore) Stats(ctx context.Context, queue string) (model.QueueStats, error) {
	stats := model.QueueStats{Queue: queue}

	counts := make(map[model.QueueJobState]*redis.IntCmd, 5)
	pipe := s.client.Pipeline()
	for _, state := range model.QueueJobStates() {
		counts[state] = pipe.SCard(ctx, stateKey(queue, state))
	}
	pausedCmd := pipe.Exists(ctx, pausedKey(queue))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return model.QueueStats{}, fmt.Errorf("queue stats: %w", err)
	}

	stats.Waiting = int(counts[model.QueueJobWaiting].Val())
	stats.Active = int(counts[model.QueueJobActive].Val())
	stats.Completed = int(counts[model.QueueJobCompleted].Val())
	stats.Failed = int(counts[model.QueueJobFailed].Val())
	stats.Delayed = int(counts[model.QueueJobDelayed].Val())
	stats.Paused = pausedCmd.Val() > 0
	return stats, nil
}

// Queues returns the names of all known queues, sorted.
func (s *QueueStore) Queues(ctx context.Context) ([]string, error) {
	names, err := s.client.SMembers(ctx, queueSetKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list queues: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

// SetPaused pauses or resumes dispatch for a queue. Paused queues still
// accept jobs.
func (s *QueueStore) SetPaused(ctx context.Context, queue string, paused bool) error {
	pipe := s.client.TxPipeline()
	pipe.SAdd(ctx, queueSetKey(), queue)
	if paused {
		pipe.Set(ctx, pausedKey(queue), "1", 0)
	} else {
		pipe.Del(ctx, pausedKey(queue))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("set queue paused: %w", err)
	}
	return nil
}

// IsPaused reports whether dispatch is paused for a queue.
func (s *QueueStore) IsPaused(ctx context.Context, queue string) (bool, error) {
	n, err := s.client.Exists(ctx, pausedKey(queue)).Result()
	if err != nil {
		return false, fmt.Errorf("check queue paused: %w", err)
	}
	return n > 0, nil
}

// NextWaiting claims the oldest waiting job, moving it to active and
// incrementing its attempt count. The list pop makes the claim safe across
// competing dispatchers. Returns nil when nothing is waiting.
func (s *QueueStore) NextWaiting(ctx context.Context, queue string) (*model.QueueJob, error) {
	for {
		id, err := s.client.LPop(ctx, waitingKey(queue)).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return nil, nil
			}
			return nil, fmt.Errorf("pop waiting job: %w", err)
		}

		job, err := s.Get(ctx, queue, id)
		if err != nil {
			if errors.Is(err, core.ErrQueueJobNotFound) {
				// removed while waiting; claim the next one
				continue
			}
			return nil, err
		}

		job.State = model.QueueJobActive
		job.Attempts++
		job.UpdatedAt = s.now().UTC()

		data, err := json.Marshal(job)
		if err != nil {
			return nil, fmt.Errorf("marshal queue job: %w", err)
		}

		pipe := s.client.TxPipeline()
		pipe.Set(ctx, jobKey(queue, id), data, 0)
		pipe.SRem(ctx, stateKey(queue, model.QueueJobWaiting), id)
		pipe.SAdd(ctx, stateKey(queue, model.QueueJobActive), id)
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, fmt.Errorf("claim queue job: %w", err)
		}
		return job, nil
	}
}

var _ core.QueueStore = (*QueueStore)(nil)
