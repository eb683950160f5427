package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/psai-foundry/project-foundry-psa-sub001/internal/core"
	"github.com/psai-foundry/project-foundry-psa-sub001/internal/domain/model"
	obserrors "github.com/psai-foundry/project-foundry-psa-sub001/internal/observability/errors"
)

// DefaultMaxRetries is applied when a configuration leaves retries unset.
const DefaultMaxRetries = 3

// defaultBackoffBase is the first retry delay; attempt n waits n times this.
const defaultBackoffBase = 500 * time.Millisecond

// RetryManagerOptions groups dependencies for RetryManager.
type RetryManagerOptions struct {
	MaxRetries  int           // additional attempts after the first; defaults to DefaultMaxRetries when negative
	BackoffBase time.Duration // defaults to 500ms
	Sleeper     core.Sleeper  // defaults to RealSleeper
}

// RetryManager wraps a single-record operation with bounded retry and
// failure classification. Transient failures are retried with a strictly
// increasing backoff; permanent failures are recorded once and never retried.
type RetryManager struct {
	maxRetries  int
	backoffBase time.Duration
	sleeper     core.Sleeper
}

// NewRetryManager constructs a RetryManager.
func NewRetryManager(opts RetryManagerOptions) *RetryManager {
	maxRetries := opts.MaxRetries
	if maxRetries < 0 {
		maxRetries = DefaultMaxRetries
	}
	base := opts.BackoffBase
	if base <= 0 {
		base = defaultBackoffBase
	}
	sleeper := opts.Sleeper
	if sleeper == nil {
		sleeper = RealSleeper{}
	}
	return &RetryManager{maxRetries: maxRetries, backoffBase: base, sleeper: sleeper}
}

// AttemptOutcome describes how one record's submission concluded.
type AttemptOutcome struct {
	Err error
	// Class is set when Err is non-nil.
	Class model.ErrorClass
	// Attempts is the number of calls made, in [1, maxRetries+1].
	Attempts int
}

// Retries returns the count of retries after the first attempt; this is
// what ErrorEntry.RetryCount records.
func (o AttemptOutcome) Retries() int {
	if o.Attempts <= 1 {
		return 0
	}
	return o.Attempts - 1
}

// Succeeded reports whether the operation eventually succeeded.
func (o AttemptOutcome) Succeeded() bool { return o.Err == nil }

// Do invokes fn until it succeeds, fails permanently, or exhausts the retry
// budget. The backoff wait is cancellable through ctx; cancellation surfaces
// as a transient outcome so the record can be re-driven on resume.
func (m *RetryManager) Do(ctx context.Context, fn func(context.Context) error) AttemptOutcome {
	out := AttemptOutcome{}
	for attempt := 1; ; attempt++ {
		out.Attempts = attempt

		err := fn(ctx)
		if err == nil {
			out.Err = nil
			out.Class = ""
			return out
		}

		out.Err = err
		out.Class = obserrors.ClassifySubmission(err)

		if out.Class == model.ErrorClassPermanent {
			return out
		}
		if attempt > m.maxRetries {
			return out
		}
		if ctx.Err() != nil {
			out.Err = fmt.Errorf("submission interrupted: %w", errors.Join(err, ctx.Err()))
			return out
		}

		// Linear backoff: strictly increasing per attempt.
		if sleepErr := m.sleeper.Sleep(ctx, time.Duration(attempt)*m.backoffBase); sleepErr != nil {
			out.Err = fmt.Errorf("submission interrupted: %w", errors.Join(err, sleepErr))
			return out
		}
	}
}

// Exhausted reports whether the outcome is a transient failure that used the
// whole retry budget. A batch where every record ends this way signals a
// systemic failure.
func (m *RetryManager) Exhausted(o AttemptOutcome) bool {
	return o.Err != nil && o.Class == model.ErrorClassTransient && o.Attempts > m.maxRetries
}

// MaxRetries exposes the configured budget.
func (m *RetryManager) MaxRetries() int { return m.maxRetries }
