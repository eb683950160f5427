// Package metrics provides standardised metric emission helpers.
package metrics

import (
	"time"

	obserrors "github.com/psai-foundry/project-foundry-psa-sub001/internal/observability/errors"
	"github.com/psai-foundry/project-foundry-psa-sub001/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// MigrationMetric captures details about a migration lifecycle event.
type MigrationMetric struct {
	Transition string
	Result     string
	Duration   time.Duration
	Err        error
}

// EmitMigrationLifecycle emits migration state-transition metrics.
func EmitMigrationLifecycle(sink statsd.Sink, in MigrationMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"transition": in.Transition,
		"result":     in.Result,
	}
	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("migration.transition", 1, tags)
	if in.Duration > 0 {
		sink.Timing("migration.duration", in.Duration, CloneTags(tags))
	}
}

// BatchMetric captures the outcome of one settled batch.
type BatchMetric struct {
	Succeeded int
	Failed    int
	Duration  time.Duration
	DryRun    bool
}

// EmitBatchOutcome emits per-batch counters and timing.
func EmitBatchOutcome(sink statsd.Sink, in BatchMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{"dry_run": boolTag(in.DryRun)}
	sink.Count("migration.batch.succeeded", int64(in.Succeeded), tags)
	sink.Count("migration.batch.failed", int64(in.Failed), CloneTags(tags))
	if in.Duration > 0 {
		sink.Timing("migration.batch.duration", in.Duration, CloneTags(tags))
	}
}

// EmitQueueAction emits a counter for one queue-management action.
func EmitQueueAction(sink statsd.Sink, queue, action, result string) {
	if sink == nil {
		return
	}
	sink.Count("queue.action", 1, map[string]string{
		"queue":  queue,
		"action": action,
		"result": result,
	})
}

// CloneTags creates a shallow copy of a tag map, filtering out empty keys.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		if k == "" {
			continue
		}
		out[k] = v
	}
	return out
}

func boolTag(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
