package core

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/psai-foundry/project-foundry-psa-sub001/internal/domain/model"
)

// ControlAction is the closed set of operator actions on a migration job.
// Unknown actions are rejected at the boundary rather than falling through a
// default branch.
type ControlAction string

const (
	// ControlPause requests a pause at the next batch boundary.
	ControlPause ControlAction = "pause"
	// ControlResume continues a paused job from its next batch.
	ControlResume ControlAction = "resume"
	// ControlCancel terminally cancels a job at the next batch boundary.
	ControlCancel ControlAction = "cancel"
)

// ParseControlAction validates an action string from the boundary.
func ParseControlAction(s string) (ControlAction, error) {
	switch a := ControlAction(s); a {
	case ControlPause, ControlResume, ControlCancel:
		return a, nil
	default:
		return "", fmt.Errorf("unknown control action %q", s)
	}
}

// QueueCommand is the closed set of queue-management operations. Each variant
// validates its own arguments; decoding an unknown action fails loudly.
type QueueCommand interface {
	// Name is the wire-level action name, used for audit records.
	Name() string
	Validate() error
	queueCommand()
}

// QueueStatsCommand requests per-queue counts.
type QueueStatsCommand struct{}

// QueueJobsCommand lists jobs, optionally restricted to one state.
type QueueJobsCommand struct {
	State model.QueueJobState `json:"state,omitempty"`
}

// QueueHealthCommand requests the queue health summary.
type QueueHealthCommand struct{}

// QueuePauseCommand pauses dispatch; enqueuing remains allowed.
type QueuePauseCommand struct{}

// QueueResumeCommand resumes dispatch.
type QueueResumeCommand struct{}

// QueueClearCommand removes jobs, optionally filtered. StateFilter matches
// job states; TypeFilter is a JMESPath expression evaluated against each
// job's payload (a bare identifier matches the job type).
type QueueClearCommand struct {
	StateFilter []model.QueueJobState `json:"state_filter,omitempty"`
	TypeFilter  string                `json:"type_filter,omitempty"`
}

// QueueRetryCommand resets the given failed jobs to waiting.
type QueueRetryCommand struct {
	JobIDs []string `json:"job_ids"`
}

// QueueRemoveCommand removes the given jobs regardless of state.
type QueueRemoveCommand struct {
	JobIDs []string `json:"job_ids"`
}

// QueueAddCommand enqueues a new job.
type QueueAddCommand struct {
	Job model.AddQueueJobRequest `json:"job"`
}

func (QueueStatsCommand) Name() string  { return "stats" }
func (QueueJobsCommand) Name() string   { return "jobs" }
func (QueueHealthCommand) Name() string { return "health" }
func (QueuePauseCommand) Name() string  { return "pause" }
func (QueueResumeCommand) Name() string { return "resume" }
func (QueueClearCommand) Name() string  { return "clear" }
func (QueueRetryCommand) Name() string  { return "retry" }
func (QueueRemoveCommand) Name() string { return "remove" }
func (QueueAddCommand) Name() string    { return "add" }

func (QueueStatsCommand) Validate() error { return nil }

func (c QueueJobsCommand) Validate() error {
	if c.State != "" && !c.State.Valid() {
		return fmt.Errorf("invalid job state %q", c.State)
	}
	return nil
}

func (QueueHealthCommand) Validate() error { return nil }
func (QueuePauseCommand) Validate() error  { return nil }
func (QueueResumeCommand) Validate() error { return nil }

func (c QueueClearCommand) Validate() error {
	for _, s := range c.StateFilter {
		if !s.Valid() {
			return fmt.Errorf("invalid job state %q", s)
		}
	}
	return nil
}

func (c QueueRetryCommand) Validate() error {
	if len(c.JobIDs) == 0 {
		return errors.New("job ids are required")
	}
	return nil
}

func (c QueueRemoveCommand) Validate() error {
	if len(c.JobIDs) == 0 {
		return errors.New("job ids are required")
	}
	return nil
}

func (c QueueAddCommand) Validate() error { return c.Job.Validate() }

func (QueueStatsCommand) queueCommand()  {}
func (QueueJobsCommand) queueCommand()   {}
func (QueueHealthCommand) queueCommand() {}
func (QueuePauseCommand) queueCommand()  {}
func (QueueResumeCommand) queueCommand() {}
func (QueueClearCommand) queueCommand()  {}
func (QueueRetryCommand) queueCommand()  {}
func (QueueRemoveCommand) queueCommand() {}
func (QueueAddCommand) queueCommand()    {}

// DecodeQueueCommand turns a wire-level action plus arguments into a typed
// command, validating both.
func DecodeQueueCommand(action string, args json.RawMessage) (QueueCommand, error) {
	var cmd QueueCommand
	switch action {
	case "stats":
		cmd = QueueStatsCommand{}
	case "jobs":
		var c QueueJobsCommand
		if err := decodeArgs(args, &c); err != nil {
			return nil, err
		}
		cmd = c
	case "health":
		cmd = QueueHealthCommand{}
	case "pause":
		cmd = QueuePauseCommand{}
	case "resume":
		cmd = QueueResumeCommand{}
	case "clear":
		var c QueueClearCommand
		if err := decodeArgs(args, &c); err != nil {
			return nil, err
		}
		cmd = c
	case "retry":
		var c QueueRetryCommand
		if err := decodeArgs(args, &c); err != nil {
			return nil, err
		}
		cmd = c
	case "remove":
		var c QueueRemoveCommand
		if err := decodeArgs(args, &c); err != nil {
			return nil, err
		}
		cmd = c
	case "add":
		var c QueueAddCommand
		if err := decodeArgs(args, &c); err != nil {
			return nil, err
		}
		cmd = c
	default:
		return nil, fmt.Errorf("unknown queue action %q", action)
	}
	if err := cmd.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", action, err)
	}
	return cmd, nil
}

func decodeArgs(args json.RawMessage, dst any) error {
	if len(args) == 0 {
		return nil
	}
	if err := json.Unmarshal(args, dst); err != nil {
		return fmt.Errorf("decode arguments: %w", err)
	}
	return nil
}
