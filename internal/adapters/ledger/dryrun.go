package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/psai-foundry/project-foundry-psa-sub001/internal/core"
	"github.com/psai-foundry/project-foundry-psa-sub001/internal/domain/model"
)

// DryRunSubmitter stands in for the accounting API during dry runs. It never
// touches the network; it assigns placeholder external ids so the pipeline
// exercises its full path without writing anywhere.
type DryRunSubmitter struct{}

// NewDryRunSubmitter constructs a DryRunSubmitter.
func NewDryRunSubmitter() *DryRunSubmitter {
	return &DryRunSubmitter{}
}

// SubmitTimesheet simulates a submission. Records the live API would reject
// outright are reported with the same permanent classification so a dry run
// previews the real failure set.
func (d *DryRunSubmitter) SubmitTimesheet(
	_ context.Context,
	rec model.TimesheetRecord,
) (core.SubmissionResult, error) {
	if rec.ProjectRef == "" {
		return core.SubmissionResult{}, &SubmissionError{
			StatusCode: 422,
			Message:    "missing project reference",
		}
	}
	if rec.Hours <= 0 {
		return core.SubmissionResult{}, &SubmissionError{
			StatusCode: 422,
			Message:    "zero or negative duration",
		}
	}
	return core.SubmissionResult{ExternalID: "dry-run-" + uuid.NewString()}, nil
}

var _ core.AccountingClient = (*DryRunSubmitter)(nil)
