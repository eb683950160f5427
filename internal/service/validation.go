package service

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/psai-foundry/project-foundry-psa-sub001/internal/core"
	"github.com/psai-foundry/project-foundry-psa-sub001/internal/domain/model"
)

// DefaultIssueCap bounds the issue list in a validation report; the
// remainder is summarised as a "+N more" count.
const DefaultIssueCap = 100

// ValidationEngineOptions groups dependencies for ValidationEngine.
type ValidationEngineOptions struct {
	IssueCap int // defaults to DefaultIssueCap
	Clock    core.Clock
}

// ValidationEngine inspects candidate record sets before a migration starts.
// It never mutates source or external state.
type ValidationEngine struct {
	issueCap int
	clock    core.Clock
}

// NewValidationEngine constructs a ValidationEngine.
func NewValidationEngine(opts ValidationEngineOptions) *ValidationEngine {
	cap := opts.IssueCap
	if cap <= 0 {
		cap = DefaultIssueCap
	}
	clock := opts.Clock
	if clock == nil {
		clock = RealClock{}
	}
	return &ValidationEngine{issueCap: cap, clock: clock}
}

// Inspect classifies every record as migratable, warning, or blocked, and
// returns per-category counts plus a capped issue list and readiness score.
func (e *ValidationEngine) Inspect(records []model.TimesheetRecord, cfg model.MigrationConfig) *model.ValidationReport {
	report := &model.ValidationReport{
		TotalRecords:   len(records),
		CategoryCounts: make(map[model.ValidationCategory]int),
	}

	for i := range records {
		issues := e.inspectRecord(&records[i], cfg)

		blocking := false
		warned := false
		for _, issue := range issues {
			report.CategoryCounts[issue.Category]++
			if issue.Severity == model.SeverityError {
				blocking = true
			} else {
				warned = true
			}
			if len(report.Issues) < e.issueCap {
				report.Issues = append(report.Issues, issue)
			} else {
				report.TruncatedIssues++
			}
		}

		switch {
		case blocking:
			report.InvalidRecords++
		case warned:
			report.WarningRecords++
			report.ValidRecords++
		default:
			report.ValidRecords++
		}
	}

	if report.TotalRecords == 0 {
		report.ReadinessPercent = 100
	} else {
		ready := report.TotalRecords - report.InvalidRecords
		report.ReadinessPercent = float64(ready) / float64(report.TotalRecords) * 100
	}

	return report
}

func (e *ValidationEngine) inspectRecord(rec *model.TimesheetRecord, cfg model.MigrationConfig) []model.ValidationIssue {
	var issues []model.ValidationIssue

	add := func(field, msg string, sev model.ValidationSeverity, cat model.ValidationCategory) {
		issues = append(issues, model.ValidationIssue{
			RecordID: rec.ID,
			Field:    field,
			Message:  msg,
			Severity: sev,
			Category: cat,
		})
	}

	if _, err := uuid.Parse(rec.ID); err != nil {
		add("id", fmt.Sprintf("identifier %q is not a valid UUID", rec.ID),
			model.SeverityError, model.CategoryMalformedID)
	}
	if rec.ProjectRef == "" {
		add("project_ref", "record has no project reference",
			model.SeverityError, model.CategoryMissingProjectRef)
	}
	if rec.BillRate <= 0 {
		add("bill_rate", "record has no billing rate",
			model.SeverityError, model.CategoryMissingRate)
	}
	if rec.Hours <= 0 {
		add("hours", "record has zero duration",
			model.SeverityError, model.CategoryZeroDuration)
	}
	if rec.Synced() {
		add("external_id", "record was already submitted to the accounting system",
			model.SeverityError, model.CategoryAlreadySynced)
	}

	switch rec.Status {
	case model.TimesheetApproved:
	case model.TimesheetRejected:
		if cfg.IncludeRejected {
			add("status", "record was previously rejected", model.SeverityWarning, model.CategoryNotApproved)
		} else {
			add("status", "record is not approved", model.SeverityError, model.CategoryNotApproved)
		}
	default:
		add("status", "record is not approved", model.SeverityError, model.CategoryNotApproved)
	}

	if rec.WorkDate.After(e.clock.Now()) {
		add("work_date", "record is dated in the future", model.SeverityWarning, model.CategoryFutureDated)
	}

	return issues
}
