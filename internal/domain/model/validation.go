package model

// ValidationSeverity distinguishes blocking errors from advisory warnings.
type ValidationSeverity string

const (
	// SeverityWarning flags a record for operator attention; it may still migrate.
	SeverityWarning ValidationSeverity = "warning"
	// SeverityError blocks a record from migration unless forced.
	SeverityError ValidationSeverity = "error"
)

// ValidationCategory classifies issues abstractly, independent of UI copy.
type ValidationCategory string

// Validation issue categories.
const (
	CategoryMissingProjectRef ValidationCategory = "missing_project_reference"
	CategoryMissingRate       ValidationCategory = "missing_billing_rate"
	CategoryMalformedID       ValidationCategory = "malformed_identifier"
	CategoryZeroDuration      ValidationCategory = "zero_duration"
	CategoryNotApproved       ValidationCategory = "not_approved"
	CategoryFutureDated       ValidationCategory = "future_dated"
	CategoryAlreadySynced     ValidationCategory = "already_synced"
)

// ValidationIssue describes one problem found in a candidate record. Issues
// are produced fresh on each validation pass and never persisted.
type ValidationIssue struct {
	RecordID string             `json:"record_id"`
	Field    string             `json:"field"`
	Message  string             `json:"message"`
	Severity ValidationSeverity `json:"severity"`
	Category ValidationCategory `json:"category"`
}

// ValidationReport summarises a validation pass over a candidate record set.
type ValidationReport struct {
	TotalRecords   int `json:"total_records"`
	ValidRecords   int `json:"valid_records"`
	WarningRecords int `json:"warning_records"`
	InvalidRecords int `json:"invalid_records"`

	// Issues is capped; TruncatedIssues carries the "+N more" remainder.
	Issues          []ValidationIssue          `json:"issues"`
	TruncatedIssues int                        `json:"truncated_issues,omitempty"`
	CategoryCounts  map[ValidationCategory]int `json:"category_counts"`

	// ReadinessPercent is the share of records with zero blocking errors,
	// in [0, 100]. An empty record set is vacuously 100% ready.
	ReadinessPercent float64 `json:"readiness_percent"`
}

// Blocking returns true if any record carries a blocking error.
func (r *ValidationReport) Blocking() bool {
	return r.InvalidRecords > 0
}
