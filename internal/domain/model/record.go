package model

import "time"

// TimesheetStatus is the approval state of a source timesheet entry.
type TimesheetStatus string

const (
	// TimesheetApproved entries are eligible for migration.
	TimesheetApproved TimesheetStatus = "approved"
	// TimesheetRejected entries migrate only when a run opts in to them.
	TimesheetRejected TimesheetStatus = "rejected"
	// TimesheetDraft entries are never migrated.
	TimesheetDraft TimesheetStatus = "draft"
)

// TimesheetRecord is the source-record shape at the record-store boundary.
// The full timesheet data model lives outside this subsystem; only the fields
// the sync pipeline reads are carried here.
type TimesheetRecord struct {
	ID         string          `json:"id"          db:"id"`
	ProjectRef string          `json:"project_ref" db:"project_ref"`
	ClientRef  string          `json:"client_ref"  db:"client_ref"`
	WorkDate   time.Time       `json:"work_date"   db:"work_date"`
	Hours      float64         `json:"hours"       db:"hours"`
	BillRate   float64         `json:"bill_rate"   db:"bill_rate"`
	Status     TimesheetStatus `json:"status"      db:"status"`
	ExternalID string          `json:"external_id" db:"external_id"`
	UserRef    string          `json:"user_ref"    db:"user_ref"`
}

// Synced reports whether the record already has an external accounting ID.
func (r *TimesheetRecord) Synced() bool {
	return r.ExternalID != ""
}
