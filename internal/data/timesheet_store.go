package data

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/psai-foundry/project-foundry-psa-sub001/internal/core"
	"github.com/psai-foundry/project-foundry-psa-sub001/internal/data/pgxutil"
	"github.com/psai-foundry/project-foundry-psa-sub001/internal/domain/model"
)

// ErrTimesheetNotFound is returned when a timesheet record is not found.
var ErrTimesheetNotFound = fmt.Errorf("timesheet not found")

const timesheetColumns = `id, project_ref, client_ref, user_ref, work_date, hours, bill_rate, status, external_id`

// TimesheetStore reads candidate timesheet records and records sync results.
// Candidates are always returned ordered by (work_date, id) so that a resumed
// migration sees the exact record sequence the original run planned against.
type TimesheetStore struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewTimesheetStore creates a new TimesheetStore instance with the given database connection.
func NewTimesheetStore(db *sql.DB) *TimesheetStore {
	return &TimesheetStore{
		DB:           db,
		timeProvider: &RealTimeProvider{},
	}
}

// FetchCandidates returns the records matching the migration configuration.
// Approved entries always qualify; rejected entries qualify only when the run
// opts in to them. Already-synced records are returned too so the validation
// pass can surface them.
func (s *TimesheetStore) FetchCandidates(
	ctx context.Context,
	cfg model.MigrationConfig,
) ([]model.TimesheetRecord, error) {
	conditions := []string{}
	args := []any{}
	argIndex := 1

	statuses := []string{string(model.TimesheetApproved)}
	if cfg.IncludeRejected {
		statuses = append(statuses, string(model.TimesheetRejected))
	}
	placeholders := make([]string, 0, len(statuses))
	for _, st := range statuses {
		placeholders = append(placeholders, fmt.Sprintf("$%d", argIndex))
		args = append(args, st)
		argIndex++
	}
	conditions = append(conditions, "status IN ("+strings.Join(placeholders, ", ")+")")

	if cfg.DateRange != nil {
		conditions = append(conditions, fmt.Sprintf("work_date >= $%d", argIndex))
		args = append(args, cfg.DateRange.Start)
		argIndex++
		conditions = append(conditions, fmt.Sprintf("work_date <= $%d", argIndex))
		args = append(args, cfg.DateRange.End)
		argIndex++
	}

	query := `SELECT ` + timesheetColumns + `
		FROM timesheets
		WHERE ` + strings.Join(conditions, " AND ") + `
		ORDER BY work_date, id`

	var records []model.TimesheetRecord
	err := pgxutil.WithPgxConn(ctx, s.DB, func(pgxConn *pgx.Conn) error {
		rows, err := pgxConn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		records, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.TimesheetRecord])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fetch candidate timesheets: %w", err)
	}
	return records, nil
}

// MarkSynced records the external identifier assigned to a record.
func (s *TimesheetStore) MarkSynced(ctx context.Context, recordID, externalID string) error {
	result, err := s.DB.ExecContext(ctx, `
		UPDATE timesheets
		SET external_id = $2, updated_at = $3
		WHERE id = $1`,
		recordID, externalID, s.timeProvider.Now())
	if err != nil {
		return fmt.Errorf("mark timesheet synced: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrTimesheetNotFound, recordID)
	}
	return nil
}

var _ core.RecordStore = (*TimesheetStore)(nil)
