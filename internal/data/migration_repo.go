package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/psai-foundry/project-foundry-psa-sub001/internal/core"
	"github.com/psai-foundry/project-foundry-psa-sub001/internal/data/pgxutil"
	"github.com/psai-foundry/project-foundry-psa-sub001/internal/domain/model"
)

// migrationJobColumns defines the column list for migration job SELECT queries
// to ensure consistent field mapping.
const migrationJobColumns = `id, scope, status, config, total_records, processed_records, succeeded_records, failed_records, current_batch, total_batches, started_at, last_batch_at, estimated_completion_at, completed_at, lease_expires_at, created_at, updated_at`

const defaultListLimit = 50

// MigrationRepo persists migration jobs in PostgreSQL. Scope exclusivity is
// enforced by a partial unique index over non-terminal jobs, so concurrent
// starts for the same scope race safely at the database.
type MigrationRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewMigrationRepo creates a new MigrationRepo instance with the given database connection.
func NewMigrationRepo(db *sql.DB) *MigrationRepo {
	return &MigrationRepo{
		DB:           db,
		timeProvider: &RealTimeProvider{},
	}
}

// Create persists a new job. A unique-violation on the active-scope index is
// reported as core.ErrScopeConflict.
func (r *MigrationRepo) Create(ctx context.Context, job *model.MigrationJob) error {
	if job == nil {
		return errors.New("migration job is required")
	}
	if !job.Status.Valid() {
		return fmt.Errorf("invalid migration status %q", job.Status)
	}

	now := r.timeProvider.Now()
	job.CreatedAt = now
	job.UpdatedAt = now

	query := `
		INSERT INTO migration_jobs (` + migrationJobColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		_, err := pgxConn.Exec(ctx, query,
			job.ID, job.Scope, job.Status, job.Config,
			job.TotalRecords, job.ProcessedRecords, job.SucceededRecords, job.FailedRecords,
			job.CurrentBatch, job.TotalBatches,
			job.StartedAt, job.LastBatchAt, job.EstimatedCompletionAt, job.CompletedAt, job.LeaseExpiresAt,
			job.CreatedAt, job.UpdatedAt,
		)
		return err
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return core.ErrScopeConflict
		}
		return fmt.Errorf("create migration job: %w", err)
	}
	return nil
}

// Update persists counters, cursor, status, and timestamps for an existing job.
func (r *MigrationRepo) Update(ctx context.Context, job *model.MigrationJob) error {
	if job == nil {
		return errors.New("migration job is required")
	}

	job.UpdatedAt = r.timeProvider.Now()

	query := `
		UPDATE migration_jobs SET
			status = $2,
			total_records = $3,
			processed_records = $4,
			succeeded_records = $5,
			failed_records = $6,
			current_batch = $7,
			total_batches = $8,
			started_at = $9,
			last_batch_at = $10,
			estimated_completion_at = $11,
			completed_at = $12,
			lease_expires_at = $13,
			updated_at = $14
		WHERE id = $1`

	var tag pgconn.CommandTag
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		var execErr error
		tag, execErr = pgxConn.Exec(ctx, query,
			job.ID, job.Status,
			job.TotalRecords, job.ProcessedRecords, job.SucceededRecords, job.FailedRecords,
			job.CurrentBatch, job.TotalBatches,
			job.StartedAt, job.LastBatchAt, job.EstimatedCompletionAt, job.CompletedAt, job.LeaseExpiresAt,
			job.UpdatedAt,
		)
		return execErr
	})
	if err != nil {
		return fmt.Errorf("update migration job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return core.ErrJobNotFound
	}
	return nil
}

// AppendErrors appends error entries for a job. Entries are write-once; the
// job's error history is never rewritten.
func (r *MigrationRepo) AppendErrors(ctx context.Context, jobID string, entries []model.ErrorEntry) error {
	if len(entries) == 0 {
		return nil
	}

	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{
		Fn: func(tx pgx.Tx) error {
			for _, e := range entries {
				if _, err := tx.Exec(ctx, `
					INSERT INTO migration_job_errors (job_id, record_id, message, class, retry_count, occurred_at)
					VALUES ($1, $2, $3, $4, $5, $6)`,
					jobID, e.RecordID, e.Message, e.Class, e.RetryCount, e.OccurredAt,
				); err != nil {
					return err
				}
			}
			return nil
		},
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return core.ErrJobNotFound
		}
		return fmt.Errorf("append migration errors: %w", err)
	}
	return nil
}

// Get loads a job together with its error entries.
func (r *MigrationRepo) Get(ctx context.Context, id string) (*model.MigrationJob, error) {
	var job model.MigrationJob
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, err := pgxConn.Query(ctx,
			`SELECT `+migrationJobColumns+` FROM migration_jobs WHERE id = $1`, id)
		if err != nil {
			return err
		}
		defer rows.Close()

		job, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.MigrationJob])
		if err != nil {
			return err
		}

		errRows, err := pgxConn.Query(ctx, `
			SELECT record_id, message, class, retry_count, occurred_at
			FROM migration_job_errors
			WHERE job_id = $1
			ORDER BY occurred_at, id`, id)
		if err != nil {
			return err
		}
		defer errRows.Close()

		job.Errors, err = pgx.CollectRows(errRows, pgx.RowToStructByName[model.ErrorEntry])
		return err
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrJobNotFound
		}
		return nil, fmt.Errorf("get migration job: %w", err)
	}
	return &job, nil
}

// List returns recent jobs, newest first, without their error histories.
func (r *MigrationRepo) List(ctx context.Context, limit int) ([]*model.MigrationJob, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	var jobs []*model.MigrationJob
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, err := pgxConn.Query(ctx, `
			SELECT `+migrationJobColumns+`
			FROM migration_jobs
			ORDER BY created_at DESC, id DESC
			LIMIT $1`, limit)
		if err != nil {
			return err
		}
		defer rows.Close()

		jobs, err = pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[model.MigrationJob])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list migration jobs: %w", err)
	}
	return jobs, nil
}

// ActiveExistsForScope reports whether a pending, running, or paused job
// exists for the scope.
func (r *MigrationRepo) ActiveExistsForScope(ctx context.Context, scope string) (bool, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM migration_jobs
			WHERE scope = $1 AND status IN ('pending', 'running', 'paused')
		)`, scope).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check active scope: %w", err)
	}
	return exists, nil
}

// Heartbeat extends the worker lease on a running job. Jobs that have left
// the running state are left alone.
func (r *MigrationRepo) Heartbeat(ctx context.Context, id string, until time.Time) error {
	result, err := r.DB.ExecContext(ctx, `
		UPDATE migration_jobs
		SET lease_expires_at = $2, updated_at = $3
		WHERE id = $1 AND status = 'running'`,
		id, until, r.timeProvider.Now())
	if err != nil {
		return fmt.Errorf("heartbeat migration job: %w", err)
	}
	if _, err := result.RowsAffected(); err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	return nil
}

// FailExpired marks running jobs whose lease expired before now as failed,
// returning the ids of the reaped jobs.
func (r *MigrationRepo) FailExpired(ctx context.Context, now time.Time) ([]string, error) {
	var reaped []string
	err := pgxutil.WithPgxConn(ctx, r.DB, func(pgxConn *pgx.Conn) error {
		rows, err := pgxConn.Query(ctx, `
			UPDATE migration_jobs
			SET status = 'failed', completed_at = $1, updated_at = $1
			WHERE status = 'running'
			  AND lease_expires_at IS NOT NULL
			  AND lease_expires_at < $1
			RETURNING id`, now)
		if err != nil {
			return err
		}
		defer rows.Close()

		reaped, err = pgx.CollectRows(rows, pgx.RowTo[string])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("fail expired migration jobs: %w", err)
	}
	return reaped, nil
}

var _ core.MigrationJobRepository = (*MigrationRepo)(nil)
