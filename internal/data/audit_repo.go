package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/psai-foundry/project-foundry-psa-sub001/internal/core"
)

// AuditRepo persists control-plane audit events. Events are append-only.
type AuditRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewAuditRepo creates a new AuditRepo instance with the given database connection.
func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{
		DB:           db,
		timeProvider: &RealTimeProvider{},
	}
}

// Record inserts one audit event.
func (r *AuditRepo) Record(ctx context.Context, event core.AuditEvent) error {
	if event.Action == "" {
		return errors.New("audit action is required")
	}
	at := event.At
	if at.IsZero() {
		at = r.timeProvider.Now()
	}

	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO audit_events (actor, action, scope, outcome, count, at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		event.Actor, event.Action, event.Scope, event.Outcome, event.Count, at)
	if err != nil {
		return fmt.Errorf("record audit event: %w", err)
	}
	return nil
}

// RecentEvents returns the latest audit events, newest first.
func (r *AuditRepo) RecentEvents(ctx context.Context, limit int) ([]core.AuditEvent, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := r.DB.QueryContext(ctx, `
		SELECT actor, action, scope, outcome, count, at
		FROM audit_events
		ORDER BY at DESC, id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []core.AuditEvent
	for rows.Next() {
		var e core.AuditEvent
		if err := rows.Scan(&e.Actor, &e.Action, &e.Scope, &e.Outcome, &e.Count, &e.At); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

var _ core.AuditSink = (*AuditRepo)(nil)
