package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"ridepool/internal/domain"
)

const defaultAuditLimit = 100

// AuditRepository is a PostgreSQL implementation of repository.AuditRepository.
type AuditRepository struct {
	q Querier
}

// NewAuditRepository creates a new PostgreSQL audit repository.
func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{q: db}
}

// NewAuditRepositoryWithTx creates an audit repository using a transaction.
func NewAuditRepositoryWithTx(tx *sql.Tx) *AuditRepository {
	return &AuditRepository{q: tx}
}

// Append records an audit event.
func (r *AuditRepository) Append(ctx context.Context, event *domain.AuditEvent) error {
	payload := event.Details
	if payload == nil {
		payload = map[string]any{}
	}
	details, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode audit details: %w", err)
	}

	query := `
		INSERT INTO audit_events (id, actor_id, action, target_type, target_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.q.ExecContext(ctx, query,
		event.ID,
		event.ActorID,
		event.Action,
		event.TargetType,
		event.TargetID,
		details,
		event.CreatedAt,
	)
	return err
}

// List returns the most recent events, newest first.
func (r *AuditRepository) List(ctx context.Context, limit int) ([]*domain.AuditEvent, error) {
	if limit <= 0 {
		limit = defaultAuditLimit
	}

	query := `
		SELECT id, actor_id, action, target_type, target_id, details, created_at
		FROM audit_events ORDER BY created_at DESC LIMIT $1
	`
	rows, err := r.q.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*domain.AuditEvent
	for rows.Next() {
		var event domain.AuditEvent
		var details []byte
		if err := rows.Scan(
			&event.ID,
			&event.ActorID,
			&event.Action,
			&event.TargetType,
			&event.TargetID,
			&details,
			&event.CreatedAt,
		); err != nil {
			return nil, err
		}
		if len(details) > 0 {
			if err := json.Unmarshal(details, &event.Details); err != nil {
				return nil, fmt.Errorf("decode audit details: %w", err)
			}
		}
		events = append(events, &event)
	}
	return events, rows.Err()
}
