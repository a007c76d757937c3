package repository

import (
	"context"

	"ridepool/internal/domain"
)

// AuditRepository stores the append-only audit trail.
type AuditRepository interface {
	// Append records an event. Events are never updated or deleted.
	Append(ctx context.Context, event *domain.AuditEvent) error

	// List returns the most recent events, newest first.
	List(ctx context.Context, limit int) ([]*domain.AuditEvent, error)
}
