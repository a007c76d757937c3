package domain

import "time"

// AuditAction names a privileged mutation.
type AuditAction string

const (
	AuditUserDeleted     AuditAction = "user.deleted"
	AuditUserRoleChanged AuditAction = "user.role_changed"
	AuditRideDeleted     AuditAction = "ride.deleted"
	AuditRatingDeleted   AuditAction = "rating.deleted"
	AuditMessageDeleted  AuditAction = "message.deleted"
)

// AuditEvent is an append-only record of who changed what and when.
// ActorID is kept even after the actor account is removed.
type AuditEvent struct {
	ID         string
	ActorID    string
	Action     AuditAction
	TargetType string
	TargetID   string
	Details    map[string]any
	CreatedAt  time.Time
}
