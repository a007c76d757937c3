package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"ridepool/internal/domain"
	"ridepool/internal/repository"
)

// RoleService promotes and demotes users.
type RoleService struct {
	txManager repository.TxManager
	now       func() time.Time
}

// NewRoleService creates a new RoleService.
func NewRoleService(txManager repository.TxManager) *RoleService {
	return &RoleService{
		txManager: txManager,
		now:       time.Now,
	}
}

// SetRole sets the role of a user and returns the updated record.
// Setting the role a user already has writes nothing and returns the record unchanged.
func (s *RoleService) SetRole(ctx context.Context, actorID, userID string, role domain.Role) (*domain.User, error) {
	id, err := parseID(userID, ErrInvalidUserID)
	if err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	var (
		user    *domain.User
		changed bool
		from    domain.Role
	)
	err = s.txManager.RunInTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		var err error
		user, err = repos.Users().GetByIDForUpdate(ctx, id)
		if err != nil {
			return notFound(err, ErrUserNotFound, "lock user")
		}
		if user.Role == role {
			return nil
		}

		if err := repos.Users().UpdateRole(ctx, id, role); err != nil {
			return notFound(err, ErrUserNotFound, "update role")
		}
		from, user.Role, changed = user.Role, role, true

		return repos.Audit().Append(ctx, &domain.AuditEvent{
			ID:         uuid.New().String(),
			ActorID:    actorID,
			Action:     domain.AuditUserRoleChanged,
			TargetType: "user",
			TargetID:   id,
			Details:    map[string]any{"from": string(from), "to": string(role)},
			CreatedAt:  s.now().UTC(),
		})
	})
	if err != nil {
		return nil, err
	}

	if changed {
		log.Info().
			Str("actor_id", actorID).
			Str("user_id", id).
			Str("from", string(from)).
			Str("to", string(role)).
			Msg("user role changed")
	}
	return user, nil
}

// Promote grants the admin role.
func (s *RoleService) Promote(ctx context.Context, actorID, userID string) (*domain.User, error) {
	return s.SetRole(ctx, actorID, userID, domain.RoleAdmin)
}

// Demote revokes the admin role.
func (s *RoleService) Demote(ctx context.Context, actorID, userID string) (*domain.User, error) {
	return s.SetRole(ctx, actorID, userID, domain.RoleUser)
}
