package auth

import (
	"context"
	"errors"
	"fmt"

	"ridepool/internal/domain"
	"ridepool/internal/repository"
)

// Capability is a named permission a principal may hold.
type Capability string

const (
	CapabilityAdmin Capability = "admin"
)

// Gate decides whether a principal may perform a privileged operation.
type Gate struct {
	users repository.UserRepository
}

// NewGate creates a new Gate.
func NewGate(users repository.UserRepository) *Gate {
	return &Gate{users: users}
}

// Resolve loads the account behind a verified token and returns the principal
// with the role currently stored for that account.
func (g *Gate) Resolve(ctx context.Context, claims *Claims) (*Principal, error) {
	if claims == nil || claims.UserID == "" {
		return nil, ErrUnauthenticated
	}

	user, err := g.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, fmt.Errorf("resolve principal: %w", err)
	}

	return &Principal{
		UserID:    user.ID,
		Role:      user.Role,
		TokenID:   claims.TokenID,
		ExpiresAt: claims.ExpiresAt,
	}, nil
}

// Authorize returns nil when p holds capability, ErrUnauthenticated when there
// is no principal and ErrForbidden otherwise.
func (g *Gate) Authorize(p *Principal, capability Capability) error {
	if p == nil || p.UserID == "" {
		return ErrUnauthenticated
	}

	switch capability {
	case CapabilityAdmin:
		if p.Role == domain.RoleAdmin {
			return nil
		}
	}
	return ErrForbidden
}
