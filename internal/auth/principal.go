package auth

import (
	"context"
	"time"

	"ridepool/internal/domain"
)

// Principal is the authenticated caller of a request.
// Role is loaded from the user store, never taken from the token.
type Principal struct {
	UserID    string
	Role      domain.Role
	TokenID   string
	ExpiresAt time.Time
}

type principalKey struct{}

// WithPrincipal stores the principal in context.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext retrieves the principal from context (if any).
func FromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}
