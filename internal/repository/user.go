package repository

import (
	"context"

	"ridepool/internal/domain"
)

// UserRepository defines the persistence operations for users.
type UserRepository interface {
	// Create adds a new user.
	// Returns ErrDuplicateEmail if the email is taken.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByIDForUpdate retrieves a user by ID and locks the row until the
	// surrounding transaction ends.
	GetByIDForUpdate(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetAll retrieves all users, newest first.
	GetAll(ctx context.Context) ([]*domain.User, error)

	// Search retrieves users whose first name, last name or email contains query.
	Search(ctx context.Context, query string) ([]*domain.User, error)

	// UpdateRole sets the role of a user.
	UpdateRole(ctx context.Context, id string, role domain.Role) error

	// Delete removes a user. Returns ErrNotFound if nothing was deleted.
	Delete(ctx context.Context, id string) error

	// Count returns the number of users with the given role, or all users
	// when role is empty.
	Count(ctx context.Context, role domain.Role) (int, error)
}
