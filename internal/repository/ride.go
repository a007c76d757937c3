package repository

import (
	"context"

	"ridepool/internal/domain"
)

// RideRepository defines the persistence operations for rides.
type RideRepository interface {
	// Create persists a new ride together with its participants.
	Create(ctx context.Context, ride *domain.Ride) error

	// GetByID retrieves a ride by ID.
	GetByID(ctx context.Context, id string) (*domain.Ride, error)

	// GetAll retrieves all rides, newest first.
	GetAll(ctx context.Context) ([]*domain.Ride, error)

	// Delete removes a single ride and its participant entries.
	Delete(ctx context.Context, id string) error

	// DeleteByCreator removes every ride created by the user.
	DeleteByCreator(ctx context.Context, userID string) (int64, error)

	// DeleteParticipations removes the user from the participant list of every ride.
	DeleteParticipations(ctx context.Context, userID string) (int64, error)

	// CoRiderIDs returns the distinct participants of rides created by creatorID.
	CoRiderIDs(ctx context.Context, creatorID string) ([]string, error)

	// CountByCreator counts rides created by the user. An empty status matches any status.
	CountByCreator(ctx context.Context, userID string, status domain.RideStatus) (int, error)

	// CountJoined counts rides the user joined with the given join status.
	CountJoined(ctx context.Context, userID string, status domain.JoinStatus) (int, error)

	// Count counts rides with the given status, or all rides when status is empty.
	Count(ctx context.Context, status domain.RideStatus) (int, error)
}
