package repository

import (
	"context"

	"ridepool/internal/domain"
)

// RatingSummary aggregates the ratings a user received.
type RatingSummary struct {
	Average float64
	Count   int
}

// RatingRepository defines the persistence operations for ratings.
type RatingRepository interface {
	Create(ctx context.Context, rating *domain.Rating) error
	GetByID(ctx context.Context, id string) (*domain.Rating, error)
	GetAll(ctx context.Context) ([]*domain.Rating, error)

	// Delete removes a single rating.
	Delete(ctx context.Context, id string) error

	// DeleteByUser removes every rating the user gave or received.
	DeleteByUser(ctx context.Context, userID string) (int64, error)

	// RatedUserIDs returns the distinct users rated by raterID.
	RatedUserIDs(ctx context.Context, raterID string) ([]string, error)

	// Summary aggregates the scores received by ratedID.
	Summary(ctx context.Context, ratedID string) (RatingSummary, error)

	Count(ctx context.Context) (int, error)
}
