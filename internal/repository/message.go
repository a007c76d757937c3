package repository

import (
	"context"

	"ridepool/internal/domain"
)

// MessageRepository defines the persistence operations for messages.
type MessageRepository interface {
	Create(ctx context.Context, message *domain.Message) error
	GetAll(ctx context.Context) ([]*domain.Message, error)

	// Delete removes a single message.
	Delete(ctx context.Context, id string) error

	// DeleteByUser removes every message the user sent or received.
	DeleteByUser(ctx context.Context, userID string) (int64, error)

	Count(ctx context.Context) (int, error)
}
