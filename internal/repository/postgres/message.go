package postgres

import (
	"context"
	"database/sql"

	"ridepool/internal/domain"
)

// MessageRepository is a PostgreSQL implementation of repository.MessageRepository.
type MessageRepository struct {
	q Querier
}

// NewMessageRepository creates a new PostgreSQL message repository.
func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{q: db}
}

// NewMessageRepositoryWithTx creates a message repository using a transaction.
func NewMessageRepositoryWithTx(tx *sql.Tx) *MessageRepository {
	return &MessageRepository{q: tx}
}

// Create persists a new message.
func (r *MessageRepository) Create(ctx context.Context, message *domain.Message) error {
	query := `
		INSERT INTO messages (id, sender_id, receiver_id, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.q.ExecContext(ctx, query,
		message.ID,
		message.SenderID,
		message.ReceiverID,
		message.Content,
		message.CreatedAt,
	)
	return err
}

// GetAll retrieves all messages, newest first.
func (r *MessageRepository) GetAll(ctx context.Context) ([]*domain.Message, error) {
	query := `SELECT id, sender_id, receiver_id, content, created_at FROM messages ORDER BY created_at DESC`
	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*domain.Message
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, &m)
	}
	return messages, rows.Err()
}

// Delete removes a message.
func (r *MessageRepository) Delete(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM messages WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

// DeleteByUser removes every message the user sent or received.
func (r *MessageRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	result, err := r.q.ExecContext(ctx, `DELETE FROM messages WHERE sender_id = $1 OR receiver_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Count returns the total number of messages.
func (r *MessageRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
