package postgres

import (
	"context"
	"database/sql"
	"errors"

	"ridepool/internal/domain"
	"ridepool/internal/repository"
)

// RatingRepository is a PostgreSQL implementation of repository.RatingRepository.
type RatingRepository struct {
	q Querier
}

// NewRatingRepository creates a new PostgreSQL rating repository.
func NewRatingRepository(db *sql.DB) *RatingRepository {
	return &RatingRepository{q: db}
}

// NewRatingRepositoryWithTx creates a rating repository using a transaction.
func NewRatingRepositoryWithTx(tx *sql.Tx) *RatingRepository {
	return &RatingRepository{q: tx}
}

// Create persists a new rating.
func (r *RatingRepository) Create(ctx context.Context, rating *domain.Rating) error {
	query := `
		INSERT INTO ratings (id, rater_id, rated_id, score, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.q.ExecContext(ctx, query,
		rating.ID,
		rating.RaterID,
		rating.RatedID,
		rating.Score,
		rating.Comment,
		rating.CreatedAt,
	)
	return err
}

// GetByID retrieves a rating by ID.
func (r *RatingRepository) GetByID(ctx context.Context, id string) (*domain.Rating, error) {
	query := `SELECT id, rater_id, rated_id, score, comment, created_at FROM ratings WHERE id = $1`

	var rating domain.Rating
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&rating.ID,
		&rating.RaterID,
		&rating.RatedID,
		&rating.Score,
		&rating.Comment,
		&rating.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &rating, nil
}

// GetAll retrieves all ratings, newest first.
func (r *RatingRepository) GetAll(ctx context.Context) ([]*domain.Rating, error) {
	query := `SELECT id, rater_id, rated_id, score, comment, created_at FROM ratings ORDER BY created_at DESC`
	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ratings []*domain.Rating
	for rows.Next() {
		var rating domain.Rating
		if err := rows.Scan(
			&rating.ID,
			&rating.RaterID,
			&rating.RatedID,
			&rating.Score,
			&rating.Comment,
			&rating.CreatedAt,
		); err != nil {
			return nil, err
		}
		ratings = append(ratings, &rating)
	}
	return ratings, rows.Err()
}

// Delete removes a rating.
func (r *RatingRepository) Delete(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM ratings WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

// DeleteByUser removes every rating the user gave or received.
func (r *RatingRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	result, err := r.q.ExecContext(ctx, `DELETE FROM ratings WHERE rater_id = $1 OR rated_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// RatedUserIDs returns the distinct users rated by raterID.
func (r *RatingRepository) RatedUserIDs(ctx context.Context, raterID string) ([]string, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT DISTINCT rated_id FROM ratings WHERE rater_id = $1`, raterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Summary aggregates the scores received by ratedID.
func (r *RatingRepository) Summary(ctx context.Context, ratedID string) (repository.RatingSummary, error) {
	query := `SELECT COUNT(*), COALESCE(AVG(score), 0) FROM ratings WHERE rated_id = $1`

	var summary repository.RatingSummary
	if err := r.q.QueryRowContext(ctx, query, ratedID).Scan(&summary.Count, &summary.Average); err != nil {
		return repository.RatingSummary{}, err
	}
	return summary, nil
}

// Count returns the total number of ratings.
func (r *RatingRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM ratings`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
