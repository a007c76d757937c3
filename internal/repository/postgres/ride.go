package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/doug-martin/goqu/v9"
	"github.com/lib/pq"

	"ridepool/internal/domain"
	"ridepool/internal/repository"
)

// RideRepository is a PostgreSQL implementation of repository.RideRepository.
type RideRepository struct {
	q Querier
}

// NewRideRepository creates a new PostgreSQL ride repository.
func NewRideRepository(db *sql.DB) *RideRepository {
	return &RideRepository{q: db}
}

// NewRideRepositoryWithTx creates a ride repository using a transaction.
func NewRideRepositoryWithTx(tx *sql.Tx) *RideRepository {
	return &RideRepository{q: tx}
}

// Create persists a new ride and its participants.
func (r *RideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	query := `
		INSERT INTO rides (id, creator_id, origin, destination, departure_at, seats, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	status := ride.Status
	if status == "" {
		status = domain.RideStatusOpen
	}

	_, err := r.q.ExecContext(ctx, query,
		ride.ID,
		ride.CreatorID,
		ride.Origin,
		ride.Destination,
		ride.DepartureAt,
		ride.Seats,
		status,
		ride.CreatedAt,
	)
	if err != nil {
		return err
	}

	for _, p := range ride.Participants {
		_, err := r.q.ExecContext(ctx,
			`INSERT INTO ride_participants (ride_id, user_id, status, joined_at) VALUES ($1, $2, $3, $4)`,
			ride.ID, p.UserID, p.Status, p.JoinedAt,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

// GetByID retrieves a ride by ID.
func (r *RideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	query := `
		SELECT id, creator_id, origin, destination, departure_at, seats, status, created_at
		FROM rides WHERE id = $1
	`

	ride, err := scanRide(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	if err := r.attachParticipants(ctx, []*domain.Ride{ride}); err != nil {
		return nil, err
	}
	return ride, nil
}

// GetAll retrieves all rides.
func (r *RideRepository) GetAll(ctx context.Context) ([]*domain.Ride, error) {
	query := `
		SELECT id, creator_id, origin, destination, departure_at, seats, status, created_at
		FROM rides ORDER BY created_at DESC
	`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rides []*domain.Ride
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		rides = append(rides, ride)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := r.attachParticipants(ctx, rides); err != nil {
		return nil, err
	}
	return rides, nil
}

// Delete removes a ride. Participant rows go with it (ON DELETE CASCADE).
func (r *RideRepository) Delete(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM rides WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

// DeleteByCreator removes every ride created by the user.
func (r *RideRepository) DeleteByCreator(ctx context.Context, userID string) (int64, error) {
	result, err := r.q.ExecContext(ctx, `DELETE FROM rides WHERE creator_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// DeleteParticipations removes the user from every ride they joined.
func (r *RideRepository) DeleteParticipations(ctx context.Context, userID string) (int64, error) {
	result, err := r.q.ExecContext(ctx, `DELETE FROM ride_participants WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// CoRiderIDs returns the distinct participants of rides created by creatorID.
func (r *RideRepository) CoRiderIDs(ctx context.Context, creatorID string) ([]string, error) {
	query := `
		SELECT DISTINCT p.user_id
		FROM ride_participants p
		JOIN rides r ON r.id = p.ride_id
		WHERE r.creator_id = $1
	`
	rows, err := r.q.QueryContext(ctx, query, creatorID)
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

// CountByCreator counts rides created by the user, optionally filtered by status.
func (r *RideRepository) CountByCreator(ctx context.Context, userID string, status domain.RideStatus) (int, error) {
	ds := dialect.From("rides").
		Select(goqu.COUNT(goqu.Star())).
		Where(goqu.I("creator_id").Eq(userID))
	if status != "" {
		ds = ds.Where(goqu.I("status").Eq(string(status)))
	}
	return countQuery(ctx, r.q, ds)
}

// CountJoined counts rides the user joined with the given join status.
func (r *RideRepository) CountJoined(ctx context.Context, userID string, status domain.JoinStatus) (int, error) {
	ds := dialect.From("ride_participants").
		Select(goqu.COUNT(goqu.Star())).
		Where(
			goqu.I("user_id").Eq(userID),
			goqu.I("status").Eq(string(status)),
		)
	return countQuery(ctx, r.q, ds)
}

// Count counts rides, optionally filtered by status.
func (r *RideRepository) Count(ctx context.Context, status domain.RideStatus) (int, error) {
	ds := dialect.From("rides").Select(goqu.COUNT(goqu.Star()))
	if status != "" {
		ds = ds.Where(goqu.I("status").Eq(string(status)))
	}
	return countQuery(ctx, r.q, ds)
}

// attachParticipants loads participant lists for the given rides in one query.
func (r *RideRepository) attachParticipants(ctx context.Context, rides []*domain.Ride) error {
	if len(rides) == 0 {
		return nil
	}

	byID := make(map[string]*domain.Ride, len(rides))
	ids := make([]string, 0, len(rides))
	for _, ride := range rides {
		byID[ride.ID] = ride
		ids = append(ids, ride.ID)
	}

	query := `
		SELECT ride_id, user_id, status, joined_at
		FROM ride_participants WHERE ride_id = ANY($1)
		ORDER BY joined_at, id
	`
	rows, err := r.q.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var rideID string
		var p domain.Participant
		if err := rows.Scan(&rideID, &p.UserID, &p.Status, &p.JoinedAt); err != nil {
			return err
		}
		if ride, ok := byID[rideID]; ok {
			ride.Participants = append(ride.Participants, p)
		}
	}
	return rows.Err()
}

func scanRide(row rowScanner) (*domain.Ride, error) {
	var ride domain.Ride
	err := row.Scan(
		&ride.ID,
		&ride.CreatorID,
		&ride.Origin,
		&ride.Destination,
		&ride.DepartureAt,
		&ride.Seats,
		&ride.Status,
		&ride.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ride, nil
}
