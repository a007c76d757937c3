package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/lib/pq"

	"ridepool/internal/domain"
	"ridepool/internal/repository"
)

const uniqueViolation = "23505"

var dialect = goqu.Dialect("postgres")

var userColumns = []any{"id", "first_name", "last_name", "email", "password_hash", "role", "created_at"}

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	q Querier
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{q: db}
}

// NewUserRepositoryWithTx creates a user repository using a transaction.
func NewUserRepositoryWithTx(tx *sql.Tx) *UserRepository {
	return &UserRepository{q: tx}
}

// Create adds a new user.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, first_name, last_name, email, password_hash, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.q.ExecContext(ctx, query,
		user.ID,
		user.FirstName,
		user.LastName,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.CreatedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return repository.ErrDuplicateEmail
	}
	return err
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT id, first_name, last_name, email, password_hash, role, created_at FROM users WHERE id = $1`
	return scanUser(r.q.QueryRowContext(ctx, query, id))
}

// GetByIDForUpdate retrieves a user by ID and holds a row lock until the transaction ends.
func (r *UserRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT id, first_name, last_name, email, password_hash, role, created_at FROM users WHERE id = $1 FOR UPDATE`
	return scanUser(r.q.QueryRowContext(ctx, query, id))
}

// GetByEmail retrieves a user by email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT id, first_name, last_name, email, password_hash, role, created_at FROM users WHERE email = $1`
	return scanUser(r.q.QueryRowContext(ctx, query, email))
}

// GetAll retrieves all users.
func (r *UserRepository) GetAll(ctx context.Context) ([]*domain.User, error) {
	query := `SELECT id, first_name, last_name, email, password_hash, role, created_at FROM users ORDER BY created_at DESC`
	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	return scanUsers(rows)
}

// Search retrieves users whose name or email contains the query, case-insensitively.
func (r *UserRepository) Search(ctx context.Context, query string) ([]*domain.User, error) {
	pattern := containsPattern(query)
	sqlText, args, err := dialect.From("users").
		Select(userColumns...).
		Where(goqu.Or(
			goqu.I("first_name").ILike(pattern),
			goqu.I("last_name").ILike(pattern),
			goqu.I("email").ILike(pattern),
		)).
		Order(goqu.I("created_at").Desc()).
		Prepared(true).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build user search query: %w", err)
	}

	rows, err := r.q.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, err
	}
	return scanUsers(rows)
}

// UpdateRole sets the role of a user.
func (r *UserRepository) UpdateRole(ctx context.Context, id string, role domain.Role) error {
	result, err := r.q.ExecContext(ctx, `UPDATE users SET role = $1 WHERE id = $2`, role, id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

// Delete removes a user.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectAffected(result)
}

// Count returns the number of users with the given role; empty role counts everyone.
func (r *UserRepository) Count(ctx context.Context, role domain.Role) (int, error) {
	ds := dialect.From("users").Select(goqu.COUNT(goqu.Star()))
	if role != "" {
		ds = ds.Where(goqu.I("role").Eq(string(role)))
	}
	return countQuery(ctx, r.q, ds)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func scanUsers(rows *sql.Rows) ([]*domain.User, error) {
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}
