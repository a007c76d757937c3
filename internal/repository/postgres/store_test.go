package postgres_test

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ridepool/internal/domain"
	"ridepool/internal/repository"
	"ridepool/internal/repository/postgres"
	"ridepool/internal/service"
)

var userCols = []string{"id", "first_name", "last_name", "email", "password_hash", "role", "created_at"}

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func userRow(id string, role domain.Role) *sqlmock.Rows {
	return sqlmock.NewRows(userCols).
		AddRow(id, "Alice", "Martin", "alice@example.com", "hash", string(role), time.Now())
}

func q(s string) string { return regexp.QuoteMeta(s) }

// ──────────────────────────────────────────────
// CASCADE TRANSACTION
// ──────────────────────────────────────────────

func TestCascadeDelete_CommitsAllStatementsInOneTransaction(t *testing.T) {
	db, mock := setupMockDB(t)
	id := uuid.New().String()
	rated := uuid.New().String()
	coRider := uuid.New().String()

	mock.ExpectBegin()
	mock.ExpectQuery(q("FROM users WHERE id = $1 FOR UPDATE")).WithArgs(id).WillReturnRows(userRow(id, domain.RoleUser))
	mock.ExpectQuery(q("SELECT DISTINCT rated_id FROM ratings WHERE rater_id = $1")).WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"rated_id"}).AddRow(rated))
	mock.ExpectQuery(q("SELECT DISTINCT p.user_id")).WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(coRider))
	mock.ExpectExec(q("DELETE FROM ratings WHERE rater_id = $1 OR rated_id = $1")).WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(q("DELETE FROM messages WHERE sender_id = $1 OR receiver_id = $1")).WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(q("DELETE FROM ride_participants WHERE user_id = $1")).WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("DELETE FROM rides WHERE creator_id = $1")).WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(q("DELETE FROM users WHERE id = $1")).WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("INSERT INTO audit_events")).
		WithArgs(sqlmock.AnyArg(), "admin-1", string(domain.AuditUserDeleted), "user", id, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	svc := service.NewModerationService(postgres.NewTxManager(db), nil)
	result, err := svc.DeleteUserCascade(context.Background(), "admin-1", id)

	require.NoError(t, err)
	assert.Equal(t, &service.CascadeResult{
		UserID:                id,
		RatingsDeleted:        3,
		MessagesDeleted:       2,
		ParticipationsDeleted: 1,
		RidesDeleted:          2,
	}, result)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCascadeDelete_RollsBackOnStatementFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	id := uuid.New().String()

	mock.ExpectBegin()
	mock.ExpectQuery(q("FOR UPDATE")).WithArgs(id).WillReturnRows(userRow(id, domain.RoleUser))
	mock.ExpectQuery(q("SELECT DISTINCT rated_id")).WillReturnRows(sqlmock.NewRows([]string{"rated_id"}))
	mock.ExpectQuery(q("SELECT DISTINCT p.user_id")).WillReturnRows(sqlmock.NewRows([]string{"user_id"}))
	mock.ExpectExec(q("DELETE FROM ratings")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(q("DELETE FROM messages")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(q("DELETE FROM ride_participants")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(q("DELETE FROM rides WHERE creator_id")).WillReturnError(errors.New("deadlock detected"))
	mock.ExpectRollback()

	svc := service.NewModerationService(postgres.NewTxManager(db), nil)
	_, err := svc.DeleteUserCascade(context.Background(), "admin-1", id)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "deadlock detected")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCascadeDelete_AdminTargetRollsBack(t *testing.T) {
	db, mock := setupMockDB(t)
	id := uuid.New().String()

	mock.ExpectBegin()
	mock.ExpectQuery(q("FOR UPDATE")).WithArgs(id).WillReturnRows(userRow(id, domain.RoleAdmin))
	mock.ExpectRollback()

	svc := service.NewModerationService(postgres.NewTxManager(db), nil)
	_, err := svc.DeleteUserCascade(context.Background(), "admin-1", id)

	assert.ErrorIs(t, err, service.ErrAdminProtected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCascadeDelete_MissingUserRollsBack(t *testing.T) {
	db, mock := setupMockDB(t)
	id := uuid.New().String()

	mock.ExpectBegin()
	mock.ExpectQuery(q("FOR UPDATE")).WithArgs(id).WillReturnRows(sqlmock.NewRows(userCols))
	mock.ExpectRollback()

	svc := service.NewModerationService(postgres.NewTxManager(db), nil)
	_, err := svc.DeleteUserCascade(context.Background(), "admin-1", id)

	assert.ErrorIs(t, err, service.ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTxManager_RollsBackOnPanic(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	tm := postgres.NewTxManager(db)
	assert.Panics(t, func() {
		_ = tm.RunInTx(context.Background(), func(ctx context.Context, repos repository.Repositories) error {
			panic("boom")
		})
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTxManager_CommitFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("connection lost"))

	err := postgres.NewTxManager(db).RunInTx(context.Background(), func(ctx context.Context, repos repository.Repositories) error {
		return nil
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "commit transaction")
}

// ──────────────────────────────────────────────
// USERS
// ──────────────────────────────────────────────

func TestUserRepository_CreateDuplicateEmail(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectExec(q("INSERT INTO users")).WillReturnError(&pq.Error{Code: "23505"})

	err := postgres.NewUserRepository(db).Create(context.Background(), &domain.User{
		ID:    uuid.New().String(),
		Email: "alice@example.com",
		Role:  domain.RoleUser,
	})

	assert.ErrorIs(t, err, repository.ErrDuplicateEmail)
}

func TestUserRepository_GetByIDNotFound(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery(q("FROM users WHERE id = $1")).WillReturnError(sql.ErrNoRows)

	_, err := postgres.NewUserRepository(db).GetByID(context.Background(), uuid.New().String())

	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepository_UpdateRoleNoRows(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectExec(q("UPDATE users SET role = $1 WHERE id = $2")).
		WithArgs(domain.RoleAdmin, "u1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := postgres.NewUserRepository(db).UpdateRole(context.Background(), "u1", domain.RoleAdmin)

	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepository_Search(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery(`ILIKE`).
		WithArgs("%ali%", "%ali%", "%ali%").
		WillReturnRows(userRow("u1", domain.RoleUser))

	users, err := postgres.NewUserRepository(db).Search(context.Background(), "ali")

	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "alice@example.com", users[0].Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_SearchEscapesWildcards(t *testing.T) {
	testCases := []struct {
		query string
		want  string
	}{
		{"_", `%\_%`},
		{"100%", `%100\%%`},
		{`a\b`, `%a\\b%`},
		{"bob_smith", `%bob\_smith%`},
	}

	for _, tc := range testCases {
		t.Run(tc.query, func(t *testing.T) {
			db, mock := setupMockDB(t)
			mock.ExpectQuery(`ILIKE`).
				WithArgs(tc.want, tc.want, tc.want).
				WillReturnRows(sqlmock.NewRows(userCols))

			users, err := postgres.NewUserRepository(db).Search(context.Background(), tc.query)

			require.NoError(t, err)
			assert.Empty(t, users)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_CountByRole(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "users" WHERE .*"role" = \$1`).
		WithArgs("admin").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	n, err := postgres.NewUserRepository(db).Count(context.Background(), domain.RoleAdmin)

	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

// ──────────────────────────────────────────────
// RATINGS
// ──────────────────────────────────────────────

func TestRatingRepository_SummaryWithoutRatings(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectQuery(q("SELECT COUNT(*), COALESCE(AVG(score), 0) FROM ratings WHERE rated_id = $1")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"count", "avg"}).AddRow(0, 0.0))

	summary, err := postgres.NewRatingRepository(db).Summary(context.Background(), "u1")

	require.NoError(t, err)
	assert.Equal(t, repository.RatingSummary{}, summary)
}

// ──────────────────────────────────────────────
// MIGRATIONS
// ──────────────────────────────────────────────

func expectMigrationLock(mock sqlmock.Sqlmock) {
	mock.ExpectExec(q("SELECT pg_advisory_lock($1)")).WithArgs(sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 0))
}

func expectMigrationUnlock(mock sqlmock.Sqlmock) {
	mock.ExpectExec(q("SELECT pg_advisory_unlock($1)")).WithArgs(sqlmock.AnyArg()).WillReturnResult(sqlmock.NewResult(0, 0))
}

func TestMigrate_AppliesPendingVersions(t *testing.T) {
	db, mock := setupMockDB(t)
	expectMigrationLock(mock)
	mock.ExpectExec(q("CREATE TABLE IF NOT EXISTS schema_migrations")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(q("SELECT version FROM schema_migrations")).WillReturnRows(sqlmock.NewRows([]string{"version"}))
	mock.ExpectBegin()
	mock.ExpectExec(q("CREATE TABLE")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(q("INSERT INTO schema_migrations (version) VALUES ($1)")).WithArgs(1).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	expectMigrationUnlock(mock)

	require.NoError(t, postgres.Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_SkipsAppliedVersions(t *testing.T) {
	db, mock := setupMockDB(t)
	expectMigrationLock(mock)
	mock.ExpectExec(q("CREATE TABLE IF NOT EXISTS schema_migrations")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(q("SELECT version FROM schema_migrations")).WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(1))
	expectMigrationUnlock(mock)

	require.NoError(t, postgres.Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_ReleasesLockWhenMigrationFails(t *testing.T) {
	db, mock := setupMockDB(t)
	expectMigrationLock(mock)
	mock.ExpectExec(q("CREATE TABLE IF NOT EXISTS schema_migrations")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(q("SELECT version FROM schema_migrations")).WillReturnRows(sqlmock.NewRows([]string{"version"}))
	mock.ExpectBegin()
	mock.ExpectExec(q("CREATE TABLE")).WillReturnError(errors.New("syntax error"))
	mock.ExpectRollback()
	expectMigrationUnlock(mock)

	err := postgres.Migrate(context.Background(), db)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "migration 0001 failed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_LockFailureStopsBeforeSchemaWork(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectExec(q("SELECT pg_advisory_lock($1)")).WillReturnError(errors.New("canceling statement due to lock timeout"))

	err := postgres.Migrate(context.Background(), db)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "acquire migration lock")
	assert.NoError(t, mock.ExpectationsWereMet())
}
