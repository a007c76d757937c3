package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/doug-martin/goqu/v9"

	"ridepool/internal/repository"
)

// Querier is an interface satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Ensure interfaces are satisfied.
var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)

	_ repository.UserRepository    = (*UserRepository)(nil)
	_ repository.RideRepository    = (*RideRepository)(nil)
	_ repository.RatingRepository  = (*RatingRepository)(nil)
	_ repository.MessageRepository = (*MessageRepository)(nil)
	_ repository.AuditRepository   = (*AuditRepository)(nil)
	_ repository.TxManager         = (*TxManager)(nil)
)

// expectAffected maps a write that touched no rows to repository.ErrNotFound.
func expectAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func countQuery(ctx context.Context, q Querier, ds *goqu.SelectDataset) (int, error) {
	query, args, err := ds.Prepared(true).ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}

	var n int
	if err := q.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a LIKE pattern matching s literally anywhere in the
// value. Backslash is the default LIKE escape in PostgreSQL.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
