package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"ridepool/internal/repository"
)

// TxManager runs units of work inside a PostgreSQL transaction.
type TxManager struct {
	db *sql.DB
}

// NewTxManager creates a new TxManager.
func NewTxManager(db *sql.DB) *TxManager {
	return &TxManager{db: db}
}

// RunInTx begins a transaction, hands transaction-scoped repositories to fn
// and commits when fn succeeds. Any error or panic rolls the transaction back.
func (m *TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) (err error) {
	tx, err := m.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(ctx, newTxRepositories(tx)); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// txRepositories binds every repository to the same *sql.Tx.
type txRepositories struct {
	users    *UserRepository
	rides    *RideRepository
	ratings  *RatingRepository
	messages *MessageRepository
	audit    *AuditRepository
}

func newTxRepositories(tx *sql.Tx) *txRepositories {
	return &txRepositories{
		users:    NewUserRepositoryWithTx(tx),
		rides:    NewRideRepositoryWithTx(tx),
		ratings:  NewRatingRepositoryWithTx(tx),
		messages: NewMessageRepositoryWithTx(tx),
		audit:    NewAuditRepositoryWithTx(tx),
	}
}

func (r *txRepositories) Users() repository.UserRepository       { return r.users }
func (r *txRepositories) Rides() repository.RideRepository       { return r.rides }
func (r *txRepositories) Ratings() repository.RatingRepository   { return r.ratings }
func (r *txRepositories) Messages() repository.MessageRepository { return r.messages }
func (r *txRepositories) Audit() repository.AuditRepository      { return r.audit }
