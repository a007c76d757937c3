package repository

import "context"

// Repositories groups the repositories bound to one unit of work.
type Repositories interface {
	Users() UserRepository
	Rides() RideRepository
	Ratings() RatingRepository
	Messages() MessageRepository
	Audit() AuditRepository
}

// TxManager runs a function inside a single store transaction.
// The transaction commits when fn returns nil and rolls back otherwise,
// including when fn panics.
type TxManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
