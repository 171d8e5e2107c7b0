package platform

import "context"

// TxnalStore abstracts "run this under a transaction" so repository code
// can be exercised against both a real GORM/Postgres connection and an
// in-memory fake without either side depending on *gorm.DB directly.
type TxnalStore interface {
	// WithinTransaction runs fn inside a transaction, committing on a nil
	// return and rolling back otherwise. Nested calls join the outer
	// transaction rather than opening a new one.
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
