package port

import "context"

// Transactor runs fn inside a single database transaction. Repository calls
// made with the context passed to fn join that transaction; if fn returns an
// error the transaction rolls back and no partial writes are observable.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
