package migrate

import (
	"context"
	"database/sql"
)

// Execer exposes only methods for running SQL statements and queries.
// Both *sql.DB and *sql.Tx satisfy it.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Adapter is the engine's boundary to the database. Concrete adapters are
// supplied by the caller; the engine never opens or closes connections, and
// treats Transact as its sole atomicity boundary.
type Adapter interface {
	Execer

	// Transact executes fn such that either all of its effects commit or none
	// do. If fn returns an error, the adapter must roll back and return the
	// error to the caller.
	Transact(ctx context.Context, fn func(tx Execer) error) error
}
