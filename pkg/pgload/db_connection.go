package pgload

import (
	"context"

	"github.com/jackc/pgx/v5/pgconn"
)

// Queryer is the subset of connection operations the schema ensurer and the
// upsert writer need. Both a pool and a single acquired connection satisfy it.
type Queryer interface {
	// Exec executes a statement without returning any rows.
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)

	// QueryRow executes a query that is expected to return at most one row.
	// Always returns a non-nil Row. Errors are deferred until Row's Scan method is called.
	QueryRow(ctx context.Context, sql string, args ...any) Row
}

// DBConnection abstracts a connection pool.
//
// Thread-Safety: Implementations should follow their underlying pool's
// thread-safety guarantees.
type DBConnection interface {
	Queryer

	// Acquire obtains a dedicated connection from the pool.
	// Caller must call Release() on the returned PooledConnection when done.
	Acquire(ctx context.Context) (PooledConnection, error)
}

// Row represents a single row returned by QueryRow.
// This interface decouples from pgx.Row.
type Row interface {
	// Scan reads the values from the row into dest values.
	// Returns an error if no row was found or if the scan fails.
	Scan(dest ...any) error
}

// PooledConnection represents a connection acquired from a pool.
// The caller must call Release() when done to return it to the pool.
type PooledConnection interface {
	Queryer

	// Release returns the connection to the pool.
	// After calling Release, the connection should not be used.
	Release()
}
