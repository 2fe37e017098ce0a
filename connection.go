package dbkit

import "context"

// Rows is the minimal cursor surface a driver must expose for query results.
// It intentionally mirrors the shape of pgx.Rows so driver adapters can
// return their native rows type directly.
type Rows interface {
	// Next advances the cursor and reports whether another row is available.
	Next() bool

	// Scan copies the current row's columns into dest.
	Scan(dest ...any) error

	// Close releases the cursor. Safe to call multiple times.
	Close()

	// Err returns the error, if any, that terminated iteration.
	Err() error
}

// Connection is the opaque database capability consumed by the pool and the
// transaction manager. Implementations are provided by driver adapters (see
// pkg/pgxconn) or by the caller; the core never implements it.
//
// A Connection is never used concurrently: the pool hands it to exactly one
// holder at a time, and the transaction manager issues statements serially.
type Connection interface {
	// Query executes a statement and returns its result rows.
	Query(ctx context.Context, sql string, args ...any) (Rows, error)

	// Exec executes a statement and returns the number of affected rows.
	Exec(ctx context.Context, sql string, args ...any) (int64, error)

	// BeginTransaction starts a native transaction on the connection.
	BeginTransaction(ctx context.Context) error

	// Commit commits the current native transaction.
	Commit(ctx context.Context) error

	// Rollback aborts the current native transaction.
	Rollback(ctx context.Context) error

	// Disconnect closes the underlying connection.
	Disconnect(ctx context.Context) error
}
