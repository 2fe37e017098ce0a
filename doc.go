// Package dbkit defines the shared database connection capability used by
// its subpackages.
//
// The package itself contains only the [Connection] and [Rows] contracts.
// The functionality lives in the subpackages:
//
//   - [github.com/dmitrymomot/dbkit/pkg/pool] - a bounded connection pool
//     with a FIFO waiting queue, idle reclamation, and health checks.
//   - [github.com/dmitrymomot/dbkit/pkg/txn] - a nested transaction manager
//     using savepoints, bound to a single connection.
//   - [github.com/dmitrymomot/dbkit/pkg/pgxconn] - a [Connection] adapter
//     over [github.com/jackc/pgx/v5].
//
// # Usage
//
// A typical setup wires a driver factory into the pool, then scopes
// transactions over an acquired connection:
//
//	factory := pgxconn.NewFactory(pgxconn.Config{ConnString: dsn})
//
//	p, err := pool.New(factory, pool.Config{Min: 2, Max: 10})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer p.DestroyPool(context.Background())
//
//	err = p.Use(ctx, func(conn dbkit.Connection) error {
//		m := txn.New(conn)
//		return m.Execute(ctx, func(tx *txn.Transaction) error {
//			_, err := m.Exec(ctx, "UPDATE accounts SET balance = balance - 1")
//			return err
//		}, txn.Options{})
//	})
package dbkit
