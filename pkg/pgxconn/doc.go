// Package pgxconn adapts [github.com/jackc/pgx/v5] connections to the dbkit
// connection capability.
//
// [Wrap] turns an established *pgx.Conn into a
// [github.com/dmitrymomot/dbkit.Connection]. [NewFactory] builds a pool
// factory that dials with linear-exponential retry and ping verification:
//
//	factory, err := pgxconn.NewFactory(pgxconn.Config{
//		ConnString: os.Getenv("DATABASE_CONN_URL"),
//	})
//	if err != nil {
//		return err
//	}
//	p, err := pool.New(factory, pool.Config{})
//
// Transaction control statements (BEGIN, COMMIT, ROLLBACK, savepoints) are
// issued as plain SQL rather than through pgx.Tx, because the nesting state
// machine lives in [github.com/dmitrymomot/dbkit/pkg/txn].
package pgxconn
