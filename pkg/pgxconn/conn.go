package pgxconn

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/dmitrymomot/dbkit"
)

// Conn adapts a pgx connection to the dbkit connection capability.
// Transaction control is issued as plain statements so the nesting state
// stays fully owned by the caller (the txn package), not by pgx.Tx.
type Conn struct {
	conn *pgx.Conn
}

// Wrap adapts an established pgx connection. The adapter takes ownership:
// Disconnect closes the underlying connection.
func Wrap(conn *pgx.Conn) *Conn {
	return &Conn{conn: conn}
}

// Query executes a statement and returns its rows. pgx rows satisfy the
// dbkit cursor contract directly.
func (c *Conn) Query(ctx context.Context, sql string, args ...any) (dbkit.Rows, error) {
	rows, err := c.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Exec executes a statement and returns the number of affected rows.
func (c *Conn) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	tag, err := c.conn.Exec(ctx, sql, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// BeginTransaction starts a native transaction.
func (c *Conn) BeginTransaction(ctx context.Context) error {
	_, err := c.conn.Exec(ctx, "BEGIN")
	return err
}

// Commit commits the current native transaction.
func (c *Conn) Commit(ctx context.Context) error {
	_, err := c.conn.Exec(ctx, "COMMIT")
	return err
}

// Rollback aborts the current native transaction.
func (c *Conn) Rollback(ctx context.Context) error {
	_, err := c.conn.Exec(ctx, "ROLLBACK")
	return err
}

// Disconnect closes the underlying connection.
func (c *Conn) Disconnect(ctx context.Context) error {
	return c.conn.Close(ctx)
}

var _ dbkit.Connection = (*Conn)(nil)
