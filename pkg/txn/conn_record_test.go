package txn_test

import (
	"context"
	"strings"
	"sync"

	"github.com/dmitrymomot/dbkit"
)

// recordConn records every statement issued against it and can be scripted
// to fail statements by prefix.
type recordConn struct {
	mu     sync.Mutex
	stmts  []string
	failOn map[string]error // statement prefix -> error
}

func newRecordConn() *recordConn {
	return &recordConn{failOn: map[string]error{}}
}

func (c *recordConn) failStmt(prefix string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failOn[prefix] = err
}

func (c *recordConn) record(sql string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stmts = append(c.stmts, sql)
	for prefix, err := range c.failOn {
		if strings.HasPrefix(sql, prefix) {
			return err
		}
	}
	return nil
}

func (c *recordConn) statements() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.stmts))
	copy(out, c.stmts)
	return out
}

type noRows struct{}

func (noRows) Next() bool { return false }

func (noRows) Scan(dest ...any) error { return nil }

func (noRows) Close() {}

func (noRows) Err() error { return nil }

func (c *recordConn) Query(_ context.Context, sql string, _ ...any) (dbkit.Rows, error) {
	if err := c.record(sql); err != nil {
		return nil, err
	}
	return noRows{}, nil
}

func (c *recordConn) Exec(_ context.Context, sql string, _ ...any) (int64, error) {
	if err := c.record(sql); err != nil {
		return 0, err
	}
	return 1, nil
}

func (c *recordConn) BeginTransaction(context.Context) error { return c.record("BEGIN") }

func (c *recordConn) Commit(context.Context) error { return c.record("COMMIT") }

func (c *recordConn) Rollback(context.Context) error { return c.record("ROLLBACK") }

func (c *recordConn) Disconnect(context.Context) error { return c.record("DISCONNECT") }
