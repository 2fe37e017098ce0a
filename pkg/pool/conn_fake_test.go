package pool_test

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dmitrymomot/dbkit"
)

// fakeConn is a scriptable connection for pool tests.
type fakeConn struct {
	mu            sync.Mutex
	queries       []string
	disconnected  bool
	queryErr      error
	disconnectErr error
}

type emptyRows struct{}

func (emptyRows) Next() bool { return false }

func (emptyRows) Scan(dest ...any) error { return nil }

func (emptyRows) Close() {}

func (emptyRows) Err() error { return nil }

func (c *fakeConn) Query(_ context.Context, sql string, _ ...any) (dbkit.Rows, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queries = append(c.queries, sql)
	if c.queryErr != nil {
		return nil, c.queryErr
	}
	return emptyRows{}, nil
}

func (c *fakeConn) Exec(_ context.Context, sql string, _ ...any) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queries = append(c.queries, sql)
	return 0, nil
}

func (c *fakeConn) BeginTransaction(context.Context) error { return nil }
func (c *fakeConn) Commit(context.Context) error           { return nil }
func (c *fakeConn) Rollback(context.Context) error         { return nil }

func (c *fakeConn) Disconnect(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnected = true
	return c.disconnectErr
}

func (c *fakeConn) isDisconnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disconnected
}

// fakeFactory produces fakeConns and counts creations.
type fakeFactory struct {
	created atomic.Int64
	err     error

	mu    sync.Mutex
	conns []*fakeConn
}

func (f *fakeFactory) factory(context.Context) (dbkit.Connection, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created.Add(1)
	c := &fakeConn{}
	f.mu.Lock()
	f.conns = append(f.conns, c)
	f.mu.Unlock()
	return c, nil
}

func (f *fakeFactory) disconnectedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.conns {
		if c.isDisconnected() {
			n++
		}
	}
	return n
}
