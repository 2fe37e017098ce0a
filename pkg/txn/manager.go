package txn

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/dbkit"
)

// Manager provides transaction boundaries over a single borrowed connection,
// with safe nesting via savepoints. The caller never tracks nesting depth:
// the first Begin opens a native transaction, every further Begin issues a
// savepoint, and commits release in LIFO order.
//
// The manager does not own the connection; it issues statements serially
// against whichever connection it was constructed with.
//
// A transaction whose commit or rollback statement fails stays on the stack
// in failed status for inspection. The stack only shrinks again through
// RollbackAll or ForceDrop, so long-running sessions must clean up after
// such failures.
type Manager struct {
	conn dbkit.Connection
	log  *slog.Logger

	mu    sync.Mutex
	hooks []Hooks
	stack []*Transaction
	spSeq uint64 // savepoint name sequence, monotonic for the manager's lifetime
}

// Option configures optional manager collaborators.
type Option func(*Manager)

// WithLogger sets the logger for rollback-all failures. Defaults to a
// discard handler.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

// WithHooks registers notification hooks at construction time.
func WithHooks(h Hooks) Option {
	return func(m *Manager) {
		m.hooks = append(m.hooks, h)
	}
}

// New creates a manager over the given connection.
func New(conn dbkit.Connection, opts ...Option) (*Manager, error) {
	if conn == nil {
		return nil, ErrNilConnection
	}

	m := &Manager{
		conn: conn,
		log:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Begin opens a transaction. With an empty stack it issues a native BEGIN
// (plus SET TRANSACTION when options demand); otherwise it issues a
// SAVEPOINT at the next nesting level. The transaction is pushed only after
// the statement succeeds; on failure nothing is pushed and the error wraps
// ErrBeginFailed.
func (m *Manager) Begin(ctx context.Context, opts Options) (*Transaction, error) {
	m.mu.Lock()

	tx := &Transaction{
		mu:      &m.mu,
		id:      uuid.NewString(),
		level:   len(m.stack),
		opts:    opts,
		started: time.Now(),
		status:  StatusActive,
	}

	sctx, cancel := statementCtx(ctx, opts.Timeout)
	defer cancel()

	var err error
	if tx.level == 0 {
		err = m.conn.BeginTransaction(sctx)
		if err == nil {
			if stmt := setTransactionStmt(opts); stmt != "" {
				if _, err = m.conn.Exec(sctx, stmt); err != nil {
					// The native transaction is already open; abort
					// it so the connection is not left mid-transaction.
					_ = m.conn.Rollback(sctx)
				}
			}
		}
	} else {
		tx.savepoint = m.nextSavepointLocked()
		_, err = m.conn.Exec(sctx, "SAVEPOINT "+tx.savepoint)
	}

	if err != nil {
		tx.status = StatusFailed
		tx.ended = time.Now()
		info := tx.infoLocked()
		m.mu.Unlock()
		err = errors.Join(ErrBeginFailed, err)
		m.emitError(info, err)
		return nil, err
	}

	m.stack = append(m.stack, tx)
	info := tx.infoLocked()
	isoSet := tx.level == 0 && setTransactionStmt(opts) != ""
	m.mu.Unlock()

	m.emitBegin(info)
	if isoSet {
		m.emitIsolationSet(info, opts.Isolation)
	}
	return tx, nil
}

// Commit commits the transaction at the top of the stack.
func (m *Manager) Commit(ctx context.Context) error {
	return m.finish(ctx, "", true)
}

// CommitID commits the transaction with the given ID, wherever it sits on
// the stack, provided it is still active.
func (m *Manager) CommitID(ctx context.Context, id string) error {
	return m.finish(ctx, id, true)
}

// Rollback rolls back the transaction at the top of the stack.
func (m *Manager) Rollback(ctx context.Context) error {
	return m.finish(ctx, "", false)
}

// RollbackID rolls back the transaction with the given ID, wherever it sits
// on the stack, provided it is still active.
func (m *Manager) RollbackID(ctx context.Context, id string) error {
	return m.finish(ctx, id, false)
}

// finish resolves the target transaction and issues its terminating
// statement: RELEASE SAVEPOINT / ROLLBACK TO SAVEPOINT for nested levels,
// native commit/rollback for level 0. Success pops the transaction; failure
// marks it failed and deliberately leaves it on the stack for caller
// inspection (RollbackAll and ForceDrop are the escape hatches).
func (m *Manager) finish(ctx context.Context, id string, commit bool) error {
	m.mu.Lock()
	tx, idx, err := m.resolveLocked(id)
	if err != nil {
		m.mu.Unlock()
		return err
	}

	sctx, cancel := statementCtx(ctx, tx.opts.Timeout)
	defer cancel()

	var stmtErr error
	switch {
	case commit && tx.savepoint != "":
		_, stmtErr = m.conn.Exec(sctx, "RELEASE SAVEPOINT "+tx.savepoint)
	case commit:
		stmtErr = m.conn.Commit(sctx)
	case tx.savepoint != "":
		_, stmtErr = m.conn.Exec(sctx, "ROLLBACK TO SAVEPOINT "+tx.savepoint)
	default:
		stmtErr = m.conn.Rollback(sctx)
	}

	if stmtErr != nil {
		tx.status = StatusFailed
		tx.ended = time.Now()
		info := tx.infoLocked()
		m.mu.Unlock()

		kind := ErrCommitFailed
		if !commit {
			kind = ErrRollbackFailed
		}
		err := errors.Join(kind, stmtErr)
		m.emitError(info, err)
		return err
	}

	if commit {
		tx.status = StatusCommitted
	} else {
		tx.status = StatusRolledBack
	}
	tx.ended = time.Now()
	m.stack = append(m.stack[:idx], m.stack[idx+1:]...)
	info := tx.infoLocked()
	m.mu.Unlock()

	if commit {
		m.emitCommit(info)
	} else {
		m.emitRollback(info)
	}
	return nil
}

// Execute begins a transaction, runs fn, and commits on success. On a
// callback error the transaction is rolled back and the original error is
// returned; a rollback failure is joined onto it rather than swallowed. A
// panic in fn triggers a rollback and is re-raised.
func (m *Manager) Execute(ctx context.Context, fn func(tx *Transaction) error, opts Options) error {
	tx, err := m.Begin(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = m.RollbackID(ctx, tx.ID())
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := m.RollbackID(ctx, tx.ID()); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}

	return m.CommitID(ctx, tx.ID())
}

// Query runs a statement inside the top-of-stack transaction.
func (m *Manager) Query(ctx context.Context, sql string, args ...any) (dbkit.Rows, error) {
	return m.queryID(ctx, "", sql, args...)
}

// QueryID runs a statement inside the transaction with the given ID.
func (m *Manager) QueryID(ctx context.Context, id, sql string, args ...any) (dbkit.Rows, error) {
	return m.queryID(ctx, id, sql, args...)
}

func (m *Manager) queryID(ctx context.Context, id, sql string, args ...any) (dbkit.Rows, error) {
	m.mu.Lock()
	tx, _, err := m.resolveLocked(id)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}

	sctx, cancel := statementCtx(ctx, tx.opts.Timeout)
	defer cancel()

	rows, qerr := m.conn.Query(sctx, sql, args...)
	info := tx.infoLocked()
	m.mu.Unlock()

	if qerr != nil {
		m.emitQueryError(info, sql, qerr)
		return nil, qerr
	}
	m.emitQuery(info, sql)
	return rows, nil
}

// Exec runs a statement inside the top-of-stack transaction and returns the
// affected row count.
func (m *Manager) Exec(ctx context.Context, sql string, args ...any) (int64, error) {
	return m.execID(ctx, "", sql, args...)
}

// ExecID runs a statement inside the transaction with the given ID.
func (m *Manager) ExecID(ctx context.Context, id, sql string, args ...any) (int64, error) {
	return m.execID(ctx, id, sql, args...)
}

func (m *Manager) execID(ctx context.Context, id, sql string, args ...any) (int64, error) {
	m.mu.Lock()
	tx, _, err := m.resolveLocked(id)
	if err != nil {
		m.mu.Unlock()
		return 0, err
	}

	sctx, cancel := statementCtx(ctx, tx.opts.Timeout)
	defer cancel()

	affected, qerr := m.conn.Exec(sctx, sql, args...)
	info := tx.infoLocked()
	m.mu.Unlock()

	if qerr != nil {
		m.emitQueryError(info, sql, qerr)
		return 0, qerr
	}
	m.emitQuery(info, sql)
	return affected, nil
}

// RollbackAll unwinds every active transaction top-down, collecting errors
// without halting, so a deeply nested session can be torn down during
// shutdown. Transactions whose rollback fails stay on the stack in failed
// status; ForceDrop clears them.
func (m *Manager) RollbackAll(ctx context.Context) error {
	m.mu.Lock()
	ids := make([]string, 0, len(m.stack))
	for i := len(m.stack) - 1; i >= 0; i-- {
		if m.stack[i].status == StatusActive {
			ids = append(ids, m.stack[i].id)
		}
	}
	m.mu.Unlock()

	var errs []error
	for _, id := range ids {
		if err := m.RollbackID(ctx, id); err != nil {
			errs = append(errs, err)
			m.log.ErrorContext(ctx, "txn: rollback-all failed for transaction",
				slog.String("tx_id", id),
				slog.String("error", err.Error()),
			)
			m.emitRollbackAllError(err)
		}
	}
	return errors.Join(errs...)
}

// ForceDrop removes a transaction from the stack without issuing any
// statement. This is the administrative escape hatch for transactions stuck
// in failed status; any database-side state is the caller's to resolve.
func (m *Manager) ForceDrop(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := len(m.stack) - 1; i >= 0; i-- {
		if m.stack[i].id == id {
			m.stack = append(m.stack[:i], m.stack[i+1:]...)
			return nil
		}
	}
	return ErrTransactionNotFound
}

// resolveLocked finds the target transaction: top of the stack when id is
// empty, else by ID anywhere on the stack. Targets that are not active are
// rejected. Caller holds the manager mutex.
func (m *Manager) resolveLocked(id string) (*Transaction, int, error) {
	if id == "" {
		if len(m.stack) == 0 {
			return nil, -1, ErrTransactionNotFound
		}
		idx := len(m.stack) - 1
		if m.stack[idx].status != StatusActive {
			return nil, -1, ErrTransactionInvalidStatus
		}
		return m.stack[idx], idx, nil
	}

	for i := len(m.stack) - 1; i >= 0; i-- {
		if m.stack[i].id == id {
			if m.stack[i].status != StatusActive {
				return nil, -1, ErrTransactionInvalidStatus
			}
			return m.stack[i], i, nil
		}
	}
	return nil, -1, ErrTransactionNotFound
}

// nextSavepointLocked returns the next savepoint name. Names are unique for
// the life of the manager: SQL savepoint names are not scoped, and reusing
// one while an older savepoint with that name is live is undefined behavior
// in most engines. Caller holds the manager mutex.
func (m *Manager) nextSavepointLocked() string {
	m.spSeq++
	return fmt.Sprintf("dbkit_sp_%d", m.spSeq)
}

// setTransactionStmt builds the SET TRANSACTION statement for the given
// options, or "" when nothing needs setting.
func setTransactionStmt(opts Options) string {
	var b strings.Builder
	if opts.Isolation != IsolationDefault {
		b.WriteString("SET TRANSACTION ISOLATION LEVEL ")
		b.WriteString(opts.Isolation.String())
	}
	if opts.ReadOnly {
		if b.Len() == 0 {
			b.WriteString("SET TRANSACTION")
		}
		b.WriteString(" READ ONLY")
	}
	return b.String()
}

// statementCtx applies the per-transaction statement timeout, if any.
func statementCtx(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}
