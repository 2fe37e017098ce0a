package txn

import (
	"context"
	"errors"
	"regexp"
)

// Savepoint names accepted by the free-standing primitives. Generated names
// always match; caller-supplied names are validated so they can be spliced
// into statements without quoting.
var savepointNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// CreateSavepoint issues a SAVEPOINT inside the currently active transaction
// and returns its generated name. Free-standing savepoints share the
// manager's monotonic name sequence, so they never collide with the
// savepoints issued by nested Begin calls.
func (m *Manager) CreateSavepoint(ctx context.Context) (string, error) {
	m.mu.Lock()
	if err := m.requireActiveLocked(); err != nil {
		m.mu.Unlock()
		return "", err
	}

	name := m.nextSavepointLocked()
	_, err := m.conn.Exec(ctx, "SAVEPOINT "+name)
	var info TxInfo
	if err != nil {
		info = m.stack[len(m.stack)-1].infoLocked()
	}
	m.mu.Unlock()

	if err != nil {
		err = errors.Join(ErrSavepointFailed, err)
		m.emitError(info, err)
		return "", err
	}
	m.emitSavepointCreated(name)
	return name, nil
}

// RollbackToSavepoint rolls the active transaction back to a previously
// created savepoint, leaving the savepoint itself defined.
func (m *Manager) RollbackToSavepoint(ctx context.Context, name string) error {
	return m.savepointStmt(ctx, "ROLLBACK TO SAVEPOINT ", name, m.emitSavepointRollback)
}

// ReleaseSavepoint releases a previously created savepoint, keeping its
// effects.
func (m *Manager) ReleaseSavepoint(ctx context.Context, name string) error {
	return m.savepointStmt(ctx, "RELEASE SAVEPOINT ", name, m.emitSavepointReleased)
}

func (m *Manager) savepointStmt(ctx context.Context, verb, name string, emit func(string)) error {
	if !savepointNameRe.MatchString(name) {
		return ErrSavepointFailed
	}

	m.mu.Lock()
	if err := m.requireActiveLocked(); err != nil {
		m.mu.Unlock()
		return err
	}

	_, err := m.conn.Exec(ctx, verb+name)
	var info TxInfo
	if err != nil {
		info = m.stack[len(m.stack)-1].infoLocked()
	}
	m.mu.Unlock()

	if err != nil {
		err = errors.Join(ErrSavepointFailed, err)
		m.emitError(info, err)
		return err
	}
	emit(name)
	return nil
}

// requireActiveLocked verifies an active transaction is on top of the stack.
// Caller holds the manager mutex.
func (m *Manager) requireActiveLocked() error {
	if len(m.stack) == 0 {
		return ErrTransactionNotFound
	}
	if m.stack[len(m.stack)-1].status != StatusActive {
		return ErrTransactionInvalidStatus
	}
	return nil
}
