package txn

import "time"

// TxInfo is an immutable snapshot of a transaction, passed to hook
// callbacks.
type TxInfo struct {
	ID        string
	Level     int
	Savepoint string
	Status    Status
	StartedAt time.Time
	EndedAt   time.Time
}

// Hooks carries fire-and-forget notification callbacks for transaction
// events. Nil callbacks are skipped. Hooks run synchronously outside the
// manager's internal lock, after the transition they describe; they are not
// part of the control-flow contract and must not block for long.
type Hooks struct {
	// OnBegin fires after a transaction is opened and pushed.
	OnBegin func(TxInfo)

	// OnCommit fires after a successful commit (native or savepoint
	// release) pops the transaction.
	OnCommit func(TxInfo)

	// OnRollback fires after a successful rollback pops the transaction.
	OnRollback func(TxInfo)

	// OnError fires when a begin, commit, rollback, or savepoint
	// statement failed.
	OnError func(TxInfo, error)

	// OnQuery fires after a statement ran inside a transaction.
	OnQuery func(TxInfo, string)

	// OnQueryError fires when a statement inside a transaction failed.
	OnQueryError func(TxInfo, string, error)

	// OnSavepointCreated, OnSavepointRollback, and OnSavepointReleased
	// fire for the free-standing savepoint primitives.
	OnSavepointCreated  func(name string)
	OnSavepointRollback func(name string)
	OnSavepointReleased func(name string)

	// OnIsolationSet fires when SET TRANSACTION was issued for a new
	// outermost transaction.
	OnIsolationSet func(TxInfo, IsolationLevel)

	// OnRollbackAllError fires for each failed rollback during
	// RollbackAll.
	OnRollbackAllError func(error)
}

// Subscribe registers an additional set of hooks, invoked in registration
// order.
func (m *Manager) Subscribe(h Hooks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, h)
}

// subscribers returns a snapshot of the hook list so emission never holds
// the manager lock while running user callbacks.
func (m *Manager) subscribers() []Hooks {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Hooks, len(m.hooks))
	copy(out, m.hooks)
	return out
}

func (m *Manager) emitBegin(info TxInfo) {
	for _, h := range m.subscribers() {
		if h.OnBegin != nil {
			h.OnBegin(info)
		}
	}
}

func (m *Manager) emitCommit(info TxInfo) {
	for _, h := range m.subscribers() {
		if h.OnCommit != nil {
			h.OnCommit(info)
		}
	}
}

func (m *Manager) emitRollback(info TxInfo) {
	for _, h := range m.subscribers() {
		if h.OnRollback != nil {
			h.OnRollback(info)
		}
	}
}

func (m *Manager) emitError(info TxInfo, err error) {
	for _, h := range m.subscribers() {
		if h.OnError != nil {
			h.OnError(info, err)
		}
	}
}

func (m *Manager) emitQuery(info TxInfo, sql string) {
	for _, h := range m.subscribers() {
		if h.OnQuery != nil {
			h.OnQuery(info, sql)
		}
	}
}

func (m *Manager) emitQueryError(info TxInfo, sql string, err error) {
	for _, h := range m.subscribers() {
		if h.OnQueryError != nil {
			h.OnQueryError(info, sql, err)
		}
	}
}

func (m *Manager) emitSavepointCreated(name string) {
	for _, h := range m.subscribers() {
		if h.OnSavepointCreated != nil {
			h.OnSavepointCreated(name)
		}
	}
}

func (m *Manager) emitSavepointRollback(name string) {
	for _, h := range m.subscribers() {
		if h.OnSavepointRollback != nil {
			h.OnSavepointRollback(name)
		}
	}
}

func (m *Manager) emitSavepointReleased(name string) {
	for _, h := range m.subscribers() {
		if h.OnSavepointReleased != nil {
			h.OnSavepointReleased(name)
		}
	}
}

func (m *Manager) emitIsolationSet(info TxInfo, level IsolationLevel) {
	for _, h := range m.subscribers() {
		if h.OnIsolationSet != nil {
			h.OnIsolationSet(info, level)
		}
	}
}

func (m *Manager) emitRollbackAllError(err error) {
	for _, h := range m.subscribers() {
		if h.OnRollbackAllError != nil {
			h.OnRollbackAllError(err)
		}
	}
}
