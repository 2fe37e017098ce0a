package txn

import (
	"sync"
	"time"
)

// Status is the lifecycle state of a transaction. Committed, rolled back,
// and failed are terminal: no transitions out of them are permitted.
type Status int

const (
	StatusActive Status = iota
	StatusCommitted
	StatusRolledBack
	StatusFailed
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusCommitted:
		return "committed"
	case StatusRolledBack:
		return "rolled_back"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status permits no further transitions.
func (s Status) Terminal() bool { return s != StatusActive }

// IsolationLevel selects the SQL isolation level for an outermost
// transaction. Nested transactions inherit the outer level; savepoints
// cannot change isolation mid-transaction.
type IsolationLevel int

const (
	IsolationDefault IsolationLevel = iota
	IsolationReadCommitted
	IsolationRepeatableRead
	IsolationSerializable
)

// String returns the SQL spelling of the isolation level.
func (l IsolationLevel) String() string {
	switch l {
	case IsolationReadCommitted:
		return "READ COMMITTED"
	case IsolationRepeatableRead:
		return "REPEATABLE READ"
	case IsolationSerializable:
		return "SERIALIZABLE"
	default:
		return "DEFAULT"
	}
}

// Options configures a transaction at Begin time.
type Options struct {
	// Isolation is applied via SET TRANSACTION on the outermost level
	// only. IsolationDefault issues nothing.
	Isolation IsolationLevel

	// ReadOnly marks the outermost transaction read-only.
	ReadOnly bool

	// Timeout is the per-statement deadline applied to every statement
	// issued on behalf of this transaction. Zero means no deadline beyond
	// the caller's context.
	Timeout time.Duration
}

// Transaction is one entry on a manager's nesting stack. Level 0 is the
// outermost native transaction; deeper levels are savepoints. Instances are
// created by [Manager.Begin] and owned by their manager.
type Transaction struct {
	mu *sync.Mutex // the owning manager's mutex

	id        string
	level     int
	savepoint string
	opts      Options
	started   time.Time

	// Guarded by mu.
	status Status
	ended  time.Time
}

// ID returns the transaction's unique identifier.
func (t *Transaction) ID() string { return t.id }

// Level returns the nesting depth; 0 is the outermost transaction.
func (t *Transaction) Level() int { return t.level }

// Savepoint returns the generated savepoint name, or "" at level 0.
func (t *Transaction) Savepoint() string { return t.savepoint }

// Options returns the options the transaction was opened with.
func (t *Transaction) Options() Options { return t.opts }

// StartedAt returns when the transaction was opened.
func (t *Transaction) StartedAt() time.Time { return t.started }

// Status returns the current lifecycle state.
func (t *Transaction) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// EndedAt returns when the transaction reached a terminal state, or the
// zero time while it is still active.
func (t *Transaction) EndedAt() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ended
}

// Duration returns the transaction's lifetime so far, or its final duration
// once terminal.
func (t *Transaction) Duration() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.durationLocked()
}

func (t *Transaction) durationLocked() time.Duration {
	if t.ended.IsZero() {
		return time.Since(t.started)
	}
	return t.ended.Sub(t.started)
}

// infoLocked snapshots the transaction for hook delivery. Caller holds the
// manager mutex.
func (t *Transaction) infoLocked() TxInfo {
	return TxInfo{
		ID:        t.id,
		Level:     t.level,
		Savepoint: t.savepoint,
		Status:    t.status,
		StartedAt: t.started,
		EndedAt:   t.ended,
	}
}
