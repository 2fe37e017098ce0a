package txn

import "time"

// TxStat describes one stacked transaction for diagnostics.
type TxStat struct {
	ID        string
	Level     int
	Savepoint string
	Status    Status
	Duration  time.Duration
}

// Stats is a point-in-time snapshot of the manager's stack. Failed
// transactions stay visible here until RollbackAll or ForceDrop clears
// them, so operators can diagnose stuck sessions.
type Stats struct {
	// Active is the number of stacked transactions still active.
	Active int

	// Stacked is the total stack size, including failed entries.
	Stacked int

	// Depth is the nesting depth the next Begin would open at.
	Depth int

	// Transactions lists every stacked transaction, bottom to top.
	Transactions []TxStat
}

// Stats reports the current stack contents and per-transaction durations.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Stats{
		Stacked:      len(m.stack),
		Depth:        len(m.stack),
		Transactions: make([]TxStat, 0, len(m.stack)),
	}
	for _, tx := range m.stack {
		if tx.status == StatusActive {
			s.Active++
		}
		s.Transactions = append(s.Transactions, TxStat{
			ID:        tx.id,
			Level:     tx.level,
			Savepoint: tx.savepoint,
			Status:    tx.status,
			Duration:  tx.durationLocked(),
		})
	}
	return s
}

// ActiveTransactions returns the stacked transactions still in active
// status, bottom to top.
func (m *Manager) ActiveTransactions() []*Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*Transaction, 0, len(m.stack))
	for _, tx := range m.stack {
		if tx.status == StatusActive {
			out = append(out, tx)
		}
	}
	return out
}

// Depth returns the current stack size.
func (m *Manager) Depth() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stack)
}
