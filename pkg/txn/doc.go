// Package txn manages nested database transactions over a single borrowed
// connection.
//
// A [Manager] keeps a stack of transactions. The first [Manager.Begin]
// issues a native BEGIN; every further Begin issues a SAVEPOINT at the next
// nesting level, so callers compose transactional code without tracking
// depth. Commits release in LIFO order: a nested commit releases its
// savepoint, the outermost commit performs the native COMMIT.
//
//	m, err := txn.New(conn)
//	...
//	outer, _ := m.Begin(ctx, txn.Options{})
//	inner, _ := m.Begin(ctx, txn.Options{}) // SAVEPOINT dbkit_sp_1
//	_ = m.Commit(ctx)                       // RELEASE SAVEPOINT dbkit_sp_1
//	_ = m.Commit(ctx)                       // COMMIT
//
// Or with automatic commit/rollback:
//
//	err := m.Execute(ctx, func(tx *txn.Transaction) error {
//		_, err := m.Exec(ctx, "UPDATE accounts SET balance = balance - 1")
//		return err
//	}, txn.Options{})
//
// # Failed transactions
//
// When a commit or rollback statement itself fails, the transaction is
// marked failed and deliberately left on the stack: the session is in an
// unknown state and vanishing silently would hide that from operators. It
// stays visible through [Manager.Stats] until [Manager.RollbackAll] or
// [Manager.ForceDrop] clears it.
//
// # Savepoint names
//
// Generated savepoint names use a counter that increases monotonically for
// the life of the manager. SQL savepoint names are not scoped, so a name is
// never reused while an older savepoint with that name could still be live.
package txn
