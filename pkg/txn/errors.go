package txn

import "errors"

// Sentinel errors for transaction operations. Underlying statement failures
// are attached with errors.Join, so errors.Is works against these sentinels.
var (
	// ErrNilConnection is returned by New when no connection is supplied.
	ErrNilConnection = errors.New("txn: nil connection")

	// ErrTransactionNotFound is returned when no transaction matches the
	// given ID, or an operation needs a transaction and the stack is empty.
	ErrTransactionNotFound = errors.New("txn: transaction not found")

	// ErrTransactionInvalidStatus is returned when commit, rollback, or
	// query target a transaction that is not active.
	ErrTransactionInvalidStatus = errors.New("txn: transaction is not active")

	// ErrBeginFailed is returned when the BEGIN or SAVEPOINT statement
	// failed; the transaction is not pushed onto the stack.
	ErrBeginFailed = errors.New("txn: begin failed")

	// ErrCommitFailed is returned when the commit statement failed; the
	// transaction stays on the stack in failed status.
	ErrCommitFailed = errors.New("txn: commit failed")

	// ErrRollbackFailed is returned when the rollback statement failed;
	// the transaction stays on the stack in failed status.
	ErrRollbackFailed = errors.New("txn: rollback failed")

	// ErrSavepointFailed is returned when a free-standing savepoint
	// statement failed or the savepoint name is not a valid identifier.
	ErrSavepointFailed = errors.New("txn: savepoint operation failed")
)
