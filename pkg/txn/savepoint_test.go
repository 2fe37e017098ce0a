package txn_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/dbkit/pkg/txn"
)

func TestSavepointPrimitives(t *testing.T) {
	t.Parallel()

	t.Run("create, rollback to, release", func(t *testing.T) {
		t.Parallel()

		m, conn := newManager(t)
		ctx := context.Background()

		var created, rolledBack, released []string
		m.Subscribe(txn.Hooks{
			OnSavepointCreated:  func(name string) { created = append(created, name) },
			OnSavepointRollback: func(name string) { rolledBack = append(rolledBack, name) },
			OnSavepointReleased: func(name string) { released = append(released, name) },
		})

		_, err := m.Begin(ctx, txn.Options{})
		require.NoError(t, err)

		name, err := m.CreateSavepoint(ctx)
		require.NoError(t, err)
		assert.Equal(t, "dbkit_sp_1", name)

		require.NoError(t, m.RollbackToSavepoint(ctx, name))
		require.NoError(t, m.ReleaseSavepoint(ctx, name))

		assert.Equal(t, []string{
			"BEGIN",
			"SAVEPOINT dbkit_sp_1",
			"ROLLBACK TO SAVEPOINT dbkit_sp_1",
			"RELEASE SAVEPOINT dbkit_sp_1",
		}, conn.statements())
		assert.Equal(t, []string{name}, created)
		assert.Equal(t, []string{name}, rolledBack)
		assert.Equal(t, []string{name}, released)
	})

	t.Run("require an active transaction", func(t *testing.T) {
		t.Parallel()

		m, _ := newManager(t)
		ctx := context.Background()

		_, err := m.CreateSavepoint(ctx)
		require.ErrorIs(t, err, txn.ErrTransactionNotFound)
		require.ErrorIs(t, m.RollbackToSavepoint(ctx, "sp"), txn.ErrTransactionNotFound)
		require.ErrorIs(t, m.ReleaseSavepoint(ctx, "sp"), txn.ErrTransactionNotFound)
	})

	t.Run("reject invalid names", func(t *testing.T) {
		t.Parallel()

		m, _ := newManager(t)
		ctx := context.Background()
		_, err := m.Begin(ctx, txn.Options{})
		require.NoError(t, err)

		require.ErrorIs(t, m.RollbackToSavepoint(ctx, "sp; DROP TABLE users"), txn.ErrSavepointFailed)
		require.ErrorIs(t, m.ReleaseSavepoint(ctx, ""), txn.ErrSavepointFailed)
	})

	t.Run("statement failure", func(t *testing.T) {
		t.Parallel()

		m, conn := newManager(t)
		ctx := context.Background()
		_, err := m.Begin(ctx, txn.Options{})
		require.NoError(t, err)

		boom := errors.New("savepoint does not exist")
		conn.failStmt("RELEASE SAVEPOINT", boom)
		err = m.ReleaseSavepoint(ctx, "missing")
		require.ErrorIs(t, err, txn.ErrSavepointFailed)
		require.ErrorIs(t, err, boom)
	})
}

func TestSavepointNamesMonotonic(t *testing.T) {
	t.Parallel()

	m, _ := newManager(t)
	ctx := context.Background()

	// Names keep increasing across the manager's lifetime, even after the
	// transactions that used earlier names are long gone.
	_, err := m.Begin(ctx, txn.Options{})
	require.NoError(t, err)
	inner, err := m.Begin(ctx, txn.Options{})
	require.NoError(t, err)
	assert.Equal(t, "dbkit_sp_1", inner.Savepoint())
	require.NoError(t, m.Commit(ctx))

	name, err := m.CreateSavepoint(ctx)
	require.NoError(t, err)
	assert.Equal(t, "dbkit_sp_2", name)

	inner2, err := m.Begin(ctx, txn.Options{})
	require.NoError(t, err)
	assert.Equal(t, "dbkit_sp_3", inner2.Savepoint())
}

func TestStats(t *testing.T) {
	t.Parallel()

	m, _ := newManager(t)
	ctx := context.Background()

	assert.Equal(t, txn.Stats{Transactions: []txn.TxStat{}}, m.Stats())

	outer, err := m.Begin(ctx, txn.Options{})
	require.NoError(t, err)
	inner, err := m.Begin(ctx, txn.Options{})
	require.NoError(t, err)

	time.Sleep(time.Millisecond)

	s := m.Stats()
	assert.Equal(t, 2, s.Active)
	assert.Equal(t, 2, s.Stacked)
	assert.Equal(t, 2, s.Depth)
	require.Len(t, s.Transactions, 2)
	assert.Equal(t, outer.ID(), s.Transactions[0].ID)
	assert.Equal(t, inner.ID(), s.Transactions[1].ID)
	assert.Positive(t, s.Transactions[0].Duration)

	active := m.ActiveTransactions()
	require.Len(t, active, 2)
	assert.Same(t, outer, active[0])
	assert.Same(t, inner, active[1])

	require.NoError(t, m.Commit(ctx))
	require.NoError(t, m.Commit(ctx))
	assert.Equal(t, 0, m.Stats().Stacked)

	// A terminal transaction's duration is frozen.
	d1 := outer.Duration()
	time.Sleep(time.Millisecond)
	assert.Equal(t, d1, outer.Duration())
}
