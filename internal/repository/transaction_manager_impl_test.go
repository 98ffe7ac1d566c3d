package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jnst/layered-crud-template/internal/datasource"
)

type fakeTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
	commitErr  error
	row        pgx.Row
	queries    int
}

func (f *fakeTx) Commit(context.Context) error {
	f.committed = true
	return f.commitErr
}

func (f *fakeTx) Rollback(context.Context) error {
	f.rolledBack = true
	return nil
}

func (f *fakeTx) QueryRow(context.Context, string, ...interface{}) pgx.Row {
	f.queries++
	return f.row
}

type fakeBeginner struct {
	tx       *fakeTx
	opts     []pgx.TxOptions
	beginErr error
}

func (f *fakeBeginner) BeginTx(_ context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	f.opts = append(f.opts, opts)
	if f.beginErr != nil {
		return nil, f.beginErr
	}

	return f.tx, nil
}

// transactionCount reads db_transactions_total for one label set from the default registry.
func transactionCount(t *testing.T, database, mode, outcome string) float64 {
	t.Helper()

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	want := map[string]string{"database": database, "mode": mode, "outcome": outcome}

	for _, mf := range families {
		if mf.GetName() != "db_transactions_total" {
			continue
		}

		for _, m := range mf.GetMetric() {
			got := make(map[string]string, len(m.GetLabel()))
			for _, lp := range m.GetLabel() {
				got[lp.GetName()] = lp.GetValue()
			}

			if assert.ObjectsAreEqual(want, got) {
				return m.GetCounter().GetValue()
			}
		}
	}

	return 0
}

func TestPgxTransactionManager_Commit(t *testing.T) {
	b := &fakeBeginner{tx: &fakeTx{}}
	tm := NewPgxTransactionManager(datasource.Primary, b)

	err := tm.WithTransaction(context.Background(), func(ctx context.Context) error {
		tx, ok := pgxTxFrom(ctx, datasource.Primary)
		assert.True(t, ok)
		assert.Same(t, b.tx, tx)
		return nil
	})
	require.NoError(t, err)

	assert.True(t, b.tx.committed)
	assert.False(t, b.tx.rolledBack)
	assert.Equal(t, pgx.ReadWrite, b.opts[0].AccessMode)
	assert.Equal(t, datasource.Primary, tm.Database())
}

func TestPgxTransactionManager_RollbackOnError(t *testing.T) {
	b := &fakeBeginner{tx: &fakeTx{}}
	tm := NewPgxTransactionManager(datasource.Primary, b)
	boom := errors.New("boom")

	err := tm.WithReadOnlyTransaction(context.Background(), func(context.Context) error {
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.True(t, b.tx.rolledBack)
	assert.False(t, b.tx.committed)
	assert.Equal(t, pgx.ReadOnly, b.opts[0].AccessMode)
}

func TestPgxTransactionManager_RollbackOnPanic(t *testing.T) {
	b := &fakeBeginner{tx: &fakeTx{}}
	tm := NewPgxTransactionManager(datasource.Primary, b)

	assert.Panics(t, func() {
		_ = tm.WithTransaction(context.Background(), func(context.Context) error {
			panic("unexpected")
		})
	})
	assert.True(t, b.tx.rolledBack)
	assert.False(t, b.tx.committed)
}

func TestPgxTransactionManager_PanicCountsAsRollback(t *testing.T) {
	b := &fakeBeginner{tx: &fakeTx{}}
	tm := NewPgxTransactionManager(datasource.GPDB2, b)

	commits := transactionCount(t, "gpdb2", "read_write", "commit")
	rollbacks := transactionCount(t, "gpdb2", "read_write", "rollback")

	assert.Panics(t, func() {
		_ = tm.WithTransaction(context.Background(), func(context.Context) error {
			panic("unexpected")
		})
	})

	assert.Equal(t, commits, transactionCount(t, "gpdb2", "read_write", "commit"))
	assert.Equal(t, rollbacks+1, transactionCount(t, "gpdb2", "read_write", "rollback"))
}

func TestPgxTransactionManager_JoinsExistingTransaction(t *testing.T) {
	b := &fakeBeginner{tx: &fakeTx{}}
	tm := NewPgxTransactionManager(datasource.Primary, b)

	err := tm.WithTransaction(context.Background(), func(ctx context.Context) error {
		return tm.WithReadOnlyTransaction(ctx, func(context.Context) error { return nil })
	})
	require.NoError(t, err)
	assert.Len(t, b.opts, 1)
}

func TestPgxTransactionManager_BeginAndCommitErrors(t *testing.T) {
	tm := NewPgxTransactionManager(datasource.Primary, &fakeBeginner{beginErr: errors.New("pool exhausted")})
	err := tm.WithTransaction(context.Background(), func(context.Context) error {
		t.Fatal("fn must not run")
		return nil
	})
	assert.ErrorContains(t, err, "failed to begin transaction")

	b := &fakeBeginner{tx: &fakeTx{commitErr: errors.New("serialization failure")}}
	tm = NewPgxTransactionManager(datasource.Primary, b)
	err = tm.WithTransaction(context.Background(), func(context.Context) error { return nil })
	assert.ErrorContains(t, err, "failed to commit transaction")
}

func TestSQLXTransactionManager_Commit(t *testing.T) {
	db, mock := setupMockDB(t)
	tm := NewSQLXTransactionManager(datasource.GPDB1, db)

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := tm.WithTransaction(context.Background(), func(ctx context.Context) error {
		assert.True(t, InTransaction(ctx, datasource.GPDB1))
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, datasource.GPDB1, tm.Database())
}

func TestSQLXTransactionManager_RollbackOnError(t *testing.T) {
	db, mock := setupMockDB(t)
	tm := NewSQLXTransactionManager(datasource.GPDB2, db)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := tm.WithReadOnlyTransaction(context.Background(), func(context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestSQLXTransactionManager_BeginError(t *testing.T) {
	db, mock := setupMockDB(t)
	tm := NewSQLXTransactionManager(datasource.GPDB2, db)

	mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

	err := tm.WithTransaction(context.Background(), func(context.Context) error { return nil })
	assert.ErrorContains(t, err, "gpdb2: failed to begin transaction")
}

func TestSQLXTransactionManager_PanicCountsAsRollback(t *testing.T) {
	db, mock := setupMockDB(t)
	tm := NewSQLXTransactionManager(datasource.GPDB1, db)

	mock.ExpectBegin()
	mock.ExpectRollback()

	commits := transactionCount(t, "gpdb1", "read_only", "commit")
	rollbacks := transactionCount(t, "gpdb1", "read_only", "rollback")

	assert.Panics(t, func() {
		_ = tm.WithReadOnlyTransaction(context.Background(), func(context.Context) error {
			panic("unexpected")
		})
	})

	assert.Equal(t, commits, transactionCount(t, "gpdb1", "read_only", "commit"))
	assert.Equal(t, rollbacks+1, transactionCount(t, "gpdb1", "read_only", "rollback"))
}
