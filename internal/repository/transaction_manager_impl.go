package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jmoiron/sqlx"

	"github.com/jnst/layered-crud-template/internal/datasource"
	"github.com/jnst/layered-crud-template/internal/metrics"
)

var errPanicked = errors.New("transaction function panicked")

// PgxBeginner is the part of pgxpool.Pool used to open transactions.
type PgxBeginner interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// PgxTransactionManager implements TransactionManager over a pgx pool.
type PgxTransactionManager struct {
	pool PgxBeginner
	name datasource.Name
}

// NewPgxTransactionManager creates a TransactionManager for the database served by pool.
func NewPgxTransactionManager(name datasource.Name, pool PgxBeginner) *PgxTransactionManager {
	return &PgxTransactionManager{pool: pool, name: name}
}

// Database returns the logical database the manager is bound to.
func (tm *PgxTransactionManager) Database() datasource.Name {
	return tm.name
}

// WithTransaction executes a function within a read-write transaction.
func (tm *PgxTransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return tm.run(ctx, pgx.TxOptions{AccessMode: pgx.ReadWrite}, fn)
}

// WithReadOnlyTransaction executes a function within a read-only transaction.
func (tm *PgxTransactionManager) WithReadOnlyTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return tm.run(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly}, fn)
}

func (tm *PgxTransactionManager) run(ctx context.Context, opts pgx.TxOptions, fn func(ctx context.Context) error) (err error) {
	if _, ok := pgxTxFrom(ctx, tm.name); ok {
		return fn(ctx)
	}

	tx, err := tm.pool.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("%s: failed to begin transaction: %w", tm.name, err)
	}

	start := time.Now()
	defer func() {
		metrics.RecordTransaction(tm.name.String(), opts.AccessMode == pgx.ReadOnly, err, time.Since(start))
	}()

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			err = fmt.Errorf("%w: %v", errPanicked, p)
			panic(p)
		}
	}()

	if err := fn(withPgxTx(ctx, tm.name, tx)); err != nil {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
			return fmt.Errorf("transaction failed: %w, rollback failed: %v", err, rollbackErr)
		}

		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%s: failed to commit transaction: %w", tm.name, err)
	}

	return nil
}

// SQLXTransactionManager implements TransactionManager over a database/sql pool.
type SQLXTransactionManager struct {
	db   *sqlx.DB
	name datasource.Name
}

// NewSQLXTransactionManager creates a TransactionManager for the database served by db.
func NewSQLXTransactionManager(name datasource.Name, db *sqlx.DB) *SQLXTransactionManager {
	return &SQLXTransactionManager{db: db, name: name}
}

// Database returns the logical database the manager is bound to.
func (tm *SQLXTransactionManager) Database() datasource.Name {
	return tm.name
}

// WithTransaction executes a function within a read-write transaction.
func (tm *SQLXTransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return tm.run(ctx, &sql.TxOptions{}, fn)
}

// WithReadOnlyTransaction executes a function within a read-only transaction.
func (tm *SQLXTransactionManager) WithReadOnlyTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return tm.run(ctx, &sql.TxOptions{ReadOnly: true}, fn)
}

func (tm *SQLXTransactionManager) run(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context) error) (err error) {
	if _, ok := sqlxTxFrom(ctx, tm.name); ok {
		return fn(ctx)
	}

	tx, err := tm.db.BeginTxx(ctx, opts)
	if err != nil {
		return fmt.Errorf("%s: failed to begin transaction: %w", tm.name, err)
	}

	start := time.Now()
	defer func() {
		metrics.RecordTransaction(tm.name.String(), opts.ReadOnly, err, time.Since(start))
	}()

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			err = fmt.Errorf("%w: %v", errPanicked, p)
			panic(p)
		}
	}()

	if err := fn(withSQLXTx(ctx, tm.name, tx)); err != nil {
		if rollbackErr := tx.Rollback(); rollbackErr != nil {
			return fmt.Errorf("transaction failed: %w, rollback failed: %v", err, rollbackErr)
		}

		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: failed to commit transaction: %w", tm.name, err)
	}

	return nil
}
