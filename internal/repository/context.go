package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jmoiron/sqlx"

	"github.com/jnst/layered-crud-template/internal/datasource"
)

type txKey struct {
	db datasource.Name
}

func withPgxTx(ctx context.Context, name datasource.Name, tx pgx.Tx) context.Context {
	return context.WithValue(ctx, txKey{db: name}, tx)
}

func pgxTxFrom(ctx context.Context, name datasource.Name) (pgx.Tx, bool) {
	tx, ok := ctx.Value(txKey{db: name}).(pgx.Tx)
	return tx, ok
}

func withSQLXTx(ctx context.Context, name datasource.Name, tx *sqlx.Tx) context.Context {
	return context.WithValue(ctx, txKey{db: name}, tx)
}

func sqlxTxFrom(ctx context.Context, name datasource.Name) (*sqlx.Tx, bool) {
	tx, ok := ctx.Value(txKey{db: name}).(*sqlx.Tx)
	return tx, ok
}

// InTransaction reports whether ctx carries an open transaction for the database.
func InTransaction(ctx context.Context, name datasource.Name) bool {
	return ctx.Value(txKey{db: name}) != nil
}
