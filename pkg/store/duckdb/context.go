package duckdb

import (
	"context"
	"database/sql"
)

type txKey struct{}

// WithTransaction stores a transaction on the context so stores can
// join an ambient transaction when one is open.
func WithTransaction(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// GetTransaction returns the ambient transaction, or nil when none is set.
func GetTransaction(ctx context.Context) *sql.Tx {
	tx, _ := ctx.Value(txKey{}).(*sql.Tx)
	return tx
}
