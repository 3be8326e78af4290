package pgrepo

import (
	"context"

	"github.com/jackc/pgx/v5"

	"catalog-backend/internal/domain"
)

// TransactionManager implements domain.TransactionManager using pgx
type TransactionManager struct {
	db DB
}

func NewTransactionManager(db DB) domain.TransactionManager {
	return &TransactionManager{db: db}
}

// Do runs fn inside a transaction. A nested Do joins the transaction already in ctx.
func (tm *TransactionManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	tx, err := tm.db.Begin(ctx)
	if err != nil {
		return err
	}

	txCtx := context.WithValue(ctx, txKey{}, tx)

	if err := fn(txCtx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	return tx.Commit(ctx)
}

type txKey struct{}

// conn returns the transaction carried by ctx, or the fallback handle.
func conn(ctx context.Context, fallback DBTX) DBTX {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return fallback
}

// InTx reports whether ctx carries a transaction.
func InTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(pgx.Tx)
	return ok
}
