package repository

import (
	"context"

	"gorm.io/gorm"
)

type ctxKey int

const txCtxKey ctxKey = iota

// TransactionManager runs a unit of work inside a single database transaction.
// The transaction handle travels through the context, so the same repository
// methods work both inside and outside a transaction.
type TransactionManager interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

type txManager struct {
	db *gorm.DB
}

func NewTransactionManager(db *gorm.DB) TransactionManager {
	return &txManager{db: db}
}

func (m *txManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	// Joining an already-running transaction keeps nested service calls atomic
	if _, ok := ctx.Value(txCtxKey).(*gorm.DB); ok {
		return fn(ctx)
	}
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txCtxKey, tx))
	})
}

// GetDB returns the transaction from ctx when one is running, else the root handle.
func GetDB(ctx context.Context, root *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txCtxKey).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return root.WithContext(ctx)
}
