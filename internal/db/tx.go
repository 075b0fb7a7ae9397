package db

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// withTx returns a context carrying an open transaction. Repositories called with it run their statements inside
// that transaction, using a savepoint when they need one of their own.
func withTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// txFrom returns the transaction carried by the context, if any.
func txFrom(ctx context.Context) (*gorm.DB, bool) {
	tx, ok := ctx.Value(txKey{}).(*gorm.DB)
	return tx, ok && tx != nil
}

// conn returns the handle that statements issued with ctx should use.
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := txFrom(ctx); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}
