package repository

import (
	"context"

	"gorm.io/gorm"
)

// Atomic runs a function against card and transaction repositories bound to
// a single database transaction. The payment engine relies on this to keep
// the balance update and the transaction record consistent: both commit or
// both roll back.
type Atomic interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context, cards CardRepository, transactions TransactionRepository) error) error
}

type atomicRunner struct {
	db *gorm.DB
}

// NewAtomicRunner creates an Atomic backed by GORM transactions.
func NewAtomicRunner(db *gorm.DB) Atomic {
	return &atomicRunner{db: db}
}

// RunInTransaction executes fn inside a database transaction. Returning an
// error rolls back everything fn did through the passed repositories.
func (a *atomicRunner) RunInTransaction(ctx context.Context, fn func(ctx context.Context, cards CardRepository, transactions TransactionRepository) error) error {
	return a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &cardRepository{db: tx}, &transactionRepository{db: tx})
	})
}
