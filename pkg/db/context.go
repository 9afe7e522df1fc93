package db

import (
	"context"

	dbContext "github.com/openshift-hyperfleet/hyperfleet/pkg/db/db_context"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/logger"
)

// NewContext returns a new context with transaction stored in it.
// Upon error, the original context is still returned along with an error
func NewContext(ctx context.Context, connection SessionFactory) (context.Context, error) {
	tx, err := newTransaction(ctx, connection)
	if err != nil {
		return ctx, err
	}

	ctx = dbContext.WithTransaction(ctx, tx)
	ctx = logger.WithTransactionID(ctx, tx.TxID())

	return ctx, nil
}

// Resolve resolves the current transaction according to the rollback flag.
func Resolve(ctx context.Context) error {
	tx, ok := dbContext.Transaction(ctx)
	if !ok {
		logger.Error(ctx, "Could not retrieve transaction from context")
		return nil
	}

	if tx.MarkedForRollback() {
		if err := tx.Rollback(); err != nil {
			logger.WithError(ctx, err).Error("Could not rollback transaction")
			return err
		}
		logger.Debug(ctx, "Rolled back transaction")
		return nil
	}
	if err := tx.Commit(); err != nil {
		logger.WithError(ctx, err).Error("Could not commit transaction")
		return err
	}
	return nil
}

// MarkForRollback flags the transaction stored in the context for rollback and logs whatever error caused the rollback
func MarkForRollback(ctx context.Context, err error) {
	transaction, ok := dbContext.Transaction(ctx)
	if !ok {
		// no transaction in context: the statement already ran in autocommit
		return
	}
	transaction.SetRollbackFlag(true)
	logger.WithError(ctx, err).Info("Marked transaction for rollback")
}

// WithTransaction runs fn inside a transaction that is committed when fn
// returns nil and rolled back otherwise. An enclosing transaction in ctx is reused.
func WithTransaction(ctx context.Context, connection SessionFactory, fn func(ctx context.Context) error) error {
	if _, ok := dbContext.Transaction(ctx); ok {
		return fn(ctx)
	}

	txCtx, err := NewContext(ctx, connection)
	if err != nil {
		return err
	}
	if err := fn(txCtx); err != nil {
		MarkForRollback(txCtx, err)
		if rbErr := Resolve(txCtx); rbErr != nil {
			logger.WithError(ctx, rbErr).Warn("Rollback failed")
		}
		return err
	}
	return Resolve(txCtx)
}
