package db_context

import (
	"context"

	"gorm.io/gorm"
)

type contextKey int

const transactionKey contextKey = iota

// Tx is a database transaction bound to a request or a unit of work
type Tx struct {
	tx           *gorm.DB
	txid         int64
	rollbackFlag bool
}

func NewTx(tx *gorm.DB, txid int64) *Tx {
	return &Tx{tx: tx, txid: txid}
}

// DB returns the gorm handle of the transaction
func (t *Tx) DB() *gorm.DB {
	return t.tx
}

func (t *Tx) TxID() int64 {
	return t.txid
}

func (t *Tx) MarkedForRollback() bool {
	return t.rollbackFlag
}

func (t *Tx) SetRollbackFlag(flag bool) {
	t.rollbackFlag = flag
}

func (t *Tx) Commit() error {
	return t.tx.Commit().Error
}

func (t *Tx) Rollback() error {
	return t.tx.Rollback().Error
}

// WithTransaction stores tx in the context
func WithTransaction(ctx context.Context, tx *Tx) context.Context {
	return context.WithValue(ctx, transactionKey, tx)
}

// Transaction returns the transaction stored in the context, if any
func Transaction(ctx context.Context) (*Tx, bool) {
	if ctx == nil {
		return nil, false
	}
	tx, ok := ctx.Value(transactionKey).(*Tx)
	return tx, ok && tx != nil
}
