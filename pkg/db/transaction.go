package db

import (
	"context"

	dbContext "github.com/openshift-hyperfleet/hyperfleet/pkg/db/db_context"
)

// newTransaction begins a transaction and records the postgres transaction id for logging
func newTransaction(ctx context.Context, connection SessionFactory) (*dbContext.Tx, error) {
	g2 := connection.New(ctx)
	tx := g2.Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	var txid int64
	if err := tx.Raw("SELECT txid_current()").Scan(&txid).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	return dbContext.NewTx(tx, txid), nil
}
