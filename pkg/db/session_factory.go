package db

import (
	"context"
	"database/sql"

	"gorm.io/gorm"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/config"
)

// SessionFactory hands out gorm sessions bound to a context.
// Implementations return the transaction stored in the context when there is one.
type SessionFactory interface {
	Init(*config.DatabaseConfig)
	DirectDB() *sql.DB
	New(ctx context.Context) *gorm.DB
	CheckConnection() error
	Close() error
	ResetDB()
	// NewListener blocks delivering NOTIFY payloads on channel to callback until ctx is done
	NewListener(ctx context.Context, channel string, callback func(payload string))
}
