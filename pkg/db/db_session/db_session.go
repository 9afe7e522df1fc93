package db_session

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/config"
	dbContext "github.com/openshift-hyperfleet/hyperfleet/pkg/db/db_context"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/db/db_metrics"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/logger"
)

const (
	disable = "disable"

	slowQueryThreshold = 200 * time.Millisecond
)

var once sync.Once

// openGorm wraps dbx in a gorm handle with the HyperFleet logger and the
// query and pool metrics installed. The pool settings of cfg are applied to dbx.
func openGorm(dbx *sql.DB, cfg *config.DatabaseConfig) (*gorm.DB, error) {
	cfg.ApplyPool(dbx)

	level := gormlogger.Warn
	if cfg.Debug {
		level = gormlogger.Info
	}
	g2, err := gorm.Open(postgres.New(postgres.Config{
		Conn: dbx,
		// Migrations change table structure, cached prepared statements would go stale.
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		Logger: logger.NewGormLogger(level, slowQueryThreshold),
	})
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	if err := db_metrics.RegisterPlugin(g2); err != nil {
		logger.WithError(ctx, err).Warn("Failed to register database metrics plugin")
	}
	if err := db_metrics.RegisterPoolCollector(dbx); err != nil {
		logger.WithError(ctx, err).Warn("Failed to register pool metrics collector")
	}
	return g2, nil
}

// sessionFor returns the transaction stored in ctx, or a new session on g2
func sessionFor(ctx context.Context, g2 *gorm.DB) *gorm.DB {
	if tx, ok := dbContext.Transaction(ctx); ok {
		return tx.DB().WithContext(ctx)
	}
	return g2.Session(&gorm.Session{Context: ctx})
}
