package db

import (
	"context"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/openshift-hyperfleet/hyperfleet/pkg/db/migrations"
	"github.com/openshift-hyperfleet/hyperfleet/pkg/logger"
)

// gormigrate is a wrapper for gorm's migration functions that adds schema versioning
// and rollback capabilities. For help writing migration steps, see the gorm documentation
// on migrations: http://doc.gorm.io/database.html#migration

func Migrate(g2 *gorm.DB) error {
	return newGormigrate(g2).Migrate()
}

// MigrateTo applies the migrations up to and including migrationID.
func MigrateTo(sessionFactory SessionFactory, migrationID string) error {
	ctx := context.Background()
	m := newGormigrate(sessionFactory.New(ctx))

	if err := m.MigrateTo(migrationID); err != nil {
		logger.With(ctx, logger.FieldMigrationID, migrationID).WithError(err).Error("Could not migrate")
		return err
	}
	logger.With(ctx, logger.FieldMigrationID, migrationID).Info("Migrated to target")
	return nil
}

func newGormigrate(g2 *gorm.DB) *gormigrate.Gormigrate {
	return gormigrate.New(g2, gormigrate.DefaultOptions, migrations.MigrationList)
}
