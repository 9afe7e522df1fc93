package migrations

// Migrations should NEVER use types from other packages. Types can change
// and then migrations run on a _new_ database will fail or behave unexpectedly.
// Instead of importing types, always re-create the type in the migration.

import (
	"gorm.io/gorm"

	"github.com/go-gormigrate/gormigrate/v2"
)

func addResources() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "202610010001",
		Migrate: func(tx *gorm.DB) error {
			// All kinds share one table, the kind column distinguishes them.
			// status_* columns cache the last derived status of the resource.
			createTableSQL := `
				CREATE TABLE IF NOT EXISTS resources (
					id VARCHAR(255) PRIMARY KEY,
					created_time TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_time TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					deleted_at TIMESTAMPTZ NULL,

					kind VARCHAR(63) NOT NULL,
					name VARCHAR(63) NOT NULL,
					spec JSONB NOT NULL,
					labels JSONB NULL,
					href VARCHAR(500),

					generation INTEGER NOT NULL DEFAULT 1,

					owner_id VARCHAR(255) NULL,
					owner_kind VARCHAR(63) NULL,

					status_phase VARCHAR(20) NOT NULL DEFAULT 'NotReady',
					status_conditions JSONB NULL,
					status_agreement JSONB NULL,
					status_last_updated_time TIMESTAMPTZ NULL,
					status_last_transition_time TIMESTAMPTZ NULL
				);
			`
			if err := tx.Exec(createTableSQL).Error; err != nil {
				return err
			}

			indexes := []string{
				"CREATE INDEX IF NOT EXISTS idx_resources_deleted_at ON resources(deleted_at);",
				"CREATE INDEX IF NOT EXISTS idx_resources_kind ON resources(kind);",
				"CREATE INDEX IF NOT EXISTS idx_resources_owner_id ON resources(owner_id);",
				"CREATE INDEX IF NOT EXISTS idx_resources_kind_owner ON resources(kind, owner_id);",
				// unique names per kind for root resources
				`CREATE UNIQUE INDEX IF NOT EXISTS idx_resources_root_kind_name
				ON resources(kind, name)
				WHERE deleted_at IS NULL AND owner_id IS NULL;`,
				// unique names per kind within each owner
				`CREATE UNIQUE INDEX IF NOT EXISTS idx_resources_owned_kind_name
				ON resources(owner_id, kind, name)
				WHERE deleted_at IS NULL AND owner_id IS NOT NULL;`,
				"CREATE INDEX IF NOT EXISTS idx_resources_status_conditions ON resources USING GIN(status_conditions);",
			}
			for _, stmt := range indexes {
				if err := tx.Exec(stmt).Error; err != nil {
					return err
				}
			}
			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec("DROP TABLE IF EXISTS resources;").Error
		},
	}
}
