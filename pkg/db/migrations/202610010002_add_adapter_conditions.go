package migrations

import (
	"gorm.io/gorm"

	"github.com/go-gormigrate/gormigrate/v2"
)

func addAdapterConditions() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "202610010002",
		Migrate: func(tx *gorm.DB) error {
			// One row per (resource, adapter, condition type) slot.
			// observed_generation only ever moves forward, see dao.adapterConditionDao.
			createTableSQL := `
				CREATE TABLE IF NOT EXISTS adapter_conditions (
					id VARCHAR(255) PRIMARY KEY,
					created_time TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_time TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					deleted_at TIMESTAMPTZ NULL,

					resource_type VARCHAR(63) NOT NULL,
					resource_id VARCHAR(255) NOT NULL,
					adapter VARCHAR(255) NOT NULL,
					type VARCHAR(63) NOT NULL,

					status VARCHAR(10) NOT NULL,
					observed_generation INTEGER NOT NULL,
					reason TEXT NULL,
					message TEXT NULL,

					last_transition_time TIMESTAMPTZ NOT NULL,
					last_updated_time TIMESTAMPTZ NOT NULL
				);
			`
			if err := tx.Exec(createTableSQL).Error; err != nil {
				return err
			}
			if err := tx.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_adapter_conditions_slot ON adapter_conditions(resource_id, adapter, type);").Error; err != nil {
				return err
			}
			if err := tx.Exec("CREATE INDEX IF NOT EXISTS idx_adapter_conditions_resource ON adapter_conditions(resource_type, resource_id);").Error; err != nil {
				return err
			}
			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec("DROP TABLE IF EXISTS adapter_conditions;").Error
		},
	}
}
