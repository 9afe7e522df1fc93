package migrations

import (
	"gorm.io/gorm"

	"github.com/go-gormigrate/gormigrate/v2"
)

func addAdapterTasks() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "202610010004",
		Migrate: func(tx *gorm.DB) error {
			createTableSQL := `
				CREATE TABLE IF NOT EXISTS adapter_tasks (
					id VARCHAR(255) PRIMARY KEY,
					created_time TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_time TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					deleted_at TIMESTAMPTZ NULL,

					resource_id VARCHAR(255) NOT NULL,
					resource_kind VARCHAR(63) NOT NULL,
					adapter VARCHAR(255) NOT NULL,
					generation INTEGER NOT NULL,

					state VARCHAR(20) NOT NULL,
					external_ref VARCHAR(255) NULL,
					attempt INTEGER NOT NULL DEFAULT 0,
					reason TEXT NULL,
					message TEXT NULL,

					started_at TIMESTAMPTZ NULL,
					finished_at TIMESTAMPTZ NULL,
					last_reported_at TIMESTAMPTZ NULL,
					superseded_at TIMESTAMPTZ NULL
				);
			`
			if err := tx.Exec(createTableSQL).Error; err != nil {
				return err
			}
			return tx.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_adapter_tasks_key ON adapter_tasks(resource_id, adapter, generation);").Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec("DROP TABLE IF EXISTS adapter_tasks;").Error
		},
	}
}
