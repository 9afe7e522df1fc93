package migrations

import (
	"gorm.io/gorm"

	"github.com/go-gormigrate/gormigrate/v2"
)

func addPulseQueue() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "202610010005",
		Migrate: func(tx *gorm.DB) error {
			createTableSQL := `
				CREATE TABLE IF NOT EXISTS pulse_queue (
					id VARCHAR(255) PRIMARY KEY,
					created_time TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_time TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					deleted_at TIMESTAMPTZ NULL,

					adapter VARCHAR(255) NOT NULL,
					resource_id VARCHAR(255) NOT NULL,
					payload JSONB NOT NULL,
					visible_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					attempts INTEGER NOT NULL DEFAULT 0
				);
			`
			if err := tx.Exec(createTableSQL).Error; err != nil {
				return err
			}
			return tx.Exec("CREATE INDEX IF NOT EXISTS idx_pulse_queue_ready ON pulse_queue(adapter, visible_at);").Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec("DROP TABLE IF EXISTS pulse_queue;").Error
		},
	}
}
