package migrations

import (
	"gorm.io/gorm"

	"github.com/go-gormigrate/gormigrate/v2"
)

func addConditionReports() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "202610010003",
		Migrate: func(tx *gorm.DB) error {
			// Append-only trace of every report and its outcome
			createTableSQL := `
				CREATE TABLE IF NOT EXISTS condition_reports (
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

					outcome VARCHAR(20) NOT NULL,
					reject_reason VARCHAR(63) NULL
				);
			`
			if err := tx.Exec(createTableSQL).Error; err != nil {
				return err
			}
			return tx.Exec("CREATE INDEX IF NOT EXISTS idx_condition_reports_resource ON condition_reports(resource_id, created_time DESC);").Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Exec("DROP TABLE IF EXISTS condition_reports;").Error
		},
	}
}
