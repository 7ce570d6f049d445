package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/kursadbilgin/campaign-engine/internal/repository"
	"gorm.io/gorm"
)

func createLinkTrackingRecordsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000007_create_link_tracking_records",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.LinkTrackingModel{}); err != nil {
				return err
			}
			return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_link_tracking_tracking_id ON link_tracking_records (tracking_id)`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.LinkTrackingModel{})
		},
	}
}
