package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/kursadbilgin/campaign-engine/internal/repository"
	"gorm.io/gorm"
)

func createTrackingRecordsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000006_create_tracking_records",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.TrackingModel{}); err != nil {
				return err
			}
			indexes := []string{
				`CREATE UNIQUE INDEX IF NOT EXISTS idx_tracking_campaign_recipient ON tracking_records (campaign_id, recipient_id)`,
				`CREATE UNIQUE INDEX IF NOT EXISTS idx_tracking_pixel_id ON tracking_records (pixel_id)`,
				`CREATE INDEX IF NOT EXISTS idx_tracking_sent_at ON tracking_records (sent_at) WHERE sent_at IS NOT NULL`,
				`CREATE INDEX IF NOT EXISTS idx_tracking_status ON tracking_records (status)`,
			}
			for _, sql := range indexes {
				if err := tx.Exec(sql).Error; err != nil {
					return err
				}
			}
			return nil
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.TrackingModel{})
		},
	}
}
