package repository

import (
	"context"
	"errors"
	"time"

	"github.com/kursadbilgin/campaign-engine/internal/domain"
	"gorm.io/gorm"
)

// ReplyCandidate is one sent tracking row joined with the data the reply
// correlator matches against.
type ReplyCandidate struct {
	CampaignID     string `gorm:"column:campaign_id"`
	RecipientID    string `gorm:"column:recipient_id"`
	SubjectLine    string `gorm:"column:subject_line"`
	RecipientEmail string `gorm:"column:recipient_email"`
}

type TrackingRepository interface {
	Create(ctx context.Context, record *domain.TrackingRecord) error
	CreateLinks(ctx context.Context, links []*domain.LinkTrackingRecord) error
	GetByPixelID(ctx context.Context, pixelID string) (*domain.TrackingRecord, error)
	GetByCampaignAndRecipient(ctx context.Context, campaignID, recipientID string) (*domain.TrackingRecord, error)
	ListByCampaign(ctx context.Context, campaignID string) ([]domain.TrackingRecord, error)
	ListLinksByTracking(ctx context.Context, trackingID string) ([]domain.LinkTrackingRecord, error)
	MarkSent(ctx context.Context, id string) error
	RecordOpen(ctx context.Context, pixelID string) error
	RecordClick(ctx context.Context, trackingID, linkID string) (string, error)
	RecordReply(ctx context.Context, campaignID, recipientID string) error
	RecordBounce(ctx context.Context, pixelID, reason string) error
	GetCampaignStats(ctx context.Context, campaignID string) (*domain.CampaignStats, error)
	GetUserStats(ctx context.Context, userID string) (*domain.CampaignStats, error)
	ListReplyCandidates(ctx context.Context, since time.Time) ([]ReplyCandidate, error)
}

type GormTrackingRepo struct {
	db *gorm.DB
}

func NewGormTrackingRepo(db *gorm.DB) *GormTrackingRepo {
	return &GormTrackingRepo{db: db}
}

func (r *GormTrackingRepo) Create(ctx context.Context, record *domain.TrackingRecord) error {
	model := trackingModelFromDomain(record)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrConflict
		}
		return err
	}
	if record != nil {
		*record = *trackingModelToDomain(model)
	}
	return nil
}

func (r *GormTrackingRepo) CreateLinks(ctx context.Context, links []*domain.LinkTrackingRecord) error {
	models := make([]LinkTrackingModel, 0, len(links))
	modelIndexes := make([]int, 0, len(links))
	for i, link := range links {
		model := linkTrackingModelFromDomain(link)
		if model != nil {
			models = append(models, *model)
			modelIndexes = append(modelIndexes, i)
		}
	}

	if len(models) == 0 {
		return nil
	}

	if err := r.db.WithContext(ctx).CreateInBatches(&models, 100).Error; err != nil {
		return err
	}

	for i := range models {
		idx := modelIndexes[i]
		if idx < len(links) && links[idx] != nil {
			*links[idx] = *linkTrackingModelToDomain(&models[i])
		}
	}

	return nil
}

func (r *GormTrackingRepo) GetByPixelID(ctx context.Context, pixelID string) (*domain.TrackingRecord, error) {
	var model TrackingModel
	err := r.db.WithContext(ctx).
		Where("pixel_id = ?", pixelID).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return trackingModelToDomain(&model), nil
}

func (r *GormTrackingRepo) GetByCampaignAndRecipient(ctx context.Context, campaignID, recipientID string) (*domain.TrackingRecord, error) {
	var model TrackingModel
	err := r.db.WithContext(ctx).
		Where("campaign_id = ? AND recipient_id = ?", campaignID, recipientID).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return trackingModelToDomain(&model), nil
}

func (r *GormTrackingRepo) ListByCampaign(ctx context.Context, campaignID string) ([]domain.TrackingRecord, error) {
	var models []TrackingModel
	err := r.db.WithContext(ctx).
		Where("campaign_id = ?", campaignID).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	records := make([]domain.TrackingRecord, 0, len(models))
	for i := range models {
		records = append(records, *trackingModelToDomain(&models[i]))
	}

	return records, nil
}

func (r *GormTrackingRepo) ListLinksByTracking(ctx context.Context, trackingID string) ([]domain.LinkTrackingRecord, error) {
	var models []LinkTrackingModel
	err := r.db.WithContext(ctx).
		Where("tracking_id = ?", trackingID).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	links := make([]domain.LinkTrackingRecord, 0, len(models))
	for i := range models {
		links = append(links, *linkTrackingModelToDomain(&models[i]))
	}

	return links, nil
}

// MarkSent advances a record from sending to sent. The conditional update
// keeps a late dispatcher confirmation from rolling back engagement that
// already arrived.
func (r *GormTrackingRepo) MarkSent(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&TrackingModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":  gorm.Expr("CASE WHEN status = 'sending' THEN 'sent' ELSE status END"),
			"sent_at": gorm.Expr("COALESCE(sent_at, ?)", time.Now().UTC()),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// RecordOpen counts every pixel fetch but only advances status from a state
// below opened. The single conditional statement keeps concurrent opens and
// clicks from racing each other.
func (r *GormTrackingRepo) RecordOpen(ctx context.Context, pixelID string) error {
	result := r.db.WithContext(ctx).
		Model(&TrackingModel{}).
		Where("pixel_id = ?", pixelID).
		Updates(map[string]any{
			"status":     gorm.Expr("CASE WHEN status IN ('sending', 'sent') THEN 'opened' ELSE status END"),
			"opened_at":  gorm.Expr("COALESCE(opened_at, ?)", time.Now().UTC()),
			"open_count": gorm.Expr("open_count + 1"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// RecordClick resolves the link row, bumps its counters, and advances the
// parent record. A click implies an open, so opened_at is backfilled and
// open_count is raised to at least one even when no pixel fetch ever arrived.
// Returns the original destination URL for the redirect.
func (r *GormTrackingRepo) RecordClick(ctx context.Context, trackingID, linkID string) (string, error) {
	var originalURL string

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var link LinkTrackingModel
		err := tx.First(&link, "id = ?", linkID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrNotFound
		}
		if err != nil {
			return err
		}
		if link.TrackingID != trackingID {
			return domain.ErrNotFound
		}

		now := time.Now().UTC()
		if err := tx.Model(&LinkTrackingModel{}).
			Where("id = ?", link.ID).
			Updates(map[string]any{
				"click_count":      gorm.Expr("click_count + 1"),
				"first_clicked_at": gorm.Expr("COALESCE(first_clicked_at, ?)", now),
				"last_clicked_at":  now,
			}).Error; err != nil {
			return err
		}

		result := tx.Model(&TrackingModel{}).
			Where("id = ?", trackingID).
			Updates(map[string]any{
				"status":      gorm.Expr("CASE WHEN status IN ('sending', 'sent', 'opened') THEN 'clicked' ELSE status END"),
				"opened_at":   gorm.Expr("COALESCE(opened_at, ?)", now),
				"open_count":  gorm.Expr("CASE WHEN open_count < 1 THEN 1 ELSE open_count END"),
				"clicked_at":  gorm.Expr("COALESCE(clicked_at, ?)", now),
				"click_count": gorm.Expr("click_count + 1"),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.ErrNotFound
		}

		originalURL = link.OriginalURL
		return nil
	})
	if err != nil {
		return "", err
	}

	return originalURL, nil
}

// RecordReply marks the pair as replied regardless of current state. Replied
// outranks every other state, including bounced.
func (r *GormTrackingRepo) RecordReply(ctx context.Context, campaignID, recipientID string) error {
	result := r.db.WithContext(ctx).
		Model(&TrackingModel{}).
		Where("campaign_id = ? AND recipient_id = ?", campaignID, recipientID).
		Updates(map[string]any{
			"status":     domain.EngagementReplied,
			"replied_at": gorm.Expr("COALESCE(replied_at, ?)", time.Now().UTC()),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// RecordBounce moves any non-replied record to bounced. A bounce reported
// after a reply is dropped without error.
func (r *GormTrackingRepo) RecordBounce(ctx context.Context, pixelID, reason string) error {
	updates := map[string]any{
		"status":     domain.EngagementBounced,
		"bounced_at": gorm.Expr("COALESCE(bounced_at, ?)", time.Now().UTC()),
	}
	if reason != "" {
		updates["bounce_reason"] = gorm.Expr("COALESCE(bounce_reason, ?)", reason)
	}

	result := r.db.WithContext(ctx).
		Model(&TrackingModel{}).
		Where("pixel_id = ? AND status <> ?", pixelID, domain.EngagementReplied).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		// Distinguish an unknown pixel from a record already replied.
		if _, err := r.GetByPixelID(ctx, pixelID); err != nil {
			return err
		}
		return nil
	}
	return nil
}

func (r *GormTrackingRepo) GetCampaignStats(ctx context.Context, campaignID string) (*domain.CampaignStats, error) {
	var row struct {
		SentCount    int `gorm:"column:sent_count"`
		OpenedCount  int `gorm:"column:opened_count"`
		ClickedCount int `gorm:"column:clicked_count"`
		RepliedCount int `gorm:"column:replied_count"`
		BouncedCount int `gorm:"column:bounced_count"`
	}

	err := r.db.WithContext(ctx).
		Model(&TrackingModel{}).
		Select(`COUNT(*) FILTER (WHERE sent_at IS NOT NULL) AS sent_count,
			COUNT(*) FILTER (WHERE opened_at IS NOT NULL) AS opened_count,
			COUNT(*) FILTER (WHERE clicked_at IS NOT NULL) AS clicked_count,
			COUNT(*) FILTER (WHERE replied_at IS NOT NULL) AS replied_count,
			COUNT(*) FILTER (WHERE bounced_at IS NOT NULL) AS bounced_count`).
		Where("campaign_id = ?", campaignID).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}

	return &domain.CampaignStats{
		SentCount:    row.SentCount,
		OpenedCount:  row.OpenedCount,
		ClickedCount: row.ClickedCount,
		RepliedCount: row.RepliedCount,
		BouncedCount: row.BouncedCount,
	}, nil
}

// GetUserStats aggregates engagement across every campaign the user owns.
func (r *GormTrackingRepo) GetUserStats(ctx context.Context, userID string) (*domain.CampaignStats, error) {
	var row struct {
		SentCount    int `gorm:"column:sent_count"`
		OpenedCount  int `gorm:"column:opened_count"`
		ClickedCount int `gorm:"column:clicked_count"`
		RepliedCount int `gorm:"column:replied_count"`
		BouncedCount int `gorm:"column:bounced_count"`
	}

	err := r.db.WithContext(ctx).
		Model(&TrackingModel{}).
		Select(`COUNT(*) FILTER (WHERE tracking_records.sent_at IS NOT NULL) AS sent_count,
			COUNT(*) FILTER (WHERE tracking_records.opened_at IS NOT NULL) AS opened_count,
			COUNT(*) FILTER (WHERE tracking_records.clicked_at IS NOT NULL) AS clicked_count,
			COUNT(*) FILTER (WHERE tracking_records.replied_at IS NOT NULL) AS replied_count,
			COUNT(*) FILTER (WHERE tracking_records.bounced_at IS NOT NULL) AS bounced_count`).
		Joins("JOIN campaigns ON campaigns.id = tracking_records.campaign_id").
		Where("campaigns.user_id = ?", userID).
		Scan(&row).Error
	if err != nil {
		return nil, err
	}

	return &domain.CampaignStats{
		SentCount:    row.SentCount,
		OpenedCount:  row.OpenedCount,
		ClickedCount: row.ClickedCount,
		RepliedCount: row.RepliedCount,
		BouncedCount: row.BouncedCount,
	}, nil
}

func (r *GormTrackingRepo) ListReplyCandidates(ctx context.Context, since time.Time) ([]ReplyCandidate, error) {
	var candidates []ReplyCandidate
	err := r.db.WithContext(ctx).
		Model(&TrackingModel{}).
		Select("tracking_records.campaign_id, tracking_records.recipient_id, campaigns.subject_line, recipients.email AS recipient_email").
		Joins("JOIN campaigns ON campaigns.id = tracking_records.campaign_id").
		Joins("JOIN recipients ON recipients.id = tracking_records.recipient_id").
		Where("tracking_records.sent_at IS NOT NULL AND tracking_records.sent_at >= ?", since).
		Where("tracking_records.status <> ?", domain.EngagementReplied).
		Where("campaigns.status = ?", domain.CampaignStatusCompleted).
		Scan(&candidates).Error
	if err != nil {
		return nil, err
	}
	return candidates, nil
}
