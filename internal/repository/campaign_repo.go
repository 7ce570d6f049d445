package repository

import (
	"context"
	"errors"
	"time"

	"github.com/kursadbilgin/campaign-engine/internal/domain"
	"gorm.io/gorm"
)

type CampaignListParams struct {
	Status   *domain.CampaignStatus
	Page     int
	PageSize int
}

type CampaignRepository interface {
	Create(ctx context.Context, campaign *domain.Campaign) error
	GetByID(ctx context.Context, userID, id string) (*domain.Campaign, error)
	List(ctx context.Context, userID string, params CampaignListParams) ([]domain.Campaign, int64, error)
	Update(ctx context.Context, campaign *domain.Campaign) error
	Deactivate(ctx context.Context, userID, id string) error
	BeginSending(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string) error
}

type GormCampaignRepo struct {
	db *gorm.DB
}

func NewGormCampaignRepo(db *gorm.DB) *GormCampaignRepo {
	return &GormCampaignRepo{db: db}
}

func (r *GormCampaignRepo) Create(ctx context.Context, campaign *domain.Campaign) error {
	model := campaignModelFromDomain(campaign)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if campaign != nil {
		*campaign = *campaignModelToDomain(model)
	}
	return nil
}

func (r *GormCampaignRepo) GetByID(ctx context.Context, userID, id string) (*domain.Campaign, error) {
	var model CampaignModel
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ? AND active", id, userID).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return campaignModelToDomain(&model), nil
}

func (r *GormCampaignRepo) List(ctx context.Context, userID string, params CampaignListParams) ([]domain.Campaign, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&CampaignModel{}).
		Where("user_id = ? AND active", userID)

	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := max(params.Page, 1)
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = 50
	}
	pageSize = min(pageSize, 100)

	var models []CampaignModel
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	campaigns := make([]domain.Campaign, 0, len(models))
	for i := range models {
		campaigns = append(campaigns, *campaignModelToDomain(&models[i]))
	}

	return campaigns, total, nil
}

func (r *GormCampaignRepo) Update(ctx context.Context, campaign *domain.Campaign) error {
	result := r.db.WithContext(ctx).
		Model(&CampaignModel{}).
		Where("id = ? AND user_id = ? AND active", campaign.ID, campaign.UserID).
		Updates(map[string]any{
			"name":           campaign.Name,
			"subject_line":   campaign.SubjectLine,
			"from_name":      campaign.FromName,
			"from_email":     campaign.FromEmail,
			"reply_to_email": campaign.ReplyToEmail,
			"scheduled_at":   campaign.ScheduledAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormCampaignRepo) Deactivate(ctx context.Context, userID, id string) error {
	result := r.db.WithContext(ctx).
		Model(&CampaignModel{}).
		Where("id = ? AND user_id = ? AND active", id, userID).
		Update("active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// BeginSending claims a campaign for dispatch. Only one claim can win; a
// second send attempt on the same campaign gets ErrConflict.
func (r *GormCampaignRepo) BeginSending(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&CampaignModel{}).
		Where("id = ? AND active AND status IN ?", id, []domain.CampaignStatus{domain.CampaignStatusDraft, domain.CampaignStatusFailed}).
		Update("status", domain.CampaignStatusSending)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrConflict
	}
	return nil
}

func (r *GormCampaignRepo) MarkCompleted(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&CampaignModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":  domain.CampaignStatusCompleted,
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

func (r *GormCampaignRepo) MarkFailed(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).
		Model(&CampaignModel{}).
		Where("id = ?", id).
		Update("status", domain.CampaignStatusFailed)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
