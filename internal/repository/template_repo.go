package repository

import (
	"context"
	"errors"

	"github.com/kursadbilgin/campaign-engine/internal/domain"
	"gorm.io/gorm"
)

type TemplateRepository interface {
	Create(ctx context.Context, template *domain.Template) error
	GetByID(ctx context.Context, userID, id string) (*domain.Template, error)
	GetByCampaign(ctx context.Context, campaignID string) (*domain.Template, error)
	List(ctx context.Context, userID string, page, pageSize int) ([]domain.Template, int64, error)
	Update(ctx context.Context, template *domain.Template) error
	Deactivate(ctx context.Context, userID, id string) error
}

type GormTemplateRepo struct {
	db *gorm.DB
}

func NewGormTemplateRepo(db *gorm.DB) *GormTemplateRepo {
	return &GormTemplateRepo{db: db}
}

func (r *GormTemplateRepo) Create(ctx context.Context, template *domain.Template) error {
	model := templateModelFromDomain(template)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if template != nil {
		*template = *templateModelToDomain(model)
	}
	return nil
}

func (r *GormTemplateRepo) GetByID(ctx context.Context, userID, id string) (*domain.Template, error) {
	var model TemplateModel
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ? AND active", id, userID).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return templateModelToDomain(&model), nil
}

// GetByCampaign returns the newest active template bound to a campaign. The
// dispatcher reads through this exactly once per run.
func (r *GormTemplateRepo) GetByCampaign(ctx context.Context, campaignID string) (*domain.Template, error) {
	var model TemplateModel
	err := r.db.WithContext(ctx).
		Where("campaign_id = ? AND active", campaignID).
		Order("created_at DESC").
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return templateModelToDomain(&model), nil
}

func (r *GormTemplateRepo) List(ctx context.Context, userID string, page, pageSize int) ([]domain.Template, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&TemplateModel{}).
		Where("user_id = ? AND active", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page = max(page, 1)
	if pageSize < 1 {
		pageSize = 50
	}
	pageSize = min(pageSize, 100)

	var models []TemplateModel
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	templates := make([]domain.Template, 0, len(models))
	for i := range models {
		templates = append(templates, *templateModelToDomain(&models[i]))
	}

	return templates, total, nil
}

func (r *GormTemplateRepo) Update(ctx context.Context, template *domain.Template) error {
	result := r.db.WithContext(ctx).
		Model(&TemplateModel{}).
		Where("id = ? AND user_id = ? AND active", template.ID, template.UserID).
		Updates(map[string]any{
			"name":         template.Name,
			"campaign_id":  template.CampaignID,
			"html_content": template.HTMLContent,
			"text_content": template.TextContent,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *GormTemplateRepo) Deactivate(ctx context.Context, userID, id string) error {
	result := r.db.WithContext(ctx).
		Model(&TemplateModel{}).
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
