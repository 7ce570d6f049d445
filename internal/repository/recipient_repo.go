package repository

import (
	"context"
	"errors"

	"github.com/kursadbilgin/campaign-engine/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RecipientRepository interface {
	Create(ctx context.Context, recipient *domain.Recipient) error
	CreateBatch(ctx context.Context, recipients []*domain.Recipient) error
	GetByID(ctx context.Context, userID, id string) (*domain.Recipient, error)
	List(ctx context.Context, userID string, page, pageSize int) ([]domain.Recipient, int64, error)
	Update(ctx context.Context, recipient *domain.Recipient) error
	Deactivate(ctx context.Context, userID, id string) error
	DeactivateBatch(ctx context.Context, userID string, ids []string) (int64, error)
	Attach(ctx context.Context, pairs []*domain.CampaignRecipient) error
	Detach(ctx context.Context, campaignID, recipientID string) error
	ListActiveByCampaign(ctx context.Context, campaignID string) ([]domain.Recipient, error)
}

type GormRecipientRepo struct {
	db *gorm.DB
}

func NewGormRecipientRepo(db *gorm.DB) *GormRecipientRepo {
	return &GormRecipientRepo{db: db}
}

func (r *GormRecipientRepo) Create(ctx context.Context, recipient *domain.Recipient) error {
	model := recipientModelFromDomain(recipient)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if recipient != nil {
		*recipient = *recipientModelToDomain(model)
	}
	return nil
}

func (r *GormRecipientRepo) CreateBatch(ctx context.Context, recipients []*domain.Recipient) error {
	models := make([]RecipientModel, 0, len(recipients))
	modelIndexes := make([]int, 0, len(recipients))
	for i, recipient := range recipients {
		model := recipientModelFromDomain(recipient)
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
		if idx < len(recipients) && recipients[idx] != nil {
			*recipients[idx] = *recipientModelToDomain(&models[i])
		}
	}

	return nil
}

func (r *GormRecipientRepo) GetByID(ctx context.Context, userID, id string) (*domain.Recipient, error) {
	var model RecipientModel
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ? AND active", id, userID).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return recipientModelToDomain(&model), nil
}

func (r *GormRecipientRepo) List(ctx context.Context, userID string, page, pageSize int) ([]domain.Recipient, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&RecipientModel{}).
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

	var models []RecipientModel
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	recipients := make([]domain.Recipient, 0, len(models))
	for i := range models {
		recipients = append(recipients, *recipientModelToDomain(&models[i]))
	}

	return recipients, total, nil
}

func (r *GormRecipientRepo) Update(ctx context.Context, recipient *domain.Recipient) error {
	result := r.db.WithContext(ctx).
		Model(&RecipientModel{}).
		Where("id = ? AND user_id = ? AND active", recipient.ID, recipient.UserID).
		Updates(map[string]any{
			"email":         recipient.Email,
			"first_name":    recipient.FirstName,
			"last_name":     recipient.LastName,
			"company":       recipient.Company,
			"position":      recipient.Position,
			"custom_fields": recipientModelFromDomain(recipient).CustomFields,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Deactivate is a soft delete so tracking history keeps a valid reference.
func (r *GormRecipientRepo) Deactivate(ctx context.Context, userID, id string) error {
	result := r.db.WithContext(ctx).
		Model(&RecipientModel{}).
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

// DeactivateBatch soft-deletes the given recipients and drops their campaign
// attachments in one transaction. Unknown ids are skipped; the count of
// recipients actually deactivated is returned.
func (r *GormRecipientRepo) DeactivateBatch(ctx context.Context, userID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	var deactivated int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&RecipientModel{}).
			Where("id IN ? AND user_id = ? AND active", ids, userID).
			Update("active", false)
		if result.Error != nil {
			return result.Error
		}
		deactivated = result.RowsAffected

		return tx.Model(&CampaignRecipientModel{}).
			Where("recipient_id IN ? AND active", ids).
			Update("active", false).Error
	})
	if err != nil {
		return 0, err
	}

	return deactivated, nil
}

// Attach adds recipients to a campaign, reactivating a previously detached
// pair instead of inserting a duplicate.
func (r *GormRecipientRepo) Attach(ctx context.Context, pairs []*domain.CampaignRecipient) error {
	models := make([]CampaignRecipientModel, 0, len(pairs))
	for _, pair := range pairs {
		model := campaignRecipientModelFromDomain(pair)
		if model != nil {
			models = append(models, *model)
		}
	}

	if len(models) == 0 {
		return nil
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "campaign_id"}, {Name: "recipient_id"}},
			DoUpdates: clause.Assignments(map[string]any{"active": true}),
		}).
		CreateInBatches(&models, 100).Error
}

func (r *GormRecipientRepo) Detach(ctx context.Context, campaignID, recipientID string) error {
	result := r.db.WithContext(ctx).
		Model(&CampaignRecipientModel{}).
		Where("campaign_id = ? AND recipient_id = ? AND active", campaignID, recipientID).
		Update("active", false)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListActiveByCampaign resolves the recipients a dispatch run will target:
// attached to the campaign, with both the pair and the recipient still active.
func (r *GormRecipientRepo) ListActiveByCampaign(ctx context.Context, campaignID string) ([]domain.Recipient, error) {
	var models []RecipientModel
	err := r.db.WithContext(ctx).
		Model(&RecipientModel{}).
		Joins("JOIN campaign_recipients ON campaign_recipients.recipient_id = recipients.id").
		Where("campaign_recipients.campaign_id = ? AND campaign_recipients.active AND recipients.active", campaignID).
		Order("recipients.created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	recipients := make([]domain.Recipient, 0, len(models))
	for i := range models {
		recipients = append(recipients, *recipientModelToDomain(&models[i]))
	}

	return recipients, nil
}
