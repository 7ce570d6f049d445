package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/kursadbilgin/campaign-engine/internal/domain"
	"github.com/kursadbilgin/campaign-engine/internal/repository"
	"go.uber.org/zap"
)

const maxRecipientBatchSize = 5000

type RecipientService struct {
	recipients repository.RecipientRepository
	campaigns  repository.CampaignRepository
	logger     *zap.Logger
}

func NewRecipientService(
	recipients repository.RecipientRepository,
	campaigns repository.CampaignRepository,
	logger *zap.Logger,
) (*RecipientService, error) {
	if recipients == nil {
		return nil, fmt.Errorf("recipient repository is required")
	}
	if campaigns == nil {
		return nil, fmt.Errorf("campaign repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &RecipientService{
		recipients: recipients,
		campaigns:  campaigns,
		logger:     logger,
	}, nil
}

func (s *RecipientService) Create(ctx context.Context, recipient *domain.Recipient) (*domain.Recipient, error) {
	if recipient == nil {
		return nil, fmt.Errorf("%w: recipient payload is required", domain.ErrValidation)
	}
	if err := recipient.Validate(); err != nil {
		return nil, err
	}

	recipient.ID = uuid.NewString()
	recipient.Active = true

	if err := s.recipients.Create(ctx, recipient); err != nil {
		return nil, fmt.Errorf("failed to create recipient: %w", err)
	}

	return recipient, nil
}

func (s *RecipientService) CreateBatch(ctx context.Context, recipients []*domain.Recipient) ([]*domain.Recipient, error) {
	if len(recipients) == 0 {
		return nil, fmt.Errorf("%w: batch must include at least one recipient", domain.ErrValidation)
	}
	if len(recipients) > maxRecipientBatchSize {
		return nil, fmt.Errorf("%w: batch size exceeds %d", domain.ErrValidation, maxRecipientBatchSize)
	}

	for _, recipient := range recipients {
		if recipient == nil {
			return nil, fmt.Errorf("%w: recipient payload is required", domain.ErrValidation)
		}
		if err := recipient.Validate(); err != nil {
			return nil, err
		}
		recipient.ID = uuid.NewString()
		recipient.Active = true
	}

	if err := s.recipients.CreateBatch(ctx, recipients); err != nil {
		return nil, fmt.Errorf("failed to create recipients: %w", err)
	}

	return recipients, nil
}

func (s *RecipientService) GetByID(ctx context.Context, userID, id string) (*domain.Recipient, error) {
	return s.recipients.GetByID(ctx, userID, id)
}

func (s *RecipientService) List(ctx context.Context, userID string, page, pageSize int) ([]domain.Recipient, int64, error) {
	return s.recipients.List(ctx, userID, page, pageSize)
}

func (s *RecipientService) Update(ctx context.Context, recipient *domain.Recipient) (*domain.Recipient, error) {
	if recipient == nil {
		return nil, fmt.Errorf("%w: recipient payload is required", domain.ErrValidation)
	}
	if err := recipient.Validate(); err != nil {
		return nil, err
	}

	if err := s.recipients.Update(ctx, recipient); err != nil {
		return nil, err
	}

	return s.recipients.GetByID(ctx, recipient.UserID, recipient.ID)
}

func (s *RecipientService) Delete(ctx context.Context, userID, id string) error {
	return s.recipients.Deactivate(ctx, userID, id)
}

// DeleteBatch soft-deletes a set of recipients. Ids the caller does not own
// are skipped, so the returned count can be lower than the request size.
func (s *RecipientService) DeleteBatch(ctx context.Context, userID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, fmt.Errorf("%w: at least one recipient id is required", domain.ErrValidation)
	}
	if len(ids) > maxRecipientBatchSize {
		return 0, fmt.Errorf("%w: batch size exceeds %d", domain.ErrValidation, maxRecipientBatchSize)
	}

	return s.recipients.DeactivateBatch(ctx, userID, ids)
}

// Attach binds recipients to a campaign after verifying both belong to the
// caller.
func (s *RecipientService) Attach(ctx context.Context, userID, campaignID string, recipientIDs []string) error {
	if len(recipientIDs) == 0 {
		return fmt.Errorf("%w: at least one recipient id is required", domain.ErrValidation)
	}

	if _, err := s.campaigns.GetByID(ctx, userID, campaignID); err != nil {
		return err
	}

	pairs := make([]*domain.CampaignRecipient, 0, len(recipientIDs))
	for _, recipientID := range recipientIDs {
		if _, err := s.recipients.GetByID(ctx, userID, recipientID); err != nil {
			return fmt.Errorf("recipient %s: %w", recipientID, err)
		}
		pairs = append(pairs, &domain.CampaignRecipient{
			ID:          uuid.NewString(),
			CampaignID:  campaignID,
			RecipientID: recipientID,
			Active:      true,
		})
	}

	if err := s.recipients.Attach(ctx, pairs); err != nil {
		return fmt.Errorf("failed to attach recipients: %w", err)
	}

	return nil
}

func (s *RecipientService) Detach(ctx context.Context, userID, campaignID, recipientID string) error {
	if _, err := s.campaigns.GetByID(ctx, userID, campaignID); err != nil {
		return err
	}
	return s.recipients.Detach(ctx, campaignID, recipientID)
}
