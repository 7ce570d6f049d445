package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/kursadbilgin/campaign-engine/internal/domain"
	"github.com/kursadbilgin/campaign-engine/internal/queue"
	"github.com/kursadbilgin/campaign-engine/internal/repository"
	"go.uber.org/zap"
)

type CampaignService struct {
	campaigns repository.CampaignRepository
	tracking  repository.TrackingRepository
	publisher queue.Publisher
	logger    *zap.Logger
}

// CampaignDashboard is the per-campaign engagement roll-up.
type CampaignDashboard struct {
	Campaign domain.Campaign
	Stats    domain.CampaignStats
	Records  []domain.TrackingRecord
}

func NewCampaignService(
	campaigns repository.CampaignRepository,
	tracking repository.TrackingRepository,
	publisher queue.Publisher,
	logger *zap.Logger,
) (*CampaignService, error) {
	if campaigns == nil {
		return nil, fmt.Errorf("campaign repository is required")
	}
	if tracking == nil {
		return nil, fmt.Errorf("tracking repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &CampaignService{
		campaigns: campaigns,
		tracking:  tracking,
		publisher: publisher,
		logger:    logger,
	}, nil
}

func (s *CampaignService) Create(ctx context.Context, campaign *domain.Campaign) (*domain.Campaign, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if campaign == nil {
		return nil, fmt.Errorf("%w: campaign payload is required", domain.ErrValidation)
	}
	if err := campaign.Validate(); err != nil {
		return nil, err
	}

	campaign.ID = uuid.NewString()
	campaign.Status = domain.CampaignStatusDraft
	campaign.Active = true
	campaign.SentAt = nil

	if err := s.campaigns.Create(ctx, campaign); err != nil {
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}

	return campaign, nil
}

func (s *CampaignService) GetByID(ctx context.Context, userID, id string) (*domain.Campaign, error) {
	return s.campaigns.GetByID(ctx, userID, id)
}

func (s *CampaignService) List(ctx context.Context, userID string, params repository.CampaignListParams) ([]domain.Campaign, int64, error) {
	return s.campaigns.List(ctx, userID, params)
}

func (s *CampaignService) Update(ctx context.Context, campaign *domain.Campaign) (*domain.Campaign, error) {
	if campaign == nil {
		return nil, fmt.Errorf("%w: campaign payload is required", domain.ErrValidation)
	}
	if err := campaign.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.campaigns.GetByID(ctx, campaign.UserID, campaign.ID)
	if err != nil {
		return nil, err
	}
	// Content fields freeze once the campaign leaves draft.
	if existing.Status != domain.CampaignStatusDraft {
		return nil, fmt.Errorf("%w: campaign %s is no longer editable", domain.ErrConflict, campaign.ID)
	}

	if err := s.campaigns.Update(ctx, campaign); err != nil {
		return nil, err
	}

	return s.campaigns.GetByID(ctx, campaign.UserID, campaign.ID)
}

func (s *CampaignService) Delete(ctx context.Context, userID, id string) error {
	return s.campaigns.Deactivate(ctx, userID, id)
}

// RequestSend validates ownership and enqueues the dispatch job. The send
// itself happens on the consumer side; callers only learn that dispatch is in
// progress.
func (s *CampaignService) RequestSend(ctx context.Context, userID, campaignID string, testMode bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if s.publisher == nil {
		return fmt.Errorf("publisher is not configured")
	}

	campaign, err := s.campaigns.GetByID(ctx, userID, campaignID)
	if err != nil {
		return err
	}

	if !testMode && campaign.Status != domain.CampaignStatusDraft && campaign.Status != domain.CampaignStatusFailed {
		return fmt.Errorf("%w: campaign %s is already %s", domain.ErrConflict, campaignID, campaign.Status)
	}

	msg := queue.DispatchMessage{
		CampaignID:    campaign.ID,
		UserID:        userID,
		CorrelationID: uuid.NewString(),
		TestMode:      testMode,
	}
	if err := s.publisher.Publish(ctx, queue.DispatchQueueName, msg); err != nil {
		return fmt.Errorf("failed to enqueue dispatch: %w", err)
	}

	s.logger.Info("dispatch enqueued",
		zap.String("campaignId", campaign.ID),
		zap.Bool("testMode", testMode),
		zap.String("correlationId", msg.CorrelationID),
	)
	return nil
}

// MarkReplied is the manual override entry point into the replied transition.
func (s *CampaignService) MarkReplied(ctx context.Context, userID, campaignID, recipientID string) error {
	if _, err := s.campaigns.GetByID(ctx, userID, campaignID); err != nil {
		return err
	}
	return s.tracking.RecordReply(ctx, campaignID, recipientID)
}

func (s *CampaignService) Dashboard(ctx context.Context, userID, campaignID string) (*CampaignDashboard, error) {
	campaign, err := s.campaigns.GetByID(ctx, userID, campaignID)
	if err != nil {
		return nil, err
	}

	stats, err := s.tracking.GetCampaignStats(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to load campaign stats: %w", err)
	}

	records, err := s.tracking.ListByCampaign(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tracking records: %w", err)
	}

	return &CampaignDashboard{
		Campaign: *campaign,
		Stats:    *stats,
		Records:  records,
	}, nil
}
