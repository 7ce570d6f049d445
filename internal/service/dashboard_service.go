package service

import (
	"context"
	"fmt"

	"github.com/kursadbilgin/campaign-engine/internal/domain"
	"github.com/kursadbilgin/campaign-engine/internal/repository"
	"go.uber.org/zap"
)

const dashboardRecentLimit = 5

// DashboardOverview is the account-level roll-up: totals, aggregate
// engagement across all campaigns, and the most recent activity.
type DashboardOverview struct {
	CampaignCount    int64
	RecipientCount   int64
	Stats            domain.CampaignStats
	RecentCampaigns  []domain.Campaign
	RecentRecipients []domain.Recipient
}

type DashboardService struct {
	campaigns  repository.CampaignRepository
	recipients repository.RecipientRepository
	tracking   repository.TrackingRepository
	logger     *zap.Logger
}

func NewDashboardService(
	campaigns repository.CampaignRepository,
	recipients repository.RecipientRepository,
	tracking repository.TrackingRepository,
	logger *zap.Logger,
) (*DashboardService, error) {
	if campaigns == nil {
		return nil, fmt.Errorf("campaign repository is required")
	}
	if recipients == nil {
		return nil, fmt.Errorf("recipient repository is required")
	}
	if tracking == nil {
		return nil, fmt.Errorf("tracking repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &DashboardService{
		campaigns:  campaigns,
		recipients: recipients,
		tracking:   tracking,
		logger:     logger,
	}, nil
}

func (s *DashboardService) Overview(ctx context.Context, userID string) (*DashboardOverview, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrValidation)
	}

	recentCampaigns, campaignCount, err := s.campaigns.List(ctx, userID, repository.CampaignListParams{
		Page:     1,
		PageSize: dashboardRecentLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list campaigns: %w", err)
	}

	recentRecipients, recipientCount, err := s.recipients.List(ctx, userID, 1, dashboardRecentLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recipients: %w", err)
	}

	stats, err := s.tracking.GetUserStats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate engagement stats: %w", err)
	}

	return &DashboardOverview{
		CampaignCount:    campaignCount,
		RecipientCount:   recipientCount,
		Stats:            *stats,
		RecentCampaigns:  recentCampaigns,
		RecentRecipients: recentRecipients,
	}, nil
}
