package handler

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/campaign-engine/internal/service"
)

type DashboardService interface {
	Overview(ctx context.Context, userID string) (*service.DashboardOverview, error)
}

type DashboardHandler struct {
	service DashboardService
}

type dashboardOverviewResponse struct {
	CampaignCount    int64                 `json:"campaignCount"`
	RecipientCount   int64                 `json:"recipientCount"`
	Stats            campaignStatsResponse `json:"stats"`
	RecentCampaigns  []campaignResponse    `json:"recentCampaigns"`
	RecentRecipients []recipientResponse   `json:"recentRecipients"`
}

// RegisterDashboardRoutes exposes the account-level engagement roll-up.
func RegisterDashboardRoutes(router fiber.Router, svc DashboardService) error {
	if svc == nil {
		return fmt.Errorf("dashboard service is required")
	}

	h := &DashboardHandler{service: svc}

	v1 := router.Group("/v1")
	v1.Get("/dashboard", h.GetOverview)

	return nil
}

func (h *DashboardHandler) GetOverview(c *fiber.Ctx) error {
	userID, err := requestUserID(c)
	if err != nil {
		return toHTTPError(err)
	}

	overview, err := h.service.Overview(c.Context(), userID)
	if err != nil {
		return toHTTPError(err)
	}

	campaigns := make([]campaignResponse, 0, len(overview.RecentCampaigns))
	for i := range overview.RecentCampaigns {
		campaigns = append(campaigns, toCampaignResponse(&overview.RecentCampaigns[i]))
	}

	recipients := make([]recipientResponse, 0, len(overview.RecentRecipients))
	for i := range overview.RecentRecipients {
		recipients = append(recipients, toRecipientResponse(&overview.RecentRecipients[i]))
	}

	return c.Status(fiber.StatusOK).JSON(dashboardOverviewResponse{
		CampaignCount:  overview.CampaignCount,
		RecipientCount: overview.RecipientCount,
		Stats: campaignStatsResponse{
			SentCount:    overview.Stats.SentCount,
			OpenedCount:  overview.Stats.OpenedCount,
			ClickedCount: overview.Stats.ClickedCount,
			RepliedCount: overview.Stats.RepliedCount,
			BouncedCount: overview.Stats.BouncedCount,
			OpenRate:     overview.Stats.OpenRate(),
			ClickRate:    overview.Stats.ClickRate(),
			ReplyRate:    overview.Stats.ReplyRate(),
		},
		RecentCampaigns:  campaigns,
		RecentRecipients: recipients,
	})
}
