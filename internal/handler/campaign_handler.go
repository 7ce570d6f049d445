package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/campaign-engine/internal/domain"
	"github.com/kursadbilgin/campaign-engine/internal/repository"
	"github.com/kursadbilgin/campaign-engine/internal/service"
)

const (
	defaultPage     = 1
	defaultPageSize = 50
	maxPageSize     = 100

	userIDHeader = "X-User-ID"
)

type CampaignService interface {
	Create(ctx context.Context, campaign *domain.Campaign) (*domain.Campaign, error)
	GetByID(ctx context.Context, userID, id string) (*domain.Campaign, error)
	List(ctx context.Context, userID string, params repository.CampaignListParams) ([]domain.Campaign, int64, error)
	Update(ctx context.Context, campaign *domain.Campaign) (*domain.Campaign, error)
	Delete(ctx context.Context, userID, id string) error
	RequestSend(ctx context.Context, userID, campaignID string, testMode bool) error
	MarkReplied(ctx context.Context, userID, campaignID, recipientID string) error
	Dashboard(ctx context.Context, userID, campaignID string) (*service.CampaignDashboard, error)
}

type CampaignHandler struct {
	service CampaignService
}

func NewCampaignHandler(service CampaignService) (*CampaignHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("campaign service is required")
	}
	return &CampaignHandler{service: service}, nil
}

func RegisterCampaignRoutes(router fiber.Router, service CampaignService) error {
	h, err := NewCampaignHandler(service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/campaigns", h.CreateCampaign)
	v1.Get("/campaigns", h.ListCampaigns)
	v1.Get("/campaigns/:id", h.GetCampaign)
	v1.Put("/campaigns/:id", h.UpdateCampaign)
	v1.Delete("/campaigns/:id", h.DeleteCampaign)
	v1.Post("/campaigns/:id/send", h.SendCampaign)
	v1.Post("/campaigns/:id/mark-replied", h.MarkReplied)
	v1.Get("/campaigns/:id/dashboard", h.GetDashboard)

	return nil
}

type campaignRequest struct {
	Name         string     `json:"name"`
	SubjectLine  string     `json:"subjectLine"`
	FromName     string     `json:"fromName"`
	FromEmail    string     `json:"fromEmail"`
	ReplyToEmail string     `json:"replyToEmail"`
	ScheduledAt  *time.Time `json:"scheduledAt,omitempty"`
}

type sendCampaignRequest struct {
	TestMode bool `json:"testMode"`
}

type markRepliedRequest struct {
	RecipientID string `json:"recipientId"`
}

type campaignResponse struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	SubjectLine  string     `json:"subjectLine"`
	FromName     string     `json:"fromName"`
	FromEmail    string     `json:"fromEmail"`
	ReplyToEmail string     `json:"replyToEmail"`
	Status       string     `json:"status"`
	ScheduledAt  *time.Time `json:"scheduledAt,omitempty"`
	SentAt       *time.Time `json:"sentAt,omitempty"`
	CreatedAt    time.Time  `json:"createdAt,omitempty"`
	UpdatedAt    time.Time  `json:"updatedAt,omitempty"`
}

type listCampaignsResponse struct {
	Data []campaignResponse `json:"data"`
	Meta listMeta           `json:"meta"`
}

type listMeta struct {
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
	Total    int64 `json:"total"`
}

type campaignStatsResponse struct {
	SentCount    int     `json:"sentCount"`
	OpenedCount  int     `json:"openedCount"`
	ClickedCount int     `json:"clickedCount"`
	RepliedCount int     `json:"repliedCount"`
	BouncedCount int     `json:"bouncedCount"`
	OpenRate     float64 `json:"openRate"`
	ClickRate    float64 `json:"clickRate"`
	ReplyRate    float64 `json:"replyRate"`
}

type trackingRecordResponse struct {
	ID          string     `json:"id"`
	RecipientID string     `json:"recipientId"`
	Status      string     `json:"status"`
	SentAt      *time.Time `json:"sentAt,omitempty"`
	OpenedAt    *time.Time `json:"openedAt,omitempty"`
	ClickedAt   *time.Time `json:"clickedAt,omitempty"`
	RepliedAt   *time.Time `json:"repliedAt,omitempty"`
	BouncedAt   *time.Time `json:"bouncedAt,omitempty"`
	OpenCount   int        `json:"openCount"`
	ClickCount  int        `json:"clickCount"`
}

type dashboardResponse struct {
	Campaign campaignResponse         `json:"campaign"`
	Stats    campaignStatsResponse    `json:"stats"`
	Records  []trackingRecordResponse `json:"records"`
}

func (h *CampaignHandler) CreateCampaign(c *fiber.Ctx) error {
	userID, err := requestUserID(c)
	if err != nil {
		return toHTTPError(err)
	}

	var req campaignRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	campaign := requestToDomainCampaign(req, userID)
	created, err := h.service.Create(c.Context(), &campaign)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(toCampaignResponse(created))
}

func (h *CampaignHandler) ListCampaigns(c *fiber.Ctx) error {
	userID, err := requestUserID(c)
	if err != nil {
		return toHTTPError(err)
	}

	params, err := parseCampaignListParams(c)
	if err != nil {
		return toHTTPError(err)
	}

	campaigns, total, err := h.service.List(c.Context(), userID, params)
	if err != nil {
		return toHTTPError(err)
	}

	responses := make([]campaignResponse, 0, len(campaigns))
	for i := range campaigns {
		responses = append(responses, toCampaignResponse(&campaigns[i]))
	}

	return c.Status(fiber.StatusOK).JSON(listCampaignsResponse{
		Data: responses,
		Meta: listMeta{
			Page:     params.Page,
			PageSize: params.PageSize,
			Total:    total,
		},
	})
}

func (h *CampaignHandler) GetCampaign(c *fiber.Ctx) error {
	userID, err := requestUserID(c)
	if err != nil {
		return toHTTPError(err)
	}

	campaign, err := h.service.GetByID(c.Context(), userID, strings.TrimSpace(c.Params("id")))
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toCampaignResponse(campaign))
}

func (h *CampaignHandler) UpdateCampaign(c *fiber.Ctx) error {
	userID, err := requestUserID(c)
	if err != nil {
		return toHTTPError(err)
	}

	var req campaignRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	campaign := requestToDomainCampaign(req, userID)
	campaign.ID = strings.TrimSpace(c.Params("id"))

	updated, err := h.service.Update(c.Context(), &campaign)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toCampaignResponse(updated))
}

func (h *CampaignHandler) DeleteCampaign(c *fiber.Ctx) error {
	userID, err := requestUserID(c)
	if err != nil {
		return toHTTPError(err)
	}

	if err := h.service.Delete(c.Context(), userID, strings.TrimSpace(c.Params("id"))); err != nil {
		return toHTTPError(err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *CampaignHandler) SendCampaign(c *fiber.Ctx) error {
	userID, err := requestUserID(c)
	if err != nil {
		return toHTTPError(err)
	}

	var req sendCampaignRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
	}

	campaignID := strings.TrimSpace(c.Params("id"))
	if err := h.service.RequestSend(c.Context(), userID, campaignID, req.TestMode); err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"campaignId": campaignID,
		"testMode":   req.TestMode,
	})
}

func (h *CampaignHandler) MarkReplied(c *fiber.Ctx) error {
	userID, err := requestUserID(c)
	if err != nil {
		return toHTTPError(err)
	}

	var req markRepliedRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.RecipientID) == "" {
		return toHTTPError(fmt.Errorf("%w: recipientId is required", domain.ErrValidation))
	}

	campaignID := strings.TrimSpace(c.Params("id"))
	if err := h.service.MarkReplied(c.Context(), userID, campaignID, strings.TrimSpace(req.RecipientID)); err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"campaignId":  campaignID,
		"recipientId": req.RecipientID,
		"status":      domain.EngagementReplied.String(),
	})
}

func (h *CampaignHandler) GetDashboard(c *fiber.Ctx) error {
	userID, err := requestUserID(c)
	if err != nil {
		return toHTTPError(err)
	}

	dashboard, err := h.service.Dashboard(c.Context(), userID, strings.TrimSpace(c.Params("id")))
	if err != nil {
		return toHTTPError(err)
	}

	records := make([]trackingRecordResponse, 0, len(dashboard.Records))
	for i := range dashboard.Records {
		records = append(records, toTrackingRecordResponse(&dashboard.Records[i]))
	}

	return c.Status(fiber.StatusOK).JSON(dashboardResponse{
		Campaign: toCampaignResponse(&dashboard.Campaign),
		Stats: campaignStatsResponse{
			SentCount:    dashboard.Stats.SentCount,
			OpenedCount:  dashboard.Stats.OpenedCount,
			ClickedCount: dashboard.Stats.ClickedCount,
			RepliedCount: dashboard.Stats.RepliedCount,
			BouncedCount: dashboard.Stats.BouncedCount,
			OpenRate:     dashboard.Stats.OpenRate(),
			ClickRate:    dashboard.Stats.ClickRate(),
			ReplyRate:    dashboard.Stats.ReplyRate(),
		},
		Records: records,
	})
}

func parseCampaignListParams(c *fiber.Ctx) (repository.CampaignListParams, error) {
	params := repository.CampaignListParams{
		Page:     c.QueryInt("page", defaultPage),
		PageSize: c.QueryInt("pageSize", defaultPageSize),
	}

	if params.Page < 1 {
		return repository.CampaignListParams{}, fmt.Errorf("%w: page must be >= 1", domain.ErrValidation)
	}
	if params.PageSize < 1 || params.PageSize > maxPageSize {
		return repository.CampaignListParams{}, fmt.Errorf("%w: pageSize must be between 1 and %d", domain.ErrValidation, maxPageSize)
	}

	if rawStatus := strings.TrimSpace(c.Query("status")); rawStatus != "" {
		status, err := domain.ParseCampaignStatusFromString(rawStatus)
		if err != nil {
			return repository.CampaignListParams{}, err
		}
		params.Status = &status
	}

	return params, nil
}

func requestToDomainCampaign(req campaignRequest, userID string) domain.Campaign {
	return domain.Campaign{
		UserID:       userID,
		Name:         strings.TrimSpace(req.Name),
		SubjectLine:  strings.TrimSpace(req.SubjectLine),
		FromName:     strings.TrimSpace(req.FromName),
		FromEmail:    strings.TrimSpace(req.FromEmail),
		ReplyToEmail: strings.TrimSpace(req.ReplyToEmail),
		ScheduledAt:  req.ScheduledAt,
	}
}

func toCampaignResponse(campaign *domain.Campaign) campaignResponse {
	if campaign == nil {
		return campaignResponse{}
	}

	return campaignResponse{
		ID:           campaign.ID,
		Name:         campaign.Name,
		SubjectLine:  campaign.SubjectLine,
		FromName:     campaign.FromName,
		FromEmail:    campaign.FromEmail,
		ReplyToEmail: campaign.ReplyToEmail,
		Status:       campaign.Status.String(),
		ScheduledAt:  campaign.ScheduledAt,
		SentAt:       campaign.SentAt,
		CreatedAt:    campaign.CreatedAt,
		UpdatedAt:    campaign.UpdatedAt,
	}
}

func toTrackingRecordResponse(record *domain.TrackingRecord) trackingRecordResponse {
	if record == nil {
		return trackingRecordResponse{}
	}

	return trackingRecordResponse{
		ID:          record.ID,
		RecipientID: record.RecipientID,
		Status:      record.Status.String(),
		SentAt:      record.SentAt,
		OpenedAt:    record.OpenedAt,
		ClickedAt:   record.ClickedAt,
		RepliedAt:   record.RepliedAt,
		BouncedAt:   record.BouncedAt,
		OpenCount:   record.OpenCount,
		ClickCount:  record.ClickCount,
	}
}

// requestUserID resolves the acting user. Authentication proper sits in
// front of this service; the gateway forwards the verified identity here.
func requestUserID(c *fiber.Ctx) (string, error) {
	userID := strings.TrimSpace(c.Get(userIDHeader))
	if userID == "" {
		return "", fiber.NewError(fiber.StatusUnauthorized, "missing "+userIDHeader+" header")
	}
	return userID, nil
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return err
	}
}
