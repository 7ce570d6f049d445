package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/campaign-engine/internal/domain"
)

type TemplateService interface {
	Create(ctx context.Context, template *domain.Template) (*domain.Template, error)
	GetByID(ctx context.Context, userID, id string) (*domain.Template, error)
	List(ctx context.Context, userID string, page, pageSize int) ([]domain.Template, int64, error)
	Update(ctx context.Context, template *domain.Template) (*domain.Template, error)
	Delete(ctx context.Context, userID, id string) error
}

type TemplateHandler struct {
	service TemplateService
}

func NewTemplateHandler(service TemplateService) (*TemplateHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("template service is required")
	}
	return &TemplateHandler{service: service}, nil
}

func RegisterTemplateRoutes(router fiber.Router, service TemplateService) error {
	h, err := NewTemplateHandler(service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/templates", h.CreateTemplate)
	v1.Get("/templates", h.ListTemplates)
	v1.Get("/templates/:id", h.GetTemplate)
	v1.Put("/templates/:id", h.UpdateTemplate)
	v1.Delete("/templates/:id", h.DeleteTemplate)

	return nil
}

type templateRequest struct {
	Name        string  `json:"name"`
	CampaignID  *string `json:"campaignId,omitempty"`
	HTMLContent string  `json:"htmlContent"`
	TextContent string  `json:"textContent,omitempty"`
}

type templateResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	CampaignID  *string   `json:"campaignId,omitempty"`
	HTMLContent string    `json:"htmlContent"`
	TextContent string    `json:"textContent,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty"`
}

type listTemplatesResponse struct {
	Data []templateResponse `json:"data"`
	Meta listMeta           `json:"meta"`
}

func (h *TemplateHandler) CreateTemplate(c *fiber.Ctx) error {
	userID, err := requestUserID(c)
	if err != nil {
		return toHTTPError(err)
	}

	var req templateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	template := requestToDomainTemplate(req, userID)
	created, err := h.service.Create(c.Context(), &template)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(toTemplateResponse(created))
}

func (h *TemplateHandler) ListTemplates(c *fiber.Ctx) error {
	userID, err := requestUserID(c)
	if err != nil {
		return toHTTPError(err)
	}

	page := c.QueryInt("page", defaultPage)
	pageSize := c.QueryInt("pageSize", defaultPageSize)
	if page < 1 {
		return toHTTPError(fmt.Errorf("%w: page must be >= 1", domain.ErrValidation))
	}
	if pageSize < 1 || pageSize > maxPageSize {
		return toHTTPError(fmt.Errorf("%w: pageSize must be between 1 and %d", domain.ErrValidation, maxPageSize))
	}

	templates, total, err := h.service.List(c.Context(), userID, page, pageSize)
	if err != nil {
		return toHTTPError(err)
	}

	responses := make([]templateResponse, 0, len(templates))
	for i := range templates {
		responses = append(responses, toTemplateResponse(&templates[i]))
	}

	return c.Status(fiber.StatusOK).JSON(listTemplatesResponse{
		Data: responses,
		Meta: listMeta{
			Page:     page,
			PageSize: pageSize,
			Total:    total,
		},
	})
}

func (h *TemplateHandler) GetTemplate(c *fiber.Ctx) error {
	userID, err := requestUserID(c)
	if err != nil {
		return toHTTPError(err)
	}

	template, err := h.service.GetByID(c.Context(), userID, strings.TrimSpace(c.Params("id")))
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toTemplateResponse(template))
}

func (h *TemplateHandler) UpdateTemplate(c *fiber.Ctx) error {
	userID, err := requestUserID(c)
	if err != nil {
		return toHTTPError(err)
	}

	var req templateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	template := requestToDomainTemplate(req, userID)
	template.ID = strings.TrimSpace(c.Params("id"))

	updated, err := h.service.Update(c.Context(), &template)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toTemplateResponse(updated))
}

func (h *TemplateHandler) DeleteTemplate(c *fiber.Ctx) error {
	userID, err := requestUserID(c)
	if err != nil {
		return toHTTPError(err)
	}

	if err := h.service.Delete(c.Context(), userID, strings.TrimSpace(c.Params("id"))); err != nil {
		return toHTTPError(err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func requestToDomainTemplate(req templateRequest, userID string) domain.Template {
	template := domain.Template{
		UserID:      userID,
		Name:        strings.TrimSpace(req.Name),
		HTMLContent: req.HTMLContent,
		TextContent: req.TextContent,
	}
	if req.CampaignID != nil && strings.TrimSpace(*req.CampaignID) != "" {
		campaignID := strings.TrimSpace(*req.CampaignID)
		template.CampaignID = &campaignID
	}
	return template
}

func toTemplateResponse(template *domain.Template) templateResponse {
	if template == nil {
		return templateResponse{}
	}

	return templateResponse{
		ID:          template.ID,
		Name:        template.Name,
		CampaignID:  template.CampaignID,
		HTMLContent: template.HTMLContent,
		TextContent: template.TextContent,
		CreatedAt:   template.CreatedAt,
		UpdatedAt:   template.UpdatedAt,
	}
}
