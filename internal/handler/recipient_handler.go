package handler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/campaign-engine/internal/domain"
)

type RecipientService interface {
	Create(ctx context.Context, recipient *domain.Recipient) (*domain.Recipient, error)
	CreateBatch(ctx context.Context, recipients []*domain.Recipient) ([]*domain.Recipient, error)
	GetByID(ctx context.Context, userID, id string) (*domain.Recipient, error)
	List(ctx context.Context, userID string, page, pageSize int) ([]domain.Recipient, int64, error)
	Update(ctx context.Context, recipient *domain.Recipient) (*domain.Recipient, error)
	Delete(ctx context.Context, userID, id string) error
	DeleteBatch(ctx context.Context, userID string, ids []string) (int64, error)
	Attach(ctx context.Context, userID, campaignID string, recipientIDs []string) error
	Detach(ctx context.Context, userID, campaignID, recipientID string) error
}

type RecipientHandler struct {
	service RecipientService
}

func NewRecipientHandler(service RecipientService) (*RecipientHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("recipient service is required")
	}
	return &RecipientHandler{service: service}, nil
}

func RegisterRecipientRoutes(router fiber.Router, service RecipientService) error {
	h, err := NewRecipientHandler(service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/recipients", h.CreateRecipient)
	v1.Post("/recipients/batch", h.CreateRecipientBatch)
	v1.Post("/recipients/batch-delete", h.DeleteRecipientBatch)
	v1.Get("/recipients", h.ListRecipients)
	v1.Get("/recipients/:id", h.GetRecipient)
	v1.Put("/recipients/:id", h.UpdateRecipient)
	v1.Delete("/recipients/:id", h.DeleteRecipient)
	v1.Post("/campaigns/:id/recipients", h.AttachRecipients)
	v1.Delete("/campaigns/:id/recipients/:recipientId", h.DetachRecipient)

	return nil
}

type recipientRequest struct {
	Email        string            `json:"email"`
	FirstName    string            `json:"firstName"`
	LastName     string            `json:"lastName"`
	Company      string            `json:"company"`
	Position     string            `json:"position"`
	CustomFields map[string]string `json:"customFields,omitempty"`
}

type recipientBatchRequest struct {
	Recipients []recipientRequest `json:"recipients"`
}

type attachRecipientsRequest struct {
	RecipientIDs []string `json:"recipientIds"`
}

type recipientResponse struct {
	ID           string            `json:"id"`
	Email        string            `json:"email"`
	FirstName    string            `json:"firstName,omitempty"`
	LastName     string            `json:"lastName,omitempty"`
	Company      string            `json:"company,omitempty"`
	Position     string            `json:"position,omitempty"`
	CustomFields map[string]string `json:"customFields,omitempty"`
	CreatedAt    time.Time         `json:"createdAt,omitempty"`
	UpdatedAt    time.Time         `json:"updatedAt,omitempty"`
}

type listRecipientsResponse struct {
	Data []recipientResponse `json:"data"`
	Meta listMeta            `json:"meta"`
}

func (h *RecipientHandler) CreateRecipient(c *fiber.Ctx) error {
	userID, err := requestUserID(c)
	if err != nil {
		return toHTTPError(err)
	}

	var req recipientRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	recipient := requestToDomainRecipient(req, userID)
	created, err := h.service.Create(c.Context(), &recipient)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(toRecipientResponse(created))
}

func (h *RecipientHandler) CreateRecipientBatch(c *fiber.Ctx) error {
	userID, err := requestUserID(c)
	if err != nil {
		return toHTTPError(err)
	}

	var req recipientBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if len(req.Recipients) == 0 {
		return toHTTPError(fmt.Errorf("%w: recipients is required", domain.ErrValidation))
	}

	recipients := make([]*domain.Recipient, 0, len(req.Recipients))
	for _, item := range req.Recipients {
		recipient := requestToDomainRecipient(item, userID)
		recipients = append(recipients, &recipient)
	}

	created, err := h.service.CreateBatch(c.Context(), recipients)
	if err != nil {
		return toHTTPError(err)
	}

	responses := make([]recipientResponse, 0, len(created))
	for _, recipient := range created {
		responses = append(responses, toRecipientResponse(recipient))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"recipients": responses,
		"totalCount": len(responses),
	})
}

func (h *RecipientHandler) ListRecipients(c *fiber.Ctx) error {
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

	recipients, total, err := h.service.List(c.Context(), userID, page, pageSize)
	if err != nil {
		return toHTTPError(err)
	}

	responses := make([]recipientResponse, 0, len(recipients))
	for i := range recipients {
		responses = append(responses, toRecipientResponse(&recipients[i]))
	}

	return c.Status(fiber.StatusOK).JSON(listRecipientsResponse{
		Data: responses,
		Meta: listMeta{
			Page:     page,
			PageSize: pageSize,
			Total:    total,
		},
	})
}

func (h *RecipientHandler) GetRecipient(c *fiber.Ctx) error {
	userID, err := requestUserID(c)
	if err != nil {
		return toHTTPError(err)
	}

	recipient, err := h.service.GetByID(c.Context(), userID, strings.TrimSpace(c.Params("id")))
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toRecipientResponse(recipient))
}

func (h *RecipientHandler) UpdateRecipient(c *fiber.Ctx) error {
	userID, err := requestUserID(c)
	if err != nil {
		return toHTTPError(err)
	}

	var req recipientRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	recipient := requestToDomainRecipient(req, userID)
	recipient.ID = strings.TrimSpace(c.Params("id"))

	updated, err := h.service.Update(c.Context(), &recipient)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toRecipientResponse(updated))
}

func (h *RecipientHandler) DeleteRecipient(c *fiber.Ctx) error {
	userID, err := requestUserID(c)
	if err != nil {
		return toHTTPError(err)
	}

	if err := h.service.Delete(c.Context(), userID, strings.TrimSpace(c.Params("id"))); err != nil {
		return toHTTPError(err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

type deleteRecipientBatchRequest struct {
	RecipientIDs []string `json:"recipientIds"`
}

func (h *RecipientHandler) DeleteRecipientBatch(c *fiber.Ctx) error {
	userID, err := requestUserID(c)
	if err != nil {
		return toHTTPError(err)
	}

	var req deleteRecipientBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	deleted, err := h.service.DeleteBatch(c.Context(), userID, req.RecipientIDs)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"deletedCount": deleted,
	})
}

func (h *RecipientHandler) AttachRecipients(c *fiber.Ctx) error {
	userID, err := requestUserID(c)
	if err != nil {
		return toHTTPError(err)
	}

	var req attachRecipientsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if len(req.RecipientIDs) == 0 {
		return toHTTPError(fmt.Errorf("%w: recipientIds is required", domain.ErrValidation))
	}

	campaignID := strings.TrimSpace(c.Params("id"))
	if err := h.service.Attach(c.Context(), userID, campaignID, req.RecipientIDs); err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"campaignId":    campaignID,
		"attachedCount": len(req.RecipientIDs),
	})
}

func (h *RecipientHandler) DetachRecipient(c *fiber.Ctx) error {
	userID, err := requestUserID(c)
	if err != nil {
		return toHTTPError(err)
	}

	campaignID := strings.TrimSpace(c.Params("id"))
	recipientID := strings.TrimSpace(c.Params("recipientId"))
	if err := h.service.Detach(c.Context(), userID, campaignID, recipientID); err != nil {
		return toHTTPError(err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func requestToDomainRecipient(req recipientRequest, userID string) domain.Recipient {
	return domain.Recipient{
		UserID:       userID,
		Email:        strings.TrimSpace(req.Email),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Company:      strings.TrimSpace(req.Company),
		Position:     strings.TrimSpace(req.Position),
		CustomFields: req.CustomFields,
	}
}

func toRecipientResponse(recipient *domain.Recipient) recipientResponse {
	if recipient == nil {
		return recipientResponse{}
	}

	return recipientResponse{
		ID:           recipient.ID,
		Email:        recipient.Email,
		FirstName:    recipient.FirstName,
		LastName:     recipient.LastName,
		Company:      recipient.Company,
		Position:     recipient.Position,
		CustomFields: recipient.CustomFields,
		CreatedAt:    recipient.CreatedAt,
		UpdatedAt:    recipient.UpdatedAt,
	}
}
