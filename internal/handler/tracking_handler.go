package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// pixelGIF is a 1x1 transparent GIF, served for every open-tracking request
// regardless of whether the pixel id resolved.
var pixelGIF = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, 0x01, 0x00, 0x01, 0x00, 0x80, 0x00,
	0x00, 0xff, 0xff, 0xff, 0x00, 0x00, 0x00, 0x2c, 0x00, 0x00, 0x00, 0x00,
	0x01, 0x00, 0x01, 0x00, 0x00, 0x02, 0x02, 0x44, 0x01, 0x00, 0x3b,
}

type TrackingService interface {
	HandleOpen(ctx context.Context, pixelID string)
	HandleBeacon(ctx context.Context, pixelID string)
	HandleClick(ctx context.Context, trackingID, linkID string) string
	HandleBounce(ctx context.Context, pixelID, reason string)
}

type TrackingHandler struct {
	service TrackingService
}

func NewTrackingHandler(service TrackingService) (*TrackingHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("tracking service is required")
	}
	return &TrackingHandler{service: service}, nil
}

// RegisterTrackingRoutes mounts the recipient-facing endpoints. These are
// unauthenticated: they are hit by mail clients and browsers following links
// from delivered emails.
func RegisterTrackingRoutes(router fiber.Router, service TrackingService) error {
	h, err := NewTrackingHandler(service)
	if err != nil {
		return err
	}

	track := router.Group("/track")
	track.Get("/open/:pixelId", h.TrackOpen)
	track.Get("/beacon/:pixelId", h.TrackBeacon)
	track.Get("/click/:trackingId/:linkId", h.TrackClick)
	track.Post("/bounce", h.TrackBounce)

	return nil
}

func (h *TrackingHandler) TrackOpen(c *fiber.Ctx) error {
	h.service.HandleOpen(c.Context(), strings.TrimSpace(c.Params("pixelId")))
	return servePixel(c)
}

func (h *TrackingHandler) TrackBeacon(c *fiber.Ctx) error {
	h.service.HandleBeacon(c.Context(), strings.TrimSpace(c.Params("pixelId")))
	return servePixel(c)
}

func (h *TrackingHandler) TrackClick(c *fiber.Ctx) error {
	trackingID := strings.TrimSpace(c.Params("trackingId"))
	linkID := strings.TrimSpace(c.Params("linkId"))

	destination := h.service.HandleClick(c.Context(), trackingID, linkID)
	return c.Redirect(destination, fiber.StatusFound)
}

type bounceRequest struct {
	PixelID string `json:"pixelId"`
	Reason  string `json:"reason,omitempty"`
}

func (h *TrackingHandler) TrackBounce(c *fiber.Ctx) error {
	var req bounceRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.PixelID) == "" {
		return fiber.NewError(fiber.StatusBadRequest, "pixelId is required")
	}

	h.service.HandleBounce(c.Context(), strings.TrimSpace(req.PixelID), strings.TrimSpace(req.Reason))
	return c.SendStatus(fiber.StatusAccepted)
}

func servePixel(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "image/gif")
	c.Set(fiber.HeaderCacheControl, "no-store, no-cache, must-revalidate, max-age=0")
	c.Set(fiber.HeaderPragma, "no-cache")
	c.Set(fiber.HeaderExpires, "0")
	return c.Status(fiber.StatusOK).Send(pixelGIF)
}
