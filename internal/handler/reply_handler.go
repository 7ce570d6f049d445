package handler

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

type ReplyScanTrigger interface {
	RunOnce(ctx context.Context)
}

// RegisterReplyRoutes exposes a manual trigger for the reply correlator, for
// operators who do not want to wait for the next scheduled scan.
func RegisterReplyRoutes(router fiber.Router, scanner ReplyScanTrigger) error {
	if scanner == nil {
		return fmt.Errorf("reply scanner is required")
	}

	v1 := router.Group("/v1")
	v1.Post("/reply-scan", func(c *fiber.Ctx) error {
		// Fire and forget: the scan carries its own timeout and skips
		// itself if a run is already active.
		go scanner.RunOnce(context.Background())
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"status": "scan_triggered",
		})
	})

	return nil
}
