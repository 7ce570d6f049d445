package service

import (
	"context"
	"fmt"

	"github.com/kursadbilgin/campaign-engine/internal/observability"
	"github.com/kursadbilgin/campaign-engine/internal/repository"
	"go.uber.org/zap"
)

// TrackingService absorbs engagement callbacks from the wild: pixel fetches,
// beacon hits, link clicks and bounce notifications. Recipient-facing
// endpoints must never surface an error, so every failure here is logged and
// swallowed.
type TrackingService struct {
	tracking    repository.TrackingRepository
	fallbackURL string
	logger      *zap.Logger
	metrics     *observability.Metrics
}

func NewTrackingService(tracking repository.TrackingRepository, fallbackURL string, logger *zap.Logger) (*TrackingService, error) {
	if tracking == nil {
		return nil, fmt.Errorf("tracking repository is required")
	}
	if fallbackURL == "" {
		return nil, fmt.Errorf("fallback redirect URL is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &TrackingService{
		tracking:    tracking,
		fallbackURL: fallbackURL,
		logger:      logger,
	}, nil
}

func (s *TrackingService) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

// HandleOpen records a pixel fetch. Repeated fetches keep counting.
func (s *TrackingService) HandleOpen(ctx context.Context, pixelID string) {
	s.recordOpen(ctx, pixelID, "open")
}

// HandleBeacon records the delayed script beacon, which fires in clients
// that execute the tracking script after render.
func (s *TrackingService) HandleBeacon(ctx context.Context, pixelID string) {
	s.recordOpen(ctx, pixelID, "beacon")
}

func (s *TrackingService) recordOpen(ctx context.Context, pixelID, eventType string) {
	if err := s.tracking.RecordOpen(ctx, pixelID); err != nil {
		s.logger.Warn("open event dropped",
			zap.String("pixelId", pixelID),
			zap.String("eventType", eventType),
			zap.Error(err),
		)
		if s.metrics != nil {
			s.metrics.IncEngagementDropped(eventType)
		}
		return
	}

	if s.metrics != nil {
		s.metrics.IncEngagementEvent(eventType)
	}
}

// HandleClick records a click and returns the URL to redirect to. Unknown
// or mismatched identifiers redirect to the fallback so the recipient still
// lands somewhere.
func (s *TrackingService) HandleClick(ctx context.Context, trackingID, linkID string) string {
	destination, err := s.tracking.RecordClick(ctx, trackingID, linkID)
	if err != nil {
		s.logger.Warn("click event dropped",
			zap.String("trackingId", trackingID),
			zap.String("linkId", linkID),
			zap.Error(err),
		)
		if s.metrics != nil {
			s.metrics.IncEngagementDropped("click")
		}
		return s.fallbackURL
	}

	if s.metrics != nil {
		s.metrics.IncEngagementEvent("click")
	}
	return destination
}

// HandleBounce records a delivery failure report for the message behind the
// given pixel.
func (s *TrackingService) HandleBounce(ctx context.Context, pixelID, reason string) {
	if err := s.tracking.RecordBounce(ctx, pixelID, reason); err != nil {
		s.logger.Warn("bounce event dropped",
			zap.String("pixelId", pixelID),
			zap.Error(err),
		)
		if s.metrics != nil {
			s.metrics.IncEngagementDropped("bounce")
		}
		return
	}

	if s.metrics != nil {
		s.metrics.IncEngagementEvent("bounce")
	}
}
