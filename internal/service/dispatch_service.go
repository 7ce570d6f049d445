package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kursadbilgin/campaign-engine/internal/content"
	"github.com/kursadbilgin/campaign-engine/internal/domain"
	"github.com/kursadbilgin/campaign-engine/internal/observability"
	"github.com/kursadbilgin/campaign-engine/internal/provider"
	"github.com/kursadbilgin/campaign-engine/internal/queue"
	"github.com/kursadbilgin/campaign-engine/internal/ratelimit"
	"github.com/kursadbilgin/campaign-engine/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	minDispatchConcurrency = 1
	smtpRateScope          = "smtp"
)

// DispatchService consumes campaign send jobs and runs the per-recipient
// send loop: create tracking row, personalize, instrument, transmit, mark
// sent. Recipient failures are isolated; only a campaign-level load failure
// aborts a run.
type DispatchService struct {
	campaigns    repository.CampaignRepository
	templates    repository.TemplateRepository
	recipients   repository.RecipientRepository
	users        repository.UserRepository
	tracking     repository.TrackingRepository
	instrumentor *content.Instrumentor
	transport    provider.MailTransport
	rateLimiter  ratelimit.RateLimiter
	consumer     queue.Consumer
	logger       *zap.Logger
	metrics      *observability.Metrics
	concurrency  int
	now          func() time.Time
}

func NewDispatchService(
	campaigns repository.CampaignRepository,
	templates repository.TemplateRepository,
	recipients repository.RecipientRepository,
	users repository.UserRepository,
	tracking repository.TrackingRepository,
	instrumentor *content.Instrumentor,
	transport provider.MailTransport,
	rateLimiter ratelimit.RateLimiter,
	consumer queue.Consumer,
	concurrency int,
	logger *zap.Logger,
) (*DispatchService, error) {
	if campaigns == nil || templates == nil || recipients == nil || users == nil || tracking == nil {
		return nil, fmt.Errorf("all repositories are required")
	}
	if instrumentor == nil {
		return nil, fmt.Errorf("instrumentor is required")
	}
	if transport == nil {
		return nil, fmt.Errorf("mail transport is required")
	}
	if concurrency < minDispatchConcurrency {
		concurrency = minDispatchConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &DispatchService{
		campaigns:    campaigns,
		templates:    templates,
		recipients:   recipients,
		users:        users,
		tracking:     tracking,
		instrumentor: instrumentor,
		transport:    transport,
		rateLimiter:  rateLimiter,
		consumer:     consumer,
		logger:       logger,
		concurrency:  concurrency,
		now:          time.Now,
	}, nil
}

func (s *DispatchService) SetMetrics(metrics *observability.Metrics) {
	if s == nil {
		return
	}
	s.metrics = metrics
}

// Start consumes the dispatch queue until context cancellation.
func (s *DispatchService) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if s.consumer == nil {
		return fmt.Errorf("consumer is not configured")
	}

	g, groupCtx := errgroup.WithContext(ctx)
	for i := 0; i < s.concurrency; i++ {
		workerID := i + 1

		g.Go(func() error {
			s.logger.Info("dispatch worker started", zap.Int("workerId", workerID))

			err := s.consumer.Consume(groupCtx, queue.DispatchQueueName, s.Dispatch)
			if err != nil {
				s.logger.Error("dispatch worker stopped with error",
					zap.Int("workerId", workerID),
					zap.Error(err),
				)
				return err
			}

			s.logger.Info("dispatch worker stopped", zap.Int("workerId", workerID))
			return nil
		})
	}

	return g.Wait()
}

// Dispatch runs one campaign send job.
func (s *DispatchService) Dispatch(ctx context.Context, msg queue.DispatchMessage) error {
	if ctx == nil {
		ctx = context.Background()
	}

	logger := observability.WithContextLogger(s.logger, ctx).
		With(zap.String("campaignId", msg.CampaignID))

	campaign, err := s.campaigns.GetByID(ctx, msg.UserID, msg.CampaignID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			logger.Warn("campaign not found, dropping dispatch job")
			return nil
		}
		return fmt.Errorf("failed to load campaign: %w", err)
	}

	if msg.TestMode {
		return s.dispatchPreview(ctx, campaign, msg.UserID, logger)
	}

	return s.dispatchLive(ctx, campaign, logger)
}

// dispatchPreview sends the rendered campaign to its owner without touching
// campaign status or tracking state.
func (s *DispatchService) dispatchPreview(ctx context.Context, campaign *domain.Campaign, userID string, logger *zap.Logger) error {
	owner, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load campaign owner: %w", err)
	}

	template, err := s.templates.GetByCampaign(ctx, campaign.ID)
	if err != nil {
		return fmt.Errorf("failed to load template: %w", err)
	}

	preview := &domain.Recipient{
		Email:     owner.Email,
		FirstName: owner.FullName,
	}
	placeholderID := uuid.NewString()

	message, _ := s.buildMessage(campaign, template, preview, placeholderID, placeholderID)
	if err := s.transport.Send(ctx, message); err != nil {
		return fmt.Errorf("failed to send preview: %w", err)
	}

	logger.Info("preview sent", zap.String("to", owner.Email))
	return nil
}

func (s *DispatchService) dispatchLive(ctx context.Context, campaign *domain.Campaign, logger *zap.Logger) error {
	if err := s.campaigns.BeginSending(ctx, campaign.ID); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			logger.Warn("campaign already claimed for sending, dropping dispatch job")
			return nil
		}
		return fmt.Errorf("failed to claim campaign: %w", err)
	}

	template, err := s.templates.GetByCampaign(ctx, campaign.ID)
	if err != nil {
		s.failCampaign(ctx, campaign.ID, logger)
		return fmt.Errorf("failed to load template: %w", err)
	}

	targets, err := s.recipients.ListActiveByCampaign(ctx, campaign.ID)
	if err != nil {
		s.failCampaign(ctx, campaign.ID, logger)
		return fmt.Errorf("failed to resolve recipients: %w", err)
	}

	if s.metrics != nil {
		s.metrics.IncDispatchInFlight()
		defer s.metrics.DecDispatchInFlight()
	}
	start := s.now()

	sent := 0
	for i := range targets {
		if ctx.Err() != nil {
			break
		}
		if s.sendToRecipient(ctx, campaign, template, &targets[i], logger) {
			sent++
		}
	}

	// The campaign completes regardless of individual failures; failed
	// recipients stay visible as records below sent.
	if err := s.campaigns.MarkCompleted(ctx, campaign.ID); err != nil {
		logger.Error("failed to mark campaign completed", zap.Error(err))
	}

	if s.metrics != nil {
		s.metrics.ObserveDispatchDuration(s.now().Sub(start))
	}

	logger.Info("dispatch finished",
		zap.Int("recipients", len(targets)),
		zap.Int("sent", sent),
	)
	return nil
}

// sendToRecipient runs the full per-recipient pipeline. Returns true when the
// transport accepted the message.
func (s *DispatchService) sendToRecipient(
	ctx context.Context,
	campaign *domain.Campaign,
	template *domain.Template,
	recipient *domain.Recipient,
	logger *zap.Logger,
) bool {
	recipientLogger := logger.With(zap.String("recipientId", recipient.ID))

	record := &domain.TrackingRecord{
		ID:          uuid.NewString(),
		CampaignID:  campaign.ID,
		RecipientID: recipient.ID,
		PixelID:     uuid.NewString(),
		Status:      domain.EngagementSending,
	}
	if err := s.tracking.Create(ctx, record); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			recipientLogger.Warn("tracking record already exists, skipping recipient")
		} else {
			recipientLogger.Error("failed to create tracking record", zap.Error(err))
		}
		return false
	}

	message, links := s.buildMessage(campaign, template, recipient, record.ID, record.PixelID)

	if err := s.tracking.CreateLinks(ctx, links); err != nil {
		recipientLogger.Error("failed to persist link records", zap.Error(err))
		if s.metrics != nil {
			s.metrics.IncEmailFailed("link_persist")
		}
		return false
	}

	if s.rateLimiter != nil {
		if err := s.rateLimiter.Wait(ctx, smtpRateScope); err != nil {
			recipientLogger.Error("rate limiter wait failed", zap.Error(err))
			return false
		}
	}

	sendStart := s.now()
	err := s.transport.Send(ctx, message)
	if s.metrics != nil {
		s.metrics.ObserveEmailSendDuration(s.now().Sub(sendStart))
	}
	if err != nil {
		recipientLogger.Error("transport send failed", zap.Error(err))
		if s.metrics != nil {
			reason := "permanent_error"
			if provider.IsTransient(err) {
				reason = "transient_error"
			}
			s.metrics.IncEmailFailed(reason)
		}
		return false
	}

	// The transport confirmed delivery; from here failures only lose
	// bookkeeping, never the send itself.
	if err := s.tracking.MarkSent(ctx, record.ID); err != nil {
		recipientLogger.Error("failed to mark tracking record sent", zap.Error(err))
	}
	if s.metrics != nil {
		s.metrics.IncEmailSent()
	}

	return true
}

func (s *DispatchService) buildMessage(
	campaign *domain.Campaign,
	template *domain.Template,
	recipient *domain.Recipient,
	trackingID string,
	pixelID string,
) (provider.EmailMessage, []*domain.LinkTrackingRecord) {
	fields := recipient.PersonalizationFields()

	subject := s.instrumentor.Personalize(campaign.SubjectLine, fields)
	html := s.instrumentor.Personalize(template.HTMLContent, fields)
	text := s.instrumentor.Personalize(template.TextContent, fields)

	html, links := s.instrumentor.RewriteLinks(html, trackingID)
	html = s.instrumentor.AppendTrackingAssets(html, pixelID)

	return provider.EmailMessage{
		FromEmail: campaign.FromEmail,
		FromName:  campaign.FromName,
		To:        recipient.Email,
		ReplyTo:   campaign.ReplyToEmail,
		Subject:   subject,
		HTMLBody:  html,
		TextBody:  text,
	}, links
}

func (s *DispatchService) failCampaign(ctx context.Context, campaignID string, logger *zap.Logger) {
	if err := s.campaigns.MarkFailed(ctx, campaignID); err != nil {
		logger.Error("failed to mark campaign failed", zap.Error(err))
	}
}
