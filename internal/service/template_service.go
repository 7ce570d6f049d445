package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/kursadbilgin/campaign-engine/internal/domain"
	"github.com/kursadbilgin/campaign-engine/internal/repository"
	"go.uber.org/zap"
)

type TemplateService struct {
	templates repository.TemplateRepository
	campaigns repository.CampaignRepository
	logger    *zap.Logger
}

func NewTemplateService(
	templates repository.TemplateRepository,
	campaigns repository.CampaignRepository,
	logger *zap.Logger,
) (*TemplateService, error) {
	if templates == nil {
		return nil, fmt.Errorf("template repository is required")
	}
	if campaigns == nil {
		return nil, fmt.Errorf("campaign repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &TemplateService{
		templates: templates,
		campaigns: campaigns,
		logger:    logger,
	}, nil
}

func (s *TemplateService) Create(ctx context.Context, template *domain.Template) (*domain.Template, error) {
	if template == nil {
		return nil, fmt.Errorf("%w: template payload is required", domain.ErrValidation)
	}
	if err := template.Validate(); err != nil {
		return nil, err
	}
	if template.CampaignID != nil {
		if _, err := s.campaigns.GetByID(ctx, template.UserID, *template.CampaignID); err != nil {
			return nil, fmt.Errorf("campaign %s: %w", *template.CampaignID, err)
		}
	}

	template.ID = uuid.NewString()
	template.Active = true

	if err := s.templates.Create(ctx, template); err != nil {
		return nil, fmt.Errorf("failed to create template: %w", err)
	}

	return template, nil
}

func (s *TemplateService) GetByID(ctx context.Context, userID, id string) (*domain.Template, error) {
	return s.templates.GetByID(ctx, userID, id)
}

func (s *TemplateService) List(ctx context.Context, userID string, page, pageSize int) ([]domain.Template, int64, error) {
	return s.templates.List(ctx, userID, page, pageSize)
}

func (s *TemplateService) Update(ctx context.Context, template *domain.Template) (*domain.Template, error) {
	if template == nil {
		return nil, fmt.Errorf("%w: template payload is required", domain.ErrValidation)
	}
	if err := template.Validate(); err != nil {
		return nil, err
	}
	if template.CampaignID != nil {
		if _, err := s.campaigns.GetByID(ctx, template.UserID, *template.CampaignID); err != nil {
			return nil, fmt.Errorf("campaign %s: %w", *template.CampaignID, err)
		}
	}

	if err := s.templates.Update(ctx, template); err != nil {
		return nil, err
	}

	return s.templates.GetByID(ctx, template.UserID, template.ID)
}

func (s *TemplateService) Delete(ctx context.Context, userID, id string) error {
	return s.templates.Deactivate(ctx, userID, id)
}
