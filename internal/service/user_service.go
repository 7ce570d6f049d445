package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/kursadbilgin/campaign-engine/internal/domain"
	"github.com/kursadbilgin/campaign-engine/internal/repository"
	"go.uber.org/zap"
)

type UserService struct {
	users  repository.UserRepository
	logger *zap.Logger
}

func NewUserService(users repository.UserRepository, logger *zap.Logger) (*UserService, error) {
	if users == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &UserService{users: users, logger: logger}, nil
}

func (s *UserService) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user payload is required", domain.ErrValidation)
	}

	user.Email = strings.TrimSpace(user.Email)
	if _, err := mail.ParseAddress(user.Email); err != nil {
		return nil, fmt.Errorf("%w: invalid email %q", domain.ErrValidation, user.Email)
	}
	if strings.TrimSpace(user.FullName) == "" {
		return nil, fmt.Errorf("%w: full name is required", domain.ErrValidation)
	}

	user.ID = uuid.NewString()
	user.Active = true

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return s.users.GetByID(ctx, strings.TrimSpace(id))
}
