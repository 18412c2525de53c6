package auth

import (
	"context"
	"fmt"

	"github.com/parishkit/chms-api/internal/model"
	"github.com/parishkit/chms-api/internal/repository"
	"github.com/parishkit/chms-api/pkg/auth"
	apperrors "github.com/parishkit/chms-api/pkg/errors"
	"github.com/parishkit/chms-api/pkg/logger"
	"github.com/parishkit/chms-api/pkg/security"
)

type AuthService interface {
	Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*model.TokenResponse, error)
}

type Service struct {
	userRepo repository.UserRepository
	jwt      auth.JWTService
	hasher   security.PasswordHasher
	logger   *logger.Logger
}

func NewService(userRepo repository.UserRepository, jwt auth.JWTService, hasher security.PasswordHasher, logger *logger.Logger) *Service {
	return &Service{
		userRepo: userRepo,
		jwt:      jwt,
		hasher:   hasher,
		logger:   logger,
	}
}

func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil || user.Status != model.UserStatusActive {
		return nil, apperrors.Unauthorized(model.ErrInvalidCredentials)
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, apperrors.Unauthorized(model.ErrInvalidCredentials)
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Error(err, "failed to update last login", "user_id", user.ID.String())
	}

	return tokens, nil
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (*model.TokenResponse, error) {
	claims, err := s.jwt.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.Unauthorized(err)
	}

	user, err := s.userRepo.Get(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil || user.Status != model.UserStatusActive {
		return nil, apperrors.Unauthorized(model.ErrInvalidCredentials)
	}

	return s.issueTokens(user)
}

func (s *Service) issueTokens(user *model.User) (*model.TokenResponse, error) {
	access, err := s.jwt.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refresh, err := s.jwt.GenerateRefreshToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return &model.TokenResponse{AccessToken: access, RefreshToken: refresh}, nil
}
