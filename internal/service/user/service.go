package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/parishkit/chms-api/internal/email"
	"github.com/parishkit/chms-api/internal/model"
	"github.com/parishkit/chms-api/internal/repository"
	"github.com/parishkit/chms-api/internal/service/audit"
	apperrors "github.com/parishkit/chms-api/pkg/errors"
	"github.com/parishkit/chms-api/pkg/logger"
	"github.com/parishkit/chms-api/pkg/security"
	"github.com/parishkit/chms-api/pkg/validator"
)

type UserService interface {
	CreateUser(ctx context.Context, actor *model.User, req *model.CreateUserRequest) (*model.User, error)
	GetUser(ctx context.Context, actor *model.User, id uuid.UUID) (*model.User, error)
	UpdateUser(ctx context.Context, actor *model.User, id uuid.UUID, req *model.UpdateUserRequest) (*model.User, error)
	DeleteUser(ctx context.Context, actor *model.User, id uuid.UUID) error
	ListUsers(ctx context.Context, filter *model.UserFilter) ([]*model.User, error)
}

type Service struct {
	repo     repository.UserRepository
	orgRepo  repository.OrganizationRepository
	locRepo  repository.LocationRepository
	hasher   security.PasswordHasher
	mailer   email.Sender
	auditor  *audit.Service
	validate validator.Validator
	logger   *logger.Logger
}

func NewService(
	repo repository.UserRepository,
	orgRepo repository.OrganizationRepository,
	locRepo repository.LocationRepository,
	hasher security.PasswordHasher,
	mailer email.Sender,
	auditor *audit.Service,
	logger *logger.Logger,
) *Service {
	return &Service{
		repo:     repo,
		orgRepo:  orgRepo,
		locRepo:  locRepo,
		hasher:   hasher,
		mailer:   mailer,
		auditor:  auditor,
		validate: validator.New(),
		logger:   logger,
	}
}

func (s *Service) CreateUser(ctx context.Context, actor *model.User, req *model.CreateUserRequest) (*model.User, error) {
	if !actor.CanManageUsers() {
		return nil, apperrors.Forbidden("only owners and admins can manage users")
	}

	orgID, err := uuid.Parse(req.OrganizationID)
	if err != nil {
		return nil, apperrors.BadRequest("invalid organization id", err)
	}
	if orgID != actor.OrganizationID {
		return nil, apperrors.Forbidden("cannot create users in another organization")
	}

	if err := s.validate.Var(req.Email, "required,email"); err != nil {
		return nil, apperrors.BadRequest("invalid email address", err)
	}

	existing, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil {
		return nil, apperrors.Conflict("email already registered", nil)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooShort) {
			return nil, apperrors.BadRequest("password too short", err)
		}
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		OrganizationID: orgID,
		Email:          req.Email,
		Name:           req.Name,
		PasswordHash:   hash,
		Role:           req.Role,
		Status:         model.UserStatusActive,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.auditor.Log(ctx, actor.ID, orgID, model.AuditActionCreate, model.AuditEntityUser, user.ID, nil)

	org, err := s.orgRepo.Get(ctx, orgID)
	if err == nil && org != nil {
		if err := s.mailer.SendUserInvitation(ctx, user.Email, user.Name, req.Password, org.Name); err != nil {
			s.logger.Error(err, "failed to send invitation email", "user_id", user.ID.String())
		}
	}

	return user, nil
}

// GetUser reads a user in the actor's organization. Records in other
// tenants read as not found.
func (s *Service) GetUser(ctx context.Context, actor *model.User, id uuid.UUID) (*model.User, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || user.OrganizationID != actor.OrganizationID {
		return nil, apperrors.NotFound("user", nil)
	}
	return user, nil
}

func (s *Service) UpdateUser(ctx context.Context, actor *model.User, id uuid.UUID, req *model.UpdateUserRequest) (*model.User, error) {
	if !actor.CanManageUsers() && actor.ID != id {
		return nil, apperrors.Forbidden("only owners and admins can manage users")
	}

	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || user.OrganizationID != actor.OrganizationID {
		return nil, apperrors.NotFound("user", nil)
	}

	// Role, status and scope changes require manager rights even when
	// editing yourself.
	if (req.Role != nil || req.Status != nil || req.CanSeeAllLocations != nil) && !actor.CanManageUsers() {
		return nil, apperrors.Forbidden("only owners and admins can change roles")
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Phone != nil {
		user.Phone = req.Phone
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.Status != nil {
		user.Status = *req.Status
	}
	if req.CanSeeAllLocations != nil {
		user.CanSeeAllLocations = *req.CanSeeAllLocations
	}
	if req.DefaultLocationID != nil {
		if *req.DefaultLocationID == "" {
			user.DefaultLocationID = nil
		} else {
			locID, err := uuid.Parse(*req.DefaultLocationID)
			if err != nil {
				return nil, apperrors.BadRequest("invalid location id", err)
			}
			loc, err := s.locRepo.Get(ctx, locID)
			if err != nil {
				return nil, fmt.Errorf("failed to get location: %w", err)
			}
			if loc == nil || loc.OrganizationID != user.OrganizationID {
				return nil, apperrors.NotFound("location", nil)
			}
			user.DefaultLocationID = &locID
		}
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.auditor.Log(ctx, actor.ID, user.OrganizationID, model.AuditActionUpdate, model.AuditEntityUser, user.ID, &audit.LogOptions{Changes: req})
	return user, nil
}

func (s *Service) DeleteUser(ctx context.Context, actor *model.User, id uuid.UUID) error {
	if !actor.CanManageUsers() {
		return apperrors.Forbidden("only owners and admins can manage users")
	}
	if actor.ID == id {
		return apperrors.BadRequest("cannot delete your own account", nil)
	}

	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || user.OrganizationID != actor.OrganizationID {
		return apperrors.NotFound("user", nil)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.auditor.Log(ctx, actor.ID, user.OrganizationID, model.AuditActionDelete, model.AuditEntityUser, id, nil)
	return nil
}

func (s *Service) ListUsers(ctx context.Context, filter *model.UserFilter) ([]*model.User, error) {
	users, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}
