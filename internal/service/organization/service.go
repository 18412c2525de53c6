package organization

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/parishkit/chms-api/internal/access"
	"github.com/parishkit/chms-api/internal/model"
	"github.com/parishkit/chms-api/internal/repository"
	apperrors "github.com/parishkit/chms-api/pkg/errors"
)

type OrganizationService interface {
	CreateOrganization(ctx context.Context, req *model.CreateOrganizationRequest) (*model.Organization, error)
	GetOrganization(ctx context.Context, viewer access.Viewer, id uuid.UUID) (*model.Organization, error)
	UpdateOrganization(ctx context.Context, viewer access.Viewer, org *model.Organization) error
	DeleteOrganization(ctx context.Context, viewer access.Viewer, id uuid.UUID) error

	CreateLocation(ctx context.Context, viewer access.Viewer, req *model.CreateLocationRequest) (*model.Location, error)
	GetLocation(ctx context.Context, viewer access.Viewer, id uuid.UUID) (*model.Location, error)
	ListLocations(ctx context.Context, organizationID uuid.UUID) ([]*model.Location, error)
	UpdateLocation(ctx context.Context, viewer access.Viewer, loc *model.Location) error
	DeleteLocation(ctx context.Context, viewer access.Viewer, id uuid.UUID) error
}

type Service struct {
	orgRepo repository.OrganizationRepository
	locRepo repository.LocationRepository
}

func NewService(orgRepo repository.OrganizationRepository, locRepo repository.LocationRepository) *Service {
	return &Service{orgRepo: orgRepo, locRepo: locRepo}
}

func (s *Service) CreateOrganization(ctx context.Context, req *model.CreateOrganizationRequest) (*model.Organization, error) {
	tz := req.Timezone
	if tz == "" {
		tz = "America/Chicago"
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return nil, apperrors.BadRequest(fmt.Sprintf("invalid timezone %q", tz), err)
	}

	org := &model.Organization{
		Name:     req.Name,
		Status:   model.OrgStatusActive,
		Timezone: tz,
	}
	if req.Website != "" {
		org.Website = &req.Website
	}
	if err := s.orgRepo.Create(ctx, org); err != nil {
		return nil, fmt.Errorf("failed to create organization: %w", err)
	}
	return org, nil
}

// GetOrganization reads the caller's own organization. Foreign IDs read
// as not found rather than forbidden so tenants cannot confirm each
// other's existence.
func (s *Service) GetOrganization(ctx context.Context, viewer access.Viewer, id uuid.UUID) (*model.Organization, error) {
	if id != viewer.Scope.OrganizationID {
		return nil, apperrors.NotFound("organization", nil)
	}
	org, err := s.orgRepo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	if org == nil {
		return nil, apperrors.NotFound("organization", nil)
	}
	return org, nil
}

func (s *Service) UpdateOrganization(ctx context.Context, viewer access.Viewer, org *model.Organization) error {
	if org.ID != viewer.Scope.OrganizationID {
		return apperrors.NotFound("organization", nil)
	}
	if org.Timezone != "" {
		if _, err := time.LoadLocation(org.Timezone); err != nil {
			return apperrors.BadRequest(fmt.Sprintf("invalid timezone %q", org.Timezone), err)
		}
	}
	if err := s.orgRepo.Update(ctx, org); err != nil {
		return fmt.Errorf("failed to update organization: %w", err)
	}
	return nil
}

func (s *Service) DeleteOrganization(ctx context.Context, viewer access.Viewer, id uuid.UUID) error {
	if id != viewer.Scope.OrganizationID {
		return apperrors.NotFound("organization", nil)
	}
	if err := s.orgRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete organization: %w", err)
	}
	return nil
}

func (s *Service) CreateLocation(ctx context.Context, viewer access.Viewer, req *model.CreateLocationRequest) (*model.Location, error) {
	orgID, err := uuid.Parse(req.OrganizationID)
	if err != nil {
		return nil, apperrors.BadRequest("invalid organization id", err)
	}
	if orgID != viewer.Scope.OrganizationID {
		return nil, apperrors.NotFound("organization", nil)
	}
	org, err := s.orgRepo.Get(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to get organization: %w", err)
	}
	if org == nil {
		return nil, apperrors.NotFound("organization", nil)
	}

	loc := &model.Location{
		OrganizationID: orgID,
		Name:           req.Name,
		Status:         model.OrgStatusActive,
	}
	if req.Address != "" {
		loc.Address = &req.Address
	}
	if err := s.locRepo.Create(ctx, loc); err != nil {
		return nil, fmt.Errorf("failed to create location: %w", err)
	}
	return loc, nil
}

func (s *Service) GetLocation(ctx context.Context, viewer access.Viewer, id uuid.UUID) (*model.Location, error) {
	loc, err := s.locRepo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get location: %w", err)
	}
	if loc == nil || loc.OrganizationID != viewer.Scope.OrganizationID {
		return nil, apperrors.NotFound("location", nil)
	}
	return loc, nil
}

func (s *Service) ListLocations(ctx context.Context, organizationID uuid.UUID) ([]*model.Location, error) {
	locs, err := s.locRepo.List(ctx, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	return locs, nil
}

// UpdateLocation re-reads the stored row so a request body cannot move
// a location between tenants.
func (s *Service) UpdateLocation(ctx context.Context, viewer access.Viewer, loc *model.Location) error {
	existing, err := s.locRepo.Get(ctx, loc.ID)
	if err != nil {
		return fmt.Errorf("failed to get location: %w", err)
	}
	if existing == nil || existing.OrganizationID != viewer.Scope.OrganizationID {
		return apperrors.NotFound("location", nil)
	}
	loc.OrganizationID = existing.OrganizationID

	if err := s.locRepo.Update(ctx, loc); err != nil {
		return fmt.Errorf("failed to update location: %w", err)
	}
	return nil
}

func (s *Service) DeleteLocation(ctx context.Context, viewer access.Viewer, id uuid.UUID) error {
	existing, err := s.locRepo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get location: %w", err)
	}
	if existing == nil || existing.OrganizationID != viewer.Scope.OrganizationID {
		return apperrors.NotFound("location", nil)
	}
	if err := s.locRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete location: %w", err)
	}
	return nil
}
