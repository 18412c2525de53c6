package volunteer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/parishkit/chms-api/internal/access"
	"github.com/parishkit/chms-api/internal/email"
	"github.com/parishkit/chms-api/internal/model"
	"github.com/parishkit/chms-api/internal/repository"
	"github.com/parishkit/chms-api/internal/service/audit"
	"github.com/parishkit/chms-api/internal/service/event"
	apperrors "github.com/parishkit/chms-api/pkg/errors"
	"github.com/parishkit/chms-api/pkg/logger"
)

type VolunteerService interface {
	Create(ctx context.Context, viewer access.Viewer, req *model.CreateVolunteerRequest) (*model.Volunteer, error)
	Get(ctx context.Context, viewer access.Viewer, id uuid.UUID) (*model.Volunteer, error)
	List(ctx context.Context, viewer access.Viewer, filter *model.VolunteerFilter) ([]*model.Volunteer, error)
	Update(ctx context.Context, viewer access.Viewer, id uuid.UUID, req *model.UpdateVolunteerRequest) (*model.Volunteer, error)
	UpdateBackgroundCheck(ctx context.Context, viewer access.Viewer, id uuid.UUID, state string) error
}

type Service struct {
	repo       repository.VolunteerRepository
	memberRepo repository.MemberRepository
	userRepo   repository.UserRepository
	emitter    event.Emitter
	mailer     email.Sender
	auditor    *audit.Service
	logger     *logger.Logger
}

func NewService(
	repo repository.VolunteerRepository,
	memberRepo repository.MemberRepository,
	userRepo repository.UserRepository,
	emitter event.Emitter,
	mailer email.Sender,
	auditor *audit.Service,
	logger *logger.Logger,
) *Service {
	return &Service{
		repo:       repo,
		memberRepo: memberRepo,
		userRepo:   userRepo,
		emitter:    emitter,
		mailer:     mailer,
		auditor:    auditor,
		logger:     logger,
	}
}

func (s *Service) Create(ctx context.Context, viewer access.Viewer, req *model.CreateVolunteerRequest) (*model.Volunteer, error) {
	memberID, err := uuid.Parse(req.MemberID)
	if err != nil {
		return nil, apperrors.BadRequest("invalid member id", err)
	}
	member, err := s.memberRepo.Get(ctx, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	if member == nil || member.OrganizationID != viewer.Scope.OrganizationID {
		return nil, apperrors.NotFound("member", nil)
	}
	if member.IsVolunteer {
		return nil, apperrors.Conflict("member is already a volunteer", nil)
	}

	v := &model.Volunteer{
		OrganizationID:       viewer.Scope.OrganizationID,
		MemberID:             memberID,
		Status:               model.VolunteerStatusApplied,
		Categories:           pq.StringArray(req.Categories),
		BackgroundCheckState: model.CheckStateNotStarted,
	}
	if req.LocationID != "" {
		locID, err := uuid.Parse(req.LocationID)
		if err != nil {
			return nil, apperrors.BadRequest("invalid location id", err)
		}
		if !viewer.Scope.CanAccessLocation(&locID) {
			return nil, apperrors.Forbidden("location outside your scope")
		}
		v.LocationID = &locID
	} else {
		v.LocationID = member.LocationID
	}
	if req.Notes != "" {
		v.Notes = &req.Notes
	}

	if err := s.repo.CreateWithMirror(ctx, v); err != nil {
		return nil, fmt.Errorf("failed to create volunteer: %w", err)
	}

	s.emitStatus(ctx, v, "")
	s.auditor.Log(ctx, viewer.UserID, v.OrganizationID, model.AuditActionCreate, model.AuditEntityVolunteer, v.ID, nil)
	return v, nil
}

func (s *Service) Get(ctx context.Context, viewer access.Viewer, id uuid.UUID) (*model.Volunteer, error) {
	v, err := s.repo.Get(ctx, viewer.Scope.Filter(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to get volunteer: %w", err)
	}
	if v == nil {
		return nil, apperrors.NotFound("volunteer", nil)
	}
	return v, nil
}

func (s *Service) List(ctx context.Context, viewer access.Viewer, filter *model.VolunteerFilter) ([]*model.Volunteer, error) {
	vols, err := s.repo.List(ctx, viewer.Scope.Filter(), filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list volunteers: %w", err)
	}
	return vols, nil
}

func (s *Service) Update(ctx context.Context, viewer access.Viewer, id uuid.UUID, req *model.UpdateVolunteerRequest) (*model.Volunteer, error) {
	v, err := s.repo.Get(ctx, viewer.Scope.Filter(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to get volunteer: %w", err)
	}
	if v == nil {
		return nil, apperrors.NotFound("volunteer", nil)
	}

	prevStatus := v.Status
	if req.Status != nil {
		// Activation requires a cleared background check.
		if *req.Status == model.VolunteerStatusActive && v.BackgroundCheckState != model.CheckStateCleared {
			return nil, apperrors.BadRequest("volunteer cannot be activated before the background check clears", nil)
		}
		v.Status = *req.Status
	}
	if req.Categories != nil {
		v.Categories = pq.StringArray(req.Categories)
	}
	if req.Notes != nil {
		v.Notes = req.Notes
	}

	if err := s.repo.UpdateWithMirror(ctx, v); err != nil {
		return nil, fmt.Errorf("failed to update volunteer: %w", err)
	}

	if v.Status != prevStatus {
		s.emitStatus(ctx, v, prevStatus)
	}
	s.auditor.Log(ctx, viewer.UserID, v.OrganizationID, model.AuditActionUpdate, model.AuditEntityVolunteer, v.ID, &audit.LogOptions{Changes: req})
	return v, nil
}

func (s *Service) UpdateBackgroundCheck(ctx context.Context, viewer access.Viewer, id uuid.UUID, state string) error {
	if !viewer.CanManageUsers {
		return apperrors.Forbidden("only owners and admins can record background checks")
	}

	v, err := s.repo.Get(ctx, viewer.Scope.Filter(), id)
	if err != nil {
		return fmt.Errorf("failed to get volunteer: %w", err)
	}
	if v == nil {
		return apperrors.NotFound("volunteer", nil)
	}

	if err := s.repo.UpdateBackgroundCheck(ctx, id, state, time.Now()); err != nil {
		return fmt.Errorf("failed to update background check: %w", err)
	}

	if state == model.CheckStateFlagged {
		s.notifyFlagged(ctx, v)
	}

	s.auditor.Log(ctx, viewer.UserID, v.OrganizationID, model.AuditActionUpdate, model.AuditEntityVolunteer, id, nil)
	return nil
}

// notifyFlagged emails the organization's admins when a background
// check comes back flagged.
func (s *Service) notifyFlagged(ctx context.Context, v *model.Volunteer) {
	member, err := s.memberRepo.Get(ctx, v.MemberID)
	if err != nil || member == nil {
		s.logger.Error(err, "failed to load member for flagged check", "volunteer_id", v.ID.String())
		return
	}

	admins, err := s.userRepo.List(ctx, &model.UserFilter{
		BaseFilter: model.BaseFilter{OrganizationID: v.OrganizationID, Status: model.UserStatusActive},
		Role:       model.RoleAdmin,
	})
	if err != nil {
		s.logger.Error(err, "failed to list admins for flagged check", "volunteer_id", v.ID.String())
		return
	}
	for _, admin := range admins {
		if err := s.mailer.SendBackgroundCheckFlagged(ctx, admin.Email, member.Name); err != nil {
			s.logger.Error(err, "failed to send flagged check email", "user_id", admin.ID.String())
		}
	}
}

func (s *Service) emitStatus(ctx context.Context, v *model.Volunteer, prevStatus string) {
	if err := s.emitter.Emit(ctx, model.EventVolunteerStatus, map[string]interface{}{
		"volunteer_id":    v.ID,
		"organization_id": v.OrganizationID,
		"member_id":       v.MemberID,
		"status":          v.Status,
		"previous_status": prevStatus,
	}); err != nil {
		s.logger.Error(err, "failed to emit volunteer status event", "volunteer_id", v.ID.String())
	}
}
