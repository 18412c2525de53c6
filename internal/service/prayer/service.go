package prayer

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/parishkit/chms-api/internal/access"
	"github.com/parishkit/chms-api/internal/email"
	"github.com/parishkit/chms-api/internal/model"
	"github.com/parishkit/chms-api/internal/repository"
	"github.com/parishkit/chms-api/internal/service/audit"
	"github.com/parishkit/chms-api/internal/service/event"
	apperrors "github.com/parishkit/chms-api/pkg/errors"
	"github.com/parishkit/chms-api/pkg/logger"
)

type PrayerService interface {
	Create(ctx context.Context, viewer access.Viewer, req *model.CreatePrayerRequest) (*model.PrayerRequest, error)
	Get(ctx context.Context, viewer access.Viewer, id uuid.UUID) (*model.PrayerRequest, error)
	List(ctx context.Context, viewer access.Viewer, filter *model.PrayerFilter) ([]*model.PrayerRequest, error)
	GetBatchWithRequests(ctx context.Context, viewer access.Viewer, batchID uuid.UUID) (*model.PrayerBatch, error)
	Assign(ctx context.Context, viewer access.Viewer, id uuid.UUID, assigneeID uuid.UUID) error
	UpdateStatus(ctx context.Context, viewer access.Viewer, id uuid.UUID, status string) error
}

type Service struct {
	repo      repository.PrayerRepository
	batchRepo repository.BatchRepository
	userRepo  repository.UserRepository
	emitter   event.Emitter
	mailer    email.Sender
	auditor   *audit.Service
	logger    *logger.Logger
}

func NewService(
	repo repository.PrayerRepository,
	batchRepo repository.BatchRepository,
	userRepo repository.UserRepository,
	emitter event.Emitter,
	mailer email.Sender,
	auditor *audit.Service,
	logger *logger.Logger,
) *Service {
	return &Service{
		repo:      repo,
		batchRepo: batchRepo,
		userRepo:  userRepo,
		emitter:   emitter,
		mailer:    mailer,
		auditor:   auditor,
		logger:    logger,
	}
}

func (s *Service) Create(ctx context.Context, viewer access.Viewer, req *model.CreatePrayerRequest) (*model.PrayerRequest, error) {
	prayer := &model.PrayerRequest{
		OrganizationID: viewer.Scope.OrganizationID,
		Text:           req.Text,
		IsPrivate:      req.IsPrivate,
		IsUrgent:       req.IsUrgent,
		Status:         model.PrayerStatusPending,
	}
	if req.LocationID != "" {
		locID, err := uuid.Parse(req.LocationID)
		if err != nil {
			return nil, apperrors.BadRequest("invalid location id", err)
		}
		if !viewer.Scope.CanAccessLocation(&locID) {
			return nil, apperrors.Forbidden("location outside your scope")
		}
		prayer.LocationID = &locID
	}
	if req.CardID != "" {
		cardID, err := uuid.Parse(req.CardID)
		if err != nil {
			return nil, apperrors.BadRequest("invalid card id", err)
		}
		prayer.CardID = &cardID
	}
	if req.SubmittedBy != "" {
		prayer.SubmittedBy = &req.SubmittedBy
	}

	if err := s.repo.Create(ctx, prayer); err != nil {
		return nil, fmt.Errorf("failed to create prayer request: %w", err)
	}

	s.auditor.Log(ctx, viewer.UserID, prayer.OrganizationID, model.AuditActionCreate, model.AuditEntityPrayer, prayer.ID, nil)
	return prayer, nil
}

// Get conflates denial with absence: a private request the viewer may
// not see reads as not found.
func (s *Service) Get(ctx context.Context, viewer access.Viewer, id uuid.UUID) (*model.PrayerRequest, error) {
	prayer, err := s.repo.Get(ctx, viewer.Scope.Filter(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to get prayer request: %w", err)
	}
	if prayer == nil || !viewer.CanSeePrayerRequest(prayer) {
		return nil, apperrors.NotFound("prayer request", nil)
	}
	return prayer, nil
}

func (s *Service) List(ctx context.Context, viewer access.Viewer, filter *model.PrayerFilter) ([]*model.PrayerRequest, error) {
	var isPrivate *bool
	if filter != nil {
		isPrivate = filter.IsPrivate
	}
	pred := viewer.PrayerVisibility(isPrivate)

	reqs, err := s.repo.List(ctx, viewer.Scope.Filter(), pred, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list prayer requests: %w", err)
	}
	return reqs, nil
}

// GetBatchWithRequests returns a batch's requests for the joint prayer
// session view. Private requests the viewer may not see are included
// with the submitter redacted rather than excluded.
func (s *Service) GetBatchWithRequests(ctx context.Context, viewer access.Viewer, batchID uuid.UUID) (*model.PrayerBatch, error) {
	batch, err := s.batchRepo.Get(ctx, viewer.Scope.Filter(), batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to get batch: %w", err)
	}
	if batch == nil {
		return nil, apperrors.NotFound("batch", nil)
	}

	reqs, err := s.repo.ListByBatch(ctx, viewer.Scope.Filter(), batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to list prayer requests for batch: %w", err)
	}

	return &model.PrayerBatch{
		Batch:    batch,
		Requests: viewer.RedactPrayerRequests(reqs),
	}, nil
}

func (s *Service) Assign(ctx context.Context, viewer access.Viewer, id uuid.UUID, assigneeID uuid.UUID) error {
	prayer, err := s.repo.Get(ctx, viewer.Scope.Filter(), id)
	if err != nil {
		return fmt.Errorf("failed to get prayer request: %w", err)
	}
	if prayer == nil || !viewer.CanSeePrayerRequest(prayer) {
		return apperrors.NotFound("prayer request", nil)
	}

	assignee, err := s.userRepo.Get(ctx, assigneeID)
	if err != nil {
		return fmt.Errorf("failed to get assignee: %w", err)
	}
	if assignee == nil || assignee.OrganizationID != prayer.OrganizationID {
		return apperrors.NotFound("user", nil)
	}

	if err := s.repo.Assign(ctx, id, assigneeID); err != nil {
		return fmt.Errorf("failed to assign prayer request: %w", err)
	}

	if prayer.IsUrgent {
		if err := s.mailer.SendUrgentPrayerAssigned(ctx, assignee.Email, assignee.Name, prayer.Text); err != nil {
			s.logger.Error(err, "failed to send urgent assignment email", "prayer_id", id.String())
		}
	}

	if err := s.emitter.Emit(ctx, model.EventPrayerAssigned, map[string]interface{}{
		"prayer_request_id": id,
		"organization_id":   prayer.OrganizationID,
		"assigned_to_id":    assigneeID,
		"is_urgent":         prayer.IsUrgent,
	}); err != nil {
		s.logger.Error(err, "failed to emit prayer assigned event", "prayer_id", id.String())
	}

	s.auditor.Log(ctx, viewer.UserID, prayer.OrganizationID, model.AuditActionUpdate, model.AuditEntityPrayer, id, nil)
	return nil
}

var prayerStatuses = map[string]bool{
	model.PrayerStatusPending:  true,
	model.PrayerStatusAssigned: true,
	model.PrayerStatusPraying:  true,
	model.PrayerStatusAnswered: true,
	model.PrayerStatusArchived: true,
}

func (s *Service) UpdateStatus(ctx context.Context, viewer access.Viewer, id uuid.UUID, status string) error {
	if !prayerStatuses[status] {
		return apperrors.BadRequest(fmt.Sprintf("unknown prayer status %q", status), nil)
	}

	prayer, err := s.repo.Get(ctx, viewer.Scope.Filter(), id)
	if err != nil {
		return fmt.Errorf("failed to get prayer request: %w", err)
	}
	if prayer == nil || !viewer.CanSeePrayerRequest(prayer) {
		return apperrors.NotFound("prayer request", nil)
	}

	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return fmt.Errorf("failed to update prayer request status: %w", err)
	}

	s.auditor.Log(ctx, viewer.UserID, prayer.OrganizationID, model.AuditActionUpdate, model.AuditEntityPrayer, id, nil)
	return nil
}
