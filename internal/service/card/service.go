package card

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/parishkit/chms-api/internal/access"
	"github.com/parishkit/chms-api/internal/model"
	"github.com/parishkit/chms-api/internal/repository"
	"github.com/parishkit/chms-api/internal/service/audit"
	"github.com/parishkit/chms-api/internal/service/event"
	apperrors "github.com/parishkit/chms-api/pkg/errors"
	"github.com/parishkit/chms-api/pkg/logger"
	"github.com/parishkit/chms-api/pkg/metrics"
)

type CardService interface {
	CreateCard(ctx context.Context, viewer access.Viewer, req *model.CreateCardRequest) (*model.ConnectCard, error)
	GetCard(ctx context.Context, viewer access.Viewer, id uuid.UUID) (*model.ConnectCard, error)
	ListCards(ctx context.Context, viewer access.Viewer, filter *model.CardFilter) ([]*model.ConnectCard, error)
	UpdateCard(ctx context.Context, viewer access.Viewer, id uuid.UUID, req *model.UpdateCardRequest) (*model.ConnectCard, error)
	ReviewCard(ctx context.Context, viewer access.Viewer, id uuid.UUID, req *model.UpdateCardRequest) (*model.ConnectCard, error)
	DeleteCard(ctx context.Context, viewer access.Viewer, id uuid.UUID) error

	GetOrCreateActiveBatch(ctx context.Context, viewer access.Viewer, locationID *uuid.UUID) (*model.ConnectCardBatch, error)
	GetBatch(ctx context.Context, viewer access.Viewer, id uuid.UUID) (*model.ConnectCardBatch, error)
	ListBatches(ctx context.Context, viewer access.Viewer, status string) ([]*model.ConnectCardBatch, error)
	UpdateBatchStatus(ctx context.Context, viewer access.Viewer, id uuid.UUID, status string) error
}

type Service struct {
	cardRepo   repository.CardRepository
	batchRepo  repository.BatchRepository
	memberRepo repository.MemberRepository
	prayerRepo repository.PrayerRepository
	emitter    event.Emitter
	auditor    *audit.Service
	metrics    *metrics.Metrics
	logger     *logger.Logger
}

func NewService(
	cardRepo repository.CardRepository,
	batchRepo repository.BatchRepository,
	memberRepo repository.MemberRepository,
	prayerRepo repository.PrayerRepository,
	emitter event.Emitter,
	auditor *audit.Service,
	metrics *metrics.Metrics,
	logger *logger.Logger,
) *Service {
	return &Service{
		cardRepo:   cardRepo,
		batchRepo:  batchRepo,
		memberRepo: memberRepo,
		prayerRepo: prayerRepo,
		emitter:    emitter,
		auditor:    auditor,
		metrics:    metrics,
		logger:     logger,
	}
}

// resolveLocation picks the card's location: an explicit request value
// (checked against the viewer's scope) or the viewer's own location.
func (s *Service) resolveLocation(viewer access.Viewer, requested string) (*uuid.UUID, error) {
	if requested != "" {
		locID, err := uuid.Parse(requested)
		if err != nil {
			return nil, apperrors.BadRequest("invalid location id", err)
		}
		if !viewer.Scope.CanAccessLocation(&locID) {
			return nil, apperrors.Forbidden("location outside your scope")
		}
		return &locID, nil
	}
	locID, err := viewer.Scope.RequireLocation()
	if err != nil {
		if errors.Is(err, access.ErrNoLocationAssigned) {
			return nil, apperrors.Forbidden("no location assigned")
		}
		return nil, err
	}
	return locID, nil
}

func (s *Service) CreateCard(ctx context.Context, viewer access.Viewer, req *model.CreateCardRequest) (*model.ConnectCard, error) {
	orgID := viewer.Scope.OrganizationID

	locID, err := s.resolveLocation(viewer, req.LocationID)
	if err != nil {
		return nil, err
	}

	visitDate := time.Now()
	if req.VisitDate != "" {
		d, err := time.Parse("2006-01-02", req.VisitDate)
		if err != nil {
			return nil, apperrors.BadRequest("invalid visit date, expected YYYY-MM-DD", err)
		}
		visitDate = d
	}

	batch, createdNew, err := s.batchRepo.GetOrCreateActive(ctx, orgID, locID, visitDate)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.Code == apperrors.ErrConflict {
			s.metrics.BatchConflicts.Inc()
		}
		return nil, err
	}
	if createdNew {
		s.metrics.BatchCreated.Inc()
	} else {
		s.metrics.BatchReused.Inc()
	}

	card := &model.ConnectCard{
		OrganizationID: orgID,
		LocationID:     locID,
		BatchID:        &batch.ID,
		Name:           req.Name,
		Status:         model.CardStatusPending,
		VisitDate:      &visitDate,
	}
	setOptional(&card.Email, req.Email)
	setOptional(&card.Phone, req.Phone)
	setOptional(&card.Address, req.Address)
	setOptional(&card.VisitType, req.VisitType)
	setOptional(&card.VolunteerCategory, req.VolunteerCategory)
	setOptional(&card.PrayerText, req.PrayerText)
	setOptional(&card.ScanKey, req.ScanKey)
	card.Interests = pq.StringArray(req.Interests)

	if err := s.cardRepo.Create(ctx, card); err != nil {
		return nil, fmt.Errorf("failed to create card: %w", err)
	}

	if err := s.batchRepo.IncrementCardCount(ctx, batch.ID, 1); err != nil {
		s.logger.Error(err, "failed to bump batch card count", "batch_id", batch.ID.String())
	}

	if req.PrayerText != "" {
		prayer := &model.PrayerRequest{
			OrganizationID: orgID,
			LocationID:     locID,
			CardID:         &card.ID,
			SubmittedBy:    &card.Name,
			Text:           req.PrayerText,
			Status:         model.PrayerStatusPending,
		}
		if err := s.prayerRepo.Create(ctx, prayer); err != nil {
			s.logger.Error(err, "failed to create prayer request from card", "card_id", card.ID.String())
		}
	}

	if err := s.emitter.Emit(ctx, model.EventCardCreated, map[string]interface{}{
		"card_id":         card.ID,
		"organization_id": orgID,
		"batch_id":        batch.ID,
	}); err != nil {
		s.logger.Error(err, "failed to emit card created event", "card_id", card.ID.String())
	}

	s.auditor.Log(ctx, viewer.UserID, orgID, model.AuditActionCreate, model.AuditEntityCard, card.ID, nil)
	return card, nil
}

func (s *Service) GetCard(ctx context.Context, viewer access.Viewer, id uuid.UUID) (*model.ConnectCard, error) {
	card, err := s.cardRepo.Get(ctx, viewer.Scope.Filter(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to get card: %w", err)
	}
	if card == nil {
		return nil, apperrors.NotFound("card", nil)
	}
	return card, nil
}

func (s *Service) ListCards(ctx context.Context, viewer access.Viewer, filter *model.CardFilter) ([]*model.ConnectCard, error) {
	cards, err := s.cardRepo.List(ctx, viewer.Scope.Filter(), filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	return cards, nil
}

func (s *Service) UpdateCard(ctx context.Context, viewer access.Viewer, id uuid.UUID, req *model.UpdateCardRequest) (*model.ConnectCard, error) {
	card, err := s.applyUpdate(ctx, viewer, id, req)
	if err != nil {
		return nil, err
	}
	if card.Status == model.CardStatusPending {
		card.Status = model.CardStatusExtracted
	}
	if err := s.cardRepo.Update(ctx, card); err != nil {
		return nil, fmt.Errorf("failed to update card: %w", err)
	}
	s.auditor.Log(ctx, viewer.UserID, card.OrganizationID, model.AuditActionUpdate, model.AuditEntityCard, card.ID, &audit.LogOptions{Changes: req})
	return card, nil
}

// ReviewCard applies the reviewer's final edits, links or creates the
// person record, and finalizes the card.
func (s *Service) ReviewCard(ctx context.Context, viewer access.Viewer, id uuid.UUID, req *model.UpdateCardRequest) (*model.ConnectCard, error) {
	card, err := s.applyUpdate(ctx, viewer, id, req)
	if err != nil {
		return nil, err
	}
	if card.Status == model.CardStatusReviewed {
		return nil, apperrors.BadRequest("card already reviewed", nil)
	}

	if card.MemberID == nil {
		member := s.memberFromCard(card)
		if err := s.memberRepo.Create(ctx, member); err != nil {
			return nil, fmt.Errorf("failed to create member from card: %w", err)
		}
		card.MemberID = &member.ID
	}

	if err := s.cardRepo.Update(ctx, card); err != nil {
		return nil, fmt.Errorf("failed to update card: %w", err)
	}
	if err := s.cardRepo.MarkReviewed(ctx, card.ID, viewer.UserID); err != nil {
		return nil, fmt.Errorf("failed to mark card reviewed: %w", err)
	}
	card.Status = model.CardStatusReviewed
	card.ReviewedBy = &viewer.UserID
	now := time.Now()
	card.ReviewedAt = &now

	if err := s.emitter.Emit(ctx, model.EventCardReviewed, map[string]interface{}{
		"card_id":         card.ID,
		"organization_id": card.OrganizationID,
		"member_id":       card.MemberID,
	}); err != nil {
		s.logger.Error(err, "failed to emit card reviewed event", "card_id", card.ID.String())
	}

	s.auditor.Log(ctx, viewer.UserID, card.OrganizationID, model.AuditActionReview, model.AuditEntityCard, card.ID, nil)
	return card, nil
}

func (s *Service) memberFromCard(card *model.ConnectCard) *model.ChurchMember {
	return &model.ChurchMember{
		OrganizationID: card.OrganizationID,
		LocationID:     card.LocationID,
		Name:           card.Name,
		Email:          card.Email,
		Phone:          card.Phone,
		Address:        card.Address,
		MemberStatus:   model.MemberStatusVisitor,
		FirstVisitAt:   card.VisitDate,
	}
}

func (s *Service) applyUpdate(ctx context.Context, viewer access.Viewer, id uuid.UUID, req *model.UpdateCardRequest) (*model.ConnectCard, error) {
	card, err := s.cardRepo.Get(ctx, viewer.Scope.Filter(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to get card: %w", err)
	}
	if card == nil {
		return nil, apperrors.NotFound("card", nil)
	}

	if req.Name != nil {
		card.Name = *req.Name
	}
	if req.Email != nil {
		card.Email = req.Email
	}
	if req.Phone != nil {
		card.Phone = req.Phone
	}
	if req.Address != nil {
		card.Address = req.Address
	}
	if req.VisitType != nil {
		card.VisitType = req.VisitType
	}
	if req.Interests != nil {
		card.Interests = pq.StringArray(req.Interests)
	}
	if req.VolunteerCategory != nil {
		card.VolunteerCategory = req.VolunteerCategory
	}
	if req.PrayerText != nil {
		card.PrayerText = req.PrayerText
	}
	return card, nil
}

func (s *Service) DeleteCard(ctx context.Context, viewer access.Viewer, id uuid.UUID) error {
	card, err := s.cardRepo.Get(ctx, viewer.Scope.Filter(), id)
	if err != nil {
		return fmt.Errorf("failed to get card: %w", err)
	}
	if card == nil {
		return apperrors.NotFound("card", nil)
	}

	if err := s.cardRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete card: %w", err)
	}
	if card.BatchID != nil {
		if err := s.batchRepo.IncrementCardCount(ctx, *card.BatchID, -1); err != nil {
			s.logger.Error(err, "failed to bump batch card count", "batch_id", card.BatchID.String())
		}
	}

	s.auditor.Log(ctx, viewer.UserID, card.OrganizationID, model.AuditActionDelete, model.AuditEntityCard, id, nil)
	return nil
}

func (s *Service) GetOrCreateActiveBatch(ctx context.Context, viewer access.Viewer, locationID *uuid.UUID) (*model.ConnectCardBatch, error) {
	var locStr string
	if locationID != nil {
		locStr = locationID.String()
	}
	locID, err := s.resolveLocation(viewer, locStr)
	if err != nil {
		return nil, err
	}

	batch, createdNew, err := s.batchRepo.GetOrCreateActive(ctx, viewer.Scope.OrganizationID, locID, time.Now())
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.Code == apperrors.ErrConflict {
			s.metrics.BatchConflicts.Inc()
		}
		return nil, err
	}
	if createdNew {
		s.metrics.BatchCreated.Inc()
	} else {
		s.metrics.BatchReused.Inc()
	}
	return batch, nil
}

func (s *Service) GetBatch(ctx context.Context, viewer access.Viewer, id uuid.UUID) (*model.ConnectCardBatch, error) {
	batch, err := s.batchRepo.Get(ctx, viewer.Scope.Filter(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to get batch: %w", err)
	}
	if batch == nil {
		return nil, apperrors.NotFound("batch", nil)
	}
	return batch, nil
}

func (s *Service) ListBatches(ctx context.Context, viewer access.Viewer, status string) ([]*model.ConnectCardBatch, error) {
	batches, err := s.batchRepo.List(ctx, viewer.Scope.Filter(), status)
	if err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}
	return batches, nil
}

var batchTransitions = map[string][]string{
	model.BatchStatusPending:  {model.BatchStatusInReview},
	model.BatchStatusInReview: {model.BatchStatusCompleted, model.BatchStatusPending},
}

func (s *Service) UpdateBatchStatus(ctx context.Context, viewer access.Viewer, id uuid.UUID, status string) error {
	batch, err := s.batchRepo.Get(ctx, viewer.Scope.Filter(), id)
	if err != nil {
		return fmt.Errorf("failed to get batch: %w", err)
	}
	if batch == nil {
		return apperrors.NotFound("batch", nil)
	}

	allowed := false
	for _, next := range batchTransitions[batch.Status] {
		if next == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return apperrors.BadRequest(fmt.Sprintf("cannot transition batch from %s to %s", batch.Status, status), nil)
	}

	if err := s.batchRepo.UpdateStatus(ctx, id, status); err != nil {
		return fmt.Errorf("failed to update batch status: %w", err)
	}

	if status == model.BatchStatusCompleted {
		if err := s.emitter.Emit(ctx, model.EventBatchCompleted, map[string]interface{}{
			"batch_id":        id,
			"organization_id": batch.OrganizationID,
			"card_count":      batch.CardCount,
		}); err != nil {
			s.logger.Error(err, "failed to emit batch completed event", "batch_id", id.String())
		}
	}

	s.auditor.Log(ctx, viewer.UserID, batch.OrganizationID, model.AuditActionUpdate, model.AuditEntityBatch, id, nil)
	return nil
}

func setOptional(dst **string, v string) {
	if v != "" {
		*dst = &v
	}
}
