package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/parishkit/chms-api/internal/model"
	"github.com/parishkit/chms-api/internal/repository"
	"github.com/parishkit/chms-api/pkg/logger"
)

type Service struct {
	repo   repository.AuditRepository
	logger *logger.Logger
}

func NewService(repo repository.AuditRepository, logger *logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

type LogOptions struct {
	Changes   interface{}
	IPAddress string
}

// Log records an audit entry. Failures are logged and swallowed so an
// audit write never fails the business operation.
func (s *Service) Log(ctx context.Context, userID, orgID uuid.UUID, action, entityType string, entityID uuid.UUID, opts *LogOptions) {
	var changes json.RawMessage
	ipAddress := ""
	if opts != nil {
		if opts.Changes != nil {
			b, err := json.Marshal(opts.Changes)
			if err != nil {
				s.logger.Error(err, "failed to marshal audit changes")
			} else {
				changes = b
			}
		}
		ipAddress = opts.IPAddress
	}

	entry := &model.AuditLog{
		UserID:         userID,
		OrganizationID: orgID,
		Action:         action,
		EntityType:     entityType,
		EntityID:       entityID,
		Changes:        changes,
		IPAddress:      ipAddress,
		CreatedAt:      time.Now(),
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		s.logger.Error(err, "failed to write audit log",
			"action", action, "entity_type", entityType)
	}
}

func (s *Service) List(ctx context.Context, orgID uuid.UUID, entityType string, limit int) ([]*model.AuditLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.repo.List(ctx, orgID, entityType, limit)
}

// Prune removes entries older than the retention window.
func (s *Service) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	return s.repo.DeleteBefore(ctx, time.Now().Add(-retention))
}
