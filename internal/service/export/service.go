package export

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/parishkit/chms-api/internal/access"
	exportfmt "github.com/parishkit/chms-api/internal/export"
	"github.com/parishkit/chms-api/internal/model"
	"github.com/parishkit/chms-api/internal/repository"
	"github.com/parishkit/chms-api/internal/service/audit"
	"github.com/parishkit/chms-api/internal/service/event"
	apperrors "github.com/parishkit/chms-api/pkg/errors"
	"github.com/parishkit/chms-api/pkg/logger"
	"github.com/parishkit/chms-api/pkg/metrics"
)

// Result carries a rendered export and its download metadata.
type Result struct {
	FileName string
	Content  string
	RowCount int
}

type ExportService interface {
	ExportCards(ctx context.Context, viewer access.Viewer, formatID string, from, to time.Time) (*Result, error)
}

type Service struct {
	cardRepo repository.CardRepository
	emitter  event.Emitter
	auditor  *audit.Service
	metrics  *metrics.Metrics
	logger   *logger.Logger
}

func NewService(
	cardRepo repository.CardRepository,
	emitter event.Emitter,
	auditor *audit.Service,
	metrics *metrics.Metrics,
	logger *logger.Logger,
) *Service {
	return &Service{
		cardRepo: cardRepo,
		emitter:  emitter,
		auditor:  auditor,
		metrics:  metrics,
		logger:   logger,
	}
}

// ExportCards renders the viewer's reviewed cards in the requested
// vendor format. Only REVIEWED cards are exported; the date range
// defaults to everything when zero.
func (s *Service) ExportCards(ctx context.Context, viewer access.Viewer, formatID string, from, to time.Time) (*Result, error) {
	format, err := exportfmt.Lookup(formatID)
	if err != nil {
		s.metrics.ExportRuns.WithLabelValues(formatID, "bad_format").Inc()
		return nil, apperrors.BadRequest(err.Error(), err)
	}

	timer := prometheus.NewTimer(s.metrics.ExportDuration)
	defer timer.ObserveDuration()

	cards, err := s.cardRepo.ListForExport(ctx, viewer.Scope.Filter(), from, to)
	if err != nil {
		s.metrics.ExportRuns.WithLabelValues(format.ID, "error").Inc()
		return nil, fmt.Errorf("failed to load cards for export: %w", err)
	}

	content := exportfmt.GenerateCSV(cards, format)
	result := &Result{
		FileName: format.FileName(time.Now()),
		Content:  content,
		RowCount: len(cards),
	}

	s.metrics.ExportRuns.WithLabelValues(format.ID, "success").Inc()
	s.metrics.ExportRows.WithLabelValues(format.ID).Add(float64(len(cards)))

	if err := s.emitter.Emit(ctx, model.EventExportRun, map[string]interface{}{
		"organization_id": viewer.Scope.OrganizationID,
		"format":          format.ID,
		"row_count":       len(cards),
	}); err != nil {
		s.logger.Error(err, "failed to emit export run event", "format", format.ID)
	}

	s.auditor.Log(ctx, viewer.UserID, viewer.Scope.OrganizationID, model.AuditActionExport, model.AuditEntityCard, viewer.Scope.OrganizationID, &audit.LogOptions{
		Changes: map[string]interface{}{"format": format.ID, "row_count": len(cards)},
	})

	return result, nil
}
