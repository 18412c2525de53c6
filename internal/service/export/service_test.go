package export

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parishkit/chms-api/internal/access"
	exportfmt "github.com/parishkit/chms-api/internal/export"
	"github.com/parishkit/chms-api/internal/model"
	"github.com/parishkit/chms-api/internal/service/audit"
	apperrors "github.com/parishkit/chms-api/pkg/errors"
	"github.com/parishkit/chms-api/pkg/logger"
	"github.com/parishkit/chms-api/pkg/metrics"
)

var testMetrics = metrics.NewMetrics("test", "export_service")

type fakeCardRepo struct {
	cards     []*model.ConnectCard
	lastScope access.QueryFilter
	lastFrom  time.Time
	lastTo    time.Time
	err       error
}

func (r *fakeCardRepo) Create(_ context.Context, _ *model.ConnectCard) error { return nil }

func (r *fakeCardRepo) Get(_ context.Context, _ access.QueryFilter, _ uuid.UUID) (*model.ConnectCard, error) {
	return nil, nil
}

func (r *fakeCardRepo) Update(_ context.Context, _ *model.ConnectCard) error { return nil }

func (r *fakeCardRepo) Delete(_ context.Context, _ uuid.UUID) error { return nil }

func (r *fakeCardRepo) List(_ context.Context, _ access.QueryFilter, _ *model.CardFilter) ([]*model.ConnectCard, error) {
	return nil, nil
}

func (r *fakeCardRepo) MarkReviewed(_ context.Context, _, _ uuid.UUID) error { return nil }

func (r *fakeCardRepo) ListForExport(_ context.Context, scope access.QueryFilter, from, to time.Time) ([]*model.ConnectCard, error) {
	r.lastScope = scope
	r.lastFrom = from
	r.lastTo = to
	if r.err != nil {
		return nil, r.err
	}
	return r.cards, nil
}

type fakeAuditRepo struct {
	logs []*model.AuditLog
}

func (r *fakeAuditRepo) Create(_ context.Context, log *model.AuditLog) error {
	r.logs = append(r.logs, log)
	return nil
}

func (r *fakeAuditRepo) List(_ context.Context, _ uuid.UUID, _ string, _ int) ([]*model.AuditLog, error) {
	return nil, nil
}

func (r *fakeAuditRepo) DeleteBefore(_ context.Context, _ time.Time) (int64, error) { return 0, nil }

type fakeEmitter struct {
	events []string
}

func (e *fakeEmitter) Emit(_ context.Context, eventType string, _ interface{}) error {
	e.events = append(e.events, eventType)
	return nil
}

type exportFixture struct {
	svc     *Service
	cards   *fakeCardRepo
	audits  *fakeAuditRepo
	emitted *fakeEmitter
}

func newExportFixture() *exportFixture {
	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	f := &exportFixture{
		cards:   &fakeCardRepo{},
		audits:  &fakeAuditRepo{},
		emitted: &fakeEmitter{},
	}
	f.svc = NewService(f.cards, f.emitted, audit.NewService(f.audits, log), testMetrics, log)
	return f
}

func exportViewer(orgID uuid.UUID) access.Viewer {
	return access.Viewer{
		UserID:         uuid.New(),
		CanManageUsers: true,
		Scope:          access.Scope{OrganizationID: orgID, AllLocations: true},
	}
}

func reviewedCard(orgID uuid.UUID, name string) *model.ConnectCard {
	email := strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com"
	c := &model.ConnectCard{
		OrganizationID: orgID,
		Name:           name,
		Email:          &email,
		Status:         model.CardStatusReviewed,
	}
	c.ID = uuid.New()
	return c
}

func TestExportCards_GenericFormat(t *testing.T) {
	f := newExportFixture()
	orgID := uuid.New()
	f.cards.cards = []*model.ConnectCard{
		reviewedCard(orgID, "Jane Doe"),
		reviewedCard(orgID, "Sam Lee"),
	}

	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

	res, err := f.svc.ExportCards(context.Background(), exportViewer(orgID), exportfmt.FormatGeneric, from, to)
	require.NoError(t, err)

	assert.Equal(t, 2, res.RowCount)
	assert.True(t, strings.HasPrefix(res.FileName, "connect-cards-generic-"))
	assert.True(t, strings.HasSuffix(res.FileName, ".csv"))

	lines := strings.Split(res.Content, "\n")
	require.Len(t, lines, 3, "header plus one row per card")
	assert.Contains(t, lines[1], "Jane Doe")
	assert.Contains(t, lines[2], "Sam Lee")
	assert.False(t, strings.HasSuffix(res.Content, "\n"), "no trailing newline")

	assert.Equal(t, orgID, f.cards.lastScope.OrganizationID)
	assert.Equal(t, from, f.cards.lastFrom)
	assert.Equal(t, to, f.cards.lastTo)

	assert.Contains(t, f.emitted.events, model.EventExportRun)
	require.Len(t, f.audits.logs, 1)
	assert.Equal(t, model.AuditActionExport, f.audits.logs[0].Action)
}

func TestExportCards_EmptyRangeStillProducesHeader(t *testing.T) {
	f := newExportFixture()
	orgID := uuid.New()

	res, err := f.svc.ExportCards(context.Background(), exportViewer(orgID), exportfmt.FormatBreeze, time.Time{}, time.Time{})
	require.NoError(t, err)

	assert.Equal(t, 0, res.RowCount)
	assert.NotEmpty(t, res.Content, "header row is always present")
	assert.NotContains(t, res.Content, "\n")
}

func TestExportCards_UnknownFormatRejected(t *testing.T) {
	f := newExportFixture()
	orgID := uuid.New()

	_, err := f.svc.ExportCards(context.Background(), exportViewer(orgID), "quickbooks", time.Time{}, time.Time{})
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrBadRequest, appErr.Code)
	assert.Empty(t, f.emitted.events)
}
