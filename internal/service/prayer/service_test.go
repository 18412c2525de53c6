package prayer

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parishkit/chms-api/internal/access"
	"github.com/parishkit/chms-api/internal/model"
	"github.com/parishkit/chms-api/internal/service/audit"
	apperrors "github.com/parishkit/chms-api/pkg/errors"
	"github.com/parishkit/chms-api/pkg/logger"
)

type fakePrayerRepo struct {
	mu       sync.Mutex
	requests map[uuid.UUID]*model.PrayerRequest
	lastPred access.PrayerPredicate
	assigned map[uuid.UUID]uuid.UUID
}

func newFakePrayerRepo() *fakePrayerRepo {
	return &fakePrayerRepo{
		requests: make(map[uuid.UUID]*model.PrayerRequest),
		assigned: make(map[uuid.UUID]uuid.UUID),
	}
}

func (r *fakePrayerRepo) Create(_ context.Context, req *model.PrayerRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	req.ID = uuid.New()
	cp := *req
	r.requests[req.ID] = &cp
	return nil
}

func (r *fakePrayerRepo) Get(_ context.Context, scope access.QueryFilter, id uuid.UUID) (*model.PrayerRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if scope.DenyAll {
		return nil, nil
	}
	p, ok := r.requests[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

// List records the predicate and applies it the way the SQL rendering
// does, so tests observe what a restricted viewer would get back.
func (r *fakePrayerRepo) List(_ context.Context, scope access.QueryFilter, pred access.PrayerPredicate, _ *model.PrayerFilter) ([]*model.PrayerRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastPred = pred
	if scope.DenyAll {
		return nil, nil
	}
	var out []*model.PrayerRequest
	for _, p := range r.requests {
		if !pred.Unrestricted && p.IsPrivate {
			if p.AssignedToID == nil || *p.AssignedToID != pred.ViewerID {
				continue
			}
		}
		if pred.PrivateOnly && !p.IsPrivate {
			continue
		}
		if pred.PublicOnly && p.IsPrivate {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakePrayerRepo) ListByBatch(_ context.Context, scope access.QueryFilter, batchID uuid.UUID) ([]*model.PrayerRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if scope.DenyAll {
		return nil, nil
	}
	var out []*model.PrayerRequest
	for _, p := range r.requests {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakePrayerRepo) Assign(_ context.Context, id, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.assigned[id] = userID
	if p, ok := r.requests[id]; ok {
		uid := userID
		p.AssignedToID = &uid
		p.Status = model.PrayerStatusAssigned
	}
	return nil
}

func (r *fakePrayerRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.requests[id]; ok {
		p.Status = status
	}
	return nil
}

type fakeBatchRepo struct {
	batches map[uuid.UUID]*model.ConnectCardBatch
}

func (r *fakeBatchRepo) GetOrCreateActive(_ context.Context, _ uuid.UUID, _ *uuid.UUID, _ time.Time) (*model.ConnectCardBatch, bool, error) {
	return nil, false, nil
}

func (r *fakeBatchRepo) Get(_ context.Context, scope access.QueryFilter, id uuid.UUID) (*model.ConnectCardBatch, error) {
	if scope.DenyAll {
		return nil, nil
	}
	b, ok := r.batches[id]
	if !ok {
		return nil, nil
	}
	return b, nil
}

func (r *fakeBatchRepo) List(_ context.Context, _ access.QueryFilter, _ string) ([]*model.ConnectCardBatch, error) {
	return nil, nil
}

func (r *fakeBatchRepo) UpdateStatus(_ context.Context, _ uuid.UUID, _ string) error { return nil }

func (r *fakeBatchRepo) IncrementCardCount(_ context.Context, _ uuid.UUID, _ int) error { return nil }

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func (r *fakeUserRepo) Create(_ context.Context, _ *model.User) error { return nil }

func (r *fakeUserRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return u, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, _ string) (*model.User, error) {
	return nil, nil
}

func (r *fakeUserRepo) Update(_ context.Context, _ *model.User) error { return nil }

func (r *fakeUserRepo) Delete(_ context.Context, _ uuid.UUID) error { return nil }

func (r *fakeUserRepo) List(_ context.Context, _ *model.UserFilter) ([]*model.User, error) {
	return nil, nil
}

func (r *fakeUserRepo) UpdateLastLogin(_ context.Context, _ uuid.UUID) error { return nil }

type fakeAuditRepo struct{}

func (r *fakeAuditRepo) Create(_ context.Context, _ *model.AuditLog) error { return nil }

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

type fakeMailer struct {
	urgentTo []string
}

func (m *fakeMailer) SendUrgentPrayerAssigned(_ context.Context, to, _, _ string) error {
	m.urgentTo = append(m.urgentTo, to)
	return nil
}

func (m *fakeMailer) SendUserInvitation(_ context.Context, _, _, _, _ string) error { return nil }

func (m *fakeMailer) SendBackgroundCheckFlagged(_ context.Context, _, _ string) error { return nil }

type prayerFixture struct {
	svc     *Service
	repo    *fakePrayerRepo
	batches *fakeBatchRepo
	users   *fakeUserRepo
	emitted *fakeEmitter
	mailer  *fakeMailer
}

func newPrayerFixture() *prayerFixture {
	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	f := &prayerFixture{
		repo:    newFakePrayerRepo(),
		batches: &fakeBatchRepo{batches: make(map[uuid.UUID]*model.ConnectCardBatch)},
		users:   &fakeUserRepo{users: make(map[uuid.UUID]*model.User)},
		emitted: &fakeEmitter{},
		mailer:  &fakeMailer{},
	}
	f.svc = NewService(f.repo, f.batches, f.users, f.emitted, f.mailer, audit.NewService(&fakeAuditRepo{}, log), log)
	return f
}

func managerViewer(orgID uuid.UUID) access.Viewer {
	return access.Viewer{
		UserID:         uuid.New(),
		CanManageUsers: true,
		Scope:          access.Scope{OrganizationID: orgID, AllLocations: true},
	}
}

func staffViewer(orgID, locID uuid.UUID) access.Viewer {
	return access.Viewer{
		UserID: uuid.New(),
		Scope:  access.Scope{OrganizationID: orgID, LocationID: &locID},
	}
}

func seedPrayer(f *prayerFixture, orgID uuid.UUID, locID *uuid.UUID, private bool, submitter string) *model.PrayerRequest {
	p := &model.PrayerRequest{
		OrganizationID: orgID,
		LocationID:     locID,
		Text:           "please pray",
		IsPrivate:      private,
		Status:         model.PrayerStatusPending,
	}
	if submitter != "" {
		p.SubmittedBy = &submitter
	}
	_ = f.repo.Create(context.Background(), p)
	return p
}

func TestGet_PrivateRequestHiddenFromStaffReadsAsNotFound(t *testing.T) {
	f := newPrayerFixture()
	orgID := uuid.New()
	locID := uuid.New()
	p := seedPrayer(f, orgID, &locID, true, "Jane")

	_, err := f.svc.Get(context.Background(), staffViewer(orgID, locID), p.ID)
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrNotFound, appErr.Code, "denial must be indistinguishable from absence")
}

func TestGet_PrivateRequestVisibleToAssignee(t *testing.T) {
	f := newPrayerFixture()
	orgID := uuid.New()
	locID := uuid.New()
	viewer := staffViewer(orgID, locID)

	p := seedPrayer(f, orgID, &locID, true, "Jane")
	f.repo.requests[p.ID].AssignedToID = &viewer.UserID

	got, err := f.svc.Get(context.Background(), viewer, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
}

func TestGet_PrivateRequestVisibleToManager(t *testing.T) {
	f := newPrayerFixture()
	orgID := uuid.New()
	locID := uuid.New()
	p := seedPrayer(f, orgID, &locID, true, "Jane")

	got, err := f.svc.Get(context.Background(), managerViewer(orgID), p.ID)
	require.NoError(t, err)
	require.NotNil(t, got.SubmittedBy, "single fetch never redacts")
	assert.Equal(t, "Jane", *got.SubmittedBy)
}

func TestList_RestrictedViewerExcludesForeignPrivateRequests(t *testing.T) {
	f := newPrayerFixture()
	orgID := uuid.New()
	locID := uuid.New()
	viewer := staffViewer(orgID, locID)

	public := seedPrayer(f, orgID, &locID, false, "Jane")
	seedPrayer(f, orgID, &locID, true, "Bob")
	mine := seedPrayer(f, orgID, &locID, true, "Eve")
	f.repo.requests[mine.ID].AssignedToID = &viewer.UserID

	got, err := f.svc.List(context.Background(), viewer, nil)
	require.NoError(t, err)
	require.Len(t, got, 2)

	ids := map[uuid.UUID]bool{}
	for _, p := range got {
		ids[p.ID] = true
		require.NotNil(t, p.SubmittedBy, "list excludes, it does not redact")
	}
	assert.True(t, ids[public.ID])
	assert.True(t, ids[mine.ID])
	assert.False(t, f.repo.lastPred.Unrestricted)
	assert.Equal(t, viewer.UserID, f.repo.lastPred.ViewerID)
}

func TestList_ManagerSeesEverything(t *testing.T) {
	f := newPrayerFixture()
	orgID := uuid.New()
	locID := uuid.New()
	seedPrayer(f, orgID, &locID, false, "Jane")
	seedPrayer(f, orgID, &locID, true, "Bob")

	got, err := f.svc.List(context.Background(), managerViewer(orgID), nil)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.True(t, f.repo.lastPred.Unrestricted)
}

func TestGetBatchWithRequests_RedactsInsteadOfExcluding(t *testing.T) {
	f := newPrayerFixture()
	orgID := uuid.New()
	locID := uuid.New()
	viewer := staffViewer(orgID, locID)

	batch := &model.ConnectCardBatch{OrganizationID: orgID, LocationID: &locID, Status: model.BatchStatusPending}
	batch.ID = uuid.New()
	f.batches.batches[batch.ID] = batch

	seedPrayer(f, orgID, &locID, false, "Jane")
	private := seedPrayer(f, orgID, &locID, true, "Bob")

	got, err := f.svc.GetBatchWithRequests(context.Background(), viewer, batch.ID)
	require.NoError(t, err)
	require.Len(t, got.Requests, 2, "batch view keeps private requests in the set")

	for _, p := range got.Requests {
		if p.ID == private.ID {
			assert.Nil(t, p.SubmittedBy, "hidden private request is redacted, not dropped")
		} else {
			require.NotNil(t, p.SubmittedBy)
			assert.Equal(t, "Jane", *p.SubmittedBy)
		}
	}
}

func TestAssign_UrgentRequestEmailsAssignee(t *testing.T) {
	f := newPrayerFixture()
	orgID := uuid.New()
	locID := uuid.New()
	viewer := managerViewer(orgID)

	p := seedPrayer(f, orgID, &locID, false, "Jane")
	f.repo.requests[p.ID].IsUrgent = true

	assignee := &model.User{Email: "pastor@example.com", Name: "Pastor Kim", OrganizationID: orgID}
	assignee.ID = uuid.New()
	f.users.users[assignee.ID] = assignee

	require.NoError(t, f.svc.Assign(context.Background(), viewer, p.ID, assignee.ID))
	assert.Equal(t, assignee.ID, f.repo.assigned[p.ID])
	assert.Equal(t, []string{"pastor@example.com"}, f.mailer.urgentTo)
	assert.Contains(t, f.emitted.events, model.EventPrayerAssigned)
}

func TestAssign_AssigneeFromOtherOrgRejected(t *testing.T) {
	f := newPrayerFixture()
	orgID := uuid.New()
	locID := uuid.New()
	p := seedPrayer(f, orgID, &locID, false, "Jane")

	outsider := &model.User{Email: "x@example.com", Name: "X", OrganizationID: uuid.New()}
	outsider.ID = uuid.New()
	f.users.users[outsider.ID] = outsider

	err := f.svc.Assign(context.Background(), managerViewer(orgID), p.ID, outsider.ID)
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrNotFound, appErr.Code)
}

func TestUpdateStatus_RejectsUnknownStatus(t *testing.T) {
	f := newPrayerFixture()
	orgID := uuid.New()
	locID := uuid.New()
	p := seedPrayer(f, orgID, &locID, false, "Jane")

	err := f.svc.UpdateStatus(context.Background(), managerViewer(orgID), p.ID, "SHOUTED")
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrBadRequest, appErr.Code)

	require.NoError(t, f.svc.UpdateStatus(context.Background(), managerViewer(orgID), p.ID, model.PrayerStatusAnswered))
	assert.Equal(t, model.PrayerStatusAnswered, f.repo.requests[p.ID].Status)
}
