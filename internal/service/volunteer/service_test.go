package volunteer

import (
	"context"
	"io"
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

// fakeVolunteerRepo mimics the dual-write shim: mutations land on the
// volunteer map and mirror onto the member map, the way the SQL repo
// does in one transaction.
type fakeVolunteerRepo struct {
	volunteers map[uuid.UUID]*model.Volunteer
	members    *fakeMemberRepo
}

func newFakeVolunteerRepo(members *fakeMemberRepo) *fakeVolunteerRepo {
	return &fakeVolunteerRepo{volunteers: make(map[uuid.UUID]*model.Volunteer), members: members}
}

func (r *fakeVolunteerRepo) mirror(v *model.Volunteer) {
	m, ok := r.members.members[v.MemberID]
	if !ok {
		return
	}
	status := v.Status
	state := v.BackgroundCheckState
	m.IsVolunteer = true
	m.VolunteerStatus = &status
	m.VolunteerCategories = v.Categories
	m.BackgroundCheckState = &state
	m.BackgroundCheckAt = v.BackgroundCheckAt
}

func (r *fakeVolunteerRepo) CreateWithMirror(_ context.Context, v *model.Volunteer) error {
	v.ID = uuid.New()
	cp := *v
	r.volunteers[v.ID] = &cp
	r.mirror(v)
	return nil
}

func (r *fakeVolunteerRepo) Get(_ context.Context, scope access.QueryFilter, id uuid.UUID) (*model.Volunteer, error) {
	if scope.DenyAll {
		return nil, nil
	}
	v, ok := r.volunteers[id]
	if !ok {
		return nil, nil
	}
	cp := *v
	return &cp, nil
}

func (r *fakeVolunteerRepo) UpdateWithMirror(_ context.Context, v *model.Volunteer) error {
	cp := *v
	r.volunteers[v.ID] = &cp
	r.mirror(v)
	return nil
}

func (r *fakeVolunteerRepo) List(_ context.Context, scope access.QueryFilter, _ *model.VolunteerFilter) ([]*model.Volunteer, error) {
	if scope.DenyAll {
		return nil, nil
	}
	var out []*model.Volunteer
	for _, v := range r.volunteers {
		cp := *v
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeVolunteerRepo) UpdateBackgroundCheck(_ context.Context, id uuid.UUID, state string, checkedAt time.Time) error {
	v, ok := r.volunteers[id]
	if !ok {
		return nil
	}
	v.BackgroundCheckState = state
	v.BackgroundCheckAt = &checkedAt
	r.mirror(v)
	return nil
}

type fakeMemberRepo struct {
	members map[uuid.UUID]*model.ChurchMember
}

func (r *fakeMemberRepo) Create(_ context.Context, m *model.ChurchMember) error {
	m.ID = uuid.New()
	r.members[m.ID] = m
	return nil
}

func (r *fakeMemberRepo) Get(_ context.Context, id uuid.UUID) (*model.ChurchMember, error) {
	m, ok := r.members[id]
	if !ok {
		return nil, nil
	}
	return m, nil
}

func (r *fakeMemberRepo) Update(_ context.Context, m *model.ChurchMember) error {
	r.members[m.ID] = m
	return nil
}

func (r *fakeMemberRepo) List(_ context.Context, _ access.QueryFilter, _ *model.MemberFilter) ([]*model.ChurchMember, error) {
	return nil, nil
}

type fakeUserRepo struct {
	users []*model.User
}

func (r *fakeUserRepo) Create(_ context.Context, _ *model.User) error { return nil }

func (r *fakeUserRepo) Get(_ context.Context, _ uuid.UUID) (*model.User, error) { return nil, nil }

func (r *fakeUserRepo) GetByEmail(_ context.Context, _ string) (*model.User, error) {
	return nil, nil
}

func (r *fakeUserRepo) Update(_ context.Context, _ *model.User) error { return nil }

func (r *fakeUserRepo) Delete(_ context.Context, _ uuid.UUID) error { return nil }

func (r *fakeUserRepo) List(_ context.Context, filter *model.UserFilter) ([]*model.User, error) {
	var out []*model.User
	for _, u := range r.users {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

func (r *fakeUserRepo) UpdateLastLogin(_ context.Context, _ uuid.UUID) error { return nil }

type fakeAuditRepo struct{}

func (r *fakeAuditRepo) Create(_ context.Context, _ *model.AuditLog) error { return nil }

func (r *fakeAuditRepo) List(_ context.Context, _ uuid.UUID, _ string, _ int) ([]*model.AuditLog, error) {
	return nil, nil
}

func (r *fakeAuditRepo) DeleteBefore(_ context.Context, _ time.Time) (int64, error) { return 0, nil }

type fakeEmitter struct {
	events   []string
	payloads []interface{}
}

func (e *fakeEmitter) Emit(_ context.Context, eventType string, payload interface{}) error {
	e.events = append(e.events, eventType)
	e.payloads = append(e.payloads, payload)
	return nil
}

type fakeMailer struct {
	flaggedTo []string
}

func (m *fakeMailer) SendUrgentPrayerAssigned(_ context.Context, _, _, _ string) error { return nil }

func (m *fakeMailer) SendUserInvitation(_ context.Context, _, _, _, _ string) error { return nil }

func (m *fakeMailer) SendBackgroundCheckFlagged(_ context.Context, to, _ string) error {
	m.flaggedTo = append(m.flaggedTo, to)
	return nil
}

type volunteerFixture struct {
	svc     *Service
	repo    *fakeVolunteerRepo
	members *fakeMemberRepo
	users   *fakeUserRepo
	emitted *fakeEmitter
	mailer  *fakeMailer
}

func newVolunteerFixture() *volunteerFixture {
	log := logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
	members := &fakeMemberRepo{members: make(map[uuid.UUID]*model.ChurchMember)}
	f := &volunteerFixture{
		repo:    newFakeVolunteerRepo(members),
		members: members,
		users:   &fakeUserRepo{},
		emitted: &fakeEmitter{},
		mailer:  &fakeMailer{},
	}
	f.svc = NewService(f.repo, f.members, f.users, f.emitted, f.mailer, audit.NewService(&fakeAuditRepo{}, log), log)
	return f
}

func adminViewer(orgID uuid.UUID) access.Viewer {
	return access.Viewer{
		UserID:         uuid.New(),
		CanManageUsers: true,
		Scope:          access.Scope{OrganizationID: orgID, AllLocations: true},
	}
}

func seedMember(f *volunteerFixture, orgID uuid.UUID) *model.ChurchMember {
	locID := uuid.New()
	m := &model.ChurchMember{
		OrganizationID: orgID,
		LocationID:     &locID,
		Name:           "Sam Lee",
		MemberStatus:   model.MemberStatusMember,
	}
	_ = f.members.Create(context.Background(), m)
	return m
}

func TestCreate_MirrorsOntoMemberRecord(t *testing.T) {
	f := newVolunteerFixture()
	orgID := uuid.New()
	member := seedMember(f, orgID)

	v, err := f.svc.Create(context.Background(), adminViewer(orgID), &model.CreateVolunteerRequest{
		MemberID:       member.ID.String(),
		Categories:     []string{"greeting", "kids"},
	})
	require.NoError(t, err)

	assert.Equal(t, model.VolunteerStatusApplied, v.Status)
	assert.Equal(t, model.CheckStateNotStarted, v.BackgroundCheckState)
	assert.Equal(t, member.LocationID, v.LocationID, "location defaults to the member's")

	mirrored := f.members.members[member.ID]
	assert.True(t, mirrored.IsVolunteer)
	require.NotNil(t, mirrored.VolunteerStatus)
	assert.Equal(t, model.VolunteerStatusApplied, *mirrored.VolunteerStatus)
	assert.EqualValues(t, []string{"greeting", "kids"}, []string(mirrored.VolunteerCategories))

	assert.Contains(t, f.emitted.events, model.EventVolunteerStatus)
}

func TestCreate_MemberAlreadyVolunteerConflicts(t *testing.T) {
	f := newVolunteerFixture()
	orgID := uuid.New()
	member := seedMember(f, orgID)
	member.IsVolunteer = true

	_, err := f.svc.Create(context.Background(), adminViewer(orgID), &model.CreateVolunteerRequest{
		MemberID:       member.ID.String(),
	})
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrConflict, appErr.Code)
}

func TestCreate_MemberFromOtherOrgNotFound(t *testing.T) {
	f := newVolunteerFixture()
	member := seedMember(f, uuid.New())

	_, err := f.svc.Create(context.Background(), adminViewer(uuid.New()), &model.CreateVolunteerRequest{
		MemberID:       member.ID.String(),
	})
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrNotFound, appErr.Code)
}

func TestUpdate_ActivationGatedOnClearedCheck(t *testing.T) {
	f := newVolunteerFixture()
	orgID := uuid.New()
	viewer := adminViewer(orgID)
	member := seedMember(f, orgID)

	v, err := f.svc.Create(context.Background(), viewer, &model.CreateVolunteerRequest{
		MemberID:       member.ID.String(),
	})
	require.NoError(t, err)

	active := model.VolunteerStatusActive
	_, err = f.svc.Update(context.Background(), viewer, v.ID, &model.UpdateVolunteerRequest{Status: &active})
	require.Error(t, err, "activation before the check clears must be rejected")
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrBadRequest, appErr.Code)

	require.NoError(t, f.svc.UpdateBackgroundCheck(context.Background(), viewer, v.ID, model.CheckStateCleared))

	updated, err := f.svc.Update(context.Background(), viewer, v.ID, &model.UpdateVolunteerRequest{Status: &active})
	require.NoError(t, err)
	assert.Equal(t, model.VolunteerStatusActive, updated.Status)

	mirrored := f.members.members[member.ID]
	require.NotNil(t, mirrored.VolunteerStatus)
	assert.Equal(t, model.VolunteerStatusActive, *mirrored.VolunteerStatus)
}

func TestUpdate_StatusChangeEmitsPreviousStatus(t *testing.T) {
	f := newVolunteerFixture()
	orgID := uuid.New()
	viewer := adminViewer(orgID)
	member := seedMember(f, orgID)

	v, err := f.svc.Create(context.Background(), viewer, &model.CreateVolunteerRequest{
		MemberID:       member.ID.String(),
	})
	require.NoError(t, err)

	screened := model.VolunteerStatusScreened
	_, err = f.svc.Update(context.Background(), viewer, v.ID, &model.UpdateVolunteerRequest{Status: &screened})
	require.NoError(t, err)

	last := f.emitted.payloads[len(f.emitted.payloads)-1].(map[string]interface{})
	assert.Equal(t, model.VolunteerStatusScreened, last["status"])
	assert.Equal(t, model.VolunteerStatusApplied, last["previous_status"])
}

func TestUpdateBackgroundCheck_RequiresManager(t *testing.T) {
	f := newVolunteerFixture()
	orgID := uuid.New()
	member := seedMember(f, orgID)

	v, err := f.svc.Create(context.Background(), adminViewer(orgID), &model.CreateVolunteerRequest{
		MemberID:       member.ID.String(),
	})
	require.NoError(t, err)

	staff := access.Viewer{
		UserID: uuid.New(),
		Scope:  access.Scope{OrganizationID: orgID, LocationID: v.LocationID},
	}
	err = f.svc.UpdateBackgroundCheck(context.Background(), staff, v.ID, model.CheckStateCleared)
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrForbidden, appErr.Code)
}

func TestUpdateBackgroundCheck_FlaggedNotifiesAdmins(t *testing.T) {
	f := newVolunteerFixture()
	orgID := uuid.New()
	viewer := adminViewer(orgID)
	member := seedMember(f, orgID)

	admin := &model.User{Email: "admin@example.com", Name: "Admin", OrganizationID: orgID, Role: model.RoleAdmin, Status: model.UserStatusActive}
	admin.ID = uuid.New()
	pastor := &model.User{Email: "staff@example.com", Name: "Staff", OrganizationID: orgID, Role: model.RoleStaff, Status: model.UserStatusActive}
	pastor.ID = uuid.New()
	f.users.users = []*model.User{admin, pastor}

	v, err := f.svc.Create(context.Background(), viewer, &model.CreateVolunteerRequest{
		MemberID:       member.ID.String(),
	})
	require.NoError(t, err)

	require.NoError(t, f.svc.UpdateBackgroundCheck(context.Background(), viewer, v.ID, model.CheckStateFlagged))
	assert.Equal(t, []string{"admin@example.com"}, f.mailer.flaggedTo)
	assert.Equal(t, model.CheckStateFlagged, f.repo.volunteers[v.ID].BackgroundCheckState)

	mirrored := f.members.members[member.ID]
	require.NotNil(t, mirrored.BackgroundCheckState)
	assert.Equal(t, model.CheckStateFlagged, *mirrored.BackgroundCheckState)
}
