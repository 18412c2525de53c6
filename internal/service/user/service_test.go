package user

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/parishkit/chms-api/internal/model"
	"github.com/parishkit/chms-api/internal/service/audit"
	apperrors "github.com/parishkit/chms-api/pkg/errors"
	"github.com/parishkit/chms-api/pkg/logger"
	"github.com/parishkit/chms-api/pkg/security"
)

type fakeUserRepo struct {
	users map[uuid.UUID]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*model.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, u *model.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) Get(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) Update(_ context.Context, u *model.User) error {
	r.users[u.ID] = u
	return nil
}

func (r *fakeUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.users, id)
	return nil
}

func (r *fakeUserRepo) List(_ context.Context, filter *model.UserFilter) ([]*model.User, error) {
	var out []*model.User
	for _, u := range r.users {
		if u.OrganizationID != filter.OrganizationID {
			continue
		}
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeUserRepo) UpdateLastLogin(_ context.Context, _ uuid.UUID) error { return nil }

type fakeOrgRepo struct {
	orgs map[uuid.UUID]*model.Organization
}

func newFakeOrgRepo() *fakeOrgRepo {
	return &fakeOrgRepo{orgs: make(map[uuid.UUID]*model.Organization)}
}

func (r *fakeOrgRepo) Create(_ context.Context, org *model.Organization) error {
	r.orgs[org.ID] = org
	return nil
}

func (r *fakeOrgRepo) Get(_ context.Context, id uuid.UUID) (*model.Organization, error) {
	org, ok := r.orgs[id]
	if !ok {
		return nil, nil
	}
	cp := *org
	return &cp, nil
}

func (r *fakeOrgRepo) Update(_ context.Context, org *model.Organization) error {
	r.orgs[org.ID] = org
	return nil
}

func (r *fakeOrgRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.orgs, id)
	return nil
}

type fakeLocRepo struct {
	locs map[uuid.UUID]*model.Location
}

func newFakeLocRepo() *fakeLocRepo {
	return &fakeLocRepo{locs: make(map[uuid.UUID]*model.Location)}
}

func (r *fakeLocRepo) Create(_ context.Context, loc *model.Location) error {
	r.locs[loc.ID] = loc
	return nil
}

func (r *fakeLocRepo) Get(_ context.Context, id uuid.UUID) (*model.Location, error) {
	loc, ok := r.locs[id]
	if !ok {
		return nil, nil
	}
	cp := *loc
	return &cp, nil
}

func (r *fakeLocRepo) Update(_ context.Context, loc *model.Location) error {
	r.locs[loc.ID] = loc
	return nil
}

func (r *fakeLocRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(r.locs, id)
	return nil
}

func (r *fakeLocRepo) List(_ context.Context, organizationID uuid.UUID) ([]*model.Location, error) {
	var out []*model.Location
	for _, loc := range r.locs {
		if loc.OrganizationID == organizationID {
			cp := *loc
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeAuditRepo struct{ logs []*model.AuditLog }

func (r *fakeAuditRepo) Create(_ context.Context, l *model.AuditLog) error {
	r.logs = append(r.logs, l)
	return nil
}

func (r *fakeAuditRepo) List(_ context.Context, _ uuid.UUID, _ string, _ int) ([]*model.AuditLog, error) {
	return r.logs, nil
}

func (r *fakeAuditRepo) DeleteBefore(_ context.Context, _ time.Time) (int64, error) {
	return 0, nil
}

type fakeMailer struct{ invitations []string }

func (m *fakeMailer) SendUrgentPrayerAssigned(_ context.Context, _, _, _ string) error { return nil }

func (m *fakeMailer) SendUserInvitation(_ context.Context, to, _, _, _ string) error {
	m.invitations = append(m.invitations, to)
	return nil
}

func (m *fakeMailer) SendBackgroundCheckFlagged(_ context.Context, _, _ string) error { return nil }

type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }
func (fakeHasher) Compare(_, _ string) error            { return nil }

type userFixture struct {
	users  *fakeUserRepo
	orgs   *fakeOrgRepo
	locs   *fakeLocRepo
	mailer *fakeMailer
	svc    *Service
}

func newUserFixture() *userFixture {
	users := newFakeUserRepo()
	orgs := newFakeOrgRepo()
	locs := newFakeLocRepo()
	mailer := &fakeMailer{}
	log := logger.NewLogger(&logger.Config{Output: io.Discard})
	svc := NewService(users, orgs, locs, fakeHasher{}, mailer, audit.NewService(&fakeAuditRepo{}, log), log)
	return &userFixture{users: users, orgs: orgs, locs: locs, mailer: mailer, svc: svc}
}

func seedUser(f *userFixture, orgID uuid.UUID, email, role string) *model.User {
	u := &model.User{
		OrganizationID: orgID,
		Email:          email,
		Name:           "Seeded User",
		Role:           role,
		Status:         model.UserStatusActive,
	}
	u.ID = uuid.New()
	f.users.users[u.ID] = u
	return u
}

func TestGetUser_SameOrganization(t *testing.T) {
	f := newUserFixture()
	orgID := uuid.New()
	actor := seedUser(f, orgID, "actor@example.org", model.RoleStaff)
	target := seedUser(f, orgID, "target@example.org", model.RoleStaff)

	got, err := f.svc.GetUser(context.Background(), actor, target.ID)
	require.NoError(t, err)
	assert.Equal(t, "target@example.org", got.Email)
}

// A user ID belonging to another tenant reads as not found, never as a
// record with contact details.
func TestGetUser_CrossTenantReadsAsNotFound(t *testing.T) {
	f := newUserFixture()
	actor := seedUser(f, uuid.New(), "actor@orga.example", model.RoleStaff)
	victim := seedUser(f, uuid.New(), "victim@orgb.example", model.RoleStaff)

	got, err := f.svc.GetUser(context.Background(), actor, victim.ID)
	require.Error(t, err)
	assert.Nil(t, got)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok, "expected *AppError, got %T", err)
	assert.Equal(t, apperrors.ErrNotFound, appErr.Code)
}

func TestUpdateUser_CrossTenantNotFound(t *testing.T) {
	f := newUserFixture()
	actor := seedUser(f, uuid.New(), "admin@orga.example", model.RoleAdmin)
	victim := seedUser(f, uuid.New(), "victim@orgb.example", model.RoleStaff)

	name := "Hijacked"
	_, err := f.svc.UpdateUser(context.Background(), actor, victim.ID, &model.UpdateUserRequest{Name: &name})
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrNotFound, appErr.Code)
	assert.Equal(t, "Seeded User", f.users.users[victim.ID].Name)
}

func TestDeleteUser_CrossTenantNotFound(t *testing.T) {
	f := newUserFixture()
	actor := seedUser(f, uuid.New(), "admin@orga.example", model.RoleAdmin)
	victim := seedUser(f, uuid.New(), "victim@orgb.example", model.RoleStaff)

	err := f.svc.DeleteUser(context.Background(), actor, victim.ID)
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrNotFound, appErr.Code)
	assert.Contains(t, f.users.users, victim.ID)
}

func TestCreateUser_SendsInvitation(t *testing.T) {
	f := newUserFixture()
	orgID := uuid.New()
	org := &model.Organization{Name: "First Church"}
	org.ID = orgID
	f.orgs.orgs[orgID] = org
	actor := seedUser(f, orgID, "admin@example.org", model.RoleAdmin)

	created, err := f.svc.CreateUser(context.Background(), actor, &model.CreateUserRequest{
		OrganizationID: orgID.String(),
		Email:          "new@example.org",
		Name:           "New Staffer",
		Password:       "long-enough-password",
		Role:           model.RoleStaff,
	})
	require.NoError(t, err)
	assert.Equal(t, orgID, created.OrganizationID)
	assert.Equal(t, []string{"new@example.org"}, f.mailer.invitations)
}

func TestCreateUser_ShortPasswordRejected(t *testing.T) {
	f := newUserFixture()
	orgID := uuid.New()
	actor := seedUser(f, orgID, "admin@example.org", model.RoleAdmin)

	log := logger.NewLogger(&logger.Config{Output: io.Discard})
	svc := NewService(f.users, f.orgs, f.locs,
		security.NewBcryptHasher(security.BcryptConfig{Cost: bcrypt.MinCost}),
		f.mailer, audit.NewService(&fakeAuditRepo{}, log), log)

	_, err := svc.CreateUser(context.Background(), actor, &model.CreateUserRequest{
		OrganizationID: orgID.String(),
		Email:          "new@example.org",
		Name:           "New Staffer",
		Password:       "short",
		Role:           model.RoleStaff,
	})
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrBadRequest, appErr.Code)
}

func TestCreateUser_RejectsBadEmail(t *testing.T) {
	f := newUserFixture()
	orgID := uuid.New()
	actor := seedUser(f, orgID, "admin@example.org", model.RoleAdmin)

	_, err := f.svc.CreateUser(context.Background(), actor, &model.CreateUserRequest{
		OrganizationID: orgID.String(),
		Email:          "not-an-email",
		Name:           "New Staffer",
		Password:       "long-enough-password",
		Role:           model.RoleStaff,
	})
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrBadRequest, appErr.Code)
}
