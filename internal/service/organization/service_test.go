package organization

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parishkit/chms-api/internal/access"
	"github.com/parishkit/chms-api/internal/model"
	apperrors "github.com/parishkit/chms-api/pkg/errors"
)

type fakeOrgRepo struct {
	orgs map[uuid.UUID]*model.Organization
}

func newFakeOrgRepo() *fakeOrgRepo {
	return &fakeOrgRepo{orgs: make(map[uuid.UUID]*model.Organization)}
}

func (r *fakeOrgRepo) Create(_ context.Context, org *model.Organization) error {
	if org.ID == uuid.Nil {
		org.ID = uuid.New()
	}
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
	if loc.ID == uuid.Nil {
		loc.ID = uuid.New()
	}
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

type orgFixture struct {
	orgs *fakeOrgRepo
	locs *fakeLocRepo
	svc  *Service
}

func newOrgFixture() *orgFixture {
	orgs := newFakeOrgRepo()
	locs := newFakeLocRepo()
	return &orgFixture{orgs: orgs, locs: locs, svc: NewService(orgs, locs)}
}

func seedOrg(f *orgFixture, name string) *model.Organization {
	org := &model.Organization{Name: name, Status: model.OrgStatusActive, Timezone: "UTC"}
	org.ID = uuid.New()
	f.orgs.orgs[org.ID] = org
	return org
}

func seedLoc(f *orgFixture, orgID uuid.UUID, name string) *model.Location {
	loc := &model.Location{OrganizationID: orgID, Name: name, Status: model.OrgStatusActive}
	loc.ID = uuid.New()
	f.locs.locs[loc.ID] = loc
	return loc
}

func viewerFor(orgID uuid.UUID) access.Viewer {
	return access.Viewer{
		UserID: uuid.New(),
		Scope:  access.Scope{OrganizationID: orgID, AllLocations: true},
	}
}

func assertNotFound(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := err.(*apperrors.AppError)
	require.True(t, ok, "expected *AppError, got %T", err)
	assert.Equal(t, apperrors.ErrNotFound, appErr.Code)
}

func TestGetOrganization_OwnTenant(t *testing.T) {
	f := newOrgFixture()
	org := seedOrg(f, "First Church")

	got, err := f.svc.GetOrganization(context.Background(), viewerFor(org.ID), org.ID)
	require.NoError(t, err)
	assert.Equal(t, org.Name, got.Name)
}

func TestGetOrganization_ForeignTenantReadsAsNotFound(t *testing.T) {
	f := newOrgFixture()
	seedOrg(f, "First Church")
	other := seedOrg(f, "Other Church")

	_, err := f.svc.GetOrganization(context.Background(), viewerFor(uuid.New()), other.ID)
	assertNotFound(t, err)
}

func TestUpdateOrganization_ForeignTenantNotFound(t *testing.T) {
	f := newOrgFixture()
	victim := seedOrg(f, "Other Church")

	hijacked := *victim
	hijacked.Name = "Renamed"
	err := f.svc.UpdateOrganization(context.Background(), viewerFor(uuid.New()), &hijacked)
	assertNotFound(t, err)
	assert.Equal(t, "Other Church", f.orgs.orgs[victim.ID].Name)
}

func TestDeleteOrganization_ForeignTenantNotFound(t *testing.T) {
	f := newOrgFixture()
	victim := seedOrg(f, "Other Church")

	err := f.svc.DeleteOrganization(context.Background(), viewerFor(uuid.New()), victim.ID)
	assertNotFound(t, err)
	assert.Contains(t, f.orgs.orgs, victim.ID)
}

func TestCreateLocation_ForeignOrgNotFound(t *testing.T) {
	f := newOrgFixture()
	victim := seedOrg(f, "Other Church")

	_, err := f.svc.CreateLocation(context.Background(), viewerFor(uuid.New()), &model.CreateLocationRequest{
		OrganizationID: victim.ID.String(),
		Name:           "North Campus",
	})
	assertNotFound(t, err)
	assert.Empty(t, f.locs.locs)
}

func TestCreateLocation_OwnOrg(t *testing.T) {
	f := newOrgFixture()
	org := seedOrg(f, "First Church")

	loc, err := f.svc.CreateLocation(context.Background(), viewerFor(org.ID), &model.CreateLocationRequest{
		OrganizationID: org.ID.String(),
		Name:           "North Campus",
	})
	require.NoError(t, err)
	assert.Equal(t, org.ID, loc.OrganizationID)
}

func TestGetLocation_ForeignTenantNotFound(t *testing.T) {
	f := newOrgFixture()
	victim := seedOrg(f, "Other Church")
	loc := seedLoc(f, victim.ID, "Downtown")

	_, err := f.svc.GetLocation(context.Background(), viewerFor(uuid.New()), loc.ID)
	assertNotFound(t, err)
}

func TestUpdateLocation_ForeignTenantNotFound(t *testing.T) {
	f := newOrgFixture()
	victim := seedOrg(f, "Other Church")
	loc := seedLoc(f, victim.ID, "Downtown")

	hijacked := *loc
	hijacked.Name = "Renamed"
	err := f.svc.UpdateLocation(context.Background(), viewerFor(uuid.New()), &hijacked)
	assertNotFound(t, err)
	assert.Equal(t, "Downtown", f.locs.locs[loc.ID].Name)
}

// A request body carrying a different organization_id must not move
// the location between tenants.
func TestUpdateLocation_BodyCannotChangeTenant(t *testing.T) {
	f := newOrgFixture()
	org := seedOrg(f, "First Church")
	loc := seedLoc(f, org.ID, "Downtown")

	edited := *loc
	edited.Name = "Downtown Campus"
	edited.OrganizationID = uuid.New()
	err := f.svc.UpdateLocation(context.Background(), viewerFor(org.ID), &edited)
	require.NoError(t, err)
	assert.Equal(t, org.ID, f.locs.locs[loc.ID].OrganizationID)
	assert.Equal(t, "Downtown Campus", f.locs.locs[loc.ID].Name)
}

func TestDeleteLocation_ForeignTenantNotFound(t *testing.T) {
	f := newOrgFixture()
	victim := seedOrg(f, "Other Church")
	loc := seedLoc(f, victim.ID, "Downtown")

	err := f.svc.DeleteLocation(context.Background(), viewerFor(uuid.New()), loc.ID)
	assertNotFound(t, err)
	assert.Contains(t, f.locs.locs, loc.ID)
}
