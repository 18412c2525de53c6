package access

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/parishkit/chms-api/internal/model"
)

func TestResolveScope_AllLocations(t *testing.T) {
	orgID := uuid.New()
	locID := uuid.New()

	// A set default location must not narrow a global user.
	u := &model.User{
		OrganizationID:     orgID,
		CanSeeAllLocations: true,
		DefaultLocationID:  &locID,
	}

	s := ResolveScope(u)
	assert.True(t, s.AllLocations)

	f := s.Filter()
	assert.False(t, f.DenyAll)
	assert.Nil(t, f.LocationID)
	assert.Equal(t, orgID, f.OrganizationID)
}

func TestResolveScope_RestrictedToDefaultLocation(t *testing.T) {
	orgID := uuid.New()
	locID := uuid.New()

	u := &model.User{
		OrganizationID:    orgID,
		DefaultLocationID: &locID,
	}

	s := ResolveScope(u)
	f := s.Filter()
	assert.False(t, f.DenyAll)
	if assert.NotNil(t, f.LocationID) {
		assert.Equal(t, locID, *f.LocationID)
	}
}

func TestResolveScope_NoLocationFailsClosed(t *testing.T) {
	u := &model.User{OrganizationID: uuid.New()}

	s := ResolveScope(u)
	f := s.Filter()
	assert.True(t, f.DenyAll)

	loc := uuid.New()
	assert.False(t, s.CanAccessLocation(&loc))
	assert.False(t, s.CanAccessLocation(nil))

	_, err := s.RequireLocation()
	assert.ErrorIs(t, err, ErrNoLocationAssigned)
}

func TestCanAccessLocation(t *testing.T) {
	locID := uuid.New()
	otherID := uuid.New()

	global := Scope{AllLocations: true}
	assert.True(t, global.CanAccessLocation(&locID))
	assert.True(t, global.CanAccessLocation(nil))

	restricted := Scope{LocationID: &locID}
	assert.True(t, restricted.CanAccessLocation(&locID))
	assert.False(t, restricted.CanAccessLocation(&otherID))
	assert.False(t, restricted.CanAccessLocation(nil))
}

func TestRequireLocation(t *testing.T) {
	locID := uuid.New()

	global := Scope{AllLocations: true}
	got, err := global.RequireLocation()
	assert.NoError(t, err)
	assert.Nil(t, got)

	restricted := Scope{LocationID: &locID}
	got, err = restricted.RequireLocation()
	assert.NoError(t, err)
	if assert.NotNil(t, got) {
		assert.Equal(t, locID, *got)
	}
}
