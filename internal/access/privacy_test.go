package access

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/parishkit/chms-api/internal/model"
)

func adminViewer() Viewer {
	return Viewer{UserID: uuid.New(), CanManageUsers: true, Scope: Scope{AllLocations: true}}
}

func staffViewer() Viewer {
	locID := uuid.New()
	return Viewer{UserID: uuid.New(), Scope: Scope{LocationID: &locID}}
}

func TestCanSeePrayerRequest_PublicVisibleToStaff(t *testing.T) {
	v := staffViewer()
	p := &model.PrayerRequest{LocationID: v.Scope.LocationID}
	assert.True(t, v.CanSeePrayerRequest(p))
}

func TestCanSeePrayerRequest_PrivateHiddenFromStaff(t *testing.T) {
	v := staffViewer()
	p := &model.PrayerRequest{LocationID: v.Scope.LocationID, IsPrivate: true}
	assert.False(t, v.CanSeePrayerRequest(p))
}

func TestCanSeePrayerRequest_PrivateVisibleToAssignee(t *testing.T) {
	v := staffViewer()
	p := &model.PrayerRequest{
		LocationID:   v.Scope.LocationID,
		IsPrivate:    true,
		AssignedToID: &v.UserID,
	}
	assert.True(t, v.CanSeePrayerRequest(p))
}

func TestCanSeePrayerRequest_PrivateVisibleToAdmin(t *testing.T) {
	v := adminViewer()
	p := &model.PrayerRequest{IsPrivate: true}
	assert.True(t, v.CanSeePrayerRequest(p))
}

func TestCanSeePrayerRequest_OutOfScope(t *testing.T) {
	v := staffViewer()
	otherLoc := uuid.New()
	p := &model.PrayerRequest{LocationID: &otherLoc}
	assert.False(t, v.CanSeePrayerRequest(p))
}

func TestPrayerVisibility_Admin(t *testing.T) {
	v := adminViewer()

	p := v.PrayerVisibility(nil)
	assert.True(t, p.Unrestricted)
	assert.False(t, p.PrivateOnly)
	assert.False(t, p.PublicOnly)

	priv := true
	p = v.PrayerVisibility(&priv)
	assert.True(t, p.Unrestricted)
	assert.True(t, p.PrivateOnly)
}

func TestPrayerVisibility_Staff(t *testing.T) {
	v := staffViewer()

	p := v.PrayerVisibility(nil)
	assert.False(t, p.Unrestricted)
	assert.Equal(t, v.UserID, p.ViewerID)

	priv := true
	p = v.PrayerVisibility(&priv)
	assert.True(t, p.PrivateOnly)

	pub := false
	p = v.PrayerVisibility(&pub)
	assert.True(t, p.PublicOnly)
}

func TestRedactPrayerRequests(t *testing.T) {
	v := staffViewer()
	name := "Jane Smith"
	keep := "Bob Jones"

	assigned := &model.PrayerRequest{IsPrivate: true, AssignedToID: &v.UserID, SubmittedBy: &keep}
	hidden := &model.PrayerRequest{IsPrivate: true, SubmittedBy: &name}
	public := &model.PrayerRequest{SubmittedBy: &name}

	out := v.RedactPrayerRequests([]*model.PrayerRequest{assigned, hidden, public})

	assert.Len(t, out, 3, "redaction must not drop records")
	assert.NotNil(t, assigned.SubmittedBy)
	assert.Nil(t, hidden.SubmittedBy)
	assert.NotNil(t, public.SubmittedBy)
}

func TestRedactPrayerRequests_AdminSeesAll(t *testing.T) {
	v := adminViewer()
	name := "Jane Smith"
	hidden := &model.PrayerRequest{IsPrivate: true, SubmittedBy: &name}

	v.RedactPrayerRequests([]*model.PrayerRequest{hidden})
	assert.NotNil(t, hidden.SubmittedBy)
}
