package access

import (
	"github.com/google/uuid"

	"github.com/parishkit/chms-api/internal/model"
)

// Viewer carries the identity facts the privacy rules depend on.
type Viewer struct {
	UserID         uuid.UUID
	CanManageUsers bool
	Scope          Scope
}

// NewViewer builds a Viewer from a user row.
func NewViewer(u *model.User) Viewer {
	return Viewer{
		UserID:         u.ID,
		CanManageUsers: u.CanManageUsers(),
		Scope:          ResolveScope(u),
	}
}

// CanSeePrayerRequest decides single-record visibility. Private
// requests are visible only to user-managers or the assignee; callers
// translate false into "not found" so denial is indistinguishable from
// absence.
func (v Viewer) CanSeePrayerRequest(p *model.PrayerRequest) bool {
	if !v.Scope.AllLocations && !v.Scope.CanAccessLocation(p.LocationID) {
		return false
	}
	if !p.IsPrivate {
		return true
	}
	if v.CanManageUsers {
		return true
	}
	return p.AssignedToID != nil && *p.AssignedToID == v.UserID
}

// PrayerPredicate describes the privacy portion of a prayer-request
// list query. Repositories translate it into SQL; the rules live here
// so both the query builder and tests share one definition.
type PrayerPredicate struct {
	// Unrestricted is set for user-managers: location scope applies,
	// privacy does not.
	Unrestricted bool
	// ViewerID limits private rows to ones assigned to the viewer.
	ViewerID uuid.UUID
	// PrivateOnly narrows to private rows (an explicit is_private
	// filter). For staff this means "my private assignments" only.
	PrivateOnly bool
	// PublicOnly narrows to public rows.
	PublicOnly bool
}

// PrayerVisibility computes the list-mode predicate for a viewer and
// an optional explicit is_private filter.
func (v Viewer) PrayerVisibility(isPrivate *bool) PrayerPredicate {
	p := PrayerPredicate{ViewerID: v.UserID, Unrestricted: v.CanManageUsers}
	if isPrivate != nil {
		if *isPrivate {
			p.PrivateOnly = true
		} else {
			p.PublicOnly = true
		}
	}
	return p
}

// RedactPrayerRequests applies the batch-grouped read path's privacy
// strategy: instead of excluding invisible private rows, the submitter
// is nulled. Returns the same slice for chaining.
func (v Viewer) RedactPrayerRequests(reqs []*model.PrayerRequest) []*model.PrayerRequest {
	for _, p := range reqs {
		if p.IsPrivate && !v.CanManageUsers && (p.AssignedToID == nil || *p.AssignedToID != v.UserID) {
			p.Redact()
		}
	}
	return reqs
}
