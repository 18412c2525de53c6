// Package access computes the location-level visibility scope applied
// to every tenant query, and the privacy rules for prayer requests.
package access

import (
	"errors"

	"github.com/google/uuid"

	"github.com/parishkit/chms-api/internal/model"
)

// ErrNoLocationAssigned is returned when an operation requires a
// location and the caller has neither global visibility nor a default
// location.
var ErrNoLocationAssigned = errors.New("user has no location assigned")

// Scope is the computed location restriction for a user. The zero
// value denies everything; use ResolveScope.
type Scope struct {
	OrganizationID uuid.UUID
	AllLocations   bool
	LocationID     *uuid.UUID
}

// QueryFilter is the explicit filter value handed to repositories.
// DenyAll short-circuits queries to empty results: a user without
// global visibility and without an assigned location sees nothing
// rather than everything.
type QueryFilter struct {
	OrganizationID uuid.UUID
	LocationID     *uuid.UUID
	DenyAll        bool
}

// ResolveScope computes a user's scope from their location assignment.
// Pure function of the user's fields.
func ResolveScope(u *model.User) Scope {
	s := Scope{OrganizationID: u.OrganizationID}
	if u.CanSeeAllLocations {
		s.AllLocations = true
		return s
	}
	if u.DefaultLocationID != nil {
		id := *u.DefaultLocationID
		s.LocationID = &id
	}
	return s
}

// Filter produces the query filter for the scope. Restricted users
// with no assigned location get a deny-all filter (fail closed).
func (s Scope) Filter() QueryFilter {
	f := QueryFilter{OrganizationID: s.OrganizationID}
	if s.AllLocations {
		return f
	}
	if s.LocationID == nil {
		f.DenyAll = true
		return f
	}
	id := *s.LocationID
	f.LocationID = &id
	return f
}

// CanAccessLocation reports whether the scope may touch records at the
// target location. A nil target means an organization-wide record,
// which a location-restricted user may access only if they also have
// no location (handled by deny-all, so: no).
func (s Scope) CanAccessLocation(target *uuid.UUID) bool {
	if s.AllLocations {
		return true
	}
	if s.LocationID == nil {
		return false
	}
	if target == nil {
		return false
	}
	return *s.LocationID == *target
}

// RequireLocation returns the scope's single location, or
// ErrNoLocationAssigned for restricted users without one. Callers that
// create location-scoped records (batches, cards) use this instead of
// silently widening.
func (s Scope) RequireLocation() (*uuid.UUID, error) {
	if s.AllLocations {
		return nil, nil
	}
	if s.LocationID == nil {
		return nil, ErrNoLocationAssigned
	}
	id := *s.LocationID
	return &id, nil
}
