package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Membership status constants, as mapped into vendor exports.
const (
	MemberStatusVisitor = "Visitor"
	MemberStatusRegular = "Regular Attender"
	MemberStatusMember  = "Member"
)

// ChurchMember is the unified person record. During the volunteer data
// migration it also mirrors volunteer fields (see Volunteer).
type ChurchMember struct {
	Base
	OrganizationID uuid.UUID  `json:"organization_id" db:"organization_id"`
	LocationID     *uuid.UUID `json:"location_id" db:"location_id"`
	Name           string     `json:"name" db:"name"`
	Email          *string    `json:"email" db:"email"`
	Phone          *string    `json:"phone" db:"phone"`
	Address        *string    `json:"address" db:"address"`
	MemberStatus   string     `json:"member_status" db:"member_status"`
	PhotoKey       *string    `json:"photo_key" db:"photo_key"`
	FirstVisitAt   *time.Time `json:"first_visit_at" db:"first_visit_at"`

	// Mirrored volunteer fields, populated by the dual-write shim.
	IsVolunteer          bool       `json:"is_volunteer" db:"is_volunteer"`
	VolunteerStatus      *string    `json:"volunteer_status" db:"volunteer_status"`
	VolunteerCategories  pq.StringArray `json:"volunteer_categories" db:"volunteer_categories"`
	BackgroundCheckState *string    `json:"background_check_state" db:"background_check_state"`
	BackgroundCheckAt    *time.Time `json:"background_check_at" db:"background_check_at"`
}

type MemberFilter struct {
	BaseFilter
	LocationID *uuid.UUID `json:"location_id" form:"location_id"`
}
