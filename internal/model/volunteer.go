package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Volunteer status constants
const (
	VolunteerStatusApplied  = "APPLIED"
	VolunteerStatusScreened = "SCREENED"
	VolunteerStatusActive   = "ACTIVE"
	VolunteerStatusInactive = "INACTIVE"
)

// Background check states
const (
	CheckStateNotStarted = "NOT_STARTED"
	CheckStatePending    = "PENDING"
	CheckStateCleared    = "CLEARED"
	CheckStateFlagged    = "FLAGGED"
)

// Volunteer is linked 1:1 to a ChurchMember. While the unified member
// schema migration is in flight, volunteer mutations are mirrored onto
// the member row in the same transaction.
type Volunteer struct {
	Base
	OrganizationID       uuid.UUID  `json:"organization_id" db:"organization_id"`
	LocationID           *uuid.UUID `json:"location_id" db:"location_id"`
	MemberID             uuid.UUID  `json:"member_id" db:"member_id"`
	Status               string     `json:"status" db:"status"`
	Categories           pq.StringArray `json:"categories" db:"categories"`
	BackgroundCheckState string     `json:"background_check_state" db:"background_check_state"`
	BackgroundCheckAt    *time.Time `json:"background_check_at" db:"background_check_at"`
	Notes                *string    `json:"notes" db:"notes"`
}

type VolunteerFilter struct {
	BaseFilter
	LocationID *uuid.UUID `json:"location_id" form:"location_id"`
	Category   string     `json:"category" form:"category"`
}

type CreateVolunteerRequest struct {
	LocationID     string   `json:"location_id"`
	MemberID       string   `json:"member_id" binding:"required"`
	Categories     []string `json:"categories"`
	Notes          string   `json:"notes"`
}

type UpdateVolunteerRequest struct {
	Status     *string  `json:"status" binding:"omitempty,oneof=APPLIED SCREENED ACTIVE INACTIVE"`
	Categories []string `json:"categories"`
	Notes      *string  `json:"notes"`
}

type BackgroundCheckRequest struct {
	State string `json:"state" binding:"required,oneof=NOT_STARTED PENDING CLEARED FLAGGED"`
}
