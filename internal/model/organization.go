package model

import "github.com/google/uuid"

// Organization status constants
const (
	OrgStatusActive   = "active"
	OrgStatusInactive = "inactive"
)

// Organization is the tenant root. Every domain record carries its ID;
// no query may cross organizations.
type Organization struct {
	Base
	Name     string  `json:"name" db:"name"`
	Status   string  `json:"status" db:"status"`
	Timezone string  `json:"timezone" db:"timezone"`
	Website  *string `json:"website" db:"website"`
	Settings JSONMap `json:"settings" db:"settings"`
}

// Location is a campus within an organization. A nullable location_id
// on a domain record means "organization-wide".
type Location struct {
	Base
	OrganizationID uuid.UUID `json:"organization_id" db:"organization_id"`
	Name           string    `json:"name" db:"name"`
	Address        *string   `json:"address" db:"address"`
	Status         string    `json:"status" db:"status"`
}

type CreateOrganizationRequest struct {
	Name     string `json:"name" binding:"required"`
	Timezone string `json:"timezone"`
	Website  string `json:"website"`
}

type CreateLocationRequest struct {
	OrganizationID string `json:"organization_id" binding:"required"`
	Name           string `json:"name" binding:"required"`
	Address        string `json:"address"`
}
