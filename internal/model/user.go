package model

import (
	"time"

	"github.com/google/uuid"
)

// User status constants
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
	UserStatusPending  = "pending"
)

// User role constants
const (
	RoleOwner = "owner"
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

// User represents a staff member of an organization. If
// CanSeeAllLocations is false the user's effective scope is restricted
// to DefaultLocationID.
type User struct {
	Base
	OrganizationID     uuid.UUID  `json:"organization_id" db:"organization_id"`
	Email              string     `json:"email" db:"email"`
	Name               string     `json:"name" db:"name"`
	Password           string     `json:"password,omitempty" db:"-"`
	PasswordHash       string     `json:"-" db:"password_hash"`
	Phone              *string    `json:"phone" db:"phone"`
	Role               string     `json:"role" db:"role"`
	Status             string     `json:"status" db:"status"`
	CanSeeAllLocations bool       `json:"can_see_all_locations" db:"can_see_all_locations"`
	DefaultLocationID  *uuid.UUID `json:"default_location_id" db:"default_location_id"`
	EmailVerified      bool       `json:"email_verified" db:"email_verified"`
	LastLoginAt        *time.Time `json:"last_login_at" db:"last_login_at"`
	Settings           JSONMap    `json:"settings" db:"settings"`
}

// CanManageUsers reports whether the user's role grants user
// management, which also unlocks private prayer requests.
func (u *User) CanManageUsers() bool {
	return u.Role == RoleOwner || u.Role == RoleAdmin
}

type UserFilter struct {
	BaseFilter
	Role       string    `json:"role" form:"role"`
	LocationID uuid.UUID `json:"location_id" form:"location_id"`
}

type CreateUserRequest struct {
	OrganizationID string `json:"organization_id" binding:"required"`
	Email          string `json:"email" binding:"required,email"`
	Name           string `json:"name" binding:"required"`
	Password       string `json:"password" binding:"required,min=8"`
	Role           string `json:"role" binding:"required,oneof=owner admin staff"`
}

type UpdateUserRequest struct {
	Name               *string `json:"name"`
	Email              *string `json:"email" binding:"omitempty,email"`
	Phone              *string `json:"phone"`
	Role               *string `json:"role" binding:"omitempty,oneof=owner admin staff"`
	Status             *string `json:"status" binding:"omitempty,oneof=active inactive pending"`
	CanSeeAllLocations *bool   `json:"can_see_all_locations"`
	DefaultLocationID  *string `json:"default_location_id"`
}
