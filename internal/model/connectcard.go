package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Connect card lifecycle: created on scan upload, mutated during OCR
// extraction, finalized on staff review.
const (
	CardStatusPending   = "PENDING"
	CardStatusExtracted = "EXTRACTED"
	CardStatusReviewed  = "REVIEWED"
)

// Batch lifecycle.
const (
	BatchStatusPending   = "PENDING"
	BatchStatusInReview  = "IN_REVIEW"
	BatchStatusCompleted = "COMPLETED"
)

// ConnectCard is a digitized visitor/member intake form.
type ConnectCard struct {
	Base
	OrganizationID    uuid.UUID  `json:"organization_id" db:"organization_id"`
	LocationID        *uuid.UUID `json:"location_id" db:"location_id"`
	BatchID           *uuid.UUID `json:"batch_id" db:"batch_id"`
	MemberID          *uuid.UUID `json:"member_id" db:"member_id"`
	Name              string     `json:"name" db:"name"`
	Email             *string    `json:"email" db:"email"`
	Phone             *string    `json:"phone" db:"phone"`
	Address           *string    `json:"address" db:"address"`
	VisitType         *string    `json:"visit_type" db:"visit_type"`
	Interests         pq.StringArray `json:"interests" db:"interests"`
	VolunteerCategory *string    `json:"volunteer_category" db:"volunteer_category"`
	PrayerText        *string    `json:"prayer_text" db:"prayer_text"`
	ScanKey           *string    `json:"scan_key" db:"scan_key"`
	Status            string     `json:"status" db:"status"`
	ReviewedBy        *uuid.UUID `json:"reviewed_by" db:"reviewed_by"`
	ReviewedAt        *time.Time `json:"reviewed_at" db:"reviewed_at"`
	VisitDate         *time.Time `json:"visit_date" db:"visit_date"`
}

// ConnectCardBatch groups cards uploaded together, scoped to one
// location and one day. At most one PENDING batch exists per
// (organization, location, day).
type ConnectCardBatch struct {
	Base
	OrganizationID uuid.UUID  `json:"organization_id" db:"organization_id"`
	LocationID     *uuid.UUID `json:"location_id" db:"location_id"`
	Name           string     `json:"name" db:"name"`
	BatchDate      time.Time  `json:"batch_date" db:"batch_date"`
	Sequence       int        `json:"sequence" db:"sequence"`
	Status         string     `json:"status" db:"status"`
	CardCount      int        `json:"card_count" db:"card_count"`
}

type CardFilter struct {
	BaseFilter
	LocationID *uuid.UUID `json:"location_id" form:"location_id"`
	BatchID    *uuid.UUID `json:"batch_id" form:"batch_id"`
}

type CreateCardRequest struct {
	LocationID        string   `json:"location_id"`
	Name              string   `json:"name" binding:"required"`
	Email             string   `json:"email" binding:"omitempty,email"`
	Phone             string   `json:"phone"`
	Address           string   `json:"address"`
	VisitType         string   `json:"visit_type"`
	Interests         []string `json:"interests"`
	VolunteerCategory string   `json:"volunteer_category"`
	PrayerText        string   `json:"prayer_text"`
	ScanKey           string   `json:"scan_key"`
	VisitDate         string   `json:"visit_date"`
}

type UpdateCardRequest struct {
	Name              *string  `json:"name"`
	Email             *string  `json:"email" binding:"omitempty,email"`
	Phone             *string  `json:"phone"`
	Address           *string  `json:"address"`
	VisitType         *string  `json:"visit_type"`
	Interests         []string `json:"interests"`
	VolunteerCategory *string  `json:"volunteer_category"`
	PrayerText        *string  `json:"prayer_text"`
}
