package model

import (
	"time"

	"github.com/google/uuid"
)

// Prayer request status constants
const (
	PrayerStatusPending  = "PENDING"
	PrayerStatusAssigned = "ASSIGNED"
	PrayerStatusPraying  = "PRAYING"
	PrayerStatusAnswered = "ANSWERED"
	PrayerStatusArchived = "ARCHIVED"
)

// PrayerRequest carries privacy semantics: a private request is visible
// only to users who can manage users or to the assignee. Everyone else
// either does not see it at all (list/single fetch) or sees it with the
// submitter redacted (batch-grouped fetch).
type PrayerRequest struct {
	Base
	OrganizationID uuid.UUID  `json:"organization_id" db:"organization_id"`
	LocationID     *uuid.UUID `json:"location_id" db:"location_id"`
	CardID         *uuid.UUID `json:"card_id" db:"card_id"`
	SubmittedBy    *string    `json:"submitted_by" db:"submitted_by"`
	Text           string     `json:"text" db:"text"`
	IsPrivate      bool       `json:"is_private" db:"is_private"`
	IsUrgent       bool       `json:"is_urgent" db:"is_urgent"`
	Status         string     `json:"status" db:"status"`
	AssignedToID   *uuid.UUID `json:"assigned_to_id" db:"assigned_to_id"`
	AssignedAt     *time.Time `json:"assigned_at" db:"assigned_at"`
	AnsweredAt     *time.Time `json:"answered_at" db:"answered_at"`
}

// Redact nulls the submitter, used on the batch-grouped read path
// instead of exclusion.
func (p *PrayerRequest) Redact() {
	p.SubmittedBy = nil
}

// PrayerBatch groups requests for a joint prayer session view.
type PrayerBatch struct {
	Batch    *ConnectCardBatch `json:"batch"`
	Requests []*PrayerRequest  `json:"requests"`
}

type PrayerFilter struct {
	BaseFilter
	LocationID   *uuid.UUID `json:"location_id" form:"location_id"`
	IsPrivate    *bool      `json:"is_private" form:"is_private"`
	IsUrgent     *bool      `json:"is_urgent" form:"is_urgent"`
	AssignedToID *uuid.UUID `json:"assigned_to_id" form:"assigned_to_id"`
}

type CreatePrayerRequest struct {
	LocationID     string `json:"location_id"`
	CardID         string `json:"card_id"`
	SubmittedBy    string `json:"submitted_by"`
	Text           string `json:"text" binding:"required"`
	IsPrivate      bool   `json:"is_private"`
	IsUrgent       bool   `json:"is_urgent"`
}

type AssignPrayerRequest struct {
	AssignedToID string `json:"assigned_to_id" binding:"required"`
}
