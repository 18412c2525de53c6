package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/parishkit/chms-api/internal/access"
	"github.com/parishkit/chms-api/internal/model"
)

// All repository interfaces in one file
type (
	OrganizationRepository interface {
		Create(ctx context.Context, org *model.Organization) error
		Get(ctx context.Context, id uuid.UUID) (*model.Organization, error)
		Update(ctx context.Context, org *model.Organization) error
		Delete(ctx context.Context, id uuid.UUID) error
	}

	LocationRepository interface {
		Create(ctx context.Context, loc *model.Location) error
		Get(ctx context.Context, id uuid.UUID) (*model.Location, error)
		Update(ctx context.Context, loc *model.Location) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, organizationID uuid.UUID) ([]*model.Location, error)
	}

	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		Update(ctx context.Context, user *model.User) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filter *model.UserFilter) ([]*model.User, error)
		UpdateLastLogin(ctx context.Context, id uuid.UUID) error
	}

	MemberRepository interface {
		Create(ctx context.Context, member *model.ChurchMember) error
		Get(ctx context.Context, id uuid.UUID) (*model.ChurchMember, error)
		Update(ctx context.Context, member *model.ChurchMember) error
		List(ctx context.Context, scope access.QueryFilter, filter *model.MemberFilter) ([]*model.ChurchMember, error)
	}

	CardRepository interface {
		Create(ctx context.Context, card *model.ConnectCard) error
		Get(ctx context.Context, scope access.QueryFilter, id uuid.UUID) (*model.ConnectCard, error)
		Update(ctx context.Context, card *model.ConnectCard) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, scope access.QueryFilter, filter *model.CardFilter) ([]*model.ConnectCard, error)
		MarkReviewed(ctx context.Context, id, reviewerID uuid.UUID) error
		ListForExport(ctx context.Context, scope access.QueryFilter, from, to time.Time) ([]*model.ConnectCard, error)
	}

	BatchRepository interface {
		// GetOrCreateActive returns the PENDING batch for
		// (organization, location, day), creating it when absent. The
		// bool reports whether a new batch was created. Safe under
		// concurrent callers; on serialization conflict or timeout the
		// error is returned and the caller must retry.
		GetOrCreateActive(ctx context.Context, orgID uuid.UUID, locationID *uuid.UUID, day time.Time) (*model.ConnectCardBatch, bool, error)
		Get(ctx context.Context, scope access.QueryFilter, id uuid.UUID) (*model.ConnectCardBatch, error)
		List(ctx context.Context, scope access.QueryFilter, status string) ([]*model.ConnectCardBatch, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
		IncrementCardCount(ctx context.Context, id uuid.UUID, delta int) error
	}

	PrayerRepository interface {
		Create(ctx context.Context, req *model.PrayerRequest) error
		// Get returns nil, nil when the row does not exist; visibility
		// is enforced by the service so denial reads as absence.
		Get(ctx context.Context, scope access.QueryFilter, id uuid.UUID) (*model.PrayerRequest, error)
		List(ctx context.Context, scope access.QueryFilter, pred access.PrayerPredicate, filter *model.PrayerFilter) ([]*model.PrayerRequest, error)
		ListByBatch(ctx context.Context, scope access.QueryFilter, batchID uuid.UUID) ([]*model.PrayerRequest, error)
		Assign(ctx context.Context, id, userID uuid.UUID) error
		UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	}

	VolunteerRepository interface {
		// CreateWithMirror inserts the volunteer and mirrors its fields
		// onto the linked member row in one transaction (dual-write
		// shim for the unified member schema migration).
		CreateWithMirror(ctx context.Context, v *model.Volunteer) error
		Get(ctx context.Context, scope access.QueryFilter, id uuid.UUID) (*model.Volunteer, error)
		UpdateWithMirror(ctx context.Context, v *model.Volunteer) error
		List(ctx context.Context, scope access.QueryFilter, filter *model.VolunteerFilter) ([]*model.Volunteer, error)
		UpdateBackgroundCheck(ctx context.Context, id uuid.UUID, state string, checkedAt time.Time) error
	}

	AuditRepository interface {
		Create(ctx context.Context, log *model.AuditLog) error
		List(ctx context.Context, orgID uuid.UUID, entityType string, limit int) ([]*model.AuditLog, error)
		DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errMsg *string) error
		BeginTx(ctx context.Context) (*sql.Tx, error)
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
