package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/parishkit/chms-api/internal/access"
	"github.com/parishkit/chms-api/internal/model"
)

const prayerColumns = `
	id, organization_id, location_id, card_id, submitted_by, text, is_private,
	is_urgent, status, assigned_to_id, assigned_at, answered_at,
	created_at, updated_at, deleted_at
`

func (r *prayerRepository) Create(ctx context.Context, req *model.PrayerRequest) error {
	query := `
		INSERT INTO prayer_requests (
			id, organization_id, location_id, card_id, submitted_by, text,
			is_private, is_urgent, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	req.ID = uuid.New()
	req.CreatedAt = time.Now()
	req.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		req.ID,
		req.OrganizationID,
		req.LocationID,
		req.CardID,
		req.SubmittedBy,
		req.Text,
		req.IsPrivate,
		req.IsUrgent,
		req.Status,
		req.CreatedAt,
		req.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create prayer request: %w", err)
	}
	return nil
}

// Get returns nil, nil for a missing row. The service layer also
// returns nil for rows the viewer may not see, so callers cannot
// distinguish denial from absence.
func (r *prayerRepository) Get(ctx context.Context, scope access.QueryFilter, id uuid.UUID) (*model.PrayerRequest, error) {
	query := `
		SELECT ` + prayerColumns + `
		FROM prayer_requests
		WHERE id = $1 AND deleted_at IS NULL
	`
	clause, args := scopeClause(scope, 2)
	query += clause

	var req model.PrayerRequest
	err := r.db.GetContext(ctx, &req, query, append([]interface{}{id}, args...)...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prayer request: %w", err)
	}
	return &req, nil
}

// List applies the privacy predicate in SQL: invisible private rows
// are excluded, not redacted.
func (r *prayerRepository) List(ctx context.Context, scope access.QueryFilter, pred access.PrayerPredicate, filter *model.PrayerFilter) ([]*model.PrayerRequest, error) {
	query := `SELECT ` + prayerColumns + ` FROM prayer_requests WHERE deleted_at IS NULL`
	clause, args := scopeClause(scope, 1)
	query += clause

	query, args = appendPrivacyPredicate(query, args, pred)

	if filter != nil {
		if filter.Status != "" {
			args = append(args, filter.Status)
			query += fmt.Sprintf(" AND status = $%d", len(args))
		}
		if filter.IsUrgent != nil {
			args = append(args, *filter.IsUrgent)
			query += fmt.Sprintf(" AND is_urgent = $%d", len(args))
		}
		if filter.AssignedToID != nil {
			args = append(args, *filter.AssignedToID)
			query += fmt.Sprintf(" AND assigned_to_id = $%d", len(args))
		}
	}
	query += " ORDER BY is_urgent DESC, created_at DESC"

	var reqs []*model.PrayerRequest
	if err := r.db.SelectContext(ctx, &reqs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list prayer requests: %w", err)
	}
	return reqs, nil
}

func appendPrivacyPredicate(query string, args []interface{}, pred access.PrayerPredicate) (string, []interface{}) {
	if pred.Unrestricted {
		switch {
		case pred.PrivateOnly:
			query += " AND is_private = TRUE"
		case pred.PublicOnly:
			query += " AND is_private = FALSE"
		}
		return query, args
	}

	switch {
	case pred.PrivateOnly:
		// Staff asking for private rows see only their assignments.
		args = append(args, pred.ViewerID)
		query += fmt.Sprintf(" AND is_private = TRUE AND assigned_to_id = $%d", len(args))
	case pred.PublicOnly:
		query += " AND is_private = FALSE"
	default:
		args = append(args, pred.ViewerID)
		query += fmt.Sprintf(" AND (is_private = FALSE OR assigned_to_id = $%d)", len(args))
	}
	return query, args
}

// ListByBatch returns every request tied to the batch's cards,
// including private ones: this read path redacts at the service layer
// instead of excluding.
func (r *prayerRepository) ListByBatch(ctx context.Context, scope access.QueryFilter, batchID uuid.UUID) ([]*model.PrayerRequest, error) {
	query := `
		SELECT ` + prayerColumns + `
		FROM prayer_requests
		WHERE deleted_at IS NULL
		  AND card_id IN (SELECT id FROM connect_cards WHERE batch_id = $1)
	`
	clause, args := scopeClause(scope, 2)
	query += clause
	query += " ORDER BY created_at"

	var reqs []*model.PrayerRequest
	if err := r.db.SelectContext(ctx, &reqs, query, append([]interface{}{batchID}, args...)...); err != nil {
		return nil, fmt.Errorf("failed to list prayer requests for batch: %w", err)
	}
	return reqs, nil
}

func (r *prayerRepository) Assign(ctx context.Context, id, userID uuid.UUID) error {
	query := `
		UPDATE prayer_requests
		SET assigned_to_id = $1, assigned_at = $2, status = $3, updated_at = $2
		WHERE id = $4 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, userID, time.Now(), model.PrayerStatusAssigned, id)
	if err != nil {
		return fmt.Errorf("failed to assign prayer request: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("prayer request not found")
	}
	return nil
}

func (r *prayerRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := `UPDATE prayer_requests SET status = $1, updated_at = $2 WHERE id = $3 AND deleted_at IS NULL`
	if status == model.PrayerStatusAnswered {
		query = `UPDATE prayer_requests SET status = $1, answered_at = $2, updated_at = $2 WHERE id = $3 AND deleted_at IS NULL`
	}
	result, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update prayer request status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("prayer request not found")
	}
	return nil
}
