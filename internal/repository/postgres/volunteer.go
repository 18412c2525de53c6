package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/parishkit/chms-api/internal/access"
	"github.com/parishkit/chms-api/internal/model"
)

const volunteerColumns = `
	id, organization_id, location_id, member_id, status, categories,
	background_check_state, background_check_at, notes,
	created_at, updated_at, deleted_at
`

// CreateWithMirror inserts the volunteer and mirrors its fields onto
// the member row in one transaction. The mirror exists only for the
// unified member schema migration; readers of either table must agree.
func (r *volunteerRepository) CreateWithMirror(ctx context.Context, v *model.Volunteer) error {
	v.ID = uuid.New()
	v.CreatedAt = time.Now()
	v.UpdatedAt = time.Now()

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		insert := `
			INSERT INTO volunteers (
				id, organization_id, location_id, member_id, status, categories,
				background_check_state, background_check_at, notes, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`
		if _, err := tx.ExecContext(ctx, insert,
			v.ID,
			v.OrganizationID,
			v.LocationID,
			v.MemberID,
			v.Status,
			v.Categories,
			v.BackgroundCheckState,
			v.BackgroundCheckAt,
			v.Notes,
			v.CreatedAt,
			v.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to create volunteer: %w", err)
		}

		return mirrorToMember(ctx, tx, v)
	})
}

func (r *volunteerRepository) UpdateWithMirror(ctx context.Context, v *model.Volunteer) error {
	v.UpdatedAt = time.Now()

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		update := `
			UPDATE volunteers
			SET status = $1, categories = $2, notes = $3, updated_at = $4
			WHERE id = $5 AND deleted_at IS NULL
		`
		result, err := tx.ExecContext(ctx, update, v.Status, v.Categories, v.Notes, v.UpdatedAt, v.ID)
		if err != nil {
			return fmt.Errorf("failed to update volunteer: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return fmt.Errorf("volunteer not found")
		}

		return mirrorToMember(ctx, tx, v)
	})
}

// mirrorToMember is the dual-write shim: volunteer fields copied onto
// the linked church_members row within the caller's transaction.
func mirrorToMember(ctx context.Context, tx *sqlx.Tx, v *model.Volunteer) error {
	mirror := `
		UPDATE church_members
		SET is_volunteer = TRUE,
			volunteer_status = $1,
			volunteer_categories = $2,
			background_check_state = $3,
			background_check_at = $4,
			updated_at = $5
		WHERE id = $6
	`
	if _, err := tx.ExecContext(ctx, mirror,
		v.Status,
		v.Categories,
		v.BackgroundCheckState,
		v.BackgroundCheckAt,
		time.Now(),
		v.MemberID,
	); err != nil {
		return fmt.Errorf("failed to mirror volunteer onto member: %w", err)
	}
	return nil
}

func (r *volunteerRepository) Get(ctx context.Context, scope access.QueryFilter, id uuid.UUID) (*model.Volunteer, error) {
	query := `
		SELECT ` + volunteerColumns + `
		FROM volunteers
		WHERE id = $1 AND deleted_at IS NULL
	`
	clause, args := scopeClause(scope, 2)
	query += clause

	var v model.Volunteer
	err := r.db.GetContext(ctx, &v, query, append([]interface{}{id}, args...)...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get volunteer: %w", err)
	}
	return &v, nil
}

func (r *volunteerRepository) List(ctx context.Context, scope access.QueryFilter, filter *model.VolunteerFilter) ([]*model.Volunteer, error) {
	query := `SELECT ` + volunteerColumns + ` FROM volunteers WHERE deleted_at IS NULL`
	clause, args := scopeClause(scope, 1)
	query += clause

	if filter != nil {
		if filter.Status != "" {
			args = append(args, filter.Status)
			query += fmt.Sprintf(" AND status = $%d", len(args))
		}
		if filter.Category != "" {
			args = append(args, filter.Category)
			query += fmt.Sprintf(" AND $%d = ANY(categories)", len(args))
		}
	}
	query += " ORDER BY created_at DESC"

	var vols []*model.Volunteer
	if err := r.db.SelectContext(ctx, &vols, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list volunteers: %w", err)
	}
	return vols, nil
}

// UpdateBackgroundCheck writes the check state on both sides of the
// dual-write in one transaction.
func (r *volunteerRepository) UpdateBackgroundCheck(ctx context.Context, id uuid.UUID, state string, checkedAt time.Time) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		update := `
			UPDATE volunteers
			SET background_check_state = $1, background_check_at = $2, updated_at = $3
			WHERE id = $4 AND deleted_at IS NULL
			RETURNING member_id
		`
		var memberID uuid.UUID
		err := tx.GetContext(ctx, &memberID, update, state, checkedAt, time.Now(), id)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("volunteer not found")
		}
		if err != nil {
			return fmt.Errorf("failed to update background check: %w", err)
		}

		mirror := `
			UPDATE church_members
			SET background_check_state = $1, background_check_at = $2, updated_at = $3
			WHERE id = $4
		`
		if _, err := tx.ExecContext(ctx, mirror, state, checkedAt, time.Now(), memberID); err != nil {
			return fmt.Errorf("failed to mirror background check onto member: %w", err)
		}
		return nil
	})
}
