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

const memberColumns = `
	id, organization_id, location_id, name, email, phone, address, member_status,
	photo_key, first_visit_at, is_volunteer, volunteer_status, volunteer_categories,
	background_check_state, background_check_at, created_at, updated_at, deleted_at
`

func (r *memberRepository) Create(ctx context.Context, member *model.ChurchMember) error {
	query := `
		INSERT INTO church_members (
			id, organization_id, location_id, name, email, phone, address,
			member_status, photo_key, first_visit_at, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	member.ID = uuid.New()
	member.CreatedAt = time.Now()
	member.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		member.ID,
		member.OrganizationID,
		member.LocationID,
		member.Name,
		member.Email,
		member.Phone,
		member.Address,
		member.MemberStatus,
		member.PhotoKey,
		member.FirstVisitAt,
		member.CreatedAt,
		member.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create member: %w", err)
	}
	return nil
}

func (r *memberRepository) Get(ctx context.Context, id uuid.UUID) (*model.ChurchMember, error) {
	query := `SELECT ` + memberColumns + ` FROM church_members WHERE id = $1 AND deleted_at IS NULL`
	var member model.ChurchMember
	err := r.db.GetContext(ctx, &member, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return &member, nil
}

func (r *memberRepository) Update(ctx context.Context, member *model.ChurchMember) error {
	query := `
		UPDATE church_members
		SET name = $1, email = $2, phone = $3, address = $4, member_status = $5,
			photo_key = $6, updated_at = $7
		WHERE id = $8 AND deleted_at IS NULL
	`
	member.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		member.Name,
		member.Email,
		member.Phone,
		member.Address,
		member.MemberStatus,
		member.PhotoKey,
		member.UpdatedAt,
		member.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update member: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("member not found")
	}
	return nil
}

func (r *memberRepository) List(ctx context.Context, scope access.QueryFilter, filter *model.MemberFilter) ([]*model.ChurchMember, error) {
	query := `SELECT ` + memberColumns + ` FROM church_members WHERE deleted_at IS NULL`
	clause, args := scopeClause(scope, 1)
	query += clause

	if filter != nil {
		if filter.SearchTerm != "" {
			args = append(args, "%"+filter.SearchTerm+"%")
			query += fmt.Sprintf(" AND (name ILIKE $%d OR email ILIKE $%d)", len(args), len(args))
		}
		if filter.Status != "" {
			args = append(args, filter.Status)
			query += fmt.Sprintf(" AND member_status = $%d", len(args))
		}
	}
	query += " ORDER BY name"

	var members []*model.ChurchMember
	if err := r.db.SelectContext(ctx, &members, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}
