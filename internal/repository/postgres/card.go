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

const cardColumns = `
	id, organization_id, location_id, batch_id, member_id, name, email, phone,
	address, visit_type, interests, volunteer_category, prayer_text, scan_key,
	status, reviewed_by, reviewed_at, visit_date, created_at, updated_at, deleted_at
`

func (r *cardRepository) Create(ctx context.Context, card *model.ConnectCard) error {
	query := `
		INSERT INTO connect_cards (
			id, organization_id, location_id, batch_id, member_id, name, email,
			phone, address, visit_type, interests, volunteer_category, prayer_text,
			scan_key, status, visit_date, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	card.ID = uuid.New()
	card.CreatedAt = time.Now()
	card.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		card.ID,
		card.OrganizationID,
		card.LocationID,
		card.BatchID,
		card.MemberID,
		card.Name,
		card.Email,
		card.Phone,
		card.Address,
		card.VisitType,
		card.Interests,
		card.VolunteerCategory,
		card.PrayerText,
		card.ScanKey,
		card.Status,
		card.VisitDate,
		card.CreatedAt,
		card.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create connect card: %w", err)
	}
	return nil
}

func (r *cardRepository) Get(ctx context.Context, scope access.QueryFilter, id uuid.UUID) (*model.ConnectCard, error) {
	query := `
		SELECT ` + cardColumns + `
		FROM connect_cards
		WHERE id = $1 AND deleted_at IS NULL
	`
	clause, args := scopeClause(scope, 2)
	query += clause

	var card model.ConnectCard
	err := r.db.GetContext(ctx, &card, query, append([]interface{}{id}, args...)...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get connect card: %w", err)
	}
	return &card, nil
}

func (r *cardRepository) Update(ctx context.Context, card *model.ConnectCard) error {
	query := `
		UPDATE connect_cards
		SET name = $1, email = $2, phone = $3, address = $4, visit_type = $5,
			interests = $6, volunteer_category = $7, prayer_text = $8,
			status = $9, updated_at = $10
		WHERE id = $11 AND deleted_at IS NULL
	`
	card.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		card.Name,
		card.Email,
		card.Phone,
		card.Address,
		card.VisitType,
		card.Interests,
		card.VolunteerCategory,
		card.PrayerText,
		card.Status,
		card.UpdatedAt,
		card.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update connect card: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("connect card not found")
	}
	return nil
}

func (r *cardRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE connect_cards SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL`
	_, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete connect card: %w", err)
	}
	return nil
}

func (r *cardRepository) List(ctx context.Context, scope access.QueryFilter, filter *model.CardFilter) ([]*model.ConnectCard, error) {
	query := `SELECT ` + cardColumns + ` FROM connect_cards WHERE deleted_at IS NULL`
	clause, args := scopeClause(scope, 1)
	query += clause

	if filter != nil {
		if filter.Status != "" {
			args = append(args, filter.Status)
			query += fmt.Sprintf(" AND status = $%d", len(args))
		}
		if filter.BatchID != nil {
			args = append(args, *filter.BatchID)
			query += fmt.Sprintf(" AND batch_id = $%d", len(args))
		}
	}
	query += " ORDER BY created_at DESC"

	var cards []*model.ConnectCard
	if err := r.db.SelectContext(ctx, &cards, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list connect cards: %w", err)
	}
	return cards, nil
}

func (r *cardRepository) MarkReviewed(ctx context.Context, id, reviewerID uuid.UUID) error {
	query := `
		UPDATE connect_cards
		SET status = $1, reviewed_by = $2, reviewed_at = $3, updated_at = $3
		WHERE id = $4 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, model.CardStatusReviewed, reviewerID, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to mark card reviewed: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("connect card not found")
	}
	return nil
}

func (r *cardRepository) ListForExport(ctx context.Context, scope access.QueryFilter, from, to time.Time) ([]*model.ConnectCard, error) {
	query := `
		SELECT ` + cardColumns + `
		FROM connect_cards
		WHERE deleted_at IS NULL AND status = $1
	`
	args := []interface{}{model.CardStatusReviewed}
	clause, scopeArgs := scopeClause(scope, 2)
	query += clause
	args = append(args, scopeArgs...)

	if !from.IsZero() {
		args = append(args, from)
		query += fmt.Sprintf(" AND created_at >= $%d", len(args))
	}
	if !to.IsZero() {
		args = append(args, to)
		query += fmt.Sprintf(" AND created_at < $%d", len(args))
	}
	query += " ORDER BY created_at"

	var cards []*model.ConnectCard
	if err := r.db.SelectContext(ctx, &cards, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list cards for export: %w", err)
	}
	return cards, nil
}
