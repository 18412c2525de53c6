package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/parishkit/chms-api/internal/model"
)

func (r *locationRepository) Create(ctx context.Context, loc *model.Location) error {
	query := `
		INSERT INTO locations (
			id, organization_id, name, address, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	loc.ID = uuid.New()
	loc.CreatedAt = time.Now()
	loc.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		loc.ID,
		loc.OrganizationID,
		loc.Name,
		loc.Address,
		loc.Status,
		loc.CreatedAt,
		loc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create location: %w", err)
	}
	return nil
}

func (r *locationRepository) Get(ctx context.Context, id uuid.UUID) (*model.Location, error) {
	query := `
		SELECT id, organization_id, name, address, status, created_at, updated_at, deleted_at
		FROM locations
		WHERE id = $1 AND deleted_at IS NULL
	`
	var loc model.Location
	err := r.db.GetContext(ctx, &loc, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get location: %w", err)
	}
	return &loc, nil
}

func (r *locationRepository) Update(ctx context.Context, loc *model.Location) error {
	query := `
		UPDATE locations
		SET name = $1, address = $2, status = $3, updated_at = $4
		WHERE id = $5 AND deleted_at IS NULL
	`
	loc.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query, loc.Name, loc.Address, loc.Status, loc.UpdatedAt, loc.ID)
	if err != nil {
		return fmt.Errorf("failed to update location: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("location not found")
	}
	return nil
}

func (r *locationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE locations SET deleted_at = $1 WHERE id = $2 AND deleted_at IS NULL`
	_, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete location: %w", err)
	}
	return nil
}

func (r *locationRepository) List(ctx context.Context, organizationID uuid.UUID) ([]*model.Location, error) {
	query := `
		SELECT id, organization_id, name, address, status, created_at, updated_at, deleted_at
		FROM locations
		WHERE organization_id = $1 AND deleted_at IS NULL
		ORDER BY name
	`
	var locs []*model.Location
	if err := r.db.SelectContext(ctx, &locs, query, organizationID); err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	return locs, nil
}
