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
	apperrors "github.com/parishkit/chms-api/pkg/errors"
)

const batchColumns = `
	id, organization_id, location_id, name, batch_date, sequence, status,
	card_count, created_at, updated_at, deleted_at
`

// GetOrCreateActive returns the PENDING batch for (organization,
// location, day), creating it when absent. The batch day is the
// calendar date in the organization's timezone, so a late-evening
// upload stays in that evening's batch. The read-then-create runs
// under serializable isolation so two concurrent uploaders end up with
// the same batch row; a serialization conflict or timeout surfaces as
// a contention error and the caller retries.
func (r *batchRepository) GetOrCreateActive(ctx context.Context, orgID uuid.UUID, locationID *uuid.UUID, at time.Time) (*model.ConnectCardBatch, bool, error) {
	var batch *model.ConnectCardBatch
	var created bool
	err := r.WithSerializableTx(ctx, func(txCtx context.Context, tx *sqlx.Tx) error {
		day, err := orgLocalDay(txCtx, tx, orgID, at)
		if err != nil {
			return err
		}

		existing, err := findPendingBatch(txCtx, tx, orgID, locationID, day)
		if err != nil {
			return err
		}
		if existing != nil {
			batch = existing
			return nil
		}

		seq, err := nextBatchSequence(txCtx, tx, orgID, locationID, day)
		if err != nil {
			return err
		}

		fresh := &model.ConnectCardBatch{
			Base: model.Base{
				ID:        uuid.New(),
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			},
			OrganizationID: orgID,
			LocationID:     locationID,
			Name:           batchName(day, seq),
			BatchDate:      day,
			Sequence:       seq,
			Status:         model.BatchStatusPending,
		}

		insert := `
			INSERT INTO card_batches (
				id, organization_id, location_id, name, batch_date, sequence,
				status, card_count, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`
		if _, err := tx.ExecContext(txCtx, insert,
			fresh.ID,
			fresh.OrganizationID,
			fresh.LocationID,
			fresh.Name,
			fresh.BatchDate,
			fresh.Sequence,
			fresh.Status,
			fresh.CardCount,
			fresh.CreatedAt,
			fresh.UpdatedAt,
		); err != nil {
			return fmt.Errorf("failed to create batch: %w", err)
		}

		batch = fresh
		created = true
		return nil
	})
	if err != nil {
		if IsSerializationFailure(err) || errors.Is(err, context.DeadlineExceeded) {
			return nil, false, apperrors.Conflict("concurrent batch creation, retry the upload", err)
		}
		return nil, false, err
	}
	return batch, created, nil
}

// orgLocalDay resolves the batch day for a timestamp in the
// organization's timezone. The returned value carries the local
// calendar date pinned at UTC midnight so stored dates compare stably.
// Missing or unparseable timezones fall back to UTC.
func orgLocalDay(ctx context.Context, tx *sqlx.Tx, orgID uuid.UUID, at time.Time) (time.Time, error) {
	var tz string
	err := tx.GetContext(ctx, &tz, `SELECT timezone FROM organizations WHERE id = $1 AND deleted_at IS NULL`, orgID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, fmt.Errorf("failed to get organization timezone: %w", err)
	}

	loc, locErr := time.LoadLocation(tz)
	if tz == "" || locErr != nil {
		loc = time.UTC
	}
	y, m, d := at.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

func findPendingBatch(ctx context.Context, tx *sqlx.Tx, orgID uuid.UUID, locationID *uuid.UUID, day time.Time) (*model.ConnectCardBatch, error) {
	query := `
		SELECT ` + batchColumns + `
		FROM card_batches
		WHERE organization_id = $1
		  AND location_id IS NOT DISTINCT FROM $2
		  AND batch_date = $3
		  AND status = $4
		  AND deleted_at IS NULL
	`
	var batch model.ConnectCardBatch
	err := tx.GetContext(ctx, &batch, query, orgID, locationID, day, model.BatchStatusPending)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find pending batch: %w", err)
	}
	return &batch, nil
}

func nextBatchSequence(ctx context.Context, tx *sqlx.Tx, orgID uuid.UUID, locationID *uuid.UUID, day time.Time) (int, error) {
	query := `
		SELECT COALESCE(MAX(sequence), 0)
		FROM card_batches
		WHERE organization_id = $1
		  AND location_id IS NOT DISTINCT FROM $2
		  AND batch_date = $3
	`
	var max int
	if err := tx.GetContext(ctx, &max, query, orgID, locationID, day); err != nil {
		return 0, fmt.Errorf("failed to compute batch sequence: %w", err)
	}
	return max + 1, nil
}

// batchName suffixes same-day batches after the first: "Cards
// 2025-03-09", "Cards 2025-03-09-2", ...
func batchName(day time.Time, seq int) string {
	name := fmt.Sprintf("Cards %s", day.Format("2006-01-02"))
	if seq > 1 {
		name = fmt.Sprintf("%s-%d", name, seq)
	}
	return name
}

func (r *batchRepository) Get(ctx context.Context, scope access.QueryFilter, id uuid.UUID) (*model.ConnectCardBatch, error) {
	query := `
		SELECT ` + batchColumns + `
		FROM card_batches
		WHERE id = $1 AND deleted_at IS NULL
	`
	clause, args := scopeClause(scope, 2)
	query += clause

	var batch model.ConnectCardBatch
	err := r.db.GetContext(ctx, &batch, query, append([]interface{}{id}, args...)...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get batch: %w", err)
	}
	return &batch, nil
}

func (r *batchRepository) List(ctx context.Context, scope access.QueryFilter, status string) ([]*model.ConnectCardBatch, error) {
	query := `SELECT ` + batchColumns + ` FROM card_batches WHERE deleted_at IS NULL`
	clause, args := scopeClause(scope, 1)
	query += clause

	if status != "" {
		args = append(args, status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY batch_date DESC, sequence DESC"

	var batches []*model.ConnectCardBatch
	if err := r.db.SelectContext(ctx, &batches, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list batches: %w", err)
	}
	return batches, nil
}

func (r *batchRepository) IncrementCardCount(ctx context.Context, id uuid.UUID, delta int) error {
	query := `UPDATE card_batches SET card_count = card_count + $1, updated_at = $2 WHERE id = $3 AND deleted_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, delta, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update batch card count: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("batch not found")
	}
	return nil
}

func (r *batchRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := `UPDATE card_batches SET status = $1, updated_at = $2 WHERE id = $3 AND deleted_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update batch status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("batch not found")
	}
	return nil
}
