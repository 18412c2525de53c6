package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/parishkit/chms-api/internal/access"
)

// Bounds for the serializable get-or-create section: how long to wait
// for a transaction to begin, and how long the transaction may live.
const (
	serializableMaxWait = 5 * time.Second
	serializableTimeout = 10 * time.Second
)

// BaseRepository provides common functionality for all repositories
type BaseRepository struct {
	db *sqlx.DB
}

// NewBaseRepository creates a new base repository
func NewBaseRepository(db *sqlx.DB) BaseRepository {
	return BaseRepository{db: db}
}

// GetDB returns the database instance
func (r *BaseRepository) GetDB() *sqlx.DB {
	return r.db
}

// WithTx executes a function within a transaction
func (r *BaseRepository) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// WithSerializableTx runs fn under serializable isolation with the
// bounded wait and lifetime above. Conflicts and timeouts propagate to
// the caller, who must re-invoke; there is no retry here.
func (r *BaseRepository) WithSerializableTx(ctx context.Context, fn func(context.Context, *sqlx.Tx) error) error {
	beginCtx, cancelBegin := context.WithTimeout(ctx, serializableMaxWait)
	defer cancelBegin()

	tx, err := r.db.BeginTxx(beginCtx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return fmt.Errorf("failed to begin serializable transaction: %w", err)
	}

	txCtx, cancelTx := context.WithTimeout(ctx, serializableTimeout)
	defer cancelTx()

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(txCtx, tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// IsSerializationFailure reports a postgres serialization conflict
// (SQLSTATE 40001), the expected contention signal on the batch
// get-or-create path.
func IsSerializationFailure(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "40001"
	}
	return false
}

// scopeClause renders the location-scope filter into SQL starting at
// the given placeholder index. DenyAll renders a contradiction so the
// query returns no rows.
func scopeClause(scope access.QueryFilter, startIdx int) (string, []interface{}) {
	if scope.DenyAll {
		return " AND FALSE", nil
	}
	clause := fmt.Sprintf(" AND organization_id = $%d", startIdx)
	args := []interface{}{scope.OrganizationID}
	if scope.LocationID != nil {
		clause += fmt.Sprintf(" AND location_id = $%d", startIdx+1)
		args = append(args, *scope.LocationID)
	}
	return clause, args
}
