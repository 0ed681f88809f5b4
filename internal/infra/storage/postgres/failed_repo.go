package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vietddude/retrypolicy/internal/core/domain"
	"github.com/vietddude/retrypolicy/internal/infra/storage"
)

// FailedOperationRepo implements storage.FailedOperationRepository using PostgreSQL.
type FailedOperationRepo struct {
	db *DB
}

// NewFailedOperationRepo creates a new PostgreSQL failed operation repository.
func NewFailedOperationRepo(db *DB) *FailedOperationRepo {
	return &FailedOperationRepo{db: db}
}

const failedOperationColumns = `id, operation, kind, category, reason, attempts, error_msg, created_at`

// Add adds a failed operation.
func (r *FailedOperationRepo) Add(ctx context.Context, op *domain.FailedOperation) error {
	query := `
		INSERT INTO failed_operations (` + failedOperationColumns + `)
		VALUES (:id, :operation, :kind, :category, :reason, :attempts, :error_msg, :created_at)
	`
	if _, err := r.db.NamedExecContext(ctx, query, op); err != nil {
		return fmt.Errorf("failed to add failed operation: %w", err)
	}
	return nil
}

// Get retrieves a failed operation by ID.
func (r *FailedOperationRepo) Get(ctx context.Context, id string) (*domain.FailedOperation, error) {
	query := `SELECT ` + failedOperationColumns + ` FROM failed_operations WHERE id = $1`

	var op domain.FailedOperation
	err := r.db.GetContext(ctx, &op, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get failed operation: %w", err)
	}
	return &op, nil
}

// List returns the newest failed operations first.
func (r *FailedOperationRepo) List(ctx context.Context, limit int) ([]*domain.FailedOperation, error) {
	query := `
		SELECT ` + failedOperationColumns + `
		FROM failed_operations
		ORDER BY created_at DESC
		LIMIT $1
	`

	var ops []*domain.FailedOperation
	if err := r.db.SelectContext(ctx, &ops, query, limitArg(limit)); err != nil {
		return nil, fmt.Errorf("failed to list failed operations: %w", err)
	}
	return ops, nil
}

// Delete removes a failed operation.
func (r *FailedOperationRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM failed_operations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete failed operation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Count returns the number of journaled failed operations.
func (r *FailedOperationRepo) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM failed_operations`); err != nil {
		return 0, fmt.Errorf("failed to count failed operations: %w", err)
	}
	return count, nil
}

// DeleteOlderThan removes failed operations created before threshold.
func (r *FailedOperationRepo) DeleteOlderThan(ctx context.Context, threshold time.Time) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM failed_operations WHERE created_at < $1`, threshold)
	if err != nil {
		return 0, fmt.Errorf("failed to prune failed operations: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return int(n), nil
}

// limitArg binds LIMIT; NULL means no limit in PostgreSQL.
func limitArg(limit int) any {
	if limit <= 0 {
		return nil
	}
	return limit
}
