package storage

import (
	"context"
	"errors"
	"time"

	"github.com/vietddude/retrypolicy/internal/core/domain"
)

var (
	// ErrNotFound is returned when a failed operation doesn't exist
	ErrNotFound = errors.New("failed operation not found")
)

// FailedOperationRepository journals operations whose retry loop ended
// without success.
type FailedOperationRepository interface {
	// Add records a failed operation
	Add(ctx context.Context, op *domain.FailedOperation) error

	// Get retrieves a failed operation by ID
	Get(ctx context.Context, id string) (*domain.FailedOperation, error)

	// List returns the most recent failed operations, newest first.
	// A non-positive limit returns all of them.
	List(ctx context.Context, limit int) ([]*domain.FailedOperation, error)

	// Delete removes a failed operation
	Delete(ctx context.Context, id string) error

	// Count returns the number of journaled operations
	Count(ctx context.Context) (int, error)

	// DeleteOlderThan removes operations created before the threshold
	DeleteOlderThan(ctx context.Context, threshold time.Time) (int, error)
}
