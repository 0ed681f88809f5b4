package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vietddude/retrypolicy/internal/core/domain"
	"github.com/vietddude/retrypolicy/internal/infra/storage"
)

// FailedOperationRepo is an in-process journal.
type FailedOperationRepo struct {
	mu  sync.RWMutex
	ops map[string]*domain.FailedOperation
}

func NewFailedOperationRepo() *FailedOperationRepo {
	return &FailedOperationRepo{
		ops: make(map[string]*domain.FailedOperation),
	}
}

func (r *FailedOperationRepo) Add(ctx context.Context, op *domain.FailedOperation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *op
	r.ops[op.ID] = &cp
	return nil
}

func (r *FailedOperationRepo) Get(ctx context.Context, id string) (*domain.FailedOperation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	op, ok := r.ops[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *op
	return &cp, nil
}

func (r *FailedOperationRepo) List(ctx context.Context, limit int) ([]*domain.FailedOperation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.FailedOperation, 0, len(r.ops))
	for _, op := range r.ops {
		cp := *op
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *FailedOperationRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ops[id]; !ok {
		return storage.ErrNotFound
	}
	delete(r.ops, id)
	return nil
}

func (r *FailedOperationRepo) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ops), nil
}

func (r *FailedOperationRepo) DeleteOlderThan(ctx context.Context, threshold time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, op := range r.ops {
		if op.CreatedAt.Before(threshold) {
			delete(r.ops, id)
			n++
		}
	}
	return n, nil
}
