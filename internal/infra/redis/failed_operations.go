package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vietddude/retrypolicy/internal/core/domain"
	"github.com/vietddude/retrypolicy/internal/infra/storage"
)

const defaultTTL = 7 * 24 * time.Hour

// FailedOperationRepo implements storage.FailedOperationRepository using Redis.
// Records expire through their key TTL; index entries older than the TTL are
// trimmed on every write and before every read so the index never outlives
// the records it points to.
type FailedOperationRepo struct {
	rdb       *redis.Client
	namespace string
	ttl       time.Duration
	now       func() time.Time
}

// NewFailedOperationRepo creates a new Redis-backed journal. Keys are
// prefixed with namespace so several services can share one instance.
func NewFailedOperationRepo(client *Client, namespace string, ttl time.Duration) *FailedOperationRepo {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &FailedOperationRepo{
		rdb:       client.rdb,
		namespace: namespace,
		ttl:       ttl,
		now:       time.Now,
	}
}

// Key helpers
func (r *FailedOperationRepo) indexKey() string {
	return fmt.Sprintf("failed_ops:%s", r.namespace)
}

func (r *FailedOperationRepo) opKey(id string) string {
	return fmt.Sprintf("failed_op:%s:%s", r.namespace, id)
}

// expiredBound is the exclusive ZSET score bound below which records are past their TTL.
func (r *FailedOperationRepo) expiredBound() string {
	return "(" + strconv.FormatInt(r.now().Add(-r.ttl).UnixNano(), 10)
}

func (r *FailedOperationRepo) trimIndex(ctx context.Context) error {
	if err := r.rdb.ZRemRangeByScore(ctx, r.indexKey(), "-inf", r.expiredBound()).Err(); err != nil {
		return fmt.Errorf("failed to trim index: %w", err)
	}
	return nil
}

// Add stores the record and indexes it by creation time.
func (r *FailedOperationRepo) Add(ctx context.Context, op *domain.FailedOperation) error {
	if op.CreatedAt.IsZero() {
		op.CreatedAt = r.now().UTC()
	}
	data, err := json.Marshal(op)
	if err != nil {
		return fmt.Errorf("failed to marshal failed operation: %w", err)
	}

	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.opKey(op.ID), data, r.ttl)
		pipe.ZAdd(ctx, r.indexKey(), redis.Z{
			Score:  float64(op.CreatedAt.UnixNano()),
			Member: op.ID,
		})
		pipe.ZRemRangeByScore(ctx, r.indexKey(), "-inf", r.expiredBound())
		pipe.Expire(ctx, r.indexKey(), r.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to add failed operation: %w", err)
	}
	return nil
}

// Get retrieves a failed operation by ID.
func (r *FailedOperationRepo) Get(ctx context.Context, id string) (*domain.FailedOperation, error) {
	data, err := r.rdb.Get(ctx, r.opKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get failed operation: %w", err)
	}

	var op domain.FailedOperation
	if err := json.Unmarshal(data, &op); err != nil {
		return nil, fmt.Errorf("failed to unmarshal failed operation: %w", err)
	}
	return &op, nil
}

// List returns the newest failed operations first. Index entries whose data
// is gone without having aged out (e.g. deleted out of band) are pruned on
// the way.
func (r *FailedOperationRepo) List(ctx context.Context, limit int) ([]*domain.FailedOperation, error) {
	if err := r.trimIndex(ctx); err != nil {
		return nil, err
	}

	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	ids, err := r.rdb.ZRevRange(ctx, r.indexKey(), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("zrevrange failed: %w", err)
	}

	ops := make([]*domain.FailedOperation, 0, len(ids))
	for _, id := range ids {
		op, err := r.Get(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			r.rdb.ZRem(ctx, r.indexKey(), id)
			continue
		}
		if err != nil {
			return nil, err
		}
		ops = append(ops, op)
	}
	return ops, nil
}

// Delete removes a failed operation.
func (r *FailedOperationRepo) Delete(ctx context.Context, id string) error {
	removed, err := r.rdb.ZRem(ctx, r.indexKey(), id).Result()
	if err != nil {
		return fmt.Errorf("failed to remove from index: %w", err)
	}
	deleted, err := r.rdb.Del(ctx, r.opKey(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to delete failed operation: %w", err)
	}
	if removed == 0 && deleted == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Count returns the number of indexed failed operations.
func (r *FailedOperationRepo) Count(ctx context.Context) (int, error) {
	if err := r.trimIndex(ctx); err != nil {
		return 0, err
	}
	count, err := r.rdb.ZCard(ctx, r.indexKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("zcard failed: %w", err)
	}
	return int(count), nil
}

// DeleteOlderThan removes index entries and records created before threshold.
func (r *FailedOperationRepo) DeleteOlderThan(ctx context.Context, threshold time.Time) (int, error) {
	cutoff := strconv.FormatInt(threshold.UnixNano(), 10)
	ids, err := r.rdb.ZRangeByScore(ctx, r.indexKey(), &redis.ZRangeBy{Min: "-inf", Max: "(" + cutoff}).Result()
	if err != nil {
		return 0, fmt.Errorf("zrangebyscore failed: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	keys := make([]string, len(ids))
	members := make([]any, len(ids))
	for i, id := range ids {
		keys[i] = r.opKey(id)
		members[i] = id
	}

	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		pipe.ZRem(ctx, r.indexKey(), members...)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to prune failed operations: %w", err)
	}
	return len(ids), nil
}
