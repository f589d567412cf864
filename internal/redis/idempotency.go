package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/xenking/bistro-orders/internal/domain/order"
)

const (
	idempotencyKeyPrefix = "idem:"

	// pendingMarker is stored while the original submission is still running.
	// An empty order ID distinguishes in-flight from completed keys.
	pendingMarker = ""
)

var _ order.IdempotencyGuard = (*IdempotencyGuard)(nil)

// IdempotencyGuard deduplicates retried checkout submissions using SET NX
// with a TTL window. A key is claimed before the pipeline runs, bound to the
// created order ID on success, and released on failure.
type IdempotencyGuard struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyGuard returns a guard whose keys expire after ttl.
func NewIdempotencyGuard(client *redis.Client, ttl time.Duration) *IdempotencyGuard {
	return &IdempotencyGuard{client: client, ttl: ttl}
}

// Acquire claims the key. For a fresh key it stores a pending marker and
// returns acquired=true. For a seen key it returns the stored order ID
// (empty while the original submission is still in flight).
func (g *IdempotencyGuard) Acquire(ctx context.Context, key string) (string, bool, error) {
	ok, err := g.client.SetNX(ctx, idempotencyKeyPrefix+key, pendingMarker, g.ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("claiming idempotency key: %w", err)
	}
	if ok {
		return "", true, nil
	}

	orderID, err := g.client.Get(ctx, idempotencyKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		// Key expired between SetNX and Get; treat as in-flight and let the
		// caller retry.
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reading idempotency key: %w", err)
	}
	return orderID, false, nil
}

// Complete binds the key to the created order, keeping the original TTL
// window from the first submission.
func (g *IdempotencyGuard) Complete(ctx context.Context, key, orderID string) error {
	if err := g.client.Set(ctx, idempotencyKeyPrefix+key, orderID, redis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("completing idempotency key: %w", err)
	}
	return nil
}

// Release frees the key after a failed submission so the client may retry.
func (g *IdempotencyGuard) Release(ctx context.Context, key string) error {
	if err := g.client.Del(ctx, idempotencyKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("releasing idempotency key: %w", err)
	}
	return nil
}
