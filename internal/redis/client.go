// Package redis holds the Redis-backed collaborators: the session cart store
// and the checkout idempotency guard.
package redis

import (
	"fmt"

	"github.com/redis/go-redis/v9"
)

// NewClient creates a go-redis client from a redis:// URL.
func NewClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	return redis.NewClient(opts), nil
}
