package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"

	"github.com/xenking/bistro-orders/internal/domain/cart"
)

const cartKeyPrefix = "cart:"

var _ cart.Provider = (*CartStore)(nil)

// CartStore keeps one JSON-serialized cart snapshot per session key, expiring
// after the configured TTL of inactivity.
type CartStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCartStore returns a CartStore with the given session TTL.
func NewCartStore(client *redis.Client, ttl time.Duration) *CartStore {
	return &CartStore{client: client, ttl: ttl}
}

// Get returns the cart for the session. An unknown session yields an empty
// cart, not an error.
func (s *CartStore) Get(ctx context.Context, sessionID string) (*cart.Cart, error) {
	data, err := s.client.Get(ctx, cartKeyPrefix+sessionID).Bytes()
	if errors.Is(err, redis.Nil) {
		return &cart.Cart{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading cart %q: %w", sessionID, err)
	}

	var c cart.Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decoding cart %q: %w", sessionID, err)
	}
	return &c, nil
}

// Save replaces the session's cart snapshot and refreshes its TTL.
func (s *CartStore) Save(ctx context.Context, sessionID string, c *cart.Cart) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding cart %q: %w", sessionID, err)
	}
	if err := s.client.Set(ctx, cartKeyPrefix+sessionID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("saving cart %q: %w", sessionID, err)
	}
	return nil
}

// AddItem merges one line into the session's cart: an existing product line
// gets its quantity increased, a new product appends a line.
func (s *CartStore) AddItem(ctx context.Context, sessionID string, item cart.Item) (*cart.Cart, error) {
	c, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	merged := false
	for i := range c.Items {
		if c.Items[i].ProductID == item.ProductID {
			c.Items[i].Quantity += item.Quantity
			merged = true
			break
		}
	}
	if !merged {
		c.Items = append(c.Items, item)
	}

	if err := s.Save(ctx, sessionID, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Clear removes the session's cart.
func (s *CartStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, cartKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("clearing cart %q: %w", sessionID, err)
	}
	return nil
}
