package cart

import (
	"context"

	"github.com/shopspring/decimal"
)

// Item is a single cart line. Price is the tax-inclusive unit price at the
// time the item was added.
type Item struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// Cart is a transient shopping-cart snapshot keyed by session.
type Cart struct {
	Items []Item `json:"items"`
}

// Total returns the gross total across all cart lines.
func (c *Cart) Total() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range c.Items {
		sum = sum.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}
	return sum
}

// ItemCount returns the total quantity across all cart lines.
func (c *Cart) ItemCount() int {
	n := 0
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

// Provider is the external cart collaborator consumed by checkout. Get always
// returns a cart; an empty session yields a cart with no items.
type Provider interface {
	Get(ctx context.Context, sessionID string) (*Cart, error)
	Clear(ctx context.Context, sessionID string) error
}
