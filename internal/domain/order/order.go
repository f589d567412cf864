package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Order is the aggregate root for a placed order. It exclusively owns its
// line items; the coupon relationship is a non-owning reference by ID.
// After creation an order is immutable except for Status.
type Order struct {
	ID     string
	Number string
	Status Status

	Mode         DeliveryMode
	Address      string
	Zip          string
	Instructions string
	DeliveryFee  decimal.Decimal

	Payment PaymentMode

	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal

	// CouponID references the applied coupon, empty when none was used.
	CouponID string

	FirstName string
	LastName  string
	Phone     string
	Email     string

	Items     []Item
	CreatedAt time.Time
}

// Item is a single order line. Product name and unit price are captured as a
// snapshot at order-creation time so historical orders stay accurate when
// catalog prices change later.
type Item struct {
	ProductID string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

// GrossTotal returns the tax-inclusive line total, unit price times quantity.
func (i Item) GrossTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// ItemsGross returns the sum of all line gross totals.
func (o *Order) ItemsGross() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range o.Items {
		sum = sum.Add(item.GrossTotal())
	}
	return sum
}

// Repository defines persistence operations for orders.
type Repository interface {
	// Create persists the order, its items, and (when the order references a
	// coupon) the coupon usage increment as one atomic transaction. It
	// returns coupon.ErrUsageLimitReached when the conditional increment
	// affects no row, and ErrNumberConflict when the order number collides
	// with an existing order.
	Create(ctx context.Context, o *Order) error

	// Find returns the order with its items, or ErrOrderNotFound.
	Find(ctx context.Context, id string) (*Order, error)

	// UpdateStatus persists a status change for an existing order.
	UpdateStatus(ctx context.Context, id string, status Status) error
}
