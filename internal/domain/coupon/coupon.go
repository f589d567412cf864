package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// DiscountType enumerates the supported coupon discount strategies.
type DiscountType string

const (
	// DiscountPercentage applies a percentage-based discount to the order amount.
	DiscountPercentage DiscountType = "percentage"
	// DiscountFixed applies a fixed monetary discount capped at the order amount.
	DiscountFixed DiscountType = "fixed"
)

// Reason-specific eligibility errors. The checkout surfaces these verbatim so
// the customer learns why a coupon was rejected.
var (
	ErrNotFound          = errors.New("coupon not found")
	ErrInactive          = errors.New("coupon is not active")
	ErrExpired           = errors.New("coupon is outside its validity window")
	ErrUsageLimitReached = errors.New("coupon usage limit reached")
	ErrMinimumNotMet     = errors.New("order amount is below the coupon minimum")
)

// Coupon is a named discount rule with optional eligibility constraints.
// Zero values mean "unset": a zero MinOrderAmount imposes no minimum, a zero
// MaxDiscount applies no cap, and a zero MaxUses allows unlimited redemptions.
type Coupon struct {
	ID             string
	Code           string
	Type           DiscountType
	Value          decimal.Decimal
	MinOrderAmount decimal.Decimal
	MaxDiscount    decimal.Decimal
	MaxUses        int
	Uses           int
	ValidFrom      *time.Time
	ValidUntil     *time.Time
	Active         bool
	Description    string
}

// IsValid reports whether the coupon is active and inside its validity
// window at the given instant. Evaluated fresh on every use, never cached.
func (c *Coupon) IsValid(now time.Time) bool {
	if !c.Active {
		return false
	}
	if c.ValidFrom != nil && now.Before(*c.ValidFrom) {
		return false
	}
	if c.ValidUntil != nil && now.After(*c.ValidUntil) {
		return false
	}
	return true
}

// CanBeUsed reports whether the coupon is valid and has redemptions left.
func (c *Coupon) CanBeUsed(now time.Time) bool {
	if !c.IsValid(now) {
		return false
	}
	return c.MaxUses == 0 || c.Uses < c.MaxUses
}

// CanBeApplied reports whether the coupon can discount an order of the given
// amount.
func (c *Coupon) CanBeApplied(amount decimal.Decimal, now time.Time) bool {
	return c.EligibilityError(amount, now) == nil
}

// EligibilityError returns nil when the coupon applies to the given amount,
// or the reason-specific error otherwise. Checks run in declaration order so
// the most fundamental failure wins: inactive before expired before
// usage-exhausted before minimum-not-met.
func (c *Coupon) EligibilityError(amount decimal.Decimal, now time.Time) error {
	if !c.Active {
		return ErrInactive
	}
	if !c.IsValid(now) {
		return ErrExpired
	}
	if !c.CanBeUsed(now) {
		return ErrUsageLimitReached
	}
	if c.MinOrderAmount.IsPositive() && amount.LessThan(c.MinOrderAmount) {
		return ErrMinimumNotMet
	}
	return nil
}

// CalculateDiscount computes the discount for an order of the given amount,
// rounded to 2 decimal places. It returns zero when the coupon cannot be
// applied. The result never exceeds MaxDiscount (when set) nor the amount
// itself.
func (c *Coupon) CalculateDiscount(amount decimal.Decimal, now time.Time) decimal.Decimal {
	if !c.CanBeApplied(amount, now) {
		return decimal.Zero
	}

	var discount decimal.Decimal
	switch c.Type {
	case DiscountPercentage:
		discount = amount.Mul(c.Value).Div(hundred)
	case DiscountFixed:
		discount = c.Value
	default:
		return decimal.Zero
	}

	if c.MaxDiscount.IsPositive() {
		discount = decimal.Min(discount, c.MaxDiscount)
	}
	discount = decimal.Min(discount, amount)
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	return discount.Round(2)
}

var hundred = decimal.NewFromInt(100)

// Repository provides lookup of coupons. Usage increments are not exposed
// here: they happen inside the order transaction so the counter moves exactly
// once per durably persisted order.
type Repository interface {
	Find(ctx context.Context, id string) (*Coupon, error)
	FindByCode(ctx context.Context, code string) (*Coupon, error)
}
