// Package settings exposes restaurant-level configuration read at checkout
// time: the VAT rate and the flat delivery fee.
package settings

import (
	"context"

	"github.com/shopspring/decimal"
)

// Provider supplies the configurable pricing inputs. VATRate returns a
// proportional rate such as 0.10 for 10%.
type Provider interface {
	VATRate(ctx context.Context) (decimal.Decimal, error)
	DeliveryFee(ctx context.Context) (decimal.Decimal, error)
}

// Static is a Provider with fixed values, used as a config-level fallback and
// in tests.
type Static struct {
	Rate decimal.Decimal
	Fee  decimal.Decimal
}

func (s Static) VATRate(context.Context) (decimal.Decimal, error) {
	return s.Rate, nil
}

func (s Static) DeliveryFee(context.Context) (decimal.Decimal, error) {
	return s.Fee, nil
}
