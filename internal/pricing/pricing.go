// Package pricing converts between tax-inclusive and tax-exclusive amounts
// and computes order-level totals. All arithmetic uses fixed-point decimals
// with half-up rounding to 2 places at every stored boundary.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/bistro-orders/internal/domain/coupon"
)

// Breakdown decomposes a monetary amount into net, tax, and gross parts for
// a given VAT rate.
type Breakdown struct {
	Net   decimal.Decimal
	Tax   decimal.Decimal
	Gross decimal.Decimal
	Rate  decimal.Decimal
}

// TaxFromGross extracts the tax portion from a tax-inclusive amount.
// The gross value passes through unchanged; net and tax are rounded half-up
// to 2 decimals, so net+tax equals gross within one rounding unit.
func TaxFromGross(gross, rate decimal.Decimal) Breakdown {
	net := gross.Div(one.Add(rate)).Round(2)
	return Breakdown{
		Net:   net,
		Tax:   gross.Sub(net).Round(2),
		Gross: gross,
		Rate:  rate,
	}
}

// TaxFromNet adds tax on top of a tax-exclusive amount.
func TaxFromNet(net, rate decimal.Decimal) Breakdown {
	tax := net.Mul(rate).Round(2)
	return Breakdown{
		Net:   net,
		Tax:   tax,
		Gross: net.Add(tax),
		Rate:  rate,
	}
}

// Input carries everything the totals computation depends on. Coupon and
// ManualDiscount are mutually exclusive in effect: an attached coupon always
// overrides a manually set discount.
type Input struct {
	ItemsGross     decimal.Decimal
	DeliveryFee    decimal.Decimal
	Coupon         *coupon.Coupon
	ManualDiscount decimal.Decimal
}

// Totals is the computed order-level money breakdown. Subtotal and Tax are
// derived from the item gross totals and the VAT rate; they are never
// independently authoritative.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Discount decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTotals derives order totals from the item lines, delivery fee, and
// discount state. It is a pure function: calling it again with the same
// input reproduces identical totals.
//
// The discount base is itemsGross + deliveryFee. Total is clamped at zero
// even when a manual discount exceeds the order amount.
func ComputeTotals(in Input, rate decimal.Decimal, now time.Time) Totals {
	b := TaxFromGross(in.ItemsGross, rate)

	base := in.ItemsGross.Add(in.DeliveryFee)

	var discount decimal.Decimal
	switch {
	case in.Coupon != nil:
		discount = in.Coupon.CalculateDiscount(base, now)
	case in.ManualDiscount.IsPositive():
		discount = decimal.Min(in.ManualDiscount, base).Round(2)
	default:
		discount = decimal.Zero
	}

	total := base.Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Totals{
		Subtotal: b.Net,
		Tax:      b.Tax,
		Discount: discount,
		Total:    total.Round(2),
	}
}

var one = decimal.NewFromInt(1)
