package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/bistro-orders/internal/domain/coupon"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestTaxFromGross(t *testing.T) {
	tests := []struct {
		name    string
		gross   string
		rate    string
		wantNet string
		wantTax string
	}{
		{name: "110 gross at 10%", gross: "110.00", rate: "0.10", wantNet: "100.00", wantTax: "10.00"},
		{name: "uneven division", gross: "10.00", rate: "0.10", wantNet: "9.09", wantTax: "0.91"},
		{name: "twenty percent", gross: "24.00", rate: "0.20", wantNet: "20.00", wantTax: "4.00"},
		{name: "zero rate", gross: "15.50", rate: "0", wantNet: "15.50", wantTax: "0.00"},
		{name: "zero amount", gross: "0", rate: "0.10", wantNet: "0.00", wantTax: "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := TaxFromGross(dec(tt.gross), dec(tt.rate))

			assert.True(t, dec(tt.wantNet).Equal(b.Net), "net: want %s, got %s", tt.wantNet, b.Net)
			assert.True(t, dec(tt.wantTax).Equal(b.Tax), "tax: want %s, got %s", tt.wantTax, b.Tax)
			assert.True(t, dec(tt.gross).Equal(b.Gross), "gross must pass through unchanged")

			// net + tax reassembles gross within one rounding unit.
			diff := b.Net.Add(b.Tax).Sub(b.Gross).Abs()
			assert.True(t, diff.LessThanOrEqual(dec("0.01")),
				"net+tax deviates from gross by %s", diff)
		})
	}
}

func TestTaxFromNet(t *testing.T) {
	b := TaxFromNet(dec("100.00"), dec("0.10"))

	assert.True(t, dec("10.00").Equal(b.Tax))
	assert.True(t, dec("110.00").Equal(b.Gross))
}

func TestTaxRoundTrip(t *testing.T) {
	// taxFromNet(taxFromGross(g).net).gross stays within 0.02 of g
	// (two compounded roundings).
	grosses := []string{"110.00", "10.00", "33.33", "99.99", "0.01", "1234.56"}
	rate := dec("0.10")

	for _, g := range grosses {
		gross := dec(g)
		back := TaxFromNet(TaxFromGross(gross, rate).Net, rate).Gross
		diff := back.Sub(gross).Abs()
		assert.True(t, diff.LessThanOrEqual(dec("0.02")),
			"round trip of %s drifted by %s", g, diff)
	}
}

func TestComputeTotals(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	tenPercent := &coupon.Coupon{
		ID:     "c1",
		Code:   "TEN",
		Type:   coupon.DiscountPercentage,
		Value:  decimal.NewFromInt(10),
		Active: true,
	}

	tests := []struct {
		name         string
		in           Input
		rate         string
		wantSubtotal string
		wantTax      string
		wantDiscount string
		wantTotal    string
	}{
		{
			name: "30 gross, 5 fee, 10% coupon",
			in: Input{
				ItemsGross:  dec("30.00"),
				DeliveryFee: dec("5.00"),
				Coupon:      tenPercent,
			},
			rate:         "0.10",
			wantSubtotal: "27.27",
			wantTax:      "2.73",
			wantDiscount: "3.50",
			wantTotal:    "31.50",
		},
		{
			name: "pickup: 15.50 gross, no fee, no discount",
			in: Input{
				ItemsGross:  dec("15.50"),
				DeliveryFee: decimal.Zero,
			},
			rate:         "0.10",
			wantSubtotal: "14.09",
			wantTax:      "1.41",
			wantDiscount: "0",
			wantTotal:    "15.50",
		},
		{
			name: "manual discount clamped to order amount",
			in: Input{
				ItemsGross:     dec("20.00"),
				DeliveryFee:    dec("5.00"),
				ManualDiscount: dec("100.00"),
			},
			rate:         "0.10",
			wantSubtotal: "18.18",
			wantTax:      "1.82",
			wantDiscount: "25.00",
			wantTotal:    "0",
		},
		{
			name: "coupon overrides manual discount",
			in: Input{
				ItemsGross:     dec("30.00"),
				DeliveryFee:    dec("5.00"),
				Coupon:         tenPercent,
				ManualDiscount: dec("20.00"),
			},
			rate:         "0.10",
			wantSubtotal: "27.27",
			wantTax:      "2.73",
			wantDiscount: "3.50",
			wantTotal:    "31.50",
		},
		{
			name: "ineligible coupon yields zero discount",
			in: Input{
				ItemsGross:  dec("30.00"),
				DeliveryFee: dec("5.00"),
				Coupon: &coupon.Coupon{
					ID:             "c2",
					Type:           coupon.DiscountPercentage,
					Value:          decimal.NewFromInt(10),
					MinOrderAmount: dec("100.00"),
					Active:         true,
				},
			},
			rate:         "0.10",
			wantSubtotal: "27.27",
			wantTax:      "2.73",
			wantDiscount: "0",
			wantTotal:    "35.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTotals(tt.in, dec(tt.rate), now)

			assert.True(t, dec(tt.wantSubtotal).Equal(got.Subtotal), "subtotal: want %s, got %s", tt.wantSubtotal, got.Subtotal)
			assert.True(t, dec(tt.wantTax).Equal(got.Tax), "tax: want %s, got %s", tt.wantTax, got.Tax)
			assert.True(t, dec(tt.wantDiscount).Equal(got.Discount), "discount: want %s, got %s", tt.wantDiscount, got.Discount)
			assert.True(t, dec(tt.wantTotal).Equal(got.Total), "total: want %s, got %s", tt.wantTotal, got.Total)

			require.False(t, got.Total.IsNegative(), "total must never be negative")
		})
	}
}

func TestComputeTotalsIdempotent(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	in := Input{
		ItemsGross:  dec("42.70"),
		DeliveryFee: dec("5.00"),
		Coupon: &coupon.Coupon{
			ID:     "c1",
			Type:   coupon.DiscountFixed,
			Value:  decimal.NewFromInt(5),
			Active: true,
		},
	}
	rate := dec("0.10")

	first := ComputeTotals(in, rate, now)
	second := ComputeTotals(in, rate, now)

	assert.True(t, first.Subtotal.Equal(second.Subtotal))
	assert.True(t, first.Tax.Equal(second.Tax))
	assert.True(t, first.Discount.Equal(second.Discount))
	assert.True(t, first.Total.Equal(second.Total))
}
