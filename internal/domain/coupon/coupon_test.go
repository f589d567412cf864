package coupon

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestEligibilityError(t *testing.T) {
	fixedNow := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	pastTime := fixedNow.Add(-24 * time.Hour)
	futureTime := fixedNow.Add(24 * time.Hour)

	tests := []struct {
		name    string
		coupon  Coupon
		amount  string
		wantErr error
	}{
		{
			name:   "active unconstrained coupon applies",
			coupon: Coupon{Type: DiscountPercentage, Value: decimal.NewFromInt(10), Active: true},
			amount: "50.00",
		},
		{
			name:    "inactive coupon",
			coupon:  Coupon{Type: DiscountPercentage, Value: decimal.NewFromInt(10), Active: false},
			amount:  "50.00",
			wantErr: ErrInactive,
		},
		{
			name: "not yet valid",
			coupon: Coupon{
				Type: DiscountPercentage, Value: decimal.NewFromInt(10),
				Active: true, ValidFrom: &futureTime,
			},
			amount:  "50.00",
			wantErr: ErrExpired,
		},
		{
			name: "expired",
			coupon: Coupon{
				Type: DiscountPercentage, Value: decimal.NewFromInt(10),
				Active: true, ValidUntil: &pastTime,
			},
			amount:  "50.00",
			wantErr: ErrExpired,
		},
		{
			name: "inside validity window",
			coupon: Coupon{
				Type: DiscountPercentage, Value: decimal.NewFromInt(10),
				Active: true, ValidFrom: &pastTime, ValidUntil: &futureTime,
			},
			amount: "50.00",
		},
		{
			name: "usage limit reached",
			coupon: Coupon{
				Type: DiscountPercentage, Value: decimal.NewFromInt(10),
				Active: true, MaxUses: 100, Uses: 100,
			},
			amount:  "50.00",
			wantErr: ErrUsageLimitReached,
		},
		{
			name: "usage under limit",
			coupon: Coupon{
				Type: DiscountPercentage, Value: decimal.NewFromInt(10),
				Active: true, MaxUses: 100, Uses: 99,
			},
			amount: "50.00",
		},
		{
			name: "unlimited uses when max is zero",
			coupon: Coupon{
				Type: DiscountPercentage, Value: decimal.NewFromInt(10),
				Active: true, Uses: 9999,
			},
			amount: "50.00",
		},
		{
			name: "below minimum order amount",
			coupon: Coupon{
				Type: DiscountFixed, Value: decimal.NewFromInt(5),
				Active: true, MinOrderAmount: dec("25.00"),
			},
			amount:  "24.99",
			wantErr: ErrMinimumNotMet,
		},
		{
			name: "exactly at minimum order amount",
			coupon: Coupon{
				Type: DiscountFixed, Value: decimal.NewFromInt(5),
				Active: true, MinOrderAmount: dec("25.00"),
			},
			amount: "25.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.coupon.EligibilityError(dec(tt.amount), fixedNow)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.False(t, tt.coupon.CanBeApplied(dec(tt.amount), fixedNow))
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.coupon.CanBeApplied(dec(tt.amount), fixedNow))
		})
	}
}

func TestCalculateDiscount(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		coupon Coupon
		amount string
		want   string
	}{
		{
			name:   "percentage",
			coupon: Coupon{Type: DiscountPercentage, Value: decimal.NewFromInt(10), Active: true},
			amount: "35.00",
			want:   "3.50",
		},
		{
			name:   "percentage rounds half up",
			coupon: Coupon{Type: DiscountPercentage, Value: decimal.NewFromInt(15), Active: true},
			amount: "33.30",
			want:   "5.00", // 4.995 rounds to 5.00
		},
		{
			name:   "fixed",
			coupon: Coupon{Type: DiscountFixed, Value: decimal.NewFromInt(5), Active: true},
			amount: "35.00",
			want:   "5.00",
		},
		{
			name:   "fixed clamped to order amount",
			coupon: Coupon{Type: DiscountFixed, Value: decimal.NewFromInt(50), Active: true},
			amount: "35.00",
			want:   "35.00",
		},
		{
			name: "percentage clamped by max discount",
			coupon: Coupon{
				Type: DiscountPercentage, Value: decimal.NewFromInt(50),
				MaxDiscount: dec("10.00"), Active: true,
			},
			amount: "100.00",
			want:   "10.00",
		},
		{
			name: "ineligible coupon returns zero",
			coupon: Coupon{
				Type: DiscountPercentage, Value: decimal.NewFromInt(10),
				MinOrderAmount: dec("100.00"), Active: true,
			},
			amount: "35.00",
			want:   "0",
		},
		{
			name:   "inactive coupon returns zero",
			coupon: Coupon{Type: DiscountPercentage, Value: decimal.NewFromInt(10), Active: false},
			amount: "35.00",
			want:   "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.coupon.CalculateDiscount(dec(tt.amount), now)

			assert.True(t, dec(tt.want).Equal(got), "want %s, got %s", tt.want, got)

			// Discount never exceeds the amount nor the cap.
			assert.True(t, got.LessThanOrEqual(dec(tt.amount)))
			if tt.coupon.MaxDiscount.IsPositive() {
				assert.True(t, got.LessThanOrEqual(tt.coupon.MaxDiscount))
			}
		})
	}
}
