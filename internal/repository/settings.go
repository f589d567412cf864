package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/bistro-orders/internal/domain/settings"
)

const getSettingSQL = `SELECT value FROM settings WHERE key = $1`

// Setting keys stored in the settings table.
const (
	settingVATRate     = "vat_rate"
	settingDeliveryFee = "delivery_fee"
)

var _ settings.Provider = (*SettingsRepository)(nil)

// SettingsRepository implements settings.Provider backed by the settings
// key/value table. Missing keys fall back to the configured defaults, so a
// fresh database works without seeding.
type SettingsRepository struct {
	pool     *pgxpool.Pool
	defaults settings.Static
}

// NewSettingsRepository returns a SettingsRepository with the given fallback
// defaults.
func NewSettingsRepository(pool *pgxpool.Pool, defaults settings.Static) *SettingsRepository {
	return &SettingsRepository{pool: pool, defaults: defaults}
}

// VATRate returns the configured VAT rate, e.g. 0.10 for 10%.
func (r *SettingsRepository) VATRate(ctx context.Context) (decimal.Decimal, error) {
	return r.get(ctx, settingVATRate, r.defaults.Rate)
}

// DeliveryFee returns the flat delivery fee.
func (r *SettingsRepository) DeliveryFee(ctx context.Context) (decimal.Decimal, error) {
	return r.get(ctx, settingDeliveryFee, r.defaults.Fee)
}

func (r *SettingsRepository) get(ctx context.Context, key string, fallback decimal.Decimal) (decimal.Decimal, error) {
	var value decimal.Decimal
	err := r.pool.QueryRow(ctx, getSettingSQL, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return fallback, nil
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("reading setting %q: %w", key, err)
	}
	return value, nil
}
