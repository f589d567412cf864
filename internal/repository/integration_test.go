//go:build integration

package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/bistro-orders/internal/domain/coupon"
	"github.com/xenking/bistro-orders/internal/domain/order"
	"github.com/xenking/bistro-orders/internal/domain/settings"
)

// Run with: TEST_DATABASE_URL=postgres://... go test -tags integration ./internal/repository

func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, RunMigrations(ctx, pool))

	_, err = pool.Exec(ctx, `TRUNCATE order_items, orders, coupons, settings`)
	require.NoError(t, err)
	return pool
}

func insertCoupon(t *testing.T, pool *pgxpool.Pool, c coupon.Coupon) string {
	t.Helper()

	id := uuid.New().String()
	_, err := pool.Exec(t.Context(), `INSERT INTO coupons
		(id, code, discount_type, value, min_order_amount, max_discount,
		 max_uses, uses, valid_from, valid_until, active, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		id, c.Code, string(c.Type), c.Value, c.MinOrderAmount, c.MaxDiscount,
		c.MaxUses, c.Uses, c.ValidFrom, c.ValidUntil, c.Active, c.Description,
	)
	require.NoError(t, err)
	return id
}

func sampleOrder() *order.Order {
	return &order.Order{
		ID:          uuid.New().String(),
		Number:      "ORD-20251021-" + uuid.New().String()[:4],
		Status:      order.StatusPending,
		Mode:        order.ModeDelivery,
		Address:     "12 rue des Lilas",
		Zip:         "75011",
		DeliveryFee: decimal.RequireFromString("5.00"),
		Payment:     order.PaymentCard,
		Subtotal:    decimal.RequireFromString("31.82"),
		Tax:         decimal.RequireFromString("3.18"),
		Discount:    decimal.Zero,
		Total:       decimal.RequireFromString("35.00"),
		FirstName:   "Marie",
		LastName:    "Dupont",
		Phone:       "0612345678",
		Email:       "marie@example.com",
		Items: []order.Item{
			{ProductID: "p1", Name: "Margherita", UnitPrice: decimal.RequireFromString("12.00"), Quantity: 2},
			{ProductID: "p2", Name: "Tiramisu", UnitPrice: decimal.RequireFromString("6.00"), Quantity: 1},
		},
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestOrderRepository_CreateAndFind(t *testing.T) {
	pool := testPool(t)
	repo := NewOrderRepository(pool)
	ctx := t.Context()

	o := sampleOrder()
	require.NoError(t, repo.Create(ctx, o))

	got, err := repo.Find(ctx, o.ID)
	require.NoError(t, err)

	assert.Equal(t, o.Number, got.Number)
	assert.Equal(t, order.StatusPending, got.Status)
	assert.Equal(t, o.Phone, got.Phone)
	assert.True(t, o.Total.Equal(got.Total))
	require.Len(t, got.Items, 2)
	assert.Equal(t, "Margherita", got.Items[0].Name)
	assert.Equal(t, 2, got.Items[0].Quantity)
}

func TestOrderRepository_FindMissing(t *testing.T) {
	pool := testPool(t)
	repo := NewOrderRepository(pool)

	_, err := repo.Find(t.Context(), uuid.New().String())
	require.ErrorIs(t, err, order.ErrOrderNotFound)
}

func TestOrderRepository_NumberConflict(t *testing.T) {
	pool := testPool(t)
	repo := NewOrderRepository(pool)
	ctx := t.Context()

	first := sampleOrder()
	require.NoError(t, repo.Create(ctx, first))

	second := sampleOrder()
	second.Number = first.Number

	err := repo.Create(ctx, second)
	require.ErrorIs(t, err, order.ErrNumberConflict)

	// Nothing of the second order survives the rollback.
	_, err = repo.Find(ctx, second.ID)
	require.ErrorIs(t, err, order.ErrOrderNotFound)
}

func TestOrderRepository_ConsumesCoupon(t *testing.T) {
	pool := testPool(t)
	repo := NewOrderRepository(pool)
	coupons := NewCouponRepository(pool)
	ctx := t.Context()

	id := insertCoupon(t, pool, coupon.Coupon{
		Code: "TEN", Type: coupon.DiscountPercentage,
		Value: decimal.NewFromInt(10), MaxUses: 2, Uses: 0, Active: true,
	})

	o := sampleOrder()
	o.CouponID = id
	require.NoError(t, repo.Create(ctx, o))

	c, err := coupons.Find(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Uses)

	got, err := repo.Find(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, id, got.CouponID)
}

func TestOrderRepository_CouponLimitRollsBack(t *testing.T) {
	pool := testPool(t)
	repo := NewOrderRepository(pool)
	ctx := t.Context()

	id := insertCoupon(t, pool, coupon.Coupon{
		Code: "LAST", Type: coupon.DiscountFixed,
		Value: decimal.NewFromInt(5), MaxUses: 1, Uses: 1, Active: true,
	})

	o := sampleOrder()
	o.CouponID = id

	err := repo.Create(ctx, o)
	require.ErrorIs(t, err, coupon.ErrUsageLimitReached)

	// The whole transaction rolled back, order included.
	_, err = repo.Find(ctx, o.ID)
	require.ErrorIs(t, err, order.ErrOrderNotFound)
}

func TestOrderRepository_UpdateStatus(t *testing.T) {
	pool := testPool(t)
	repo := NewOrderRepository(pool)
	ctx := t.Context()

	o := sampleOrder()
	require.NoError(t, repo.Create(ctx, o))

	require.NoError(t, repo.UpdateStatus(ctx, o.ID, order.StatusConfirmed))

	got, err := repo.Find(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusConfirmed, got.Status)

	err = repo.UpdateStatus(ctx, uuid.New().String(), order.StatusConfirmed)
	require.ErrorIs(t, err, order.ErrOrderNotFound)
}

func TestCouponRepository_FindByCode(t *testing.T) {
	pool := testPool(t)
	coupons := NewCouponRepository(pool)
	ctx := t.Context()

	insertCoupon(t, pool, coupon.Coupon{
		Code: "WELCOME10", Type: coupon.DiscountPercentage,
		Value: decimal.NewFromInt(10), Active: true,
	})

	c, err := coupons.FindByCode(ctx, "welcome10")
	require.NoError(t, err, "code lookup must be case-insensitive")
	assert.Equal(t, "WELCOME10", c.Code)

	_, err = coupons.FindByCode(ctx, "NOPE")
	require.ErrorIs(t, err, coupon.ErrNotFound)
}

func TestSettingsRepository(t *testing.T) {
	pool := testPool(t)
	defaults := settings.Static{
		Rate: decimal.RequireFromString("0.10"),
		Fee:  decimal.RequireFromString("5.00"),
	}
	repo := NewSettingsRepository(pool, defaults)
	ctx := t.Context()

	t.Run("falls back to defaults on empty table", func(t *testing.T) {
		rate, err := repo.VATRate(ctx)
		require.NoError(t, err)
		assert.True(t, defaults.Rate.Equal(rate))

		fee, err := repo.DeliveryFee(ctx)
		require.NoError(t, err)
		assert.True(t, defaults.Fee.Equal(fee))
	})

	t.Run("stored values win over defaults", func(t *testing.T) {
		_, err := pool.Exec(ctx, `INSERT INTO settings (key, value) VALUES
			('vat_rate', 0.20), ('delivery_fee', 3.50)`)
		require.NoError(t, err)

		rate, err := repo.VATRate(ctx)
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("0.20").Equal(rate))

		fee, err := repo.DeliveryFee(ctx)
		require.NoError(t, err)
		assert.True(t, decimal.RequireFromString("3.50").Equal(fee))
	})
}
