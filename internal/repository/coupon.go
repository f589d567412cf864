package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/bistro-orders/internal/domain/coupon"
)

const (
	couponColumns = `id, code, discount_type, value, min_order_amount,
		max_discount, max_uses, uses, valid_from, valid_until, active, description`

	getCouponByIDSQL = `SELECT ` + couponColumns + ` FROM coupons WHERE id = $1`

	getCouponByCodeSQL = `SELECT ` + couponColumns + ` FROM coupons
		WHERE UPPER(code) = UPPER($1)`
)

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
// Eligibility is evaluated by the domain; the repository returns coupons in
// any state, including inactive ones.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// Find looks up a coupon by ID. Returns coupon.ErrNotFound when absent.
func (r *CouponRepository) Find(ctx context.Context, id string) (*coupon.Coupon, error) {
	return r.query(ctx, getCouponByIDSQL, id)
}

// FindByCode looks up a coupon by its code, case-insensitively.
// Returns coupon.ErrNotFound when absent.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	return r.query(ctx, getCouponByCodeSQL, code)
}

func (r *CouponRepository) query(ctx context.Context, sql, arg string) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, sql, arg)
	if err != nil {
		return nil, fmt.Errorf("finding coupon %q: %w", arg, err)
	}

	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, fmt.Errorf("finding coupon %q: %w", arg, err)
	}
	return &c, nil
}

func scanCoupon(row pgx.CollectableRow) (coupon.Coupon, error) {
	var (
		c            coupon.Coupon
		discountType string
		maxUses      int32
		uses         int32
		validFrom    *time.Time
		validUntil   *time.Time
	)
	err := row.Scan(
		&c.ID, &c.Code, &discountType, &c.Value, &c.MinOrderAmount,
		&c.MaxDiscount, &maxUses, &uses, &validFrom, &validUntil,
		&c.Active, &c.Description,
	)
	c.Type = coupon.DiscountType(discountType)
	c.MaxUses = int(maxUses)
	c.Uses = int(uses)
	c.ValidFrom = validFrom
	c.ValidUntil = validUntil
	return c, err
}
