package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/bistro-orders/internal/domain/coupon"
	"github.com/xenking/bistro-orders/internal/domain/order"
)

const (
	insertOrderSQL = `INSERT INTO orders (
		id, order_number, status, delivery_mode, delivery_address, delivery_zip,
		delivery_instructions, delivery_fee, payment_mode, subtotal, tax,
		discount, total, coupon_id, client_first_name, client_last_name,
		client_phone, client_email, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			NULLIF($14, '')::uuid, $15, $16, $17, $18, $19)`

	insertOrderItemSQL = `INSERT INTO order_items
		(order_id, position, product_id, product_name, unit_price, quantity)
		VALUES ($1, $2, $3, $4, $5, $6)`

	// Conditional increment: zero rows affected means the limit is exhausted.
	// Running it inside the order transaction closes the check-then-act race
	// between concurrent checkouts near the usage limit.
	consumeCouponSQL = `UPDATE coupons SET uses = uses + 1
		WHERE id = $1 AND active AND (max_uses = 0 OR uses < max_uses)`

	selectOrderSQL = `SELECT id, order_number, status, delivery_mode,
		delivery_address, delivery_zip, delivery_instructions, delivery_fee,
		payment_mode, subtotal, tax, discount, total,
		COALESCE(coupon_id::text, ''), client_first_name, client_last_name,
		client_phone, client_email, created_at
		FROM orders WHERE id = $1`

	selectOrderItemsSQL = `SELECT product_id, product_name, unit_price, quantity
		FROM order_items WHERE order_id = $1 ORDER BY position`

	updateOrderStatusSQL = `UPDATE orders SET status = $2 WHERE id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists the order, its items, and the coupon usage increment (when
// the order references a coupon) in a single transaction. All succeed or all
// roll back.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create order tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, insertOrderSQL,
		o.ID, o.Number, string(o.Status), string(o.Mode), o.Address, o.Zip,
		o.Instructions, o.DeliveryFee, string(o.Payment), o.Subtotal, o.Tax,
		o.Discount, o.Total, o.CouponID, o.FirstName, o.LastName,
		o.Phone, o.Email, o.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "orders_order_number_key") {
			return order.ErrNumberConflict
		}
		return fmt.Errorf("inserting order %q: %w", o.ID, err)
	}

	for i, item := range o.Items {
		_, err = tx.Exec(ctx, insertOrderItemSQL,
			o.ID, i, item.ProductID, item.Name, item.UnitPrice, item.Quantity,
		)
		if err != nil {
			return fmt.Errorf("inserting item %d of order %q: %w", i, o.ID, err)
		}
	}

	if o.CouponID != "" {
		tag, err := tx.Exec(ctx, consumeCouponSQL, o.CouponID)
		if err != nil {
			return fmt.Errorf("consuming coupon %q: %w", o.CouponID, err)
		}
		if tag.RowsAffected() == 0 {
			return coupon.ErrUsageLimitReached
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing order %q: %w", o.ID, err)
	}
	return nil
}

// Find returns the order with its items, or order.ErrOrderNotFound.
func (r *OrderRepository) Find(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, selectOrderSQL, id)
	if err != nil {
		return nil, fmt.Errorf("finding order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrOrderNotFound
		}
		return nil, fmt.Errorf("finding order %q: %w", id, err)
	}

	itemRows, err := r.pool.Query(ctx, selectOrderItemsSQL, id)
	if err != nil {
		return nil, fmt.Errorf("loading items of order %q: %w", id, err)
	}
	o.Items, err = pgx.CollectRows(itemRows, scanOrderItem)
	if err != nil {
		return nil, fmt.Errorf("loading items of order %q: %w", id, err)
	}

	return &o, nil
}

// UpdateStatus persists a status change. The transition graph is enforced by
// the service; this only writes.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status order.Status) error {
	tag, err := r.pool.Exec(ctx, updateOrderStatusSQL, id, string(status))
	if err != nil {
		return fmt.Errorf("updating status of order %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrOrderNotFound
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o       order.Order
		status  string
		mode    string
		payment string
	)
	err := row.Scan(
		&o.ID, &o.Number, &status, &mode, &o.Address, &o.Zip, &o.Instructions,
		&o.DeliveryFee, &payment, &o.Subtotal, &o.Tax, &o.Discount, &o.Total,
		&o.CouponID, &o.FirstName, &o.LastName, &o.Phone, &o.Email, &o.CreatedAt,
	)
	o.Status = order.Status(status)
	o.Mode = order.DeliveryMode(mode)
	o.Payment = order.PaymentMode(payment)
	return o, err
}

func scanOrderItem(row pgx.CollectableRow) (order.Item, error) {
	var item order.Item
	err := row.Scan(&item.ProductID, &item.Name, &item.UnitPrice, &item.Quantity)
	return item, err
}

// isUniqueViolation reports whether err is a PostgreSQL unique-constraint
// violation on the named constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) &&
		pgErr.Code == "23505" &&
		pgErr.ConstraintName == constraint
}
