// Command seed-db populates a fresh database with demo coupons and default
// settings for local development.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/bistro-orders/internal/repository"
)

type seedCoupon struct {
	code        string
	kind        string
	value       string
	minOrder    string
	maxDiscount string
	maxUses     int
	validDays   int
	description string
}

var seedCoupons = []seedCoupon{
	{code: "WELCOME10", kind: "percentage", value: "10", description: "10% off your first order"},
	{code: "LUNCH5", kind: "fixed", value: "5", minOrder: "25", description: "5 off lunch orders over 25"},
	{code: "BIGNIGHT", kind: "percentage", value: "20", minOrder: "60", maxDiscount: "15", description: "20% off large orders, capped at 15"},
	{code: "FLASH48", kind: "percentage", value: "15", maxUses: 200, validDays: 2, description: "48h flash sale: 15% off"},
}

var seedSettings = map[string]string{
	"vat_rate":     "0.10",
	"delivery_fee": "5.00",
}

func main() {
	var databaseURL string
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL string) error {
	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return seedCouponsTable(ctx, pool) })
	g.Go(func() error { return seedSettingsTable(ctx, pool) })
	return g.Wait()
}

func seedCouponsTable(ctx context.Context, pool *pgxpool.Pool) error {
	const insertSQL = `INSERT INTO coupons
		(id, code, discount_type, value, min_order_amount, max_discount,
		 max_uses, valid_until, active, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE, $9)
		ON CONFLICT (code) DO NOTHING`

	for _, c := range seedCoupons {
		var validUntil *time.Time
		if c.validDays > 0 {
			t := time.Now().AddDate(0, 0, c.validDays)
			validUntil = &t
		}

		_, err := pool.Exec(ctx, insertSQL,
			uuid.New().String(), c.code, c.kind,
			mustDecimal(c.value), mustDecimal(c.minOrder), mustDecimal(c.maxDiscount),
			c.maxUses, validUntil, c.description,
		)
		if err != nil {
			return errors.Wrapf(err, "seed coupon %s", c.code)
		}
		slog.Info("seeded coupon", slog.String("code", c.code))
	}
	return nil
}

func seedSettingsTable(ctx context.Context, pool *pgxpool.Pool) error {
	const upsertSQL = `INSERT INTO settings (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`

	for key, value := range seedSettings {
		if _, err := pool.Exec(ctx, upsertSQL, key, mustDecimal(value)); err != nil {
			return errors.Wrapf(err, "seed setting %s", key)
		}
		slog.Info("seeded setting", slog.String("key", key), slog.String("value", value))
	}
	return nil
}

func mustDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	return decimal.RequireFromString(s)
}
