// Command coupon-import bulk-loads promotional coupon codes from gzipped
// text files (one code per line) into the coupons table. Every imported code
// gets the default percentage rule; marketing adjusts individual coupons
// afterwards through the admin tooling.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/klauspost/pgzip"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/bistro-orders/internal/repository"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	minCodeLen    = 6
	maxCodeLen    = 12
	batchSize     = 1_000
	progressEvery = 100_000
)

const insertCouponSQL = `INSERT INTO coupons
	(id, code, discount_type, value, active, description)
	VALUES ($1, $2, 'percentage', $3, TRUE, $4)
	ON CONFLICT (code) DO NOTHING`

func main() {
	var (
		databaseURL string
		value       string
		description string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&value, "value", "10", "percentage discount applied to imported codes")
	flag.StringVar(&description, "description", "Promo code: 10% off", "description applied to imported codes")
	flag.Parse()

	files := flag.Args()
	if len(files) == 0 {
		slog.Error("usage: coupon-import [flags] codes1.gz [codes2.gz ...]")
		os.Exit(1)
	}
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, files, value, description); err != nil {
		slog.Error("coupon import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("coupon import completed successfully")
}

func run(ctx context.Context, databaseURL string, files []string, value, description string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return errors.Wrapf(err, "check file %s", f)
		}
	}

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	// Codes from all files funnel through one channel into the batch writer.
	// A bloom filter in front of the writer drops duplicates without holding
	// every seen code in memory; the ON CONFLICT clause catches the rare
	// false negative.
	codes := make(chan string, batchSize)

	g, ctx := errgroup.WithContext(ctx)
	var readers sync.WaitGroup
	for _, f := range files {
		readers.Add(1)
		g.Go(streamFile(ctx, f, codes, &readers))
	}
	go func() {
		readers.Wait()
		close(codes)
	}()

	g.Go(func() error {
		return writeCoupons(ctx, pool, codes, value, description)
	})

	return g.Wait()
}

// streamFile reads one gzipped code file and feeds accepted codes into out.
func streamFile(ctx context.Context, path string, out chan<- string, wg *sync.WaitGroup) func() error {
	return func() error {
		defer wg.Done()

		f, err := os.Open(path)
		if err != nil {
			return errors.Wrapf(err, "open %s", path)
		}
		defer func() { _ = f.Close() }()

		gz, err := pgzip.NewReader(f)
		if err != nil {
			return errors.Wrapf(err, "gzip reader for %s", path)
		}
		defer func() { _ = gz.Close() }()

		scanner := bufio.NewScanner(gz)
		for scanner.Scan() {
			code := scanner.Text()
			if len(code) < minCodeLen || len(code) > maxCodeLen {
				continue
			}
			select {
			case out <- code:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		if err := scanner.Err(); err != nil {
			return errors.Wrapf(err, "scan %s", path)
		}
		return nil
	}
}

// writeCoupons drains the code channel, dropping bloom-detected duplicates
// and inserting the rest in batches.
func writeCoupons(ctx context.Context, pool *pgxpool.Pool, codes <-chan string, value, description string) error {
	filter := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
	batch := &pgx.Batch{}
	var total, inserted uint64

	flush := func() error {
		if batch.Len() == 0 {
			return nil
		}
		if err := pool.SendBatch(ctx, batch).Close(); err != nil {
			return errors.Wrap(err, "send batch")
		}
		batch = &pgx.Batch{}
		return nil
	}

	for code := range codes {
		total++
		if total%progressEvery == 0 {
			slog.Info("import progress",
				slog.Uint64("seen", total),
				slog.Uint64("queued", inserted),
			)
		}

		if filter.TestAndAddString(code) {
			continue
		}
		inserted++

		batch.Queue(insertCouponSQL, uuid.New().String(), code, value, description)
		if batch.Len() >= batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}

	if err := flush(); err != nil {
		return err
	}

	slog.Info("import finished",
		slog.Uint64("seen", total),
		slog.Uint64("unique", inserted),
	)
	return nil
}
