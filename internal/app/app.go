package app

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/xenking/bistro-orders/internal/domain/delivery"
	"github.com/xenking/bistro-orders/internal/domain/order"
	"github.com/xenking/bistro-orders/internal/domain/settings"
	"github.com/xenking/bistro-orders/internal/geo"
	"github.com/xenking/bistro-orders/internal/handler"
	redisstore "github.com/xenking/bistro-orders/internal/redis"
	"github.com/xenking/bistro-orders/internal/repository"
	"github.com/xenking/bistro-orders/pkg/health"
	"github.com/xenking/bistro-orders/pkg/httpmiddleware"
)

// Run creates all dependencies, starts the HTTP server, and handles graceful
// shutdown. It is the single wiring point for the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	lg.Info("Initializing", zap.String("addr", cfg.Addr))

	defaults, err := pricingDefaults(cfg.Pricing)
	if err != nil {
		return err
	}

	// PostgreSQL pool + migrations.
	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return errors.Wrap(err, "create db pool")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	// Redis: session carts + idempotency keys.
	rdb, err := redisstore.NewClient(cfg.RedisURL)
	if err != nil {
		return errors.Wrap(err, "create redis client")
	}
	defer func() { _ = rdb.Close() }()

	// Health check service.
	healthSvc := health.New()
	healthSvc.AddReadinessCheck("postgres", 5*time.Second, func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthSvc.AddReadinessCheck("redis", 5*time.Second, func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	})
	healthSvc.AddLivenessCheck("goroutines", time.Second, health.GoroutineCountCheck(10000))
	healthSvc.Start(ctx, 10*time.Second)
	healthSvc.SetReady(true)

	// Repositories and collaborators.
	orderRepo := repository.NewOrderRepository(pool)
	couponRepo := repository.NewCouponRepository(pool)
	settingsRepo := repository.NewSettingsRepository(pool, defaults)
	cartStore := redisstore.NewCartStore(rdb, cfg.Cart.TTL)
	guard := redisstore.NewIdempotencyGuard(rdb, cfg.Idempotency.TTL)

	var addresses delivery.AddressValidator
	if cfg.ZoneURL != "" {
		addresses = geo.NewClient(cfg.ZoneURL, 10*time.Second)
	} else {
		lg.Warn("No zone service configured, accepting every delivery address")
		addresses = geo.Permissive{}
	}

	// Domain service.
	orderService := order.NewService(cartStore, addresses, couponRepo, orderRepo, settingsRepo, guard)

	// HTTP routes: health endpoints + API on one server.
	h := handler.New(orderService, cartStore)
	mux := http.NewServeMux()
	mux.HandleFunc("/livez", healthSvc.LiveEndpoint)
	mux.HandleFunc("/readyz", healthSvc.ReadyEndpoint)
	mux.Handle("/api/", h.Router())

	instrumented := otelhttp.NewHandler(mux, "bistro-api",
		otelhttp.WithTracerProvider(m.TracerProvider()),
		otelhttp.WithMeterProvider(m.MeterProvider()),
	)

	server := &http.Server{
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
		Addr:              cfg.Addr,
		Handler: httpmiddleware.Wrap(instrumented,
			httpmiddleware.Recovery(),
			httpmiddleware.CORS(httpmiddleware.CORSConfig{
				AllowOrigins:     cfg.CORS.Origins,
				AllowHeaders:     []string{"Content-Type", "X-Session-ID", "Idempotency-Key"},
				AllowCredentials: cfg.CORS.AllowCredentials,
				MaxAge:           86400,
			}),
			httpmiddleware.RateLimitWithCleanup(ctx, httpmiddleware.RateLimitConfig{
				Max:    cfg.RateLimit.Max,
				Window: cfg.RateLimit.Window,
			}),
			httpmiddleware.RequestID(),
			httpmiddleware.InjectLogger(zctx.From(ctx)),
			httpmiddleware.LogRequests(),
		),
	}

	// Graceful shutdown: wait for context cancellation, drain, then stop.
	shutdownDone := make(chan struct{})
	go func() {
		<-ctx.Done()
		healthSvc.SetReady(false)
		lg.Info("Readiness set to false, draining", zap.Duration("delay", cfg.Graceful.ReadinessDelay))
		time.Sleep(cfg.Graceful.ReadinessDelay)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Graceful.ShutdownTimeout)
		defer cancel()

		lg.Info("Shutting down server", zap.Duration("timeout", cfg.Graceful.ShutdownTimeout))
		if err := server.Shutdown(shutdownCtx); err != nil {
			lg.Error("Server shutdown error", zap.Error(err))
		}
		healthSvc.Stop()
		close(shutdownDone)
	}()

	lg.Info("Server listening", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "server")
	}
	<-shutdownDone
	return nil
}

// pricingDefaults parses the configured fallback VAT rate and delivery fee.
func pricingDefaults(cfg PricingConfig) (settings.Static, error) {
	rate, err := decimal.NewFromString(cfg.VATRate)
	if err != nil {
		return settings.Static{}, errors.Wrap(err, "parse vat rate")
	}
	fee, err := decimal.NewFromString(cfg.DeliveryFee)
	if err != nil {
		return settings.Static{}, errors.Wrap(err, "parse delivery fee")
	}
	return settings.Static{Rate: rate, Fee: fee}, nil
}
