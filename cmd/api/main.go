package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/novadent/dental-portal/internal/admin"
	"github.com/novadent/dental-portal/internal/api/router"
	"github.com/novadent/dental-portal/internal/appointments"
	"github.com/novadent/dental-portal/internal/availability"
	"github.com/novadent/dental-portal/internal/booking"
	"github.com/novadent/dental-portal/internal/catalog"
	"github.com/novadent/dental-portal/internal/clinics"
	appconfig "github.com/novadent/dental-portal/internal/config"
	"github.com/novadent/dental-portal/internal/directory"
	"github.com/novadent/dental-portal/internal/events"
	"github.com/novadent/dental-portal/internal/observability/metrics"
	"github.com/novadent/dental-portal/internal/scheduling"
	"github.com/novadent/dental-portal/pkg/logging"
)

func main() {
	// Load .env in development; production provides real environment.
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting dental-portal API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to create pgx pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Separate database/sql handle for the reporting endpoints.
	reportDB, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open reporting db", "error", err)
		os.Exit(1)
	}
	defer func() { _ = reportDB.Close() }()

	redisOpts := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOpts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	redisClient := redis.NewClient(redisOpts)
	defer func() { _ = redisClient.Close() }()

	openMinute, err := scheduling.ParseMinute(cfg.OperatingOpen)
	if err != nil {
		logger.Error("invalid OPERATING_OPEN", "error", err)
		os.Exit(1)
	}
	closeMinute, err := scheduling.ParseMinute(cfg.OperatingClose)
	if err != nil {
		logger.Error("invalid OPERATING_CLOSE", "error", err)
		os.Exit(1)
	}

	schedulingMetrics := metrics.NewSchedulingMetrics(nil)

	windowStore := availability.NewPostgresStore(pool)
	serviceRepo := catalog.NewCachedRepository(
		catalog.NewPostgresRepository(pool), redisClient, cfg.CatalogCacheTTL, logger)
	peopleRepo := directory.NewPostgresRepository(pool)
	clinicStore := clinics.NewStore(redisClient).WithDefaultHours(openMinute, closeMinute)
	ledger := appointments.NewRepository(pool)
	outbox := events.NewOutboxStore(pool)

	bookingService := booking.NewService(booking.Deps{
		Windows:     windowStore,
		Catalog:     serviceRepo,
		People:      peopleRepo,
		Clinics:     clinicStore,
		Ledger:      ledger,
		Events:      outbox,
		Logger:      logger,
		Metrics:     schedulingMetrics,
		HorizonDays: cfg.BookingHorizonDays,
	})

	deliverer := events.NewDeliverer(outbox, events.NewLogHandler(logger), logger)
	go deliverer.Start(ctx)

	routerCfg := &router.Config{
		Logger:             logger,
		BookingHandler:     booking.NewHandler(bookingService, ledger, logger),
		StatsHandler:       admin.NewStatsHandler(reportDB, logger),
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		BookingRateLimit:   cfg.BookingRateLimit,
		BookingRateBurst:   cfg.BookingRateBurst,
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
