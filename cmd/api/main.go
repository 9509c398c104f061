package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/storelinkhq/storelink-backend/api/routes"
	"github.com/storelinkhq/storelink-backend/internal/checkout"
	"github.com/storelinkhq/storelink-backend/internal/leads"
	product "github.com/storelinkhq/storelink-backend/internal/products"
	"github.com/storelinkhq/storelink-backend/internal/sales"
	"github.com/storelinkhq/storelink-backend/internal/stores"
	"github.com/storelinkhq/storelink-backend/pkg/config"
	"github.com/storelinkhq/storelink-backend/pkg/db"
	"github.com/storelinkhq/storelink-backend/pkg/logger"
	"github.com/storelinkhq/storelink-backend/pkg/metrics"
	"github.com/storelinkhq/storelink-backend/pkg/migrate"
	"github.com/storelinkhq/storelink-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	gdb := dbClient.DB()
	storeRepo := stores.NewRepository(gdb)
	stageRepo := leads.NewStageRepository(gdb)
	leadRepo := leads.NewRepository(gdb)
	productRepo := product.NewRepository(gdb)
	salesRepo := sales.NewRepository(gdb)
	attemptRepo := checkout.NewAttemptRepository(gdb)

	storeService, err := stores.NewService(storeRepo, stageRepo, dbClient)
	requireService(logg, "stores", err)

	productService, err := product.NewService(productRepo, storeRepo)
	requireService(logg, "products", err)

	leadService, err := leads.NewService(leadRepo, stageRepo, storeRepo)
	requireService(logg, "leads", err)

	salesService, err := sales.NewService(salesRepo, storeRepo, dbClient, nil, leadRepo, logg)
	requireService(logg, "sales", err)

	matcher, err := leads.NewMatcher(leadRepo, logg)
	requireService(logg, "lead matcher", err)

	metricsRegistry := prometheus.NewRegistry()
	checkoutMetrics := metrics.NewCheckoutMetrics(metricsRegistry)

	checkoutService, err := checkout.NewService(
		dbClient,
		storeRepo,
		attemptRepo,
		salesRepo,
		productRepo,
		matcher,
		leadRepo,
		nil,
		cfg.Checkout,
		checkoutMetrics,
		logg,
	)
	requireService(logg, "checkout", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			metricsRegistry,
			storeService,
			productService,
			salesService,
			leadService,
			checkoutService,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-stop:
		logg.Info(ctx, "shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		err := server.Shutdown(shutdownCtx)
		if waitErr := <-errCh; waitErr != nil && !errors.Is(waitErr, http.ErrServerClosed) {
			err = multierr.Append(err, waitErr)
		}
		if err != nil {
			logg.Error(ctx, "shutdown incomplete", err)
			os.Exit(1)
		}
		logg.Info(ctx, "api server stopped")
	}
}

func requireService(logg *logger.Logger, name string, err error) {
	if err == nil {
		return
	}
	ctx := logg.WithField(context.Background(), "service", name)
	logg.Error(ctx, "failed to build service", err)
	os.Exit(1)
}
