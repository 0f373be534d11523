package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/servline/servline-backend/api/routes"
	"github.com/servline/servline-backend/internal/inventory"
	"github.com/servline/servline-backend/internal/lifecycle"
	"github.com/servline/servline-backend/internal/orders"
	"github.com/servline/servline-backend/internal/reconciliation"
	"github.com/servline/servline-backend/pkg/config"
	"github.com/servline/servline-backend/pkg/db"
	"github.com/servline/servline-backend/pkg/logger"
	"github.com/servline/servline-backend/pkg/metrics"
	"github.com/servline/servline-backend/pkg/migrate"
	"github.com/servline/servline-backend/pkg/redis"
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

	registry := prometheus.NewRegistry()
	fulfillmentMetrics := metrics.NewFulfillmentMetrics(registry)

	ordersRepo := orders.NewRepository(dbClient.DB())
	stockProvider := inventory.NewProvider(dbClient.DB(), redisClient, cfg.Inventory, logg)

	reconciliationSvc := reconciliation.NewService(
		ordersRepo,
		stockProvider,
		&reconciliation.LoggingWalletGateway{Logg: logg},
		&reconciliation.LoggingTransferGateway{Logg: logg},
		dbClient,
		fulfillmentMetrics,
		logg,
	)
	lifecycleSvc := lifecycle.NewService(ordersRepo, reconciliationSvc, fulfillmentMetrics, logg)

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
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, lifecycleSvc, reconciliationSvc, registry),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
