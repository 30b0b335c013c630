package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"github.com/schoolpay/schoolpay-backend/api/routes"
	"github.com/schoolpay/schoolpay-backend/internal/orders"
	"github.com/schoolpay/schoolpay-backend/internal/reconcile"
	"github.com/schoolpay/schoolpay-backend/internal/status"
	"github.com/schoolpay/schoolpay-backend/internal/transactions"
	"github.com/schoolpay/schoolpay-backend/internal/webhooklog"
	"github.com/schoolpay/schoolpay-backend/pkg/config"
	"github.com/schoolpay/schoolpay-backend/pkg/db"
	"github.com/schoolpay/schoolpay-backend/pkg/gateway"
	"github.com/schoolpay/schoolpay-backend/pkg/logger"
	"github.com/schoolpay/schoolpay-backend/pkg/metrics"
	"github.com/schoolpay/schoolpay-backend/pkg/migrate"
	"github.com/schoolpay/schoolpay-backend/pkg/redis"
	"github.com/prometheus/client_golang/prometheus"
)

const shutdownGrace = 10 * time.Second

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

	gatewayClient, err := gateway.NewClient(context.Background(), cfg.Gateway, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create gateway client", err)
		os.Exit(1)
	}

	ordersRepo := orders.NewRepository(dbClient.DB())
	statusRepo := status.NewRepository(dbClient.DB())
	webhookLogRepo := webhooklog.NewRepository(dbClient.DB())
	transactionsRepo := transactions.NewRepository(dbClient.DB())

	reconcileMetrics := metrics.NewReconcileMetrics(prometheus.DefaultRegisterer)

	reconcileService, err := reconcile.NewService(
		ordersRepo,
		statusRepo,
		webhookLogRepo,
		gatewayClient,
		redisClient,
		logg,
		reconcile.Options{
			CallbackURL: cfg.Gateway.CallbackURL,
			Metrics:     reconcileMetrics,
		},
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create reconcile service", err)
		os.Exit(1)
	}

	transactionsService, err := transactions.NewService(transactionsRepo, gatewayClient, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create transactions service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, reconcileService, transactionsService),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
			os.Exit(1)
		}
		logg.Info(ctx, "api server shut down gracefully")
	}
}
