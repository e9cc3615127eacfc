package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tundeadepitan/swiftchow-backend/api/routes"
	"github.com/tundeadepitan/swiftchow-backend/internal/commission"
	"github.com/tundeadepitan/swiftchow-backend/internal/distribution"
	"github.com/tundeadepitan/swiftchow-backend/internal/orders"
	"github.com/tundeadepitan/swiftchow-backend/internal/wallets"
	paystackwebhook "github.com/tundeadepitan/swiftchow-backend/internal/webhooks/paystack"
	"github.com/tundeadepitan/swiftchow-backend/internal/withdrawals"
	"github.com/tundeadepitan/swiftchow-backend/pkg/config"
	"github.com/tundeadepitan/swiftchow-backend/pkg/db"
	"github.com/tundeadepitan/swiftchow-backend/pkg/logger"
	"github.com/tundeadepitan/swiftchow-backend/pkg/metrics"
	"github.com/tundeadepitan/swiftchow-backend/pkg/migrate"
	"github.com/tundeadepitan/swiftchow-backend/pkg/paystack"
	"github.com/tundeadepitan/swiftchow-backend/pkg/redis"
)

const webhookIdempotencyTTL = 24 * time.Hour

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

	paystackClient, err := paystack.NewClient(context.Background(), cfg.Paystack, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create paystack client", err)
		os.Exit(1)
	}

	settlementMetrics := metrics.NewSettlementMetrics(prometheus.DefaultRegisterer)

	walletsSvc, err := wallets.NewService(wallets.ServiceParams{
		Client: dbClient,
		Repo:   wallets.NewRepository(dbClient.DB()),
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create wallets service", err)
		os.Exit(1)
	}

	ordersRepo := orders.NewRepository(dbClient.DB())
	ordersSvc, err := orders.NewService(orders.ServiceParams{
		Client: dbClient,
		Repo:   ordersRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create orders service", err)
		os.Exit(1)
	}

	commissionTable, err := commission.NewTable(cfg.Commission)
	if err != nil {
		logg.Error(context.Background(), "failed to build commission table", err)
		os.Exit(1)
	}

	engine, err := distribution.NewEngine(distribution.EngineParams{
		OrdersRepo: ordersRepo,
		Ledger:     walletsSvc,
		Table:      commissionTable,
		Metrics:    settlementMetrics,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create distribution engine", err)
		os.Exit(1)
	}

	withdrawalsSvc, err := withdrawals.NewService(withdrawals.ServiceParams{
		Repo:    withdrawals.NewRepository(dbClient.DB()),
		Ledger:  walletsSvc,
		Gateway: paystackClient,
		Config:  cfg.Withdrawal,
		Metrics: settlementMetrics,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create withdrawals service", err)
		os.Exit(1)
	}

	webhookSvc, err := paystackwebhook.NewService(paystackwebhook.ServiceParams{
		Orders:      ordersSvc,
		Distributor: engine,
		Withdrawals: withdrawalsSvc,
		Metrics:     settlementMetrics,
		Logger:      logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	webhookGuard, err := paystackwebhook.NewIdempotencyGuard(redisClient, webhookIdempotencyTTL, "paystack-webhook")
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook guard", err)
		os.Exit(1)
	}

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
		Handler: routes.NewRouter(routes.RouterParams{
			Config:          cfg,
			Logger:          logg,
			DBPinger:        dbClient,
			RedisPinger:     redisClient,
			Wallets:         walletsSvc,
			Orders:          ordersSvc,
			Withdrawals:     withdrawalsSvc,
			Distributor:     engine,
			WebhookService:  webhookSvc,
			WebhookVerifier: paystackClient,
			WebhookGuard:    webhookGuard,
		}),
	}

	shutdownCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		drainCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(drainCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
			os.Exit(1)
		}
		logg.Info(ctx, "api server shut down gracefully")
	}
}
