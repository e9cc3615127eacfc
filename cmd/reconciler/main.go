package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tundeadepitan/swiftchow-backend/internal/commission"
	"github.com/tundeadepitan/swiftchow-backend/internal/cron"
	"github.com/tundeadepitan/swiftchow-backend/internal/distribution"
	"github.com/tundeadepitan/swiftchow-backend/internal/orders"
	"github.com/tundeadepitan/swiftchow-backend/internal/wallets"
	"github.com/tundeadepitan/swiftchow-backend/pkg/config"
	"github.com/tundeadepitan/swiftchow-backend/pkg/db"
	"github.com/tundeadepitan/swiftchow-backend/pkg/logger"
	"github.com/tundeadepitan/swiftchow-backend/pkg/metrics"
	"github.com/tundeadepitan/swiftchow-backend/pkg/migrate"
	"github.com/tundeadepitan/swiftchow-backend/pkg/redis"
)

const lockKeyFormat = "sc:reconciler:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "reconciler"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "reconciler",
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

	commissionTable, err := commission.NewTable(cfg.Commission)
	if err != nil {
		logg.Error(context.Background(), "failed to build commission table", err)
		os.Exit(1)
	}

	ordersRepo := orders.NewRepository(dbClient.DB())
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

	reconcileJob, err := cron.NewDistributionReconcileJob(cron.DistributionReconcileJobParams{
		Logger:      logg,
		Orders:      ordersRepo,
		Distributor: engine,
		Cutoff:      cfg.Reconciler.Cutoff,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reconcile job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), cfg.Reconciler.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create reconciler lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(reconcileJob),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Reconciler.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reconciler service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env})
	logg.Info(ctx, "starting distribution reconciler")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "reconciler stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "reconciler shutting down gracefully")
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
