package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/module-swap/internal/cron"
	"github.com/angelmondragon/module-swap/internal/swap"
	"github.com/angelmondragon/module-swap/pkg/config"
	"github.com/angelmondragon/module-swap/pkg/db"
	"github.com/angelmondragon/module-swap/pkg/instance"
	"github.com/angelmondragon/module-swap/pkg/logger"
	"github.com/angelmondragon/module-swap/pkg/metrics"
	"github.com/angelmondragon/module-swap/pkg/migrate"
)

const serviceName = "module-swap-cron-worker"

func main() {
	once := flag.Bool("once", false, "run a single maintenance cycle and exit")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: serviceName})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: serviceName,
		Instance:    instance.GetID(),
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

	retentionJob, err := cron.NewHistoryRetentionJob(cron.HistoryRetentionJobParams{
		Logger:    logg,
		History:   swap.NewHistoryRepository(dbClient.DB()),
		Retention: cfg.Maintenance.HistoryRetention(),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create history retention job", err)
		os.Exit(1)
	}
	registry, err := cron.NewRegistry(retentionJob)
	if err != nil {
		logg.Error(context.Background(), "failed to build cron registry", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Metrics:  metrics.NewJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Maintenance.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"interval": cfg.Maintenance.Interval.String(),
	})

	if *once {
		logg.Info(ctx, "running single maintenance cycle")
		if err := service.RunOnce(ctx); err != nil {
			logg.Error(ctx, "maintenance cycle failed", err)
			os.Exit(1)
		}
		return
	}

	logg.Info(ctx, "starting cron worker")
	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "cron worker shutting down gracefully")
}
