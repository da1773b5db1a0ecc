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
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/angelmondragon/module-swap/api/routes"
	"github.com/angelmondragon/module-swap/internal/dcim"
	"github.com/angelmondragon/module-swap/internal/links"
	"github.com/angelmondragon/module-swap/internal/swap"
	"github.com/angelmondragon/module-swap/pkg/config"
	"github.com/angelmondragon/module-swap/pkg/db"
	"github.com/angelmondragon/module-swap/pkg/instance"
	"github.com/angelmondragon/module-swap/pkg/logger"
	"github.com/angelmondragon/module-swap/pkg/metrics"
	"github.com/angelmondragon/module-swap/pkg/migrate"
	"github.com/angelmondragon/module-swap/pkg/redis"
	"github.com/angelmondragon/module-swap/pkg/workflow"
)

const serviceName = "module-swap-api"

func main() {
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, dbClient.Close())
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Append(err, redisClient.Close())
	}()

	workflows, err := workflow.NewManager(redisClient, cfg.Workflow)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	swapMetrics := metrics.NewSwapMetrics(reg)
	httpMetrics := metrics.NewHTTPMetrics(reg)

	hostRepo := dcim.NewRepository(dbClient.DB())
	linkRepo := links.NewRepository(dbClient.DB())

	linksService, err := links.NewService(links.ServiceParams{
		Repo:    linkRepo,
		Hosts:   hostRepo,
		Tx:      dbClient,
		Metrics: swapMetrics,
	})
	if err != nil {
		return err
	}

	swapService, err := swap.NewService(swap.ServiceParams{
		Hosts:    hostRepo,
		Links:    linkRepo,
		History:  swap.NewHistoryRepository(dbClient.DB()),
		Tx:       dbClient,
		Workflow: workflows,
		Metrics:  swapMetrics,
		Logger:   logg,
	})
	if err != nil {
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":          cfg.App.Env,
		"addr":         addr,
		"workflow_ttl": cfg.Workflow.TTL.String(),
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Dependencies{
			DB:               dbClient,
			Redis:            redisClient,
			IdempotencyStore: redisClient,
			Gatherer:         reg,
			RequestObserver:  httpMetrics,
			SwapService:      swapService,
			LinksService:     linksService,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logg.Info(ctx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
