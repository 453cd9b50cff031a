package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"sales-dashboard/internal/cache"
	"sales-dashboard/internal/config"
	"sales-dashboard/internal/dataset"
	"sales-dashboard/internal/filter"
	"sales-dashboard/internal/metrics"
	"sales-dashboard/internal/middleware"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/server"
	"sales-dashboard/internal/services"
)

const version = "1.0.0"

type app struct {
	dashboard *services.Dashboard
	metrics   *metrics.Metrics
	registry  *prometheus.Registry
	memo      *cache.Memo
	// swept by the janitor
	expiring map[string]cache.Sweeper
}

// newApp wires the dataset, filter state, memo and metrics into a dashboard.
// The dataset is not loaded yet.
func newApp(cfg *config.Config, logger *slog.Logger) *app {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	store := dataset.NewStore(dataset.NewLoader(cfg.Dataset.Encoding, logger), cfg.Dataset.CSVFile, logger)

	memo := cache.NewMemo(cfg.Cache.Enabled, cfg.Cache.Size, cfg.Cache.TTL)
	expiring := map[string]cache.Sweeper{"memo": memo}

	var filters filter.Registry
	if cfg.Filter.Scope == config.FilterScopeSession {
		sessions := filter.NewSessionRegistry(store, logger, cfg.Filter.SessionLimit, cfg.Filter.SessionTTL)
		expiring["sessions"] = sessions
		filters = sessions
	} else {
		filters = filter.NewGlobalRegistry(store, logger)
	}

	dashboard := services.NewDashboard(store, filters, memo, m, logger,
		services.WithReloadTimeout(cfg.Dataset.LoadTimeout),
	)

	return &app{
		dashboard: dashboard,
		metrics:   m,
		registry:  registry,
		memo:      memo,
		expiring:  expiring,
	}
}

func newHandler(cfg *config.Config, a *app, logger *slog.Logger) http.Handler {
	srv := server.NewServer(a.dashboard, a.metrics, a.registry, logger)

	rateLimiter := middleware.NewRateLimiter(cfg.Security)

	middlewareChain := middleware.Chain(
		middleware.Recovery(logger),
		middleware.RequestID(),
		middleware.Session(cfg.Security),
		middleware.Logger(logger),
		middleware.Tracing(logger),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Security),
		middleware.TrustedProxy(cfg.Security),
		middleware.RateLimit(rateLimiter, logger),
		middleware.Compress(cfg.Security, logger),
	)

	return middlewareChain(srv)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", version,
		"config", cfg,
	)

	a := newApp(cfg, logger)

	start := time.Now()
	snap, err := a.dashboard.Reload(context.Background())
	if err != nil {
		logger.Error("failed to load dataset", "file", cfg.Dataset.CSVFile, "error", err)
		os.Exit(1)
	}
	logger.Info("dataset loaded successfully",
		"records", len(snap.Table),
		"rejected", snap.Rejected,
		"duration", time.Since(start),
	)

	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	defer stopJanitor()
	go cache.RunJanitor(janitorCtx, cfg.Cache.SweepInterval, logger, a.expiring)

	httpServer := &http.Server{
		Addr:         cfg.Address(),
		Handler:      newHandler(cfg, a, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	gracefulServer := server.NewGracefulServer(httpServer, logger, cfg)

	gracefulServer.RegisterReloadHook(func(ctx context.Context) error {
		_, err := a.dashboard.Reload(ctx)
		return err
	})

	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		logger.Info("stopping cache janitor")
		stopJanitor()
		a.memo.Purge()
		return nil
	})

	logger.Info("starting graceful server")
	if err := gracefulServer.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}
