package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"chartsrv/internal/config"
	"chartsrv/internal/http/handlers"
	"chartsrv/internal/http/server"
	"chartsrv/internal/infra/keys"
	"chartsrv/internal/infra/logging"
	"chartsrv/internal/infra/postgres"
	"chartsrv/internal/infra/ratelimit"
	"chartsrv/internal/render"
)

func main() {
	cfg := config.Load()
	// Allow the common container env var to override chrome_path.
	if cfg.Chart.ChromePath == "" {
		if v := os.Getenv("CHROME_BIN"); v != "" {
			cfg.Chart.ChromePath = v
		}
	}

	logging.InitLogger(
		cfg.Logger.File,
		cfg.Logger.MaxSizeMB,
		cfg.Logger.MaxBackups,
		cfg.Logger.MaxAgeDays,
		cfg.Logger.Compress,
		cfg.Logger.Level,
	)
	logging.SetLogLevel(cfg.Logger.Level)

	keyCache := keys.NewCache()
	keyCache.Replace(cfg.RateLimit.Keys)

	reloadCtx, stopReload := context.WithCancel(context.Background())
	defer stopReload()
	if cfg.RateLimit.PostgresDSN != "" {
		repo := postgres.NewKeyRepository(postgres.NewDB(), cfg.RateLimit.PostgresDSN)
		reloader := keys.NewReloader(repo, keyCache, cfg.RateLimit.KeyReloadEvery, cfg.RateLimit.Keys...)
		if err := reloader.LoadOnce(reloadCtx); err != nil {
			logging.Error("Failed to load privileged keys", "error", err.Error())
		}
		reloader.Start(reloadCtx)
	}

	store := ratelimit.NewStore(ratelimit.RedisConfig{
		Addr: cfg.Cache.RedisHost,
		DB:   cfg.Cache.RedisRateDB,
	})
	limiter := ratelimit.New(cfg.RateLimit.PerMinute, time.Minute, keyCache, store)

	charts := render.NewChartJS(cfg)
	defer charts.Close()

	var chartCache *handlers.ChartCache
	if cfg.Cache.ChartCacheEnabled && cfg.Cache.RedisHost != "" {
		client := redis.NewClient(&redis.Options{
			Addr: cfg.Cache.RedisHost,
			DB:   cfg.Cache.RedisChartDB,
		})
		chartCache = handlers.NewChartCache(client, cfg.Cache.ChartCacheTTL)
	}

	app := server.New(server.Deps{
		Config:  cfg,
		Charts:  handlers.NewChartService(cfg, charts, chartCache),
		QR:      handlers.NewQRService(render.NewQRCoder()),
		Stats:   handlers.NewStatsService(cfg, charts),
		Limiter: limiter,
	})

	idleConnsClosed := make(chan struct{})
	startServer(app, cfg, idleConnsClosed)
	<-idleConnsClosed
}

// startServer starts the Fiber app and, outside development mode, waits
// for a termination signal before draining connections.
func startServer(app *fiber.App, cfg config.Config, idleConnsClosed chan struct{}) {
	if cfg.Server.Dev {
		// Development mode installs no signal handler; the process dies
		// with default signal behavior, no drain.
		defer close(idleConnsClosed)
		if err := app.Listen(cfg.Server.Host + cfg.Server.Port); err != nil {
			logging.Error("Server error", "error", err)
		}
		return
	}

	go func() {
		if err := app.Listen(cfg.Server.Host + cfg.Server.Port); err != nil {
			logging.Error("Server error", "error", err)
		}
	}()

	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, syscall.SIGINT, syscall.SIGTERM)
	<-sigint

	logging.Warn("Shutdown signal received, closing server...")

	// New connections stop immediately; in-flight requests get up to the
	// grace period, then the process exits regardless.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logging.Error("Server forced to shutdown", "error", err)
	}

	close(idleConnsClosed)
	logging.Info("Server stopped cleanly")
}
