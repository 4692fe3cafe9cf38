// Command api is the ScoreWire API server: the manual-entry and read
// API plus the background poll scheduler and maintenance tickers.
//
// Usage:
//
//	scorewire-api
//	API_PORT=8080 scorewire-api

// @title ScoreWire API
// @version 1.0.0
// @description Live score ingestion and winner derivation for squares pools. Serves event registration, commissioner score entry, and winner ledger reads; runs the poll scheduler in-process.
// @host localhost:8000
// @BasePath /api/v1
// @schemes http https
// @contact.name GridPools
// @license.name MIT
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/gridpools/scorewire/internal/api"
	"github.com/gridpools/scorewire/internal/cache"
	"github.com/gridpools/scorewire/internal/config"
	"github.com/gridpools/scorewire/internal/db"
	"github.com/gridpools/scorewire/internal/ledger"
	"github.com/gridpools/scorewire/internal/listener"
	"github.com/gridpools/scorewire/internal/lock"
	"github.com/gridpools/scorewire/internal/maintenance"
	"github.com/gridpools/scorewire/internal/poller"
	"github.com/gridpools/scorewire/internal/postgres"
	"github.com/gridpools/scorewire/internal/provider/scorefeed"

	_ "github.com/gridpools/scorewire/docs" // swagger docs
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	// Load .env if present
	_ = godotenv.Load(".env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	// Connect to database
	logger.Info("Connecting to database...")
	pool, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("Database connected",
		"min_conns", cfg.DBPoolMinConns,
		"max_conns", cfg.DBPoolMaxConns)

	store := postgres.New(pool)
	svc := ledger.NewService(store, logger)

	// Initialize cache
	appCache := cache.New(cfg.CacheEnabled)
	logger.Info("Cache initialized", "enabled", cfg.CacheEnabled)

	// Cross-node cache invalidation via LISTEN/NOTIFY
	if cfg.CacheEnabled {
		go listener.Start(ctx, cfg.DatabaseURL, appCache, logger)
	}

	// Cluster lock for poll ownership
	locker, err := newLocker(cfg, pool)
	if err != nil {
		logger.Error("Failed to build cluster lock", "error", err)
		os.Exit(1)
	}
	logger.Info("Cluster lock ready", "backend", cfg.LockBackend)

	// Start the poll scheduler
	if cfg.PollerEnabled {
		adapter := scorefeed.NewClient(cfg.ScoreFeedBaseURL, cfg.ScoreFeedAPIKey, cfg.ScoreFeedRPM, logger)
		sched := poller.NewScheduler(store, store, svc, adapter, locker, poller.Config{
			TickInterval: cfg.PollTick,
			LeaseTTL:     cfg.PollLeaseTTL,
			Lookahead:    cfg.PollLookahead,
			Workers:      cfg.PollWorkers,
		}, logger)
		go sched.Run(ctx)
	} else {
		logger.Info("Poll scheduler disabled (POLLER_ENABLED=false)")
	}

	// Start maintenance tickers (lease purge, winner consistency sweep,
	// poll watermark view refresh)
	maintCfg := maintenance.DefaultConfig()
	maintCfg.WatermarkRefresh = func(ctx context.Context) error {
		return maintenance.RefreshPollWatermarks(ctx, pool.Pool, logger)
	}
	go maintenance.Start(ctx, store, maintCfg, logger)

	// Create router
	router := api.NewRouter(store, svc, appCache, cfg)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		logger.Info("Starting ScoreWire API",
			"addr", addr,
			"environment", cfg.Environment,
			"docs", fmt.Sprintf("http://localhost:%d/docs/", cfg.APIPort))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt
	<-ctx.Done()
	logger.Info("Shutting down...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", "error", err)
	}
	logger.Info("Server stopped")
}

// newLocker builds the configured cluster lock backend. Single-node
// deployments can run on the in-process lock; multi-node deployments
// need advisory or redis so poll ownership holds across instances.
func newLocker(cfg *config.Config, pool *db.Pool) (lock.TryLocker, error) {
	switch cfg.LockBackend {
	case "memory":
		return lock.NewMemory(), nil
	case "advisory":
		return lock.NewAdvisory(pool.Pool), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		return lock.NewRedis(client, 10*time.Second), nil
	}
	return nil, fmt.Errorf("unknown lock backend %q", cfg.LockBackend)
}
