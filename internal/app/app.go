// Package app wires configuration, the Notion fetcher, the cache store,
// the reconciliation service, and the HTTP server into a runnable unit.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonesrussell/notion-cache/internal/api"
	"github.com/jonesrussell/notion-cache/internal/cache"
	"github.com/jonesrussell/notion-cache/internal/config"
	"github.com/jonesrussell/notion-cache/internal/logger"
	"github.com/jonesrussell/notion-cache/internal/metrics"
	"github.com/jonesrussell/notion-cache/internal/notion"
	"github.com/jonesrussell/notion-cache/internal/service"
)

const (
	version = "1.0.0"

	idleTimeout     = 60 * time.Second
	janitorInterval = 5 * time.Minute
	shutdownTimeout = config.DefaultShutdownTimeoutSeconds * time.Second
)

// App holds the assembled service.
type App struct {
	cfg     *config.Config
	logger  logger.Logger
	svc     *service.Service
	entries *cache.EntryCache
	server  *http.Server

	// durable is non-nil when the store persists snapshots; its
	// in-flight writes are drained on shutdown.
	durable *cache.DurableStore
}

// New assembles the application from configuration.
func New(cfg *config.Config) (*App, error) {
	log, err := logger.NewLogger(cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	// The service starts without credentials and serves an empty
	// collection; /api/env-status makes the gap visible.
	if cfg.Notion.Token == "" {
		log.Warn("NOTION_TOKEN is not set, source fetches will fail")
	}
	if cfg.Notion.DatabaseID == "" {
		log.Warn("NOTION_DATABASE_ID is not set, source fetches will fail")
	}

	client := notion.NewClient(notion.ClientConfig{
		Token:   cfg.Notion.Token,
		Timeout: cfg.Notion.Timeout,
	})
	fetcher := notion.NewFetcher(client, cfg.Notion.DatabaseID, log)

	store, durable, err := buildStore(cfg, log)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	entries := cache.NewEntryCache(cfg.Cache.TTL)
	svc := service.New(store, entries, fetcher, m, log, service.Config{
		Serverless: cfg.Cache.Serverless,
	})

	router := api.NewRouter(svc, m, log, api.Config{
		Version:     version,
		Debug:       cfg.Debug,
		CORSOrigins: cfg.Server.CORSOrigins,
		EnvStatus: api.EnvStatus{
			HasNotionToken:    cfg.Notion.Token != "",
			HasNotionDatabase: cfg.Notion.DatabaseID != "",
			Serverless:        cfg.Cache.Serverless,
			CacheMode:         cfg.Cache.Mode(),
		},
	})

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  idleTimeout,
	}

	log.Info("application assembled",
		logger.String("address", cfg.Server.Address),
		logger.String("cache_mode", cfg.Cache.Mode()),
		logger.Bool("serverless", cfg.Cache.Serverless),
	)

	return &App{
		cfg:     cfg,
		logger:  log,
		svc:     svc,
		entries: entries,
		server:  server,
		durable: durable,
	}, nil
}

// buildStore selects the cache backing from configuration. The choice is
// made once here and never re-evaluated.
func buildStore(cfg *config.Config, log logger.Logger) (cache.Store, *cache.DurableStore, error) {
	switch cfg.Cache.Mode() {
	case cache.ModeMemory:
		return cache.NewMemoryStore(), nil, nil

	case cache.ModeRedis:
		persister, err := cache.NewRedisPersister(
			cfg.Cache.RedisAddr,
			cfg.Cache.RedisPassword,
			cfg.Cache.RedisDB,
		)
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		durable := cache.NewDurableStore(persister, log)
		return durable, durable, nil

	default:
		persister, err := cache.NewFilePersister(cfg.Cache.Dir)
		if err != nil {
			return nil, nil, fmt.Errorf("create cache dir: %w", err)
		}
		durable := cache.NewDurableStore(persister, log)
		return durable, durable, nil
	}
}

// Run starts the HTTP server and blocks until SIGINT or SIGTERM, then
// shuts down gracefully.
func (a *App) Run() error {
	janitorCtx, stopJanitor := context.WithCancel(context.Background())
	defer stopJanitor()
	go a.entries.StartJanitor(janitorCtx, janitorInterval)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server listening", logger.String("address", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		a.logger.Info("shutting down", logger.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(ctx); err != nil {
		a.logger.Error("forced shutdown", logger.Error(err))
	}

	// Let background refreshes and snapshot writes finish.
	a.svc.Drain()
	if a.durable != nil {
		a.durable.Close()
	}

	_ = a.logger.Sync()
	a.logger.Info("server exited")
	return nil
}
