// Package main runs the precon price API server: deck catalog, price
// snapshot serving, live refresh against Scryfall, and the client price
// cache endpoints.
package main

import (
	"context"
	"flag"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/preconroi/preconroi/internal/api"
	"github.com/preconroi/preconroi/internal/config"
	"github.com/preconroi/preconroi/internal/deck"
	"github.com/preconroi/preconroi/internal/dedup"
	"github.com/preconroi/preconroi/internal/pricecache"
	"github.com/preconroi/preconroi/internal/prices"
	"github.com/preconroi/preconroi/internal/pricing"
	"github.com/preconroi/preconroi/internal/scryfall"
	"github.com/preconroi/preconroi/internal/snapshot"
	"github.com/preconroi/preconroi/internal/version"
)

var (
	configPath = flag.String("config", "config.toml", "Path to config file")
	port       = flag.Int("port", 0, "Override the configured API server port")
)

func main() {
	flag.Parse()

	// Optional .env for local development; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	logger := newLogger(cfg.Log)
	slog.SetDefault(logger)
	logger.Info("Starting precon price server", "version", version.GetVersion())

	catalog, err := deck.LoadCatalog(cfg.Data.DecksFile)
	if err != nil {
		logger.Error("Failed to load deck catalog", "path", cfg.Data.DecksFile, "error", err)
		os.Exit(1)
	}

	decklists, err := deck.LoadDecklists(cfg.Data.DecklistsFile)
	if err != nil {
		logger.Error("Failed to load decklists", "path", cfg.Data.DecklistsFile, "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	loader := snapshot.NewLoader(cfg.Data.SnapshotFile, logger)
	go func() {
		if err := loader.Watch(ctx); err != nil {
			logger.Warn("Snapshot watch unavailable", "error", err)
		}
	}()

	cache := pricecache.New(newCacheStore(cfg.Data.CacheDir, logger), pricecache.Options{})

	service := prices.NewService(
		loader,
		cache,
		dedup.NewGroup(dedup.Options{Logger: logger}),
		scryfall.NewClient(scryfall.ClientOptions{}),
		pricing.NewSelector(pricing.SelectorOptions{
			SerializedNumberCutoff: cfg.Pricing.SerializedNumberCutoff,
		}),
		catalog,
		decklists,
		logger,
	)

	server := api.NewServer(&api.Config{
		Port:           cfg.Server.Port,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, service, logger)

	if err := server.Start(); err != nil {
		logger.Error("Failed to start API server", "error", err)
		os.Exit(1)
	}
	logger.Info("API server running", "addr", server.Addr())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", "error", err)
	}
}

// newLogger builds the process logger. With a configured log file the
// output rotates via lumberjack; otherwise it goes to stderr.
func newLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var w io.Writer = os.Stderr
	if cfg.File != "" {
		w = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
		}
	}

	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

// newCacheStore prefers the on-disk store and degrades to an in-memory
// one when the cache directory cannot be created.
func newCacheStore(dir string, logger *slog.Logger) pricecache.Store {
	store, err := pricecache.NewFileStore(dir)
	if err != nil {
		logger.Warn("Price cache directory unavailable, using in-memory cache", "dir", dir, "error", err)
		return pricecache.NewMemoryStore()
	}
	return store
}
