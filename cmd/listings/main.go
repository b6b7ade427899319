// Package main refreshes the lowest-listing snapshot: every card name
// across the decklists is resolved against the listings provider under its
// request-window budget, with a checkpoint write after each card.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/preconroi/preconroi/internal/config"
	"github.com/preconroi/preconroi/internal/deck"
	"github.com/preconroi/preconroi/internal/listings"
	"github.com/preconroi/preconroi/internal/pricing"
)

var configPath = flag.String("config", "config.toml", "Path to config file")

func main() {
	flag.Parse()
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Listings.BaseURL == "" {
		log.Fatal("listings base_url is not configured")
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Listings refresh failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	decklists, err := deck.LoadDecklists(cfg.Data.DecklistsFile)
	if err != nil {
		return fmt.Errorf("failed to load decklists: %w", err)
	}

	client := listings.NewClient(listings.ClientOptions{
		BaseURL:     cfg.Listings.BaseURL,
		WindowLimit: cfg.Listings.WindowLimit,
		Window:      time.Duration(cfg.Listings.WindowSecs) * time.Second,
		MaxWaits:    cfg.Listings.MaxWaits,
	})

	snap := loadExisting(cfg.Data.ListingsFile)
	names := decklists.CardNames()
	logger.Info("Refreshing lowest listings", "cards", len(names))

	var fetched, missing int
	for _, name := range names {
		listing, err := client.GetLowestListing(ctx, name)
		switch {
		case err == nil:
			snap.Cards[name] = pricing.LowestRecord{
				Name:          listing.Name,
				LowestListing: listing.LowestListing,
				TCGPlayerURL:  listing.TCGPlayerURL,
			}
			fetched++
		case listings.IsNotFound(err):
			// Keep any previous record; the card may be temporarily
			// unlisted.
			logger.Debug("Card not listed", "card", name)
			missing++
		case errors.Is(err, listings.ErrMaxWaitExceeded):
			logger.Warn("Window budget exhausted, stopping early",
				"fetched", fetched,
				"remaining", len(names)-fetched-missing)
			return writeSnapshot(cfg.Data.ListingsFile, snap)
		case errors.Is(err, context.Canceled):
			return writeSnapshot(cfg.Data.ListingsFile, snap)
		default:
			logger.Warn("Listing fetch failed", "card", name, "error", err)
			missing++
			continue
		}

		// Checkpoint after every card so slow window-limited runs are
		// resumable.
		snap.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
		if err := writeSnapshot(cfg.Data.ListingsFile, snap); err != nil {
			return fmt.Errorf("failed to write listings snapshot: %w", err)
		}
	}

	logger.Info("Listings refreshed", "fetched", fetched, "missing", missing)
	return nil
}

// loadExisting seeds the run from the previous snapshot so a partial
// refresh extends rather than truncates it.
func loadExisting(path string) *pricing.ListingsSnapshot {
	snap := &pricing.ListingsSnapshot{Cards: make(map[string]pricing.LowestRecord)}

	data, err := os.ReadFile(path)
	if err != nil {
		return snap
	}
	if err := json.Unmarshal(data, snap); err != nil || snap.Cards == nil {
		snap.Cards = make(map[string]pricing.LowestRecord)
	}
	return snap
}

func writeSnapshot(path string, snap *pricing.ListingsSnapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	return os.Rename(tmp.Name(), path)
}
