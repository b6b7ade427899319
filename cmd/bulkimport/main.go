// Package main rebuilds the server-side price snapshot from the Scryfall
// bulk card catalog: download (or reuse) the bulk file, stream it through
// the printing selector for the catalog's product sets, then price every
// deck and write the snapshot.
package main

import (
	"context"
	"encoding/json"
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
	"github.com/preconroi/preconroi/internal/pricing"
	"github.com/preconroi/preconroi/internal/scryfall"
)

const bulkMaxAge = 12 * time.Hour

var (
	configPath = flag.String("config", "config.toml", "Path to config file")
	bulkType   = flag.String("bulk-type", "default_cards", "Scryfall bulk data type to import")
	includeSet = flag.Bool("sets", true, "Include per-set selections in the snapshot")
)

func main() {
	flag.Parse()
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Bulk import failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	catalog, err := deck.LoadCatalog(cfg.Data.DecksFile)
	if err != nil {
		return fmt.Errorf("failed to load deck catalog: %w", err)
	}

	decklists, err := deck.LoadDecklists(cfg.Data.DecklistsFile)
	if err != nil {
		return fmt.Errorf("failed to load decklists: %w", err)
	}

	client := scryfall.NewClient(scryfall.ClientOptions{})

	bulkList, err := client.GetBulkData(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch bulk data listing: %w", err)
	}

	bulkInfo, err := bulkList.FindBulkData(*bulkType)
	if err != nil {
		return err
	}

	logger.Info("Downloading bulk catalog",
		"type", *bulkType,
		"size_mb", bulkInfo.CompressedSize/(1024*1024))

	bulkPath, err := client.DownloadBulkFile(ctx, bulkInfo, cfg.Data.BulkDir, bulkMaxAge)
	if err != nil {
		return fmt.Errorf("failed to download bulk file: %w", err)
	}

	selector := pricing.NewSelector(pricing.SelectorOptions{
		SerializedNumberCutoff: cfg.Pricing.SerializedNumberCutoff,
	})

	wanted := catalog.SetCodes()
	collector := pricing.NewCollector(selector, func(setCode string) bool {
		return wanted[setCode]
	})

	processed, err := scryfall.StreamBulkCards(ctx, bulkPath, func(card *scryfall.Card) error {
		collector.Add(card)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to stream bulk file: %w", err)
	}
	logger.Info("Bulk catalog streamed", "cards", processed)

	selections := collector.Selections()

	snap := &pricing.PriceSnapshot{
		Decks: make(map[string]*pricing.DeckPrices),
	}
	if *includeSet {
		snap.Sets = make(map[string]map[string]*pricing.Selection)
		for key, sel := range selections {
			set := snap.Sets[key.Set]
			if set == nil {
				set = make(map[string]*pricing.Selection)
				snap.Sets[key.Set] = set
			}
			set[key.Name] = sel
		}
	}

	// Checkpoint after every deck so an interrupted run still leaves a
	// usable snapshot on disk.
	for _, d := range catalog.All() {
		entries, ok := decklists.Get(d.ID)
		if !ok {
			logger.Warn("No decklist for deck, skipping", "deck", d.ID)
			continue
		}

		prices := pricing.PriceDeck(entries, func(name string) *pricing.Selection {
			return selections[pricing.Key{Name: pricing.FrontFaceName(name), Set: d.SetCode}]
		})
		snap.Decks[d.ID] = prices

		report := pricing.NewReport(prices.TotalValue, d.MSRP)
		logger.Info("Deck priced",
			"deck", d.ID,
			"total", prices.TotalValue,
			"excluded", prices.Excluded,
			"verdict", report.Verdict)

		snap.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
		if err := writeSnapshot(cfg.Data.SnapshotFile, snap); err != nil {
			return fmt.Errorf("failed to write snapshot: %w", err)
		}
	}

	logger.Info("Snapshot written", "path", cfg.Data.SnapshotFile, "decks", len(snap.Decks))
	return nil
}

// writeSnapshot writes atomically: temp file in the target directory,
// then rename.
func writeSnapshot(path string, snap *pricing.PriceSnapshot) error {
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
