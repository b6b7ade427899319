// Package snapshot loads the precomputed server-shipped price snapshot.
// The snapshot covers every known deck, so a single read replaces per-card
// live fetching and keeps rate-limit pressure off the upstream API.
package snapshot

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/preconroi/preconroi/internal/pricing"
)

// Loader memoizes a price snapshot read from disk. The first Load settles
// the memo (success or failure); later calls return the same result
// without touching the file until Invalidate or a watched file change.
type Loader struct {
	path   string
	logger *slog.Logger

	mu     sync.Mutex
	loaded bool
	snap   *pricing.PriceSnapshot
}

// NewLoader creates a snapshot loader for the given file path.
func NewLoader(path string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{path: path, logger: logger}
}

// Load returns the snapshot, reading it at most once. Any read or parse
// failure returns nil rather than an error, so callers fall back to live
// pricing.
func (l *Loader) Load() *pricing.PriceSnapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.loaded {
		return l.snap
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		// An absent file is not memoized: a snapshot written later must
		// be picked up even when the directory watch never armed.
		if !os.IsNotExist(err) {
			l.loaded = true
		}
		l.logger.Debug("price snapshot unavailable", "path", l.path, "error", err)
		return nil
	}
	l.loaded = true

	var snap pricing.PriceSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		l.logger.Warn("price snapshot is malformed", "path", l.path, "error", err)
		return nil
	}

	l.snap = &snap
	return l.snap
}

// DeckPrices slices the loaded snapshot for one deck. The snapshot's card
// lists are pre-sorted by the batch job, so top cards are just the first
// priced entries in snapshot order.
func (l *Loader) DeckPrices(deckID string) *pricing.DeckPrices {
	snap := l.Load()
	if snap == nil {
		return nil
	}

	prices, ok := snap.Decks[deckID]
	if !ok || prices == nil {
		return nil
	}

	if len(prices.TopCards) == 0 {
		prices.TopCards = pricing.TopCardsOf(prices.Cards)
	}
	return prices
}

// Timestamp returns the snapshot's generation time as written by the
// batch job, or "" when no snapshot is loaded.
func (l *Loader) Timestamp() string {
	snap := l.Load()
	if snap == nil {
		return ""
	}
	return snap.UpdatedAt
}

// Invalidate drops the memo so the next Load re-reads the file.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.loaded = false
	l.snap = nil
}

// Watch invalidates the memo whenever the snapshot file is rewritten,
// until ctx is done. The batch job replaces the file atomically via
// rename, so rename and create events count as rewrites too.
func (l *Loader) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// Watch the directory: atomic replaces swap the file inode, and a
	// watch on the old inode would go quiet after the first refresh.
	if err := watcher.Add(filepath.Dir(l.path)); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Name != l.path {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					l.logger.Info("price snapshot changed, reloading", "path", l.path)
					l.Invalidate()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				l.logger.Warn("snapshot watcher error", "error", err)
			}
		}
	}()

	return nil
}
