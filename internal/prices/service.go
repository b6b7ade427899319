// Package prices is the composition root of the pricing subsystem. It
// prefers the static server-shipped snapshot, falls back to live fetching
// through the deduplicated rate-limited client, and writes results through
// the client-side price cache.
package prices

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/preconroi/preconroi/internal/deck"
	"github.com/preconroi/preconroi/internal/dedup"
	"github.com/preconroi/preconroi/internal/pricecache"
	"github.com/preconroi/preconroi/internal/pricing"
	"github.com/preconroi/preconroi/internal/scryfall"
	"github.com/preconroi/preconroi/internal/snapshot"
)

// ErrUnknownDeck is returned for deck ids absent from the catalog.
var ErrUnknownDeck = errors.New("unknown deck id")

// Source identifies where a deck's prices came from.
type Source string

const (
	SourceSnapshot Source = "snapshot"
	SourceLive     Source = "live"
)

// Result is a priced deck plus its provenance and ROI derivation.
type Result struct {
	Deck      deck.Deck           `json:"deck"`
	Prices    *pricing.DeckPrices `json:"prices"`
	ROI       pricing.Report      `json:"roi"`
	Source    Source              `json:"source"`
	UpdatedAt string              `json:"updatedAt,omitempty"`
}

// Service orchestrates snapshot, live fetch, selection, aggregation and
// caching.
type Service struct {
	loader    *snapshot.Loader
	cache     *pricecache.Cache
	group     *dedup.Group
	client    *scryfall.Client
	selector  *pricing.Selector
	catalog   *deck.Catalog
	decklists *deck.Decklists
	logger    *slog.Logger
}

// NewService wires the pricing subsystem together.
func NewService(loader *snapshot.Loader, cache *pricecache.Cache, group *dedup.Group, client *scryfall.Client, selector *pricing.Selector, catalog *deck.Catalog, decklists *deck.Decklists, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		loader:    loader,
		cache:     cache,
		group:     group,
		client:    client,
		selector:  selector,
		catalog:   catalog,
		decklists: decklists,
		logger:    logger,
	}
}

// GetDeckPrices returns a deck's priced snapshot. The static snapshot is
// tried first; refresh forces a live fetch past it. Live results are
// written through the price cache for staleness display on later visits.
func (s *Service) GetDeckPrices(ctx context.Context, deckID string, refresh bool) (*Result, error) {
	d, ok := s.catalog.Get(deckID)
	if !ok {
		return nil, ErrUnknownDeck
	}

	if !refresh {
		if prices := s.loader.DeckPrices(deckID); prices != nil {
			return s.result(d, prices, SourceSnapshot, s.loader.Timestamp()), nil
		}
	}

	// Concurrent requests for the same deck share one upstream round trip.
	v, err := s.group.Do(ctx, "deck:"+deckID, func() (interface{}, error) {
		return s.fetchLive(ctx, d)
	})
	if err != nil {
		return nil, err
	}
	prices := v.(*pricing.DeckPrices)

	// Best-effort cache write; a full or absent store only logs.
	if ok := s.cache.Set(deckID, pricecache.Record{
		TotalValue: prices.TotalValue,
		TopCards:   prices.TopCards,
		CardCount:  prices.CardCount,
	}); !ok {
		s.logger.Debug("price cache write failed", "deck", deckID)
	}

	return s.result(d, prices, SourceLive, ""), nil
}

// fetchLive prices a deck from the collection endpoint: one batch lookup
// pinned to the deck's product set, selection per card name, then
// aggregation.
func (s *Service) fetchLive(ctx context.Context, d deck.Deck) (*pricing.DeckPrices, error) {
	entries, ok := s.decklists.Get(d.ID)
	if !ok {
		return nil, fmt.Errorf("%w: no decklist for %q", ErrUnknownDeck, d.ID)
	}

	identifiers := make([]scryfall.CardIdentifier, 0, len(entries))
	for _, e := range entries {
		identifiers = append(identifiers, scryfall.CardIdentifier{Name: e.Name, Set: d.SetCode})
	}

	cards, notFound, err := s.client.GetCardsByIdentifiers(ctx, identifiers)
	if err != nil {
		return nil, fmt.Errorf("live price fetch for deck %q failed: %w", d.ID, err)
	}
	if len(notFound) > 0 {
		s.logger.Warn("cards missing from upstream catalog",
			"deck", d.ID,
			"missing", len(notFound))
	}

	// Group printings by front-face name and run selection per name so
	// multiple returned printings tie-break identically to the batch path.
	byName := make(map[string][]scryfall.Card)
	for _, c := range cards {
		name := pricing.FrontFaceName(c.Name)
		byName[name] = append(byName[name], c)
	}

	selections := make(map[string]*pricing.Selection, len(byName))
	for name, group := range byName {
		if sel := s.selector.Select(group); sel != nil {
			selections[name] = sel
		}
	}

	return pricing.PriceDeck(entries, func(name string) *pricing.Selection {
		return selections[pricing.FrontFaceName(name)]
	}), nil
}

func (s *Service) result(d deck.Deck, prices *pricing.DeckPrices, source Source, updatedAt string) *Result {
	return &Result{
		Deck:      d,
		Prices:    prices,
		ROI:       pricing.NewReport(prices.TotalValue, d.MSRP),
		Source:    source,
		UpdatedAt: updatedAt,
	}
}

// GetCardPrice resolves a single printing's display price: normal, else
// foil, else 0.
func (s *Service) GetCardPrice(card *scryfall.Card) float64 {
	return pricing.CardDisplayPrice(card)
}

// SearchCards searches the upstream catalog, deduplicating concurrent
// identical queries.
func (s *Service) SearchCards(ctx context.Context, query string) ([]scryfall.Card, error) {
	v, err := s.group.Do(ctx, "search:"+strings.ToLower(strings.TrimSpace(query)), func() (interface{}, error) {
		result, err := s.client.SearchCards(ctx, query)
		if err != nil {
			return nil, err
		}
		return result.Data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]scryfall.Card), nil
}

// CollectionResult pairs found cards with the names that did not resolve.
type CollectionResult struct {
	Found    []scryfall.Card `json:"found"`
	NotFound []string        `json:"notFound"`
}

// GetCardsByNames batch-resolves ad-hoc card names, deduplicating
// concurrent identical lookups.
func (s *Service) GetCardsByNames(ctx context.Context, names []string) (*CollectionResult, error) {
	key := collectionKey(names)

	v, err := s.group.Do(ctx, key, func() (interface{}, error) {
		found, notFound, err := s.client.GetCardsByNames(ctx, names)
		if err != nil {
			return nil, err
		}
		return &CollectionResult{Found: found, NotFound: notFound}, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*CollectionResult), nil
}

// collectionKey builds an order-insensitive dedup key for a name batch.
func collectionKey(names []string) string {
	sorted := make([]string, len(names))
	for i, n := range names {
		sorted[i] = strings.ToLower(strings.TrimSpace(n))
	}
	sort.Strings(sorted)
	return "collection:" + strings.Join(sorted, "|")
}

// CacheInfo describes the client cache state for one deck.
type CacheInfo struct {
	Cached    bool   `json:"cached"`
	Stale     bool   `json:"stale"`
	FetchedAt string `json:"fetchedAt,omitempty"`
	Age       string `json:"age,omitempty"`
}

// CacheStatus reports the client cache state for a deck.
func (s *Service) CacheStatus(deckID string) CacheInfo {
	info := CacheInfo{Stale: s.cache.IsStale(deckID)}

	if rec := s.cache.Get(deckID); rec != nil {
		info.Cached = true
		info.FetchedAt = rec.FetchedAt
		if age, ok := s.cache.FormatAge(deckID); ok {
			info.Age = age
		}
	}
	return info
}

// ClearCache removes every cached deck price record.
func (s *Service) ClearCache() {
	s.cache.Clear()
}

// Decks lists the deck catalog.
func (s *Service) Decks() []deck.Deck {
	return s.catalog.All()
}

// Deck returns one deck by id.
func (s *Service) Deck(id string) (deck.Deck, bool) {
	return s.catalog.Get(id)
}
