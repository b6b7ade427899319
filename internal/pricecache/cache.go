package pricecache

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/preconroi/preconroi/internal/pricing"
)

const (
	// DefaultKeyPrefix namespaces cache entries so Clear never touches
	// unrelated storage keys.
	DefaultKeyPrefix = "preconPrices_"

	// DefaultMaxAge is the staleness threshold for cached prices.
	DefaultMaxAge = 7 * 24 * time.Hour
)

// Record is one cached deck price snapshot. Its presence implies a
// successful fetch happened; absence means "never fetched", not "fetched
// empty".
type Record struct {
	TotalValue float64           `json:"totalValue"`
	TopCards   []pricing.TopCard `json:"topCards,omitempty"`
	CardCount  int               `json:"cardCount"`
	FetchedAt  string            `json:"fetchedAt"`
}

// Cache reads and writes per-deck price records through a Store. A nil
// store turns every operation into a no-op rather than an error.
type Cache struct {
	store  Store
	prefix string
	maxAge time.Duration
	now    func() time.Time
}

// Options configures a Cache.
type Options struct {
	// Prefix namespaces keys (default "preconPrices_").
	Prefix string

	// MaxAge is the staleness threshold (default 7 days).
	MaxAge time.Duration

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// New creates a price cache over store. store may be nil when no
// persistence backend is available.
func New(store Store, options Options) *Cache {
	if options.Prefix == "" {
		options.Prefix = DefaultKeyPrefix
	}
	if options.MaxAge <= 0 {
		options.MaxAge = DefaultMaxAge
	}
	if options.Now == nil {
		options.Now = time.Now
	}

	return &Cache{
		store:  store,
		prefix: options.Prefix,
		maxAge: options.MaxAge,
		now:    options.Now,
	}
}

func (c *Cache) key(deckID string) string {
	return c.prefix + deckID
}

// Get returns the cached record for a deck, or nil when absent or when
// the stored JSON fails to parse. Corrupt entries are cache misses, never
// errors.
func (c *Cache) Get(deckID string) *Record {
	if c.store == nil {
		return nil
	}

	raw, ok := c.store.Get(c.key(deckID))
	if !ok {
		return nil
	}

	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil
	}
	return &rec
}

// Set stamps the record with the current time and writes it. Returns
// false when the write failed (e.g. storage quota); the failure is
// swallowed because caching is best-effort.
func (c *Cache) Set(deckID string, rec Record) bool {
	if c.store == nil {
		return false
	}

	rec.FetchedAt = c.now().UTC().Format(time.RFC3339)

	data, err := json.Marshal(rec)
	if err != nil {
		return false
	}

	if err := c.store.Set(c.key(deckID), string(data)); err != nil {
		return false
	}
	return true
}

// Age returns the elapsed time since the deck's record was fetched.
// ok is false when no valid record exists.
func (c *Cache) Age(deckID string) (age time.Duration, ok bool) {
	rec := c.Get(deckID)
	if rec == nil {
		return 0, false
	}

	fetched, err := time.Parse(time.RFC3339, rec.FetchedAt)
	if err != nil {
		return 0, false
	}

	return c.now().Sub(fetched), true
}

// IsStale reports whether a deck needs a refetch: no record at all, or a
// record older than the staleness threshold.
func (c *Cache) IsStale(deckID string) bool {
	age, ok := c.Age(deckID)
	if !ok {
		return true
	}
	return age > c.maxAge
}

// FormatAge humanizes the age of a deck's record: "Just now" under an
// hour, "Nh ago" under a day, then "1 day ago" / "N days ago". ok is
// false when no valid record exists.
func (c *Cache) FormatAge(deckID string) (formatted string, ok bool) {
	age, ok := c.Age(deckID)
	if !ok {
		return "", false
	}

	switch {
	case age < time.Hour:
		return "Just now", true
	case age < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(age.Hours())), true
	case age < 48*time.Hour:
		return "1 day ago", true
	default:
		return fmt.Sprintf("%d days ago", int(age.Hours()/24)), true
	}
}

// Clear removes every cache entry under this cache's key prefix, leaving
// unrelated keys untouched.
func (c *Cache) Clear() {
	if c.store == nil {
		return
	}

	for _, key := range c.store.Keys() {
		if hasPrefix(key, c.prefix) {
			c.store.Delete(key)
		}
	}
}
