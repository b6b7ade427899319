// Package deck loads the precon deck catalog and decklists from structured
// JSON data files shared by the runtime and the batch commands.
package deck

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Deck describes one Commander precon product.
type Deck struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	SetCode string   `json:"set"`
	SetName string   `json:"setName,omitempty"`
	Year    int      `json:"year"`
	MSRP    float64  `json:"msrp"`
	Colors  []string `json:"colors,omitempty"`
}

// Entry is one line of a decklist: a card name, how many copies the precon
// ships, and whether it is the commander.
type Entry struct {
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
	IsCommander bool   `json:"isCommander,omitempty"`
}

// Catalog holds every known deck, keyed by id.
type Catalog struct {
	decks map[string]Deck
}

// NewCatalog builds a catalog from decks directly.
func NewCatalog(decks []Deck) *Catalog {
	m := make(map[string]Deck, len(decks))
	for _, d := range decks {
		m[d.ID] = d
	}
	return &Catalog{decks: m}
}

// LoadCatalog reads the deck catalog from a JSON file keyed by deck id.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read deck catalog: %w", err)
	}

	var decks map[string]Deck
	if err := json.Unmarshal(data, &decks); err != nil {
		return nil, fmt.Errorf("failed to parse deck catalog: %w", err)
	}

	for id, d := range decks {
		if d.ID == "" {
			d.ID = id
			decks[id] = d
		}
		if d.SetCode == "" {
			return nil, fmt.Errorf("deck %q has no set code", id)
		}
	}

	return &Catalog{decks: decks}, nil
}

// Get returns a deck by id, or false when unknown.
func (c *Catalog) Get(id string) (Deck, bool) {
	d, ok := c.decks[id]
	return d, ok
}

// All returns every deck, sorted by id for stable listings.
func (c *Catalog) All() []Deck {
	out := make([]Deck, 0, len(c.decks))
	for _, d := range c.decks {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// SetCodes returns the set of product set codes across the catalog.
func (c *Catalog) SetCodes() map[string]bool {
	codes := make(map[string]bool, len(c.decks))
	for _, d := range c.decks {
		codes[d.SetCode] = true
	}
	return codes
}

// Decklists holds card entries per deck id.
type Decklists struct {
	lists map[string][]Entry
}

// NewDecklists builds decklists from entries directly.
func NewDecklists(lists map[string][]Entry) *Decklists {
	return &Decklists{lists: lists}
}

// LoadDecklists reads decklists from a JSON object keyed by deck id.
// Quantities must be positive; when no entry is flagged as commander, the
// first entry is designated.
func LoadDecklists(path string) (*Decklists, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read decklists: %w", err)
	}

	var lists map[string][]Entry
	if err := json.Unmarshal(data, &lists); err != nil {
		return nil, fmt.Errorf("failed to parse decklists: %w", err)
	}

	for id, entries := range lists {
		hasCommander := false
		for _, e := range entries {
			if e.Quantity <= 0 {
				return nil, fmt.Errorf("deck %q entry %q has non-positive quantity %d", id, e.Name, e.Quantity)
			}
			if e.IsCommander {
				hasCommander = true
			}
		}
		if !hasCommander && len(entries) > 0 {
			entries[0].IsCommander = true
		}
	}

	return &Decklists{lists: lists}, nil
}

// Get returns the entries for a deck id, or false when unknown.
func (d *Decklists) Get(id string) ([]Entry, bool) {
	entries, ok := d.lists[id]
	return entries, ok
}

// CardNames returns the deduplicated union of card names across every
// decklist, sorted for reproducible batch runs.
func (d *Decklists) CardNames() []string {
	seen := make(map[string]bool)
	for _, entries := range d.lists {
		for _, e := range entries {
			seen[e.Name] = true
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
