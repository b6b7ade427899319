package pricing

import (
	"strings"

	"github.com/preconroi/preconroi/internal/scryfall"
)

// Key identifies a selection by card name and set code.
type Key struct {
	Name string
	Set  string
}

// Collector performs the streaming group-by over a full catalog scan: one
// pass, one running winner per (name, set) key. It never re-scans the
// catalog per card.
type Collector struct {
	selector *Selector
	wanted   func(setCode string) bool
	state    map[Key]*keyState
}

// keyState carries the running winners for one key: the best candidate
// surviving the serialized-number filter, and the best overall for the
// fallback when every printing is serialized.
type keyState struct {
	bestFiltered *candidate
	bestAny      *candidate
}

// NewCollector creates a Collector. wanted limits collection to the sets
// decks are actually priced from; nil collects every set.
func NewCollector(selector *Selector, wanted func(setCode string) bool) *Collector {
	return &Collector{
		selector: selector,
		wanted:   wanted,
		state:    make(map[Key]*keyState),
	}
}

// Add feeds one printing from the catalog scan. Unpriced and out-of-scope
// printings are dropped immediately.
func (c *Collector) Add(card *scryfall.Card) {
	if c.wanted != nil && !c.wanted(card.SetCode) {
		return
	}

	cand := newCandidate(card, c.selector.cutoff)
	if cand == nil {
		return
	}

	key := Key{Name: FrontFaceName(card.Name), Set: card.SetCode}
	st, ok := c.state[key]
	if !ok {
		st = &keyState{}
		c.state[key] = st
	}

	if st.bestAny == nil || cand.less(st.bestAny) {
		st.bestAny = cand
	}
	if !cand.serialized {
		if st.bestFiltered == nil || cand.less(st.bestFiltered) {
			st.bestFiltered = cand
		}
	}
}

// Selections returns the chosen printing per key.
func (c *Collector) Selections() map[Key]*Selection {
	out := make(map[Key]*Selection, len(c.state))
	for key, st := range c.state {
		best := st.bestFiltered
		if best == nil {
			best = st.bestAny
		}
		if best != nil {
			out[key] = best.selection()
		}
	}
	return out
}

// FrontFaceName returns the front face of a double-faced card name.
// Decklists reference cards by front face only.
func FrontFaceName(name string) string {
	if i := strings.Index(name, " // "); i >= 0 {
		return name[:i]
	}
	return name
}
