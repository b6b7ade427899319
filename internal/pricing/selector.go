// Package pricing turns raw catalog printings into deterministic deck
// valuations: one canonical priced printing per (card name, set) pair,
// aggregated into deck totals and ROI verdicts.
package pricing

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/preconroi/preconroi/internal/scryfall"
)

const (
	// DefaultSerializedNumberCutoff flags collector numbers above this
	// value as serialized chase variants. It is a heuristic proxy, not a
	// catalog field, hence configurable.
	DefaultSerializedNumberCutoff = 900

	// collectorSentinel sorts non-numeric collector numbers last.
	collectorSentinel = 999999
)

// specialFrameEffects are frame treatments that mark alternate-art
// variants rather than the mainstream printing.
var specialFrameEffects = map[string]bool{
	"showcase":    true,
	"extendedart": true,
}

// Selection is the single chosen printing for a (name, set) pair after
// tie-breaking. Never mutated after creation; replaced wholesale on the
// next catalog refresh.
type Selection struct {
	Name         string  `json:"name"`
	SetCode      string  `json:"set"`
	USD          *string `json:"usd"`
	USDFoil      *string `json:"usdFoil,omitempty"`
	FoilOnly     bool    `json:"foilOnly,omitempty"`
	TCGPlayerID  *int    `json:"tcgplayerId,omitempty"`
	CardmarketID *int    `json:"cardmarketId,omitempty"`
}

// SelectorOptions configures printing selection.
type SelectorOptions struct {
	// SerializedNumberCutoff is the collector number above which a
	// printing is treated as serialized (default 900).
	SerializedNumberCutoff int
}

// Selector picks canonical priced printings.
type Selector struct {
	cutoff int
}

// NewSelector creates a Selector.
func NewSelector(options SelectorOptions) *Selector {
	if options.SerializedNumberCutoff <= 0 {
		options.SerializedNumberCutoff = DefaultSerializedNumberCutoff
	}
	return &Selector{cutoff: options.SerializedNumberCutoff}
}

// Select chooses the canonical priced printing from all printings of one
// (name, set) pair. Returns nil when no candidate carries a usable price.
// The result is invariant under permutation of the input.
func (s *Selector) Select(printings []scryfall.Card) *Selection {
	var bestFiltered, bestAny *candidate

	for i := range printings {
		c := newCandidate(&printings[i], s.cutoff)
		if c == nil {
			continue // unpriced
		}
		if bestAny == nil || c.less(bestAny) {
			bestAny = c
		}
		if !c.serialized {
			if bestFiltered == nil || c.less(bestFiltered) {
				bestFiltered = c
			}
		}
	}

	// If the serialized-number heuristic would eliminate every candidate,
	// fall back to the unfiltered set rather than leaving the card unpriced.
	best := bestFiltered
	if best == nil {
		best = bestAny
	}
	if best == nil {
		return nil
	}

	return best.selection()
}

// candidate wraps a printing with its precomputed ranking key.
type candidate struct {
	card       *scryfall.Card
	serialized bool

	specialFrame bool
	promo        bool
	collectorNum int
	foilOnly     bool
	price        decimal.Decimal
}

// newCandidate builds a ranking candidate, or nil when the printing has no
// usable price (neither normal nor foil, non-positive, or non-numeric).
func newCandidate(card *scryfall.Card, cutoff int) *candidate {
	usd, usdOK := parsePrice(card.Prices.USD)
	foil, foilOK := parsePrice(card.Prices.USDFoil)
	if !usdOK && !foilOK {
		return nil
	}

	price := usd
	foilOnly := false
	if !usdOK {
		price = foil
		foilOnly = true
	}

	return &candidate{
		card:         card,
		serialized:   isSerializedNumber(card.CollectorNumber, cutoff),
		specialFrame: hasSpecialFrame(card),
		promo:        card.Promo,
		collectorNum: collectorValue(card.CollectorNumber),
		foilOnly:     foilOnly,
		price:        price,
	}
}

// less implements the tie-break order: plain frame, then non-promo, then
// lower collector number, then non-foil-only, then cheapest. Collector
// number string and printing id break exact ties so the choice never
// depends on catalog scan order.
func (c *candidate) less(other *candidate) bool {
	if c.specialFrame != other.specialFrame {
		return !c.specialFrame
	}
	if c.promo != other.promo {
		return !c.promo
	}
	if c.collectorNum != other.collectorNum {
		return c.collectorNum < other.collectorNum
	}
	if c.foilOnly != other.foilOnly {
		return !c.foilOnly
	}
	if !c.price.Equal(other.price) {
		return c.price.LessThan(other.price)
	}
	if c.card.CollectorNumber != other.card.CollectorNumber {
		return c.card.CollectorNumber < other.card.CollectorNumber
	}
	return c.card.ID < other.card.ID
}

// selection builds the output record from the winning printing.
func (c *candidate) selection() *Selection {
	sel := &Selection{
		Name:         c.card.Name,
		SetCode:      c.card.SetCode,
		FoilOnly:     c.foilOnly,
		TCGPlayerID:  c.card.TCGPlayerID,
		CardmarketID: c.card.CardmarketID,
	}

	if c.foilOnly {
		sel.USD = c.card.Prices.USDFoil
	} else {
		sel.USD = c.card.Prices.USD
		// The foil price is only worth surfacing when it differs from the
		// resolved price.
		if foil := c.card.Prices.USDFoil; foil != nil && sel.USD != nil && *foil != *sel.USD {
			sel.USDFoil = foil
		}
	}

	return sel
}

// parsePrice parses a catalog price string. Only positive numeric values
// count as priced.
func parsePrice(s *string) (decimal.Decimal, bool) {
	if s == nil || *s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(*s)
	if err != nil || !d.IsPositive() {
		return decimal.Zero, false
	}
	return d, true
}

// isSerializedNumber reports whether a collector number looks like a
// serialized or special variant: alphabetic characters, or a numeric value
// above the cutoff.
func isSerializedNumber(num string, cutoff int) bool {
	for _, r := range num {
		if unicode.IsLetter(r) {
			return true
		}
	}
	if n, err := strconv.Atoi(strings.TrimSpace(num)); err == nil && n > cutoff {
		return true
	}
	return false
}

// collectorValue returns the numeric value of a collector number, or a
// large sentinel for non-numeric numbers so they sort last.
func collectorValue(num string) int {
	if n, err := strconv.Atoi(strings.TrimSpace(num)); err == nil {
		return n
	}
	return collectorSentinel
}

// hasSpecialFrame reports whether a printing uses a showcase, extended-art
// or borderless treatment.
func hasSpecialFrame(card *scryfall.Card) bool {
	if card.BorderColor == "borderless" {
		return true
	}
	for _, effect := range card.FrameEffects {
		if specialFrameEffects[effect] {
			return true
		}
	}
	return false
}
