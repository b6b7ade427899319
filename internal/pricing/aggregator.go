package pricing

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/preconroi/preconroi/internal/deck"
	"github.com/preconroi/preconroi/internal/scryfall"
)

// TopCardCount is how many highest-value cards the summary view shows.
const TopCardCount = 5

// CardPrice is one priced decklist line in a deck snapshot.
type CardPrice struct {
	Name         string  `json:"name"`
	Quantity     int     `json:"quantity"`
	USD          *string `json:"usd"`
	IsCommander  bool    `json:"isCommander,omitempty"`
	TCGPlayerID  *int    `json:"tcgplayerId,omitempty"`
	CardmarketID *int    `json:"cardmarketId,omitempty"`
}

// TopCard is a compact (name, price) pair for summary displays.
type TopCard struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// DeckPrices is a priced deck snapshot. Regenerated wholesale on every
// refresh, never partially updated.
type DeckPrices struct {
	TotalValue float64     `json:"totalValue"`
	CardCount  int         `json:"cardCount"`
	Cards      []CardPrice `json:"cards"`
	TopCards   []TopCard   `json:"topCards,omitempty"`
	Excluded   int         `json:"excluded,omitempty"`
}

// PriceDeck aggregates a decklist against resolved selections. Entries
// without price data count as $0 and increment Excluded, which is shown to
// the user rather than silently hidden. The deck total is rounded once, at
// the sum level, so per-line rounding artifacts cannot compound.
func PriceDeck(entries []deck.Entry, lookup func(name string) *Selection) *DeckPrices {
	result := &DeckPrices{
		Cards: make([]CardPrice, 0, len(entries)),
	}

	total := decimal.Zero
	lineTotals := make([]decimal.Decimal, 0, len(entries))

	for _, entry := range entries {
		result.CardCount += entry.Quantity

		card := CardPrice{
			Name:        entry.Name,
			Quantity:    entry.Quantity,
			IsCommander: entry.IsCommander,
		}

		lineTotal := decimal.Zero
		if sel := lookup(entry.Name); sel != nil && sel.USD != nil {
			if price, ok := parsePrice(sel.USD); ok {
				card.USD = sel.USD
				card.TCGPlayerID = sel.TCGPlayerID
				card.CardmarketID = sel.CardmarketID
				lineTotal = price.Mul(decimal.NewFromInt(int64(entry.Quantity)))
				total = total.Add(lineTotal)
			} else {
				result.Excluded++
			}
		} else {
			result.Excluded++
		}

		result.Cards = append(result.Cards, card)
		lineTotals = append(lineTotals, lineTotal)
	}

	// Stable sort keeps catalog order for equal line totals; that stability
	// is the contract for tie display order.
	indices := make([]int, len(result.Cards))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(a, b int) bool {
		return lineTotals[indices[a]].GreaterThan(lineTotals[indices[b]])
	})

	sorted := make([]CardPrice, len(result.Cards))
	for i, idx := range indices {
		sorted[i] = result.Cards[idx]
	}
	result.Cards = sorted

	result.TotalValue = roundTotal(total)
	result.TopCards = TopCardsOf(result.Cards)

	return result
}

// TopCardsOf returns the first TopCardCount priced entries of an already
// sorted card list. Snapshot readers rely on the batch job's pre-sort, so
// no re-sort happens here.
func TopCardsOf(cards []CardPrice) []TopCard {
	top := make([]TopCard, 0, TopCardCount)
	for _, c := range cards {
		if len(top) == TopCardCount {
			break
		}
		if c.USD == nil {
			continue
		}
		price, ok := parsePrice(c.USD)
		if !ok {
			continue
		}
		top = append(top, TopCard{Name: c.Name, Price: price.InexactFloat64()})
	}
	return top
}

// ValuedCard is an ad-hoc card in an interactively assembled list, e.g.
// a user search addition outside any precon.
type ValuedCard struct {
	Total    *float64
	Price    *float64
	Quantity int
	Prices   *scryfall.Prices
}

// TotalValue sums an ad-hoc card list. Each card's value is its Total if
// present, else Price times Quantity (quantity defaults to 1), else a
// fallback read from the raw price structure (usd, then usd_foil), else 0.
// The chain is applied in exactly that order.
func TotalValue(cards []ValuedCard) float64 {
	total := decimal.Zero

	for _, c := range cards {
		switch {
		case c.Total != nil:
			total = total.Add(decimal.NewFromFloat(*c.Total))
		case c.Price != nil:
			qty := c.Quantity
			if qty <= 0 {
				qty = 1
			}
			total = total.Add(decimal.NewFromFloat(*c.Price).Mul(decimal.NewFromInt(int64(qty))))
		case c.Prices != nil:
			if usd, ok := parsePrice(c.Prices.USD); ok {
				total = total.Add(usd)
			} else if foil, ok := parsePrice(c.Prices.USDFoil); ok {
				total = total.Add(foil)
			}
		}
	}

	return roundTotal(total)
}

// CardDisplayPrice resolves a single printing's display price: normal,
// else foil, else 0.
func CardDisplayPrice(card *scryfall.Card) float64 {
	if usd, ok := parsePrice(card.Prices.USD); ok {
		return usd.InexactFloat64()
	}
	if foil, ok := parsePrice(card.Prices.USDFoil); ok {
		return foil.InexactFloat64()
	}
	return 0
}

// roundTotal rounds a summed total to cents.
func roundTotal(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
