package pricing

import (
	"fmt"
	"testing"

	"github.com/preconroi/preconroi/internal/deck"
	"github.com/preconroi/preconroi/internal/scryfall"
)

// benchPrintings builds n printings of one card with mixed treatments,
// roughly the shape a bulk catalog scan produces per name.
func benchPrintings(n int) []scryfall.Card {
	cards := make([]scryfall.Card, 0, n)
	for i := 0; i < n; i++ {
		c := printing("Bench Card", "40k", fmt.Sprintf("%d", i+1))
		price := fmt.Sprintf("%d.%02d", 1+i%20, i%100)
		c.Prices.USD = &price
		if i%3 == 0 {
			c.Promo = true
		}
		if i%4 == 0 {
			c.FrameEffects = []string{"extendedart"}
		}
		cards = append(cards, c)
	}
	return cards
}

func BenchmarkSelect(b *testing.B) {
	selector := NewSelector(SelectorOptions{})
	cards := benchPrintings(16)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if sel := selector.Select(cards); sel == nil {
			b.Fatal("expected a selection")
		}
	}
}

func BenchmarkCollectorAdd(b *testing.B) {
	selector := NewSelector(SelectorOptions{})
	cards := benchPrintings(64)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		collector := NewCollector(selector, func(string) bool { return true })
		for j := range cards {
			collector.Add(&cards[j])
		}
	}
}

func BenchmarkPriceDeck(b *testing.B) {
	entries := make([]deck.Entry, 0, 100)
	lookup := make(map[string]*Selection, 100)
	for i := 0; i < 100; i++ {
		name := fmt.Sprintf("Card %d", i)
		entries = append(entries, deck.Entry{Name: name, Quantity: 1})
		usd := fmt.Sprintf("%.2f", float64(i+1)*0.25)
		lookup[name] = &Selection{Name: name, USD: &usd}
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		prices := PriceDeck(entries, func(name string) *Selection {
			return lookup[name]
		})
		if prices.CardCount == 0 {
			b.Fatal("expected priced cards")
		}
	}
}
