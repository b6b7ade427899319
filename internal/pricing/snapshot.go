package pricing

// PriceSnapshot is the server-generated price snapshot covering all known
// decks, written by the batch catalog refresh and shipped as a static
// resource. The field layout is a compatibility contract with existing
// snapshot consumers.
type PriceSnapshot struct {
	UpdatedAt string                           `json:"updatedAt"`
	Decks     map[string]*DeckPrices           `json:"decks"`
	Sets      map[string]map[string]*Selection `json:"sets,omitempty"`
}

// ListingsSnapshot is the secondary "lowest listing" snapshot, keyed by
// card name.
type ListingsSnapshot struct {
	UpdatedAt string                  `json:"updatedAt"`
	Cards     map[string]LowestRecord `json:"cards"`
}

// LowestRecord is one lowest-listing entry.
type LowestRecord struct {
	Name          string  `json:"name"`
	LowestListing float64 `json:"lowestListing"`
	TCGPlayerURL  string  `json:"tcgplayerUrl"`
}
