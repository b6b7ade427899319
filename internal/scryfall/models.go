package scryfall

import (
	"fmt"
	"time"
)

// Card represents one printing of a Magic card as returned by Scryfall.
// Only the fields the pricing pipeline consumes are decoded; the bulk
// catalog carries far more, and ignoring the rest keeps the streaming
// decode cheap.
type Card struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Lang string `json:"lang,omitempty"`

	// Print details
	SetCode         string   `json:"set"`
	SetName         string   `json:"set_name,omitempty"`
	CollectorNumber string   `json:"collector_number"`
	ReleasedAt      string   `json:"released_at,omitempty"`
	Promo           bool     `json:"promo"`
	FrameEffects    []string `json:"frame_effects,omitempty"`
	BorderColor     string   `json:"border_color,omitempty"`
	Finishes        []string `json:"finishes,omitempty"`
	Layout          string   `json:"layout,omitempty"`

	// Marketplace identifiers for purchase deep links.
	TCGPlayerID  *int `json:"tcgplayer_id,omitempty"`
	CardmarketID *int `json:"cardmarket_id,omitempty"`

	Prices       Prices            `json:"prices"`
	ImageURIs    *ImageURIs        `json:"image_uris,omitempty"`
	PurchaseURIs map[string]string `json:"purchase_uris,omitempty"`
}

// Prices represents the observed market prices of a printing. Values are
// decimal strings with 2-digit precision, or nil when no price is known.
type Prices struct {
	USD       *string `json:"usd,omitempty"`
	USDFoil   *string `json:"usd_foil,omitempty"`
	USDEtched *string `json:"usd_etched,omitempty"`
	EUR       *string `json:"eur,omitempty"`
	EURFoil   *string `json:"eur_foil,omitempty"`
}

// ImageURIs contains URLs for card images in various sizes.
type ImageURIs struct {
	Small   string `json:"small,omitempty"`
	Normal  string `json:"normal,omitempty"`
	Large   string `json:"large,omitempty"`
	ArtCrop string `json:"art_crop,omitempty"`
}

// SearchResult represents paginated search results from Scryfall.
type SearchResult struct {
	Object     string `json:"object"`
	TotalCards int    `json:"total_cards"`
	HasMore    bool   `json:"has_more"`
	NextPage   string `json:"next_page,omitempty"`
	Data       []Card `json:"data"`
}

// BulkDataList represents the list of bulk data files.
type BulkDataList struct {
	Object  string     `json:"object"`
	HasMore bool       `json:"has_more"`
	Data    []BulkData `json:"data"`
}

// BulkData represents a downloadable bulk data file.
type BulkData struct {
	ID              string    `json:"id"`
	Type            string    `json:"type"`
	UpdatedAt       time.Time `json:"updated_at"`
	Name            string    `json:"name"`
	CompressedSize  int       `json:"compressed_size"`
	DownloadURI     string    `json:"download_uri"`
	ContentType     string    `json:"content_type"`
	ContentEncoding string    `json:"content_encoding"`
}

// APIError represents an error response from the Scryfall API.
type APIError struct {
	Object  string `json:"object"`
	Code    string `json:"code"`
	Status  int    `json:"status"`
	Details string `json:"details"`
}

// Error implements the error interface for APIError.
func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("Scryfall API error (HTTP %d): %s", e.Status, e.Details)
	}
	return fmt.Sprintf("Scryfall API error (HTTP %d): %s", e.Status, e.Code)
}

// NotFoundError represents a 404 on a single-item lookup. Callers treat it
// as a normal empty result rather than a failure.
type NotFoundError struct {
	URL string
}

// Error implements the error interface for NotFoundError.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("resource not found: %s", e.URL)
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	_, ok := err.(*NotFoundError)
	return ok
}
