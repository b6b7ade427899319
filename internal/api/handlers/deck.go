package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/preconroi/preconroi/internal/api/response"
	"github.com/preconroi/preconroi/internal/dedup"
	"github.com/preconroi/preconroi/internal/prices"
)

// DeckHandler handles deck and deck-pricing requests.
type DeckHandler struct {
	service *prices.Service
}

// NewDeckHandler creates a new DeckHandler.
func NewDeckHandler(service *prices.Service) *DeckHandler {
	return &DeckHandler{service: service}
}

// GetDecks lists the deck catalog.
func (h *DeckHandler) GetDecks(w http.ResponseWriter, r *http.Request) {
	response.Success(w, h.service.Decks())
}

// GetDeck returns one deck's catalog entry.
func (h *DeckHandler) GetDeck(w http.ResponseWriter, r *http.Request) {
	deckID := chi.URLParam(r, "deckID")
	if deckID == "" {
		response.BadRequest(w, errors.New("deck ID is required"))
		return
	}

	deck, ok := h.service.Deck(deckID)
	if !ok {
		response.NotFound(w, errors.New("deck not found"))
		return
	}

	response.Success(w, deck)
}

// GetDeckPrices returns a deck's priced snapshot. ?refresh=true forces a
// live fetch past the static snapshot.
func (h *DeckHandler) GetDeckPrices(w http.ResponseWriter, r *http.Request) {
	deckID := chi.URLParam(r, "deckID")
	if deckID == "" {
		response.BadRequest(w, errors.New("deck ID is required"))
		return
	}

	refresh := r.URL.Query().Get("refresh") == "true"

	result, err := h.service.GetDeckPrices(r.Context(), deckID, refresh)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Success(w, result)
}

// GetDeckROI returns only the ROI derivation for a deck.
func (h *DeckHandler) GetDeckROI(w http.ResponseWriter, r *http.Request) {
	deckID := chi.URLParam(r, "deckID")
	if deckID == "" {
		response.BadRequest(w, errors.New("deck ID is required"))
		return
	}

	result, err := h.service.GetDeckPrices(r.Context(), deckID, false)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Success(w, result.ROI)
}

// writeServiceError maps pricing-service failures onto HTTP statuses.
// Upstream failures and a full dedup queue are retryable; the UI never
// needs a full reload to recover.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, prices.ErrUnknownDeck):
		response.NotFound(w, err)
	case errors.Is(err, dedup.ErrQueueFull):
		response.Retryable(w, http.StatusServiceUnavailable, err)
	default:
		response.Retryable(w, http.StatusBadGateway, err)
	}
}
