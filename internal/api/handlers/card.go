package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/preconroi/preconroi/internal/api/response"
	"github.com/preconroi/preconroi/internal/prices"
)

// CardHandler handles ad-hoc card search and batch lookup.
type CardHandler struct {
	service *prices.Service
}

// NewCardHandler creates a new CardHandler.
func NewCardHandler(service *prices.Service) *CardHandler {
	return &CardHandler{service: service}
}

// SearchCards searches the upstream catalog.
func (h *CardHandler) SearchCards(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		response.BadRequest(w, errors.New("query parameter q is required"))
		return
	}

	cards, err := h.service.SearchCards(r.Context(), query)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Success(w, cards)
}

// collectionRequest is the body for batch name lookups.
type collectionRequest struct {
	Names []string `json:"names"`
}

// GetCardsByNames batch-resolves card names into printings.
func (h *CardHandler) GetCardsByNames(w http.ResponseWriter, r *http.Request) {
	var req collectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, errors.New("invalid request body"))
		return
	}
	if len(req.Names) == 0 {
		response.BadRequest(w, errors.New("names is required"))
		return
	}

	result, err := h.service.GetCardsByNames(r.Context(), req.Names)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	response.Success(w, result)
}
