package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/preconroi/preconroi/internal/api/response"
	"github.com/preconroi/preconroi/internal/prices"
)

// CacheHandler surfaces the client price cache: staleness per deck and
// cache clearing.
type CacheHandler struct {
	service *prices.Service
}

// NewCacheHandler creates a new CacheHandler.
func NewCacheHandler(service *prices.Service) *CacheHandler {
	return &CacheHandler{service: service}
}

// GetCacheStatus reports whether a deck's cached prices exist and how old
// they are.
func (h *CacheHandler) GetCacheStatus(w http.ResponseWriter, r *http.Request) {
	deckID := chi.URLParam(r, "deckID")
	if deckID == "" {
		response.BadRequest(w, errors.New("deck ID is required"))
		return
	}

	response.Success(w, h.service.CacheStatus(deckID))
}

// ClearCache removes every cached deck price record.
func (h *CacheHandler) ClearCache(w http.ResponseWriter, r *http.Request) {
	h.service.ClearCache()
	response.NoContent(w)
}
