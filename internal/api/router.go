package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/preconroi/preconroi/internal/api/handlers"
	"github.com/preconroi/preconroi/internal/api/response"
	"github.com/preconroi/preconroi/internal/version"
)

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check endpoint (no versioning)
	s.router.Get("/health", s.healthCheck)

	// API v1 routes
	s.router.Route("/api/v1", func(r chi.Router) {
		deckHandler := handlers.NewDeckHandler(s.service)
		r.Route("/decks", func(r chi.Router) {
			r.Get("/", deckHandler.GetDecks)
			r.Get("/{deckID}", deckHandler.GetDeck)
			r.Get("/{deckID}/prices", deckHandler.GetDeckPrices)
			r.Get("/{deckID}/roi", deckHandler.GetDeckROI)
		})

		cardHandler := handlers.NewCardHandler(s.service)
		r.Route("/cards", func(r chi.Router) {
			r.Get("/search", cardHandler.SearchCards)
			r.Post("/collection", cardHandler.GetCardsByNames)
		})

		cacheHandler := handlers.NewCacheHandler(s.service)
		r.Route("/cache", func(r chi.Router) {
			r.Get("/{deckID}", cacheHandler.GetCacheStatus)
			r.Delete("/", cacheHandler.ClearCache)
		})
	})
}

// healthCheck reports server liveness.
func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.GetVersion(),
	})
}
