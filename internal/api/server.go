// Package api exposes the pricing subsystem over HTTP.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/preconroi/preconroi/internal/prices"
)

// Server is the REST API server.
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	listener   net.Listener
	port       int
	service    *prices.Service
	logger     *slog.Logger
}

// Config holds configuration for the API server.
type Config struct {
	Port           int
	AllowedOrigins []string
}

// DefaultConfig returns the default API server configuration.
func DefaultConfig() *Config {
	return &Config{
		Port:           8080,
		AllowedOrigins: []string{"*"},
	}
}

// NewServer creates a new API server around the pricing service.
func NewServer(cfg *Config, service *prices.Service, logger *slog.Logger) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		router:  chi.NewRouter(),
		port:    cfg.Port,
		service: service,
		logger:  logger,
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(60 * time.Second))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	s.setupRoutes()

	return s
}

// Start binds the listener and begins serving in the background. A bind
// failure is returned synchronously; later serve errors are logged.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("API server failed to listen: %w", err)
	}
	s.listener = ln
	s.logger.Info("API server listening", "addr", ln.Addr().String())

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Addr reports the bound listen address, empty before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Handler exposes the router, used by tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
