// Package api exposes the simulation over HTTP.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/opensource-safety/decoy/internal/domain"
	"github.com/opensource-safety/decoy/internal/rules"
	"github.com/opensource-safety/decoy/internal/session"
)

// Server represents the HTTP API server.
type Server struct {
	router  *chi.Mux
	handler *Handler
	server  *http.Server
	config  domain.ServerConfig
}

// NewServer creates a new API server.
func NewServer(cfg domain.ServerConfig, service *session.Service, engine *rules.Engine, repo domain.Repository, cache domain.Cache, bus domain.EventBus, rulesPath, version string) *Server {
	handler := NewHandler(service, engine, repo, cache, bus, rulesPath, version)
	router := chi.NewRouter()

	// Global middleware stack
	router.Use(CORSMiddleware)         // CORS for browser clients
	router.Use(RecoverMiddleware)      // Recover from panics
	router.Use(TracingMiddleware)      // OpenTelemetry tracing
	router.Use(LoggingMiddleware)      // Request logging
	router.Use(middleware.RealIP)      // Extract real IP
	router.Use(middleware.Compress(5)) // Gzip compression

	// Health endpoints
	router.Get("/health", handler.Health)
	router.Get("/ready", handler.Ready)

	// Session lifecycle
	router.Post("/rooms", handler.CreateRoom)
	router.Post("/rooms/{id}/messages", handler.Chat)
	router.Get("/rooms/{id}/messages", handler.ListMessages)
	router.Post("/rooms/{id}/end", handler.EndRoom)

	// Stateless evaluation
	router.Post("/evaluate", handler.Evaluate)

	// Catalog and rule management
	router.Get("/scenarios", handler.ListScenarios)
	router.Get("/rules", handler.ListRules)
	router.Post("/rules/reload", handler.ReloadRules)

	// Session digest
	router.Get("/summaries", handler.ListSummaries)

	return &Server{
		router:  router,
		handler: handler,
		config:  cfg,
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  time.Duration(s.config.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(s.config.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the Chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Handler returns the handler for testing.
func (s *Server) Handler() *Handler {
	return s.handler
}
