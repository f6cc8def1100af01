// Package server provides the HTTP API over the index engine.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/semscout/semscout/internal/config"
	"github.com/semscout/semscout/internal/engine"
)

// Server is the HTTP server for the semscout API.
type Server struct {
	engine *engine.Engine
	config *config.ServerConfig
	logger *zap.Logger
	server *http.Server
}

// NewServer creates a server with the given dependencies.
func NewServer(eng *engine.Engine, cfg *config.ServerConfig, logger *zap.Logger) *Server {
	return &Server{
		engine: eng,
		config: cfg,
		logger: logger,
	}
}

// Router builds the request router. Exposed for handler tests.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Post("/api/v1/search", s.handleSearch)
	r.Put("/api/v1/files", s.handleIndexFile)
	r.Delete("/api/v1/files", s.handleRemoveFile)
	r.Post("/api/v1/index", s.handleIndexTree)
	r.Get("/api/v1/stats", s.handleStats)
	r.Post("/api/v1/clear", s.handleClear)
	r.Get("/health", s.handleHealth)
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
