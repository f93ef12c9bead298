// Package server provides the local HTTP control API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ayusman/winklock/internal/server/api"
	"github.com/ayusman/winklock/internal/store"
)

// Config holds the server dependencies. Nil members disable their routes.
type Config struct {
	Session api.Session
	Toggle  api.Toggle
	Configs api.ConfigReader
	Store   *store.Store
	Hub     *Hub
	Stream  *StreamHandler
	Metrics http.Handler
	Logger  *zap.Logger
}

// Server represents the HTTP server.
type Server struct {
	config Config
	router chi.Router
	start  time.Time
	http   *http.Server
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	s := &Server{
		config: config,
		router: chi.NewRouter(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	r := s.router
	r.Use(middleware.Recoverer)

	r.Get("/api/health", s.handleHealth)

	if s.config.Session != nil {
		h := api.NewSessionHandler(s.config.Session, s.config.Toggle)
		r.Get("/api/status", h.Status)
		r.Post("/api/reset", h.Reset)
		r.Put("/api/enabled", h.SetEnabled)
	}

	if s.config.Configs != nil {
		r.Method(http.MethodGet, "/api/commands", api.NewCommandsHandler(s.config.Configs))
	}

	if s.config.Store != nil {
		r.Route("/api/attempts", api.NewAttemptHandler(s.config.Store).Routes)
	}

	if s.config.Hub != nil {
		r.Method(http.MethodGet, "/api/events", s.config.Hub)
	}

	if s.config.Stream != nil {
		r.Method(http.MethodGet, "/api/stream", s.config.Stream)
	}

	if s.config.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.config.Metrics)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type healthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Uptime: time.Since(s.start).Round(time.Second).String()}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.config.Logger.Info("control API listening", zap.String("addr", addr))
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}
