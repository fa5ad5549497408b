// Package server provides the HTTP server for the mudra playback service.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/server/api"
	"github.com/ayusman/mudra/internal/store"
)

// Config holds the server configuration.
type Config struct {
	StaticDir string
	App       *app.App
	Store     *store.Store
}

// Server represents the HTTP server of the mudra application.
type Server struct {
	config Config
	router chi.Router
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
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

	if a := s.config.App; a != nil {
		r.Mount("/api/playback", api.NewPlaybackHandler(a).Router())
		r.Mount("/api/accuracy", api.NewAccuracyHandler(a).Router())
		r.Mount("/api/truth", api.NewTruthHandler(a).Router())
		r.Mount("/api/settings", api.NewSettingsHandler(a).Router())
		r.Get("/api/hooks", s.handleHooks)
		r.Handle("/api/events", NewEventsHandler(a))
		r.Handle("/api/stream", NewStreamHandler(a))

		if s.config.Store != nil {
			r.Mount("/api/sessions", api.NewSessionsHandler(s.config.Store, a).Router())
		}
	}

	if s.config.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).String(),
	}
	if a := s.config.App; a != nil {
		response["running"] = a.IsRunning()
		response["enabled"] = a.IsEnabled()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

type hookInfo struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Description string   `json:"description"`
	Commands    []string `json:"commands"`
}

// handleHooks lists the discovered command hooks.
func (s *Server) handleHooks(w http.ResponseWriter, r *http.Request) {
	hooks := s.config.App.Hooks().List()
	resp := make([]hookInfo, 0, len(hooks))
	for _, h := range hooks {
		resp = append(resp, hookInfo{
			Name:        h.Manifest.Name,
			Version:     h.Manifest.Version,
			Description: h.Manifest.Description,
			Commands:    h.Manifest.Commands,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"hooks": resp})
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
