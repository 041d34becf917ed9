// Package server provides the HTTP server for the handcam capture service.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/ayusman/handcam/internal/capture"
	"github.com/ayusman/handcam/internal/overlay"
	"github.com/ayusman/handcam/internal/server/api"
	"github.com/ayusman/handcam/internal/store"
)

// Capture is the application surface the server exposes: capture control,
// rendered frames and pointer events.
type Capture interface {
	api.Capture
	FrameSource
	EventDispatcher
}

// FrameSource provides rendered JPEG frames.
type FrameSource interface {
	Subscribe() (<-chan []byte, func())
}

// EventDispatcher delivers pointer events to the opacity controller.
type EventDispatcher interface {
	Dispatch(e overlay.Event) overlay.State
}

// Config holds the server configuration.
type Config struct {
	StaticDir     string
	Store         *store.Store
	Capture       Capture
	DefaultFacing capture.Facing
}

// Server represents the HTTP server for the handcam application.
type Server struct {
	config Config
	router *mux.Router
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		router: mux.NewRouter(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.router.HandleFunc("/api/health", s.handleHealth).Methods(http.MethodGet)

	if s.config.Capture != nil {
		captureHandler := api.NewCaptureHandler(s.config.Capture, s.config.DefaultFacing)
		s.router.HandleFunc("/api/state", captureHandler.State).Methods(http.MethodGet)
		s.router.HandleFunc("/api/capture", captureHandler.Start).Methods(http.MethodPost)
		s.router.HandleFunc("/api/capture", captureHandler.Stop).Methods(http.MethodDelete)

		s.router.Handle("/api/stream", NewStreamHandler(s.config.Capture)).Methods(http.MethodGet)
		s.router.Handle("/api/events", NewEventsHandler(s.config.Capture)).Methods(http.MethodGet)
	}

	if s.config.Store != nil {
		sessionsHandler := api.NewSessionsHandler(s.config.Store)
		s.router.HandleFunc("/api/sessions", sessionsHandler.List).Methods(http.MethodGet)
		s.router.HandleFunc("/api/sessions/{id}", sessionsHandler.Get).Methods(http.MethodGet)
	}

	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.router.PathPrefix("/").Handler(fs).Methods(http.MethodGet, http.MethodHead)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(s.start)

	response := map[string]interface{}{
		"status": "ok",
		"uptime": uptime.String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
