// Package server provides the HTTP server for the Handfield visualizer.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ayusman/handfield/internal/capture"
	"github.com/ayusman/handfield/internal/field"
	"github.com/ayusman/handfield/internal/server/api"
	"github.com/ayusman/handfield/internal/store"
)

// Tracker controls whether gesture tracking is running. The app
// satisfies this interface.
type Tracker interface {
	SetEnabled(enabled bool)
	IsEnabled() bool
}

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	Field     *field.Field
	Camera    capture.Camera
	Tracker   Tracker
}

// Server represents the HTTP server for the Handfield application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Field != nil {
		fieldHandler := api.NewFieldHandler(s.config.Field, s.config.Store)
		s.mux.Handle("/api/field", fieldHandler)
		s.mux.Handle("/api/field/", fieldHandler)

		framesHandler := NewFramesHandler(s.config.Field)
		s.mux.Handle("/api/frames", framesHandler)
	}

	if s.config.Store != nil {
		presetHandler := api.NewPresetHandler(s.config.Store, s.config.Field)
		s.mux.Handle("/api/presets", presetHandler)
		s.mux.Handle("/api/presets/", presetHandler)
	}

	if s.config.Camera != nil {
		streamHandler := NewStreamHandler(s.config.Camera)
		s.mux.Handle("/api/stream", streamHandler)
	}

	if s.config.Tracker != nil {
		s.mux.HandleFunc("/api/tracking", s.handleTracking)
	}

	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

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

type trackingState struct {
	Enabled bool `json:"enabled"`
}

// handleTracking handles GET and POST requests to /api/tracking, reading
// and toggling the gesture tracking state.
func (s *Server) handleTracking(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		// Fall through to the response below.
	case http.MethodPost:
		var req trackingState
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		s.config.Tracker.SetEnabled(req.Enabled)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(trackingState{Enabled: s.config.Tracker.IsEnabled()})
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
