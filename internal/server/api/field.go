// Package api provides HTTP API handlers for the Handfield visualizer.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/ayusman/handfield/internal/field"
	"github.com/ayusman/handfield/internal/store"
)

// FieldHandler handles HTTP requests for the particle field resource.
type FieldHandler struct {
	field *field.Field
	store *store.Store
}

// NewFieldHandler creates a new FieldHandler. The store is optional; when
// present, pattern and color changes are persisted as settings so they
// survive restarts.
func NewFieldHandler(f *field.Field, s *store.Store) *FieldHandler {
	return &FieldHandler{field: f, store: s}
}

// ServeHTTP implements the http.Handler interface and routes requests to
// appropriate methods.
//
// Routes:
//
//	GET  /api/field           - current field state
//	GET  /api/field/patterns  - available pattern names
//	POST /api/field/pattern   - switch pattern
//	POST /api/field/color     - change display color
func (h *FieldHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/field")
	path = strings.TrimPrefix(path, "/")

	switch path {
	case "":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.state(w, r)
	case "patterns":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.patterns(w, r)
	case "pattern":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.setPattern(w, r)
	case "color":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.setColor(w, r)
	default:
		http.Error(w, "Not found", http.StatusNotFound)
	}
}

// Request and response types

type setPatternRequest struct {
	Pattern string `json:"pattern"`
}

type setColorRequest struct {
	Color string `json:"color"`
}

type patternsResponse struct {
	Patterns []string `json:"patterns"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// state handles GET /api/field and returns the current field state.
func (h *FieldHandler) state(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.field.State())
}

// patterns handles GET /api/field/patterns.
func (h *FieldHandler) patterns(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, patternsResponse{Patterns: field.Patterns()})
}

// setPattern handles POST /api/field/pattern and switches the target
// pattern, regenerating particle targets.
func (h *FieldHandler) setPattern(w http.ResponseWriter, r *http.Request) {
	var req setPatternRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := h.field.SetPattern(req.Pattern); err != nil {
		if errors.Is(err, field.ErrUnknownPattern) {
			writeError(w, http.StatusBadRequest, "Unknown pattern: "+req.Pattern)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to set pattern")
		return
	}

	h.persistSetting(store.SettingPattern, req.Pattern)

	writeJSON(w, http.StatusOK, h.field.State())
}

// setColor handles POST /api/field/color.
func (h *FieldHandler) setColor(w http.ResponseWriter, r *http.Request) {
	var req setColorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := h.field.SetColor(req.Color); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid color: "+req.Color)
		return
	}

	h.persistSetting(store.SettingColor, req.Color)

	writeJSON(w, http.StatusOK, h.field.State())
}

// persistSetting saves a setting if a store is configured. Persistence
// failures are logged but never fail the request; the in-memory field is
// already updated.
func (h *FieldHandler) persistSetting(key, value string) {
	if h.store == nil {
		return
	}
	if err := h.store.Settings().Set(key, value); err != nil {
		log.Printf("Failed to persist setting %s: %v", key, err)
	}
}
