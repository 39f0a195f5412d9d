package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ayusman/handfield/internal/field"
	"github.com/ayusman/handfield/internal/store"
)

// PresetHandler handles HTTP requests for preset resources.
type PresetHandler struct {
	store *store.Store
	field *field.Field
}

// NewPresetHandler creates a new PresetHandler. The field is used by the
// apply endpoint to activate a preset's pattern and color.
func NewPresetHandler(s *store.Store, f *field.Field) *PresetHandler {
	return &PresetHandler{store: s, field: f}
}

// ServeHTTP implements the http.Handler interface and routes requests to
// appropriate methods.
//
// Routes:
//
//	GET    /api/presets            - list presets
//	POST   /api/presets            - create a preset
//	GET    /api/presets/{id}       - get a preset
//	PUT    /api/presets/{id}       - update a preset
//	DELETE /api/presets/{id}       - delete a preset
//	POST   /api/presets/{id}/apply - apply a preset to the field
func (h *PresetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/presets")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	if id, ok := strings.CutSuffix(path, "/apply"); ok {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.apply(w, r, id)
		return
	}

	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Request and response types

type createPresetRequest struct {
	Name    string `json:"name"`
	Pattern string `json:"pattern"`
	Color   string `json:"color"`
}

type updatePresetRequest struct {
	Name    string `json:"name"`
	Pattern string `json:"pattern"`
	Color   string `json:"color"`
}

type presetResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Pattern   string `json:"pattern"`
	Color     string `json:"color"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type listPresetsResponse struct {
	Presets []presetResponse `json:"presets"`
}

// toResponse converts a store.Preset to a presetResponse.
func toResponse(p *store.Preset) presetResponse {
	return presetResponse{
		ID:        p.ID,
		Name:      p.Name,
		Pattern:   p.Pattern,
		Color:     p.Color,
		CreatedAt: p.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		UpdatedAt: p.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// validatePreset checks that the pattern is registered and the color is a
// valid hex triplet, so bad presets are rejected before they hit the
// database.
func validatePreset(pattern, color string) error {
	found := false
	for _, name := range field.Patterns() {
		if name == pattern {
			found = true
			break
		}
	}
	if !found {
		return errors.New("unknown pattern: " + pattern)
	}

	if _, _, _, err := field.ParseHexColor(color); err != nil {
		return errors.New("invalid color: " + color)
	}

	return nil
}

// list handles GET /api/presets and returns all presets.
func (h *PresetHandler) list(w http.ResponseWriter, r *http.Request) {
	presets, err := h.store.Presets().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list presets")
		return
	}

	response := listPresetsResponse{
		Presets: make([]presetResponse, 0, len(presets)),
	}
	for _, p := range presets {
		response.Presets = append(response.Presets, toResponse(p))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/presets/{id} and returns a single preset.
func (h *PresetHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	preset, err := h.store.Presets().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Preset not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get preset")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(preset))
}

// create handles POST /api/presets and creates a new preset.
func (h *PresetHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createPresetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}

	if req.Pattern == "" {
		req.Pattern = field.DefaultPattern
	}
	if req.Color == "" {
		req.Color = field.DefaultColor
	}

	if err := validatePreset(req.Pattern, req.Color); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	preset := &store.Preset{
		ID:      uuid.New().String(),
		Name:    req.Name,
		Pattern: req.Pattern,
		Color:   req.Color,
	}

	if err := h.store.Presets().Create(preset); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create preset")
		return
	}

	writeJSON(w, http.StatusCreated, toResponse(preset))
}

// update handles PUT /api/presets/{id} and updates an existing preset.
func (h *PresetHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	preset, err := h.store.Presets().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Preset not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get preset")
		return
	}

	var req updatePresetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Name != "" {
		preset.Name = req.Name
	}
	if req.Pattern != "" {
		preset.Pattern = req.Pattern
	}
	if req.Color != "" {
		preset.Color = req.Color
	}

	if err := validatePreset(preset.Pattern, preset.Color); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.Presets().Update(preset); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update preset")
		return
	}

	writeJSON(w, http.StatusOK, toResponse(preset))
}

// delete handles DELETE /api/presets/{id} and removes a preset.
func (h *PresetHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Presets().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Preset not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete preset")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// apply handles POST /api/presets/{id}/apply and activates the preset's
// pattern and color on the field.
func (h *PresetHandler) apply(w http.ResponseWriter, r *http.Request, id string) {
	if h.field == nil {
		writeError(w, http.StatusServiceUnavailable, "No field configured")
		return
	}

	preset, err := h.store.Presets().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Preset not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get preset")
		return
	}

	if err := h.field.SetPattern(preset.Pattern); err != nil {
		writeError(w, http.StatusBadRequest, "Preset has unknown pattern: "+preset.Pattern)
		return
	}
	if err := h.field.SetColor(preset.Color); err != nil {
		writeError(w, http.StatusBadRequest, "Preset has invalid color: "+preset.Color)
		return
	}

	writeJSON(w, http.StatusOK, h.field.State())
}
