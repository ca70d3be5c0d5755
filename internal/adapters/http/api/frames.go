package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/okian/pitchmap/internal/domain/dominance"
	"github.com/okian/pitchmap/internal/domain/model"
)

// FramesHandler serves per-timestamp views of a session.
type FramesHandler struct {
	deps     Dependencies
	maxBytes int64
}

// NewFramesHandler creates a frames handler. maxBytes bounds pitch-control
// grid bodies.
func NewFramesHandler(deps Dependencies, maxBytes int64) *FramesHandler {
	return &FramesHandler{deps: deps, maxBytes: maxBytes}
}

// HandleFrame handles GET /sessions/{id}/frame?t=.
func (h *FramesHandler) HandleFrame(w http.ResponseWriter, r *http.Request) {
	t, err := floatParam(r, "t", 0, true)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	f, err := h.deps.Frame(r.Context(), chi.URLParam(r, "id"), t)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// HandleDominance handles GET /sessions/{id}/dominance?t= with a GeoJSON
// FeatureCollection of the regions.
func (h *FramesHandler) HandleDominance(w http.ResponseWriter, r *http.Request) {
	t, err := floatParam(r, "t", 0, true)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	f, res, err := h.deps.Dominance(r.Context(), chi.URLParam(r, "id"), t)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	b, err := dominance.FeatureCollection(f, res).MarshalJSON()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}

// HandleRender handles GET /sessions/{id}/render?t= returning a PNG.
func (h *FramesHandler) HandleRender(w http.ResponseWriter, r *http.Request) {
	t, err := floatParam(r, "t", 0, true)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	o, err := renderOptions(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	b, err := h.deps.Render(r.Context(), chi.URLParam(r, "id"), t, o)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writePNG(w, b)
}

// HandlePitchControl handles POST /sessions/{id}/pitchcontrol?t= with a
// probability grid body, returning a PNG with the surface overlaid.
func (h *FramesHandler) HandlePitchControl(w http.ResponseWriter, r *http.Request) {
	t, err := floatParam(r, "t", 0, true)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	o, err := renderOptions(r)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	var g model.ProbabilityGrid
	if err := decodeJSON(w, r, h.maxBytes, &g); err != nil {
		writeServiceError(w, err)
		return
	}
	b, err := h.deps.PitchControl(r.Context(), chi.URLParam(r, "id"), t, g, o)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writePNG(w, b)
}
