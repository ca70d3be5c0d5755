package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	service "github.com/okian/pitchmap/internal/app"
)

// idempotencyHeader makes POST /sessions safe to retry.
const idempotencyHeader = "Idempotency-Key"

// SessionsHandler handles session upload, lookup and removal.
type SessionsHandler struct {
	deps     Dependencies
	maxBytes int64
}

// NewSessionsHandler creates a sessions handler accepting bodies of up to
// maxBytes.
func NewSessionsHandler(deps Dependencies, maxBytes int64) *SessionsHandler {
	return &SessionsHandler{deps: deps, maxBytes: maxBytes}
}

type createResponse struct {
	ID      string `json:"id"`
	Samples int    `json:"samples"`
	Rows    int    `json:"rows"`
	// Duplicate is set when the idempotency key matched an earlier upload.
	Duplicate bool `json:"duplicate"`
}

// HandleCreate handles POST /sessions.
func (h *SessionsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var up service.Upload
	if err := decodeJSON(w, r, h.maxBytes, &up); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	key := strings.TrimSpace(r.Header.Get(idempotencyHeader))
	sum, created, err := h.deps.CreateSession(r.Context(), key, up)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	writeJSON(w, status, createResponse{
		ID:        sum.ID,
		Samples:   sum.LastSample - sum.FirstSample + 1,
		Rows:      sum.Rows,
		Duplicate: !created,
	})
}

// HandleGet handles GET /sessions/{id}.
func (h *SessionsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	sum, err := h.deps.Session(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

// HandleDelete handles DELETE /sessions/{id}.
func (h *SessionsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.DeleteSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: body exceeds %d bytes", ErrBadRequest, maxBytes)
		}
		return fmt.Errorf("%w: invalid JSON: %v", ErrBadRequest, err)
	}
	return nil
}
