// Package api provides the HTTP handlers for gestures, training samples, practice,
// and attempts.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/bebas/internal/gesture"
	"github.com/ayusman/bebas/internal/lgr"
	"github.com/ayusman/bebas/internal/store"
)

// GestureHandler handles HTTP requests for gesture resources.
type GestureHandler struct {
	store    *store.Store
	onChange func()
}

// NewGestureHandler creates a new GestureHandler with the given store. onChange, if
// set, runs after every change to the stored templates.
func NewGestureHandler(s *store.Store, onChange func()) *GestureHandler {
	return &GestureHandler{store: s, onChange: onChange}
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *GestureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected paths: /api/gestures or /api/gestures/{id}
	path := strings.TrimPrefix(r.URL.Path, "/api/gestures")
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

type gestureRequest struct {
	Name      string  `json:"name"`
	Tolerance float64 `json:"tolerance"`
}

type gestureResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Tolerance float64 `json:"tolerance"`
	Samples   int     `json:"samples"`
	Trained   bool    `json:"trained"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
}

type listGesturesResponse struct {
	Gestures []gestureResponse `json:"gestures"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toResponse(g *store.Gesture) gestureResponse {
	return gestureResponse{
		ID:        g.ID,
		Name:      g.Name,
		Tolerance: g.Tolerance,
		Samples:   g.Samples,
		Trained:   g.Trained(),
		CreatedAt: g.CreatedAt.Format(time.RFC3339),
		UpdatedAt: g.UpdatedAt.Format(time.RFC3339),
	}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
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

func (h *GestureHandler) changed() {
	if h.onChange != nil {
		h.onChange()
	}
}

// list handles GET /api/gestures and returns all gestures.
func (h *GestureHandler) list(w http.ResponseWriter, r *http.Request) {
	gestures, err := h.store.Gestures().List()
	if err != nil {
		lgr.Logger.Error("list gestures", lgr.Err(err))
		writeError(w, http.StatusInternalServerError, "Failed to list gestures")
		return
	}

	response := listGesturesResponse{
		Gestures: make([]gestureResponse, 0, len(gestures)),
	}
	for _, g := range gestures {
		response.Gestures = append(response.Gestures, toResponse(g))
	}

	writeJSON(w, http.StatusOK, response)
}

// findGesture loads gesture id or writes the error response.
func findGesture(w http.ResponseWriter, s *store.Store, id string) (*store.Gesture, bool) {
	g, err := s.Gestures().GetByID(id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Gesture not found")
		return nil, false
	case err != nil:
		lgr.Logger.Error("get gesture", slog.String("id", id), lgr.Err(err))
		writeError(w, http.StatusInternalServerError, "Failed to get gesture")
		return nil, false
	}
	return g, true
}

// decode reads a gestureRequest, rejecting negative tolerances.
func decode(w http.ResponseWriter, r *http.Request) (gestureRequest, bool) {
	var req gestureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return req, false
	}
	if req.Tolerance < 0 {
		writeError(w, http.StatusBadRequest, "Tolerance must not be negative")
		return req, false
	}
	return req, true
}

func (h *GestureHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	if g, ok := findGesture(w, h.store, id); ok {
		writeJSON(w, http.StatusOK, toResponse(g))
	}
}

// create handles POST /api/gestures. Names are unique.
func (h *GestureHandler) create(w http.ResponseWriter, r *http.Request) {
	req, ok := decode(w, r)
	if !ok {
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "Name is required")
		return
	}
	if _, err := h.store.Gestures().GetByName(req.Name); err == nil {
		writeError(w, http.StatusConflict, "Gesture already exists")
		return
	}
	if !gesture.InVocabulary(req.Name) {
		lgr.Logger.Warn("gesture outside the vocabulary", slog.String("name", req.Name))
	}

	g := &store.Gesture{ID: uuid.NewString(), Name: req.Name, Tolerance: req.Tolerance}
	if g.Tolerance == 0 {
		g.Tolerance = gesture.DefaultTolerance
	}
	if err := h.store.Gestures().Create(g); err != nil {
		lgr.Logger.Error("create gesture", slog.String("name", req.Name), lgr.Err(err))
		writeError(w, http.StatusInternalServerError, "Failed to create gesture")
		return
	}

	writeJSON(w, http.StatusCreated, toResponse(g))
}

// update handles PUT /api/gestures/{id}. Zero fields keep their value.
func (h *GestureHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	g, ok := findGesture(w, h.store, id)
	if !ok {
		return
	}
	req, ok := decode(w, r)
	if !ok {
		return
	}

	if req.Name != "" {
		g.Name = req.Name
	}
	if req.Tolerance != 0 {
		g.Tolerance = req.Tolerance
	}
	if err := h.store.Gestures().Update(g); err != nil {
		lgr.Logger.Error("update gesture", slog.String("id", id), lgr.Err(err))
		writeError(w, http.StatusInternalServerError, "Failed to update gesture")
		return
	}
	h.changed()

	writeJSON(w, http.StatusOK, toResponse(g))
}

func (h *GestureHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	err := h.store.Gestures().Delete(id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "Gesture not found")
		return
	case err != nil:
		lgr.Logger.Error("delete gesture", slog.String("id", id), lgr.Err(err))
		writeError(w, http.StatusInternalServerError, "Failed to delete gesture")
		return
	}
	h.changed()

	w.WriteHeader(http.StatusNoContent)
}
