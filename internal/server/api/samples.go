package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ayusman/bebas/internal/gesture"
	"github.com/ayusman/bebas/internal/lgr"
	"github.com/ayusman/bebas/internal/store"
)

// SamplesHandler handles HTTP requests for gesture sample resources. Posting samples
// retrains the gesture's template.
type SamplesHandler struct {
	store    *store.Store
	trainer  *gesture.Trainer
	onChange func()
}

// NewSamplesHandler creates a new SamplesHandler with the given store.
func NewSamplesHandler(s *store.Store, onChange func()) *SamplesHandler {
	return &SamplesHandler{store: s, trainer: gesture.NewTrainer(), onChange: onChange}
}

// ServeHTTP implements the http.Handler interface.
// Expected paths: /api/gestures/{id}/samples
func (h *SamplesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/gestures/")
	parts := strings.Split(path, "/")

	if len(parts) != 2 || parts[1] != "samples" {
		writeError(w, http.StatusNotFound, "Not found")
		return
	}

	gestureID := parts[0]

	switch r.Method {
	case http.MethodGet:
		h.list(w, r, gestureID)
	case http.MethodPost:
		h.create(w, r, gestureID)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type createSamplesRequest struct {
	Samples []json.RawMessage `json:"samples"`
}

type createSamplesResponse struct {
	Samples int  `json:"samples"`
	Trained bool `json:"trained"`
}

type sampleResponse struct {
	ID          int64           `json:"id"`
	GestureID   string          `json:"gesture_id"`
	SampleIndex int             `json:"sample_index"`
	Data        json.RawMessage `json:"data"`
	CreatedAt   string          `json:"created_at"`
}

type listSamplesResponse struct {
	Samples []sampleResponse `json:"samples"`
}

func (h *SamplesHandler) list(w http.ResponseWriter, r *http.Request, gestureID string) {
	if _, ok := findGesture(w, h.store, gestureID); !ok {
		return
	}
	samples, err := h.store.Samples().GetByGestureID(gestureID)
	if err != nil {
		lgr.Logger.Error("list samples", slog.String("gesture", gestureID), lgr.Err(err))
		writeError(w, http.StatusInternalServerError, "Failed to list samples")
		return
	}

	response := listSamplesResponse{Samples: make([]sampleResponse, len(samples))}
	for i, s := range samples {
		response.Samples[i] = sampleResponse{
			ID:          s.ID,
			GestureID:   s.GestureID,
			SampleIndex: s.SampleIndex,
			Data:        s.Data,
			CreatedAt:   s.CreatedAt.Format(time.RFC3339),
		}
	}
	writeJSON(w, http.StatusOK, response)
}

// create replaces the stored samples of a gesture and saves their average as its
// template. Samples are validated before anything is written.
func (h *SamplesHandler) create(w http.ResponseWriter, r *http.Request, gestureID string) {
	if _, ok := findGesture(w, h.store, gestureID); !ok {
		return
	}

	var req createSamplesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	features, err := h.trainer.Train(req.Samples)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.Samples().Create(gestureID, req.Samples); err != nil {
		lgr.Logger.Error("save samples", slog.String("gesture", gestureID), lgr.Err(err))
		writeError(w, http.StatusInternalServerError, "Failed to save samples")
		return
	}
	if err := h.store.Gestures().SetFeatures(gestureID, features); err != nil {
		lgr.Logger.Error("save trained template", slog.String("gesture", gestureID), lgr.Err(err))
		writeError(w, http.StatusInternalServerError, "Failed to save template")
		return
	}
	if h.onChange != nil {
		h.onChange()
	}

	writeJSON(w, http.StatusCreated, createSamplesResponse{Samples: len(req.Samples), Trained: true})
}
