package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ayusman/bebas/internal/gesture"
	"github.com/ayusman/bebas/internal/practice"
)

// Practice is the running practice session.
type Practice interface {
	SetTarget(word string) error
	Status() practice.Status
}

// PracticeHandler reads and changes the practice target.
//
//	GET /api/practice
//	PUT /api/practice {"target": "Makan"}
type PracticeHandler struct {
	session Practice
}

// NewPracticeHandler creates a new PracticeHandler for session.
func NewPracticeHandler(session Practice) *PracticeHandler {
	return &PracticeHandler{session: session}
}

type setTargetRequest struct {
	Target string `json:"target"`
}

func (h *PracticeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.session.Status())
	case http.MethodPut:
		var req setTargetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		if err := h.session.SetTarget(req.Target); err != nil {
			if errors.Is(err, practice.ErrUnknownWord) {
				writeError(w, http.StatusBadRequest, "Unknown word")
				return
			}
			writeError(w, http.StatusInternalServerError, "Failed to set target")
			return
		}
		writeJSON(w, http.StatusOK, h.session.Status())
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type vocabularyResponse struct {
	Words []string `json:"words"`
}

// Vocabulary handles GET /api/vocabulary.
func Vocabulary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, vocabularyResponse{Words: gesture.Vocabulary})
}
