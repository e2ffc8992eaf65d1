package api

import (
	"net/http"
	"strconv"

	"github.com/ayusman/bebas/internal/store"
)

// AttemptsHandler serves the practice history.
//
//	GET /api/attempts?target=Saya&limit=20
//	GET /api/attempts/progress
type AttemptsHandler struct {
	store *store.Store
}

// NewAttemptsHandler creates a new AttemptsHandler with the given store.
func NewAttemptsHandler(s *store.Store) *AttemptsHandler {
	return &AttemptsHandler{store: s}
}

type listAttemptsResponse struct {
	Attempts []store.Attempt `json:"attempts"`
}

type progressResponse struct {
	Progress []store.Progress `json:"progress"`
}

func (h *AttemptsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	switch r.URL.Path {
	case "/api/attempts", "/api/attempts/":
		h.list(w, r)
	case "/api/attempts/progress":
		h.progress(w, r)
	default:
		writeError(w, http.StatusNotFound, "Not found")
	}
}

func (h *AttemptsHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	attempts, err := h.store.Attempts().List(r.URL.Query().Get("target"), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list attempts")
		return
	}
	if attempts == nil {
		attempts = []store.Attempt{}
	}

	writeJSON(w, http.StatusOK, listAttemptsResponse{Attempts: attempts})
}

func (h *AttemptsHandler) progress(w http.ResponseWriter, r *http.Request) {
	progress, err := h.store.Attempts().Progress()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute progress")
		return
	}
	if progress == nil {
		progress = []store.Progress{}
	}

	writeJSON(w, http.StatusOK, progressResponse{Progress: progress})
}
