package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ayusman/winklock/internal/store"
)

// MaxListLimit caps the limit query parameter.
const MaxListLimit = 500

// AttemptHandler serves the attempt history.
type AttemptHandler struct {
	store *store.Store
}

// NewAttemptHandler creates a new AttemptHandler with the given store.
func NewAttemptHandler(s *store.Store) *AttemptHandler {
	return &AttemptHandler{store: s}
}

// Routes mounts the handler on r.
func (h *AttemptHandler) Routes(r chi.Router) {
	r.Get("/", h.list)
	r.Get("/stats", h.stats)
	r.Get("/{id}", h.get)
}

type listAttemptsResponse struct {
	Attempts []*store.Attempt `json:"attempts"`
}

// list handles GET /api/attempts?limit=N.
func (h *AttemptHandler) list(w http.ResponseWriter, r *http.Request) {
	limit := store.DefaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, MaxListLimit)
	}

	attempts, err := h.store.Attempts().List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list attempts")
		return
	}

	writeJSON(w, http.StatusOK, listAttemptsResponse{Attempts: attempts})
}

// get handles GET /api/attempts/{id}.
func (h *AttemptHandler) get(w http.ResponseWriter, r *http.Request) {
	a, err := h.store.Attempts().GetByID(chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "attempt not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to get attempt")
		return
	}

	writeJSON(w, http.StatusOK, a)
}

// stats handles GET /api/attempts/stats.
func (h *AttemptHandler) stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.store.Attempts().Stats()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to compute stats")
		return
	}
	writeJSON(w, http.StatusOK, st)
}
