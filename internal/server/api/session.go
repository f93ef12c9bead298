package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/ayusman/winklock/internal/gesture"
	"github.com/ayusman/winklock/internal/session"
)

// Session is the machine surface the API reads and resets.
type Session interface {
	Snapshot(now time.Time) session.Snapshot
	Reset(now time.Time)
}

// Toggle pauses and resumes detection. *app.App implements it.
type Toggle interface {
	IsEnabled() bool
	SetEnabled(enabled bool)
}

// SessionHandler serves status, reset and the enabled toggle.
type SessionHandler struct {
	session Session
	toggle  Toggle
	clock   func() time.Time
}

// NewSessionHandler creates a SessionHandler. toggle may be nil.
func NewSessionHandler(s Session, toggle Toggle) *SessionHandler {
	return &SessionHandler{session: s, toggle: toggle, clock: time.Now}
}

type statusResponse struct {
	State       string `json:"state"`
	EnteredAt   string `json:"entered_at,omitempty"`
	Code        string `json:"code"`
	Progress    string `json:"progress"`
	MaxDigit    int    `json:"max_digit"`
	Indicator   string `json:"indicator,omitempty"`
	LastCommand string `json:"last_command,omitempty"`
	Enabled     bool   `json:"enabled"`
}

// Status handles GET /api/status.
func (h *SessionHandler) Status(w http.ResponseWriter, r *http.Request) {
	now := h.clock()
	snap := h.session.Snapshot(now)

	resp := statusResponse{
		State:       snap.State.String(),
		Code:        gesture.FormatCode(snap.Sequence),
		Progress:    progress(len(snap.Sequence), snap.MaxDigit),
		MaxDigit:    snap.MaxDigit,
		LastCommand: snap.LastCommand,
		Enabled:     h.toggle == nil || h.toggle.IsEnabled(),
	}
	if !snap.EnteredAt.IsZero() {
		resp.EnteredAt = snap.EnteredAt.UTC().Format(time.RFC3339Nano)
	}
	if snap.State == session.Input {
		resp.Indicator = "READY"
		if snap.Cooldown {
			resp.Indicator = "WAIT"
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// Reset handles POST /api/reset.
func (h *SessionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	h.session.Reset(h.clock())
	h.Status(w, r)
}

type enabledRequest struct {
	Enabled *bool `json:"enabled"`
}

// SetEnabled handles PUT /api/enabled.
func (h *SessionHandler) SetEnabled(w http.ResponseWriter, r *http.Request) {
	if h.toggle == nil {
		writeError(w, http.StatusNotImplemented, "detection toggle unavailable")
		return
	}

	var req enabledRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
		writeError(w, http.StatusBadRequest, "body must be {\"enabled\": bool}")
		return
	}

	h.toggle.SetEnabled(*req.Enabled)
	h.Status(w, r)
}

// progress renders "2/6".
func progress(n, total int) string {
	return strconv.Itoa(n) + "/" + strconv.Itoa(total)
}
