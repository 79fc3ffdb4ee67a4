package api

import (
	"net/http"

	"github.com/Goutam990/medibook-console/internal/domain"
	"github.com/Goutam990/medibook-console/internal/events"
)

// sessionResponse is the JSON view of the device session. The token is never
// exposed.
type sessionResponse struct {
	events.Message
	User *domain.User `json:"user,omitempty"`
}

// GetSession reports the session state for the loading page poller.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	snap := h.sessions.Snapshot()
	resp := sessionResponse{Message: events.NewMessage(snap)}
	if snap.IsAuthenticated() {
		resp.User = snap.User
	}
	w.Header().Set("Cache-Control", "no-store")
	JSON(w, http.StatusOK, resp)
}

// GetMe returns the profile of the logged-in user.
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	snap := h.snapshot(r)
	JSON(w, http.StatusOK, snap.User)
}

// Health reports whether device storage is reachable and the session has
// been restored.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	resp := map[string]string{
		"status":  "ok",
		"storage": "ok",
		"session": "ready",
	}

	if h.storage != nil {
		if err := h.storage.Ping(r.Context()); err != nil {
			h.logger.WarnContext(r.Context(), "Health check: storage unreachable", "error", err)
			status = http.StatusServiceUnavailable
			resp["status"] = "degraded"
			resp["storage"] = "unavailable"
		}
	}
	if h.sessions.Snapshot().IsLoading {
		resp["session"] = "loading"
	}

	JSON(w, status, resp)
}

// Home sends the user to the default view of their role.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, h.snapshot(r).Role().HomePath(), http.StatusSeeOther)
}
