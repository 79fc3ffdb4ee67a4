package api

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/Goutam990/medibook-console/internal/domain"
	"github.com/Goutam990/medibook-console/internal/guard"
	"github.com/Goutam990/medibook-console/web"
)

const flashCookieName = "medibook_flash"

// flashMaxAge bounds how long an unread notification survives, in seconds.
const flashMaxAge = 60

// setFlash queues a notification for the next rendered page.
func (h *Handler) setFlash(w http.ResponseWriter, kind, message string) {
	raw, err := json.Marshal(web.Flash{Kind: kind, Message: message})
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		MaxAge:   flashMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.secureCookies,
	})
}

// popFlash reads and clears the queued notification.
func (h *Handler) popFlash(w http.ResponseWriter, r *http.Request) *web.Flash {
	c, err := r.Cookie(flashCookieName)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.secureCookies,
	})

	raw, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var f web.Flash
	if err := json.Unmarshal(raw, &f); err != nil || f.Message == "" {
		return nil
	}
	return &f
}

// redirect queues a notification and sends the browser to target.
func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, target, kind, message string) {
	if message != "" {
		h.setFlash(w, kind, message)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// snapshot returns the state the guard admitted the request with, or the
// current one on public routes.
func (h *Handler) snapshot(r *http.Request) domain.Snapshot {
	if snap, ok := guard.SnapshotFromContext(r.Context()); ok {
		return snap
	}
	return h.sessions.Snapshot()
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name, title string, data any) {
	snap := h.snapshot(r)
	page := web.Page{
		Title:         title,
		Flash:         h.popFlash(w, r),
		Authenticated: snap.IsAuthenticated(),
		Data:          data,
	}
	if page.Authenticated {
		page.User = snap.User
	}

	var buf bytes.Buffer
	if err := h.templates.Render(&buf, name, page); err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to render page", "template", name, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

type errorPage struct {
	Status  int
	Message string
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.render(w, r, status, "error", http.StatusText(status), errorPage{Status: status, Message: message})
}

// LoadingPage renders the neutral placeholder shown until the session is
// restored. The guard has already written the status line.
func (h *Handler) LoadingPage(w http.ResponseWriter, r *http.Request) {
	if err := h.templates.Render(w, "loading", web.Page{Title: "Loading"}); err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to render loading page", "error", err)
	}
}
