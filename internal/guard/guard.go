// Package guard decides whether a view may be shown for the current session.
package guard

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Goutam990/medibook-console/internal/domain"
)

// State is the outcome of evaluating a view against the session.
type State int

const (
	// StateLoading means the session has not been restored yet.
	StateLoading State = iota
	// StateDenied means the view must not be shown.
	StateDenied
	// StateAllowed means the view may be shown.
	StateAllowed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateDenied:
		return "denied"
	case StateAllowed:
		return "allowed"
	default:
		return "unknown"
	}
}

// Decision is a State plus, when denied, the view to go to instead.
type Decision struct {
	State    State
	Redirect string
}

// Evaluate applies the access rules in order: loading wins over everything,
// then a missing session sends to login, then a role that does not meet the
// requirement sends to that role's default view.
func Evaluate(snap domain.Snapshot, req domain.Requirement) Decision {
	if snap.IsLoading {
		return Decision{State: StateLoading}
	}
	if !snap.IsAuthenticated() {
		return Decision{State: StateDenied, Redirect: domain.LoginPath}
	}
	role := snap.Role()
	if !role.Satisfies(req) {
		return Decision{State: StateDenied, Redirect: role.HomePath()}
	}
	return Decision{State: StateAllowed}
}

// Source supplies the current session state.
type Source interface {
	Snapshot() domain.Snapshot
}

// Recorder receives every decision. It may be nil.
type Recorder interface {
	RecordDecision(req domain.Requirement, state State)
}

// LoadingRetryAfter is the Retry-After value, in seconds, sent while loading.
const LoadingRetryAfter = "1"

// Guard builds middleware bound to one session source.
type Guard struct {
	source   Source
	loading  http.Handler
	recorder Recorder
}

// New returns a new properly initialized *Guard. loading renders the neutral
// placeholder page; a plain text one is used when nil.
func New(source Source, loading http.Handler, recorder Recorder) *Guard {
	if loading == nil {
		loading = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("Loading..."))
		})
	}
	return &Guard{source: source, loading: loading, recorder: recorder}
}

// Require is shorthand for New(source, loading, nil).Require(req).
func Require(source Source, req domain.Requirement, loading http.Handler) func(http.Handler) http.Handler {
	return New(source, loading, nil).Require(req)
}

func (g *Guard) decide(req domain.Requirement) (domain.Snapshot, Decision) {
	snap := g.source.Snapshot()
	d := Evaluate(snap, req)
	if g.recorder != nil {
		g.recorder.RecordDecision(req, d.State)
	}
	return snap, d
}

// Require returns middleware for HTML views. Denied requests are redirected
// with 303 See Other; while loading the placeholder is served with 503 and
// Retry-After so nothing caches it.
func (g *Guard) Require(req domain.Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			snap, d := g.decide(req)
			switch d.State {
			case StateLoading:
				g.ServeLoading(w, r)
			case StateDenied:
				http.Redirect(w, r, d.Redirect, http.StatusSeeOther)
			default:
				next.ServeHTTP(w, r.WithContext(WithSnapshot(r.Context(), snap)))
			}
		})
	}
}

// ServeLoading writes the placeholder page with 503 and Retry-After so
// nothing caches it.
func (g *Guard) ServeLoading(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Retry-After", LoadingRetryAfter)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusServiceUnavailable)
	g.loading.ServeHTTP(w, r)
}

// RequireJSON returns middleware for JSON endpoints: 503 while loading, 401
// without a session, 403 for the wrong role.
func (g *Guard) RequireJSON(req domain.Requirement) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			snap, d := g.decide(req)
			switch {
			case d.State == StateLoading:
				w.Header().Set("Retry-After", LoadingRetryAfter)
				writeError(w, http.StatusServiceUnavailable, "session is loading")
			case d.State == StateDenied && !snap.IsAuthenticated():
				writeError(w, http.StatusUnauthorized, "not authenticated")
			case d.State == StateDenied:
				writeError(w, http.StatusForbidden, "forbidden")
			default:
				next.ServeHTTP(w, r.WithContext(WithSnapshot(r.Context(), snap)))
			}
		})
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

type snapshotKey struct{}

// WithSnapshot returns ctx carrying snap.
func WithSnapshot(ctx context.Context, snap domain.Snapshot) context.Context {
	return context.WithValue(ctx, snapshotKey{}, snap)
}

// SnapshotFromContext returns the snapshot the guard admitted the request
// with.
func SnapshotFromContext(ctx context.Context) (domain.Snapshot, bool) {
	snap, ok := ctx.Value(snapshotKey{}).(domain.Snapshot)
	return snap, ok
}
