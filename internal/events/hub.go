// Package events pushes session changes to open console tabs over WebSocket.
package events

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/Goutam990/medibook-console/internal/domain"
)

// TypeSession is the only message type sent today.
const TypeSession = "session"

const writeTimeout = 5 * time.Second

var tabIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:-]{1,128}$`)

// Message is what a tab receives after each session change.
type Message struct {
	Type          string `json:"type"`
	Loading       bool   `json:"loading"`
	Authenticated bool   `json:"authenticated"`
	Role          string `json:"role,omitempty"`
}

// NewMessage describes snap for the page script.
func NewMessage(snap domain.Snapshot) Message {
	return Message{
		Type:          TypeSession,
		Loading:       snap.IsLoading,
		Authenticated: snap.IsAuthenticated(),
		Role:          snap.Role().String(),
	}
}

// Source is the session store as seen by the hub.
type Source interface {
	Snapshot() domain.Snapshot
	Subscribe() (<-chan domain.Snapshot, func())
}

// Hub tracks the open tabs of this device, keyed by tab id.
type Hub struct {
	source         Source
	logger         *slog.Logger
	allowedOrigins []string

	mu   sync.RWMutex
	tabs map[string]*websocket.Conn
}

// NewHub returns a hub for source. Browsers may connect from the console's
// own host or from allowedOrigins; a "*" entry accepts any origin.
func NewHub(source Source, allowedOrigins []string, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		source:         source,
		logger:         logger,
		allowedOrigins: allowedOrigins,
		tabs:           make(map[string]*websocket.Conn),
	}
}

// Register adds a tab connection. A previous connection with the same tab id
// is closed.
func (h *Hub) Register(tabID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if existing, ok := h.tabs[tabID]; ok && existing != conn {
		_ = existing.Close(websocket.StatusNormalClosure, "tab replaced")
	}
	h.tabs[tabID] = conn
	h.logger.Debug("Tab registered", "tab_id", tabID)
}

// Unregister removes a tab connection if it is still the current one.
func (h *Hub) Unregister(tabID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, ok := h.tabs[tabID]; ok && current == conn {
		delete(h.tabs, tabID)
		h.logger.Debug("Tab unregistered", "tab_id", tabID)
	}
}

// Get returns the connection of a tab, or nil.
func (h *Hub) Get(tabID string) *websocket.Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.tabs[tabID]
}

// Len returns the number of open tabs.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.tabs)
}

// CloseAll disconnects every tab.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, conn := range h.tabs {
		_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
		delete(h.tabs, id)
	}
}

// Broadcast sends msg to every open tab. Tabs that fail are dropped.
func (h *Hub) Broadcast(ctx context.Context, msg Message) {
	h.mu.RLock()
	targets := make(map[string]*websocket.Conn, len(h.tabs))
	for id, conn := range h.tabs {
		targets[id] = conn
	}
	h.mu.RUnlock()

	for id, conn := range targets {
		if err := write(ctx, conn, msg); err != nil {
			h.logger.Debug("Dropping tab after failed write", "tab_id", id, "error", err)
			_ = conn.Close(websocket.StatusInternalError, "write failed")
			h.Unregister(id, conn)
		}
	}
}

// Start subscribes to the session source and forwards every change to the
// open tabs until ctx is done. The subscription is in place when Start
// returns.
func (h *Hub) Start(ctx context.Context) {
	updates, unsubscribe := h.source.Subscribe()
	go func() {
		defer unsubscribe()
		for {
			select {
			case <-ctx.Done():
				h.CloseAll()
				return
			case snap, ok := <-updates:
				if !ok {
					return
				}
				h.Broadcast(ctx, NewMessage(snap))
			}
		}
	}()
}

// ServeHTTP upgrades the request and keeps the tab registered until the
// client goes away. The current state is sent on connect.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to accept WebSocket", "error", err)
		return
	}

	tabID := tabIDFromRequest(r)
	h.Register(tabID, conn)
	defer h.Unregister(tabID, conn)

	// Only the hub writes; CloseRead handles pings and the close frame.
	ctx := conn.CloseRead(r.Context())

	if err := write(ctx, conn, NewMessage(h.source.Snapshot())); err != nil {
		h.logger.DebugContext(ctx, "Initial session write failed", "tab_id", tabID, "error", err)
		_ = conn.Close(websocket.StatusInternalError, "write failed")
		return
	}

	<-ctx.Done()
	_ = conn.Close(websocket.StatusNormalClosure, "")
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, o := range h.allowedOrigins {
		if o == "*" || o == origin {
			return true
		}
	}
	// Same host is always fine.
	if u, err := url.Parse(origin); err == nil && u.Host == r.Host {
		return true
	}
	h.logger.Warn("WebSocket origin rejected", "origin", origin)
	return false
}

func tabIDFromRequest(r *http.Request) string {
	id := strings.TrimSpace(r.URL.Query().Get("tab"))
	if tabIDPattern.MatchString(id) {
		return id
	}
	return uuid.NewString()
}

func write(ctx context.Context, conn *websocket.Conn, msg Message) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, msg)
}
