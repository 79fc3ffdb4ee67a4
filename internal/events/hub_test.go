package events

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Goutam990/medibook-console/internal/domain"
	"github.com/Goutam990/medibook-console/internal/session"
	"github.com/Goutam990/medibook-console/internal/store"
)

func TestNewMessage(t *testing.T) {
	msg := NewMessage(domain.Snapshot{IsLoading: true})
	assert.Equal(t, Message{Type: TypeSession, Loading: true}, msg)

	msg = NewMessage(domain.Snapshot{Session: domain.Session{Token: "t", User: &domain.User{ID: "u1", Role: domain.RoleAdmin}}})
	assert.Equal(t, Message{Type: TypeSession, Authenticated: true, Role: "Admin"}, msg)
}

func TestHub_RegisterUnregister(t *testing.T) {
	h := NewHub(nil, nil, nil)
	conn1 := &websocket.Conn{}
	conn2 := &websocket.Conn{}

	h.Register("tab-1", conn1)
	h.Register("tab-2", conn2)
	assert.Equal(t, 2, h.Len())
	assert.Same(t, conn1, h.Get("tab-1"))

	h.Unregister("tab-1", conn1)
	assert.Nil(t, h.Get("tab-1"))
	assert.Same(t, conn2, h.Get("tab-2"))

	// A stale connection does not remove the current one.
	h.Unregister("tab-2", &websocket.Conn{})
	assert.Same(t, conn2, h.Get("tab-2"))
}

func TestHub_ConcurrentAccess(t *testing.T) {
	h := NewHub(nil, nil, nil)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			h.Register("tab-"+strconv.Itoa(i), &websocket.Conn{})
		}
	}()
	for i := 0; i < 1000; i++ {
		h.Get("tab-" + strconv.Itoa(i))
	}
	<-done
	assert.Equal(t, 1000, h.Len())
}

func TestHub_PushesSessionChanges(t *testing.T) {
	sessions := session.New(store.NewMemory(), nil)
	h := NewHub(sessions, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.Start(ctx)

	srv := httptest.NewServer(h)
	defer srv.Close()

	dialCtx, dialCancel := context.WithTimeout(ctx, 5*time.Second)
	defer dialCancel()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "?tab=tab-1"
	conn, _, err := websocket.Dial(dialCtx, wsURL, nil)
	require.NoError(t, err)
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "") }()

	var msg Message
	require.NoError(t, wsjson.Read(dialCtx, conn, &msg))
	assert.True(t, msg.Loading)

	require.Eventually(t, func() bool { return h.Get("tab-1") != nil }, 2*time.Second, 10*time.Millisecond)

	sessions.Restore(ctx)
	require.NoError(t, wsjson.Read(dialCtx, conn, &msg))
	assert.False(t, msg.Loading)
	assert.False(t, msg.Authenticated)

	require.NoError(t, sessions.SetSession(ctx, "tok", domain.User{ID: "u1", Role: domain.RolePatient}))
	require.NoError(t, wsjson.Read(dialCtx, conn, &msg))
	assert.True(t, msg.Authenticated)
	assert.Equal(t, "Patient", msg.Role)
}

func TestHub_RejectsForeignOrigin(t *testing.T) {
	h := NewHub(nil, []string{"https://console.example.com"}, nil)

	req := httptest.NewRequest(http.MethodGet, "/ws/session", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHub_OriginWithoutAllowlist(t *testing.T) {
	h := NewHub(nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/ws/session", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	assert.False(t, h.checkOrigin(req), "foreign page")

	req.Header.Set("Origin", "http://example.com")
	assert.True(t, h.checkOrigin(req), "own host")
}

func TestTabIDFromRequest(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/ws/session?tab=abc-1", nil)
	assert.Equal(t, "abc-1", tabIDFromRequest(r))

	r = httptest.NewRequest(http.MethodGet, "/ws/session?tab=%3Cscript%3E", nil)
	assert.Len(t, tabIDFromRequest(r), 36)
}
