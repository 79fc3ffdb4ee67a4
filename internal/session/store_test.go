package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Goutam990/medibook-console/internal/domain"
	"github.com/Goutam990/medibook-console/internal/store"
)

// failingStorage fails every operation.
type failingStorage struct{ err error }

func (f failingStorage) GetItem(context.Context, string) (string, bool, error) {
	return "", false, f.err
}
func (f failingStorage) SetItems(context.Context, map[string]string) error { return f.err }
func (f failingStorage) RemoveItems(context.Context, ...string) error      { return f.err }
func (f failingStorage) Ping(context.Context) error                        { return f.err }
func (f failingStorage) Close() error                                      { return nil }

func doctor() domain.User {
	return domain.User{ID: "u1", FirstName: "Gregory", LastName: "House", Role: domain.RoleDoctor}
}

func TestStore_StartsLoading(t *testing.T) {
	s := New(store.NewMemory(), nil)

	snap := s.Snapshot()
	assert.True(t, snap.IsLoading)
	assert.False(t, snap.IsAuthenticated())

	select {
	case <-s.Restored():
		t.Fatal("restored channel closed before Restore")
	default:
	}
}

func TestStore_SetSessionThenReload(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "console.db")

	storage, err := store.NewSQLite(path)
	require.NoError(t, err)

	s := New(storage, nil)
	s.Restore(ctx)
	require.NoError(t, s.SetSession(ctx, "tok123", domain.User{ID: "u1", Role: domain.RoleDoctor}))
	require.NoError(t, storage.Close())

	// A fresh process restoring from the same storage.
	storage, err = store.NewSQLite(path)
	require.NoError(t, err)
	defer func() { _ = storage.Close() }()

	reloaded := New(storage, nil)
	reloaded.Restore(ctx)
	<-reloaded.Restored()

	snap := reloaded.Snapshot()
	assert.False(t, snap.IsLoading)
	assert.Equal(t, "tok123", snap.Token)
	require.NotNil(t, snap.User)
	assert.Equal(t, "u1", snap.User.ID)
	assert.Equal(t, domain.RoleDoctor, snap.User.Role)
}

func TestStore_SetSessionThenClear(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	s := New(mem, nil)
	s.Restore(ctx)

	for i := 0; i < 3; i++ {
		require.NoError(t, s.SetSession(ctx, "tok", doctor()))
		require.NoError(t, s.Clear(ctx))

		snap := s.Snapshot()
		assert.False(t, snap.IsAuthenticated())
		assert.Empty(t, snap.Token)
		assert.Nil(t, snap.User)
		assert.Zero(t, mem.Len())
	}
}

func TestStore_SetSessionRejectsIncomplete(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	s := New(mem, nil)
	s.Restore(ctx)

	assert.ErrorIs(t, s.SetSession(ctx, "", doctor()), ErrIncompleteSession)
	assert.ErrorIs(t, s.SetSession(ctx, "tok", domain.User{}), ErrIncompleteSession)
	assert.Zero(t, mem.Len())
	assert.False(t, s.Snapshot().IsAuthenticated())
}

func TestStore_SetSessionStorageFailure(t *testing.T) {
	ctx := context.Background()
	s := New(failingStorage{err: errors.New("disk full")}, nil)
	s.Restore(ctx)

	err := s.SetSession(ctx, "tok", doctor())
	require.Error(t, err)
	assert.False(t, s.Snapshot().IsAuthenticated())
}

func TestStore_ClearStorageFailureStillEmpties(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	s := New(mem, nil)
	s.Restore(ctx)
	require.NoError(t, s.SetSession(ctx, "tok", doctor()))

	s.storage = failingStorage{err: errors.New("unavailable")}
	err := s.Clear(ctx)
	assert.Error(t, err)
	assert.False(t, s.Snapshot().IsAuthenticated())
}

func TestStore_RestoreFailuresMeanNoSession(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		items   map[string]string
		storage store.Storage
	}{{
		name:    "storage unavailable",
		storage: failingStorage{err: errors.New("unavailable")},
	}, {
		name:  "malformed user",
		items: map[string]string{store.KeyToken: "tok", store.KeyUser: "{not json"},
	}, {
		name:  "token without user",
		items: map[string]string{store.KeyToken: "tok"},
	}, {
		name:  "user without token",
		items: map[string]string{store.KeyUser: `{"id":"u1","role":"Doctor"}`},
	}, {
		name:  "unknown role",
		items: map[string]string{store.KeyToken: "tok", store.KeyUser: `{"id":"u1","role":"Pilot"}`},
	}, {
		name:  "user without id",
		items: map[string]string{store.KeyToken: "tok", store.KeyUser: `{"role":"Doctor"}`},
	}}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := tt.storage
			var mem *store.MemoryStore
			if storage == nil {
				mem = store.NewMemory()
				require.NoError(t, mem.SetItems(ctx, tt.items))
				storage = mem
			}

			s := New(storage, nil)
			s.Restore(ctx)

			snap := s.Snapshot()
			assert.False(t, snap.IsLoading)
			assert.False(t, snap.IsAuthenticated())
			if mem != nil {
				assert.Zero(t, mem.Len(), "stale keys must be cleared")
			}
		})
	}
}

func TestStore_RestoreDiscardsExpiredJWT(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	sign := func(exp time.Time) string {
		tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
			"sub": "u1",
			"exp": exp.Unix(),
		}).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		return tok
	}

	for name, tc := range map[string]struct {
		token string
		want  bool
	}{
		"expired": {token: sign(now.Add(-time.Minute)), want: false},
		"valid":   {token: sign(now.Add(time.Hour)), want: true},
		"opaque":  {token: "opaque-token", want: true},
	} {
		t.Run(name, func(t *testing.T) {
			mem := store.NewMemory()
			require.NoError(t, mem.SetItems(ctx, map[string]string{
				store.KeyToken: tc.token,
				store.KeyUser:  `{"id":"u1","role":"Patient"}`,
			}))

			s := New(mem, nil)
			s.now = func() time.Time { return now }
			s.Restore(ctx)

			assert.Equal(t, tc.want, s.Snapshot().IsAuthenticated())
		})
	}
}

func TestStore_RestoreRunsOnce(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemory()
	s := New(mem, nil)
	s.Restore(ctx)
	require.NoError(t, s.SetSession(ctx, "tok", doctor()))

	require.NoError(t, mem.RemoveItems(ctx, store.KeyToken, store.KeyUser))
	s.Restore(ctx)

	assert.True(t, s.Snapshot().IsAuthenticated())
}

func TestStore_SnapshotIsACopy(t *testing.T) {
	ctx := context.Background()
	s := New(store.NewMemory(), nil)
	s.Restore(ctx)
	require.NoError(t, s.SetSession(ctx, "tok", doctor()))

	snap := s.Snapshot()
	snap.User.Role = domain.RolePatient

	assert.Equal(t, domain.RoleDoctor, s.Snapshot().User.Role)
	assert.Equal(t, "tok", s.Token())
}

func TestStore_Subscribe(t *testing.T) {
	ctx := context.Background()
	s := New(store.NewMemory(), nil)

	ch, unsubscribe := s.Subscribe()

	s.Restore(ctx)
	snap := <-ch
	assert.False(t, snap.IsLoading)
	assert.False(t, snap.IsAuthenticated())

	require.NoError(t, s.SetSession(ctx, "tok", doctor()))
	require.NoError(t, s.Clear(ctx))

	// Latest wins: only the cleared state is pending.
	snap = <-ch
	assert.False(t, snap.IsAuthenticated())
	select {
	case extra := <-ch:
		t.Fatalf("unexpected extra snapshot %+v", extra)
	default:
	}

	unsubscribe()
	unsubscribe()
	_, open := <-ch
	assert.False(t, open)

	// Publishing after unsubscribe must not panic.
	require.NoError(t, s.SetSession(ctx, "tok", doctor()))
}

// gatedStorage blocks reads until release is closed.
type gatedStorage struct {
	*store.MemoryStore
	reading chan struct{}
	release chan struct{}
	once    bool
}

func (g *gatedStorage) GetItem(ctx context.Context, key string) (string, bool, error) {
	if !g.once {
		g.once = true
		close(g.reading)
		<-g.release
	}
	return g.MemoryStore.GetItem(ctx, key)
}

func TestStore_LoginDuringRestoreSurvives(t *testing.T) {
	ctx := context.Background()
	storage := &gatedStorage{
		MemoryStore: store.NewMemory(),
		reading:     make(chan struct{}),
		release:     make(chan struct{}),
	}
	s := New(storage, nil)

	restoreDone := make(chan struct{})
	go func() {
		s.Restore(ctx)
		close(restoreDone)
	}()
	<-storage.reading

	setDone := make(chan error, 1)
	go func() {
		setDone <- s.SetSession(ctx, "fresh", doctor())
	}()

	select {
	case err := <-setDone:
		t.Fatalf("SetSession finished while restore was reading: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(storage.release)
	<-restoreDone
	require.NoError(t, <-setDone)

	snap := s.Snapshot()
	assert.False(t, snap.IsLoading)
	assert.True(t, snap.IsAuthenticated())
	assert.Equal(t, "fresh", snap.Token)

	token, ok, err := storage.MemoryStore.GetItem(ctx, store.KeyToken)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "fresh", token)
}
