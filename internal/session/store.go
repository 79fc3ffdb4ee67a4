// Package session holds the process-wide authentication state of the console:
// the credential token and profile of the user logged in on this device.
//
// The Store is the single source of truth for "who is logged in". It starts
// in the loading state, is restored once from device storage, is populated by
// a successful login and is cleared on logout. Readers take snapshots or
// subscribe to changes; nothing else mutates it.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Goutam990/medibook-console/internal/domain"
	"github.com/Goutam990/medibook-console/internal/store"
)

// ErrIncompleteSession is returned by SetSession when the token or the user
// is missing. A token is always paired with a user.
var ErrIncompleteSession = errors.New("session requires a token and a user")

// Store is the session store. It is safe for concurrent use.
type Store struct {
	storage store.Storage
	logger  *slog.Logger
	now     func() time.Time

	mu    sync.RWMutex
	state domain.Snapshot

	// writeMu orders Restore, SetSession and Clear so a login or logout made
	// while the restore is still reading is never overwritten by it.
	writeMu sync.Mutex

	restoreOnce sync.Once
	restored    chan struct{}

	subsMu  sync.Mutex
	subs    map[int]chan domain.Snapshot
	nextSub int
}

// New returns a store in the loading state. Call Restore to leave it.
func New(storage store.Storage, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		storage:  storage,
		logger:   logger,
		now:      time.Now,
		state:    domain.Snapshot{IsLoading: true},
		restored: make(chan struct{}),
		subs:     make(map[int]chan domain.Snapshot),
	}
}

// Restore loads the persisted session from device storage. Any failure is
// treated as no session. It runs once; later calls return immediately.
func (s *Store) Restore(ctx context.Context) {
	s.restoreOnce.Do(func() {
		s.writeMu.Lock()
		sess := s.load(ctx)

		s.mu.Lock()
		s.state = domain.Snapshot{Session: sess}
		snap := s.copyLocked()
		s.mu.Unlock()
		s.writeMu.Unlock()

		close(s.restored)
		s.publish(snap)

		s.logger.InfoContext(ctx, "Session restored", "authenticated", snap.IsAuthenticated(), "role", snap.Role().String())
	})
}

func (s *Store) load(ctx context.Context) domain.Session {
	token, ok, err := s.storage.GetItem(ctx, store.KeyToken)
	if err != nil {
		s.logger.WarnContext(ctx, "Reading persisted token failed", "error", err)
		return domain.Session{}
	}
	rawUser, userOK, err := s.storage.GetItem(ctx, store.KeyUser)
	if err != nil {
		s.logger.WarnContext(ctx, "Reading persisted user failed", "error", err)
		return domain.Session{}
	}
	if !ok && !userOK {
		return domain.Session{}
	}

	sess, err := decode(token, rawUser)
	if err == nil && tokenExpired(token, s.now()) {
		err = errTokenExpired
	}
	if err != nil {
		s.logger.DebugContext(ctx, "Discarding persisted session", "error", err)
		s.forget(ctx)
		return domain.Session{}
	}
	return sess
}

var errTokenExpired = errors.New("token expired")

func decode(token, rawUser string) (domain.Session, error) {
	if token == "" {
		return domain.Session{}, errors.New("no token")
	}
	if rawUser == "" {
		return domain.Session{}, errors.New("token without user")
	}

	var u domain.User
	if err := json.Unmarshal([]byte(rawUser), &u); err != nil {
		return domain.Session{}, fmt.Errorf("decode user: %w", err)
	}
	if u.ID == "" {
		return domain.Session{}, errors.New("user without id")
	}
	return domain.Session{Token: token, User: &u}, nil
}

// forget removes leftovers of a half-written or stale session.
func (s *Store) forget(ctx context.Context) {
	if err := s.storage.RemoveItems(ctx, store.KeyToken, store.KeyUser); err != nil {
		s.logger.WarnContext(ctx, "Removing stale session failed", "error", err)
	}
}

// Restored returns a channel that is closed once Restore has finished.
func (s *Store) Restored() <-chan struct{} {
	return s.restored
}

// SetSession persists token and user together, then makes them current.
func (s *Store) SetSession(ctx context.Context, token string, user domain.User) error {
	if token == "" || user.ID == "" {
		return ErrIncompleteSession
	}

	raw, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user: %w", err)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	err = s.storage.SetItems(ctx, map[string]string{
		store.KeyToken: token,
		store.KeyUser:  string(raw),
	})
	if err != nil {
		return fmt.Errorf("persist session: %w", err)
	}

	s.mu.Lock()
	s.state.Token = token
	s.state.User = &user
	snap := s.copyLocked()
	s.mu.Unlock()

	s.publish(snap)
	return nil
}

// Clear empties the session. The in-memory state is always reset; a storage
// error is returned for the caller to log.
func (s *Store) Clear(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	s.state.Session = domain.Session{}
	snap := s.copyLocked()
	s.mu.Unlock()

	s.publish(snap)

	if err := s.storage.RemoveItems(ctx, store.KeyToken, store.KeyUser); err != nil {
		return fmt.Errorf("remove persisted session: %w", err)
	}
	return nil
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() domain.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLocked()
}

// Token returns the current credential or "" when logged out.
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Token
}

func (s *Store) copyLocked() domain.Snapshot {
	snap := s.state
	if snap.User != nil {
		u := *snap.User
		snap.User = &u
	}
	return snap
}

// Subscribe returns a channel that receives the latest snapshot after every
// change, and a func that ends the subscription. Slow readers only see the
// most recent state.
func (s *Store) Subscribe() (<-chan domain.Snapshot, func()) {
	ch := make(chan domain.Snapshot, 1)

	s.subsMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subsMu.Lock()
			delete(s.subs, id)
			s.subsMu.Unlock()
			close(ch)
		})
	}
}

func (s *Store) publish(snap domain.Snapshot) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()

	for _, ch := range s.subs {
		// Drop the stale value, if any, so the newest one fits.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}
