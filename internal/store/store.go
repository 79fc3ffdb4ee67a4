// Package store provides device-local key/value storage for console state.
package store

import (
	"context"
	"errors"
)

// Keys used for the persisted session. They are written together and
// cleared together.
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// ErrClosed is returned by operations on a closed storage.
var ErrClosed = errors.New("storage closed")

// Storage is the device-local storage the session store persists to. All
// methods must be safe for concurrent use.
type Storage interface {
	// GetItem returns the value stored under key. ok is false when the key is
	// absent.
	GetItem(ctx context.Context, key string) (value string, ok bool, err error)

	// SetItems stores all items atomically.
	SetItems(ctx context.Context, items map[string]string) error

	// RemoveItems deletes all keys atomically. Absent keys are ignored.
	RemoveItems(ctx context.Context, keys ...string) error

	// Ping verifies the storage is reachable.
	Ping(ctx context.Context) error

	// Close releases storage resources.
	Close() error
}
