// Package shared provides common utilities used across the codebase.
//
//nolint:revive // "shared" is an intentional package name for cross-cutting helpers.
package shared

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// Local storage busy-retry parameters.
const (
	conflictMaxRetries = 3
	conflictBaseDelay  = 50 * time.Millisecond
)

// IsSQLiteConflictError reports whether err is a SQLITE_BUSY or "database is
// locked" error. Both are transient when two connections race on the file.
func IsSQLiteConflictError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// RetryOnConflict runs fn and retries it with exponential backoff while it
// fails with a SQLite conflict error. Other errors are returned at once.
func RetryOnConflict(ctx context.Context, op string, fn func() error) error {
	var err error
	for i := 0; i < conflictMaxRetries; i++ {
		err = fn()
		if err == nil || !IsSQLiteConflictError(err) {
			return err
		}
		if i == conflictMaxRetries-1 {
			break
		}

		delay := conflictBaseDelay * time.Duration(1<<i)
		slog.DebugContext(ctx, "Local storage locked, retrying", "op", op, "attempt", i+1, "delay", delay)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return err
}
