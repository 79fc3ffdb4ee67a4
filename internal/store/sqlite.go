package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Goutam990/medibook-console/internal/shared"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Storage on a single SQLite table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) the SQLite-backed storage at dbPath.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}

	// modernc runs every _pragma on each new pooled connection.
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	// One device, one writer.
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping storage: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return s, nil
}

// type check
var _ Storage = (*SQLiteStore)(nil)

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS local_storage (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetItem implements the Storage interface for *SQLiteStore.
func (s *SQLiteStore) GetItem(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM local_storage WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get item %q: %w", key, err)
	}
	return value, true, nil
}

// SetItems implements the Storage interface for *SQLiteStore.
func (s *SQLiteStore) SetItems(ctx context.Context, items map[string]string) error {
	if len(items) == 0 {
		return nil
	}

	return shared.RetryOnConflict(ctx, "set items", func() error {
		return s.inTx(ctx, func(tx *sql.Tx) error {
			now := time.Now().Unix()
			for k, v := range items {
				_, err := tx.ExecContext(ctx, `
					INSERT INTO local_storage (key, value, updated_at) VALUES (?, ?, ?)
					ON CONFLICT(key) DO UPDATE SET
						value = excluded.value,
						updated_at = excluded.updated_at`,
					k, v, now,
				)
				if err != nil {
					return fmt.Errorf("set item %q: %w", k, err)
				}
			}
			return nil
		})
	})
}

// RemoveItems implements the Storage interface for *SQLiteStore.
func (s *SQLiteStore) RemoveItems(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	return shared.RetryOnConflict(ctx, "remove items", func() error {
		return s.inTx(ctx, func(tx *sql.Tx) error {
			for _, k := range keys {
				if _, err := tx.ExecContext(ctx, `DELETE FROM local_storage WHERE key = ?`, k); err != nil {
					return fmt.Errorf("remove item %q: %w", k, err)
				}
			}
			return nil
		})
	})
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, tx.Rollback())
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close storage: %w", err)
	}
	return nil
}
