package persist

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore is the reference Store implementation: a single WAL-mode
// sqlite file holding one row per (kind, key) pair. Production
// deployments are expected to swap in a real document store behind the
// same Store interface; this one exists so the server runs standalone.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (creating if necessary) a WAL-mode sqlite
// database at path and ensures the blob table exists.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("persist: create data dir: %w", err)
		}
	}

	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("persist: open sqlite: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("persist: enable WAL: %w", err)
	}

	const schema = `
	CREATE TABLE IF NOT EXISTS entity_blobs (
		kind TEXT NOT NULL,
		key TEXT NOT NULL,
		blob BLOB NOT NULL,
		updated_at INTEGER NOT NULL DEFAULT (strftime('%s','now')),
		PRIMARY KEY (kind, key)
	);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("persist: create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Put upserts a blob for (kind, key).
func (s *SQLiteStore) Put(ctx context.Context, kind, key string, blob []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO entity_blobs (kind, key, blob, updated_at)
		VALUES (?, ?, ?, strftime('%s','now'))
		ON CONFLICT(kind, key) DO UPDATE SET blob = excluded.blob, updated_at = excluded.updated_at`,
		kind, key, blob)
	if err != nil {
		return fmt.Errorf("persist: put %s/%s: %w", kind, key, err)
	}
	return nil
}

// Get reads back a blob for (kind, key), returning an error that wraps
// sql.ErrNoRows if absent.
func (s *SQLiteStore) Get(ctx context.Context, kind, key string) ([]byte, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, `SELECT blob FROM entity_blobs WHERE kind = ? AND key = ?`, kind, key).Scan(&blob)
	if err != nil {
		return nil, fmt.Errorf("persist: get %s/%s: %w", kind, key, err)
	}
	return blob, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
