// Package database is the local cache: fetched article bodies and a
// history of generation runs. Losing it is harmless; everything in it
// can be refetched or regenerated.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	conn *sql.DB
	path string
}

// Open creates or opens a SQLite database at the given path.
func Open(dbPath string) (*DB, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("setting journal mode: %w", err)
	}

	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return &DB{conn: conn, path: dbPath}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}

func migrate(conn *sql.DB) error {
	var version int
	if err := conn.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	if version >= 1 {
		return nil
	}

	schema := `
CREATE TABLE IF NOT EXISTS article_content (
	url        TEXT PRIMARY KEY,
	content    TEXT NOT NULL,
	fetched_at TEXT NOT NULL DEFAULT (datetime('now'))
);
CREATE TABLE IF NOT EXISTS runs (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	date          TEXT NOT NULL,
	market        TEXT NOT NULL,
	signal_count  INTEGER NOT NULL,
	article_count INTEGER NOT NULL,
	generated_at  TEXT NOT NULL DEFAULT (datetime('now'))
);`
	if _, err := conn.Exec(schema); err != nil {
		return fmt.Errorf("creating tables: %w", err)
	}
	if _, err := conn.Exec("PRAGMA user_version = 1"); err != nil {
		return fmt.Errorf("setting schema version: %w", err)
	}
	return nil
}
