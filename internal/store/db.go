// internal/store/db.go
//
// SQLite persistence for the todos API.
// Responsibilities:
//   - Opening the database with safe defaults (WAL, busy timeout, foreign keys).
//   - Applying the schema (idempotent CREATE TABLE IF NOT EXISTS).
//
// Note: This file assumes SQLite but can be adapted for other backends.

package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// Open opens (and creates if missing) a SQLite database.
//
// - Ensures parent directory exists for relative DSNs (e.g. ./data/todos.db).
// - Configures busy timeout and WAL journaling mode.
// - Enforces foreign keys.
func Open(dsn string) (*sql.DB, error) {
	// Ensure directory exists for ./data/todos.db, etc.
	if !strings.HasPrefix(dsn, "file:") && dsn != ":memory:" {
		dir := filepath.Dir(dsn)
		if dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("mkdir %s: %w", dir, err)
			}
		}
	}

	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	db, err := sql.Open("sqlite3", dsn+sep+"_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}

	// Explicitly enforce foreign keys.
	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	return db, nil
}

// Migrate applies the schema. Safe to call on every start.
func Migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			created_at    TEXT NOT NULL DEFAULT (datetime('now'))
		);`,
		`CREATE TABLE IF NOT EXISTS todos (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			todo      TEXT NOT NULL,
			completed BOOLEAN NOT NULL DEFAULT 0,
			owner_id  INTEGER NOT NULL REFERENCES users(id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_todos_owner ON todos(owner_id);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
