package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// MemoryPath opens a private in-memory SQLite database.
const MemoryPath = ":memory:"

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS snapshots (
		run_id       TEXT PRIMARY KEY,
		mode         TEXT NOT NULL,
		record_count INTEGER NOT NULL,
		sources      TEXT NOT NULL,
		generated_at TEXT NOT NULL,
		published_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS schools (
		urn           TEXT PRIMARY KEY,
		id            INTEGER NOT NULL,
		run_id        TEXT NOT NULL REFERENCES snapshots(run_id) ON DELETE CASCADE,
		name          TEXT NOT NULL,
		borough       TEXT NOT NULL,
		phase         TEXT NOT NULL,
		sector        TEXT NOT NULL,
		ofsted_rating TEXT NOT NULL,
		pupils        INTEGER NOT NULL,
		payload       TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_schools_borough ON schools (borough COLLATE NOCASE);
	CREATE INDEX IF NOT EXISTS idx_schools_phase ON schools (phase);
	CREATE INDEX IF NOT EXISTS idx_schools_name ON schools (name, urn);
`

// SQLite wraps a database/sql handle on a go-sqlite3 database.
type SQLite struct {
	DB *sql.DB
}

// NewSQLite opens the database at path, creating its directory and the
// snapshot schema when missing. Use MemoryPath for a throwaway database.
func NewSQLite(path string) (*SQLite, error) {
	if path != MemoryPath {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every connection to :memory: is a separate database, and SQLite
	// allows a single writer anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLite{DB: db}, nil
}

// Ping checks if the database is reachable.
func (s *SQLite) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

// Close closes the database handle.
func (s *SQLite) Close() error {
	return s.DB.Close()
}
