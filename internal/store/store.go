// Package store persists service descriptors and search history in SQLite.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned when no row matches
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a service name is already taken
	ErrDuplicate = errors.New("already exists")
)

// DB is an open nori database
type DB struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the database at path. The parent directory is
// created if needed. ":memory:" opens a private in-memory database.
func Open(path string) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// a single connection keeps :memory: databases alive and serializes writers
	db.SetMaxOpenConns(1)

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &DB{db: db, now: time.Now}, nil
}

// Close closes the database
func (d *DB) Close() error {
	return d.db.Close()
}

// Services returns the service descriptor table
func (d *DB) Services() *ServiceStore {
	return &ServiceStore{db: d.db, now: d.now}
}

// History returns the search history table
func (d *DB) History() *History {
	return &History{db: d.db, now: d.now, limit: defaultHistoryLimit}
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS services (
			id text PRIMARY KEY,
			name text NOT NULL UNIQUE COLLATE NOCASE,
			api_type text NOT NULL,
			endpoint text NOT NULL,
			settings blob NOT NULL,
			created integer NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS search_history (
			query text PRIMARY KEY,
			seq integer NOT NULL,
			searched integer NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS ix_search_history_seq ON search_history (seq)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

func isConstraint(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint
}
