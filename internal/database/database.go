// Package database is the sqlite persistence layer: class catalog, resource
// inventory, reservations and user accounts.
package database

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps sql.DB for the reservation service.
type DB struct {
	*sql.DB
}

// NewDB opens the database at path and runs migrations.
func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := createTables(db); err != nil {
		return nil, err
	}
	return &DB{db}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		// Users (admin seeding only; everything else lives upstream)
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'user',
			created_at TEXT NOT NULL
		)`,

		// Classes: weekly teaching sessions
		`CREATE TABLE IF NOT EXISTS classes (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			year INTEGER NOT NULL,
			term TEXT NOT NULL,
			period TEXT NOT NULL,
			room TEXT,
			weekdays TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,

		// Resources: bookable assets
		`CREATE TABLE IF NOT EXISTS resources (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			type TEXT,
			quantity INTEGER NOT NULL DEFAULT 1,
			is_active BOOLEAN NOT NULL DEFAULT 1,
			created_at TEXT NOT NULL
		)`,

		// Reservations: admitted allocations
		`CREATE TABLE IF NOT EXISTS reservations (
			id TEXT PRIMARY KEY,
			resource_id TEXT NOT NULL,
			class_id TEXT NOT NULL,
			quantity INTEGER NOT NULL,
			starts_at TEXT NOT NULL,
			created_at TEXT NOT NULL,
			FOREIGN KEY (resource_id) REFERENCES resources(id),
			FOREIGN KEY (class_id) REFERENCES classes(id)
		)`,

		// Indexes
		`CREATE INDEX IF NOT EXISTS idx_reservations_slot ON reservations(resource_id, starts_at)`,
		`CREATE INDEX IF NOT EXISTS idx_reservations_class ON reservations(class_id)`,
		`CREATE INDEX IF NOT EXISTS idx_resources_active ON resources(is_active)`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("exec migration %s: %w", trimSQL(q), err)
		}
	}
	return nil
}

func trimSQL(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}
