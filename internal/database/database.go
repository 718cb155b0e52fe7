package database

import (
	"database/sql"
	"fmt"
	"log"

	_ "modernc.org/sqlite"
)

// DB wraps the SQL database connection
type DB struct {
	*sql.DB
}

// New opens (or creates) the SQLite database at the given path
func New(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer at a time; keep the pool small and let
	// busy_timeout absorb short write contention instead of failing requests.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000; PRAGMA foreign_keys=ON;"); err != nil {
		return nil, fmt.Errorf("failed to configure database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("✅ SQLite database opened at %s", path)

	return &DB{db}, nil
}

// Initialize creates all required tables
func (db *DB) Initialize() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS users (
			user_id       TEXT PRIMARY KEY,
			username      TEXT NOT NULL,
			gender        TEXT NOT NULL,
			email         TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			phone         TEXT NOT NULL,
			age           TEXT NOT NULL,
			location      TEXT NOT NULL,
			profile_image TEXT NOT NULL DEFAULT '',
			created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS schedules (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id       TEXT NOT NULL REFERENCES users(user_id),
			title         TEXT NOT NULL DEFAULT '',
			description   TEXT NOT NULL DEFAULT '',
			active        BOOLEAN NOT NULL DEFAULT 1,
			ends_on       TEXT NOT NULL DEFAULT '',
			calendar_data TEXT NOT NULL DEFAULT '[]',
			created_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_schedules_user ON schedules(user_id)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id        TEXT NOT NULL,
			role           TEXT NOT NULL,
			content        TEXT NOT NULL,
			created_report TEXT NOT NULL DEFAULT '',
			uploaded_file  TEXT NOT NULL DEFAULT '',
			created_at     TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_user ON messages(user_id)`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	log.Println("✅ Database initialized successfully")
	return nil
}
