package services

import (
	"path/filepath"
	"testing"

	"healthmate/internal/database"
)

// newTestDB creates an isolated SQLite database for one test
func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.Initialize(); err != nil {
		t.Fatalf("failed to initialize test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

// seedUser inserts a bare user row so rows referencing it satisfy the
// foreign key
func seedUser(t *testing.T, db *database.DB, userID string) {
	t.Helper()

	_, err := db.Exec(
		`INSERT INTO users (user_id, username, gender, email, password_hash, phone, age, location)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		userID, "user-"+userID, "female", userID+"@example.com", "unused-hash",
		"0999000000", "30", "Lilongwe")
	if err != nil {
		t.Fatalf("failed to seed user %s: %v", userID, err)
	}
}
