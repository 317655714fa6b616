//go:build integration

package data

import (
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// setupStoreTest creates a new in-memory SQLite database with the content
// store schema and returns a teardown function to be deferred.
func setupStoreTest(t *testing.T) (*sqlx.DB, func()) {
	t.Helper()

	// Use a non-shared in-memory database for complete test isolation.
	db, err := sqlx.Connect("sqlite3", "file::memory:")
	if err != nil {
		t.Fatalf("Failed to connect to sqlite test database: %v", err)
	}
	// A single connection keeps the in-memory database alive and serializes
	// statements the way the production pool's transactions would.
	db.SetMaxOpenConns(1)

	schema := `
	CREATE TABLE pages (
		id TEXT PRIMARY KEY,
		slug TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		published_version_id TEXT,
		created_at DATETIME NOT NULL
	);
	CREATE TABLE versions (
		id TEXT PRIMARY KEY,
		page_id TEXT NOT NULL,
		version_number INTEGER NOT NULL,
		document BLOB NOT NULL,
		status TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		UNIQUE (page_id, version_number)
	);
	CREATE TABLE preview_tokens (
		token TEXT PRIMARY KEY,
		version_id TEXT NOT NULL,
		expires_at DATETIME,
		created_at DATETIME NOT NULL
	);`
	db.MustExec(schema)

	teardown := func() {
		db.Close()
	}

	return db, teardown
}
