package sqlite

import (
	"database/sql"
	"fmt"

	// Import the SQLite driver.
	_ "github.com/mattn/go-sqlite3"
)

// DefaultPath is used when no database path is configured.
const DefaultPath = "lineexpander.db"

// InitDB opens the SQLite database at path and creates the documents table if it doesn't exist.
func InitDB(path string) (*sql.DB, error) {
	if path == "" {
		path = DefaultPath
	}

	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		original_name TEXT NOT NULL,
		stored_name TEXT NOT NULL UNIQUE,
		expanded_name TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'received',
		bullet_text TEXT NOT NULL DEFAULT '',
		expanded_text TEXT NOT NULL DEFAULT '',
		error TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		expired INTEGER NOT NULL DEFAULT 0
	)`)
	if err != nil {
		db.Close()

		return nil, fmt.Errorf("failed to create documents table: %w", err)
	}

	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS documents_created_at ON documents (expired, created_at)`); err != nil {
		db.Close()

		return nil, fmt.Errorf("failed to create documents index: %w", err)
	}

	return db, nil
}
