package repository

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

// NewSQLiteDB creates and initializes a SQLite database
func NewSQLiteDB(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, err
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func createTables(db *sql.DB) error {
	schema := `
	-- Saved photo orders, one row per property key. version increments by
	-- exactly one on every accepted write.
	CREATE TABLE IF NOT EXISTS photo_orders (
		property_slug TEXT PRIMARY KEY,
		order_data TEXT NOT NULL,
		version INTEGER NOT NULL DEFAULT 1,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	-- Soft-deleted photos awaiting restore or purge
	CREATE TABLE IF NOT EXISTS trash_items (
		id TEXT PRIMARY KEY,
		property_slug TEXT NOT NULL,
		src TEXT NOT NULL,
		deleted_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_trash_deleted_at ON trash_items(deleted_at);
	CREATE INDEX IF NOT EXISTS idx_trash_property ON trash_items(property_slug);
	`

	_, err := db.Exec(schema)
	return err
}
