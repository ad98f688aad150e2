package repository

import (
	"database/sql"

	_ "github.com/lib/pq"
)

// NewPostgresDB creates and initializes a PostgreSQL database connection
func NewPostgresDB(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	if err := createPostgresTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func createPostgresTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS photo_orders (
		property_slug TEXT PRIMARY KEY,
		order_data TEXT NOT NULL,
		version INTEGER NOT NULL DEFAULT 1,
		updated_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS trash_items (
		id TEXT PRIMARY KEY,
		property_slug TEXT NOT NULL,
		src TEXT NOT NULL,
		deleted_at TIMESTAMP NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_trash_deleted_at ON trash_items(deleted_at);
	CREATE INDEX IF NOT EXISTS idx_trash_property ON trash_items(property_slug);
	`

	_, err := db.Exec(schema)
	return err
}
