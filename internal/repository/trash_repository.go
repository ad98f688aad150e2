package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/photoorder/server/internal/models"
)

// TrashRepository implements TrashRepo for PostgreSQL/SQLite
type TrashRepository struct {
	db *sql.DB
}

// NewTrashRepository creates a new TrashRepository
func NewTrashRepository(db *sql.DB) *TrashRepository {
	return &TrashRepository{db: db}
}

func (r *TrashRepository) Add(ctx context.Context, item *models.TrashItem) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO trash_items (id, property_slug, src, deleted_at) VALUES ($1, $2, $3, $4)`,
		item.ID, item.PropertySlug, item.Src, item.DeletedAt)
	return err
}

func (r *TrashRepository) List(ctx context.Context) ([]*models.TrashItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, property_slug, src, deleted_at FROM trash_items ORDER BY deleted_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTrashItems(rows)
}

func (r *TrashRepository) GetByID(ctx context.Context, id string) (*models.TrashItem, error) {
	var item models.TrashItem
	err := r.db.QueryRowContext(ctx,
		`SELECT id, property_slug, src, deleted_at FROM trash_items WHERE id = $1`, id).
		Scan(&item.ID, &item.PropertySlug, &item.Src, &item.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *TrashRepository) Remove(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM trash_items WHERE id = $1`, id)
	return err
}

func (r *TrashRepository) ListExpired(ctx context.Context, olderThan time.Time) ([]*models.TrashItem, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, property_slug, src, deleted_at FROM trash_items WHERE deleted_at < $1`, olderThan)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanTrashItems(rows)
}

func scanTrashItems(rows *sql.Rows) ([]*models.TrashItem, error) {
	var items []*models.TrashItem
	for rows.Next() {
		var item models.TrashItem
		if err := rows.Scan(&item.ID, &item.PropertySlug, &item.Src, &item.DeletedAt); err != nil {
			return nil, err
		}
		items = append(items, &item)
	}
	return items, rows.Err()
}
