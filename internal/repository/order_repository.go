package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/photoorder/server/internal/models"
	"github.com/photoorder/server/internal/observability"
)

// OrderRepository implements OrderRepo for PostgreSQL/SQLite
type OrderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new OrderRepository
func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Get retrieves the saved order and version for one property key.
// Returns models.ErrOrderNotFound when the property has never been saved.
func (r *OrderRepository) Get(ctx context.Context, propertyKey string) (*models.VersionedOrder, error) {
	query := `SELECT order_data, version FROM photo_orders WHERE property_slug = $1`

	var data string
	var version int
	err := r.db.QueryRowContext(ctx, query, propertyKey).Scan(&data, &version)
	if err == sql.ErrNoRows {
		return nil, models.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	var images []models.ImageItem
	if err := json.Unmarshal([]byte(data), &images); err != nil {
		return nil, err
	}

	return &models.VersionedOrder{Images: images, Version: version}, nil
}

// GetAll retrieves every property's saved order in one query. Rows whose
// order_data no longer parses are skipped rather than failing the fetch.
func (r *OrderRepository) GetAll(ctx context.Context) (map[string]models.VersionedOrder, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT property_slug, order_data, version FROM photo_orders`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	log := observability.GetLogger().WithContext(ctx)
	orders := make(map[string]models.VersionedOrder)
	for rows.Next() {
		var slug, data string
		var version int
		if err := rows.Scan(&slug, &data, &version); err != nil {
			return nil, err
		}

		var images []models.ImageItem
		if err := json.Unmarshal([]byte(data), &images); err != nil {
			log.Warnf("Skipping malformed order row for %s: %v", slug, err)
			continue
		}
		orders[slug] = models.VersionedOrder{Images: images, Version: version}
	}
	return orders, rows.Err()
}

// Save writes an order with compare-and-swap semantics. The write is
// accepted only when expectedVersion matches the stored version (0 means
// "no saved order yet"); otherwise the store is left untouched and
// models.ErrVersionConflict is returned.
func (r *OrderRepository) Save(ctx context.Context, propertyKey string, images []models.ImageItem, expectedVersion int) (int, error) {
	if propertyKey == "" {
		return 0, models.ErrEmptyProperty
	}
	if err := models.ValidateOrder(images); err != nil {
		return 0, err
	}

	data, err := json.Marshal(images)
	if err != nil {
		return 0, err
	}

	res, err := r.db.ExecContext(ctx,
		`UPDATE photo_orders SET order_data = $1, version = version + 1, updated_at = $2
		 WHERE property_slug = $3 AND version = $4`,
		string(data), time.Now().UTC(), propertyKey, expectedVersion)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected == 1 {
		return expectedVersion + 1, nil
	}

	if expectedVersion != 0 {
		// Row is either missing or has moved past the caller's version.
		return 0, models.ErrVersionConflict
	}

	// First save for this property. A concurrent first save surfaces as a
	// primary-key conflict, which is a version conflict for the loser.
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO photo_orders (property_slug, order_data, version, updated_at)
		 VALUES ($1, $2, 1, $3)`,
		propertyKey, string(data), time.Now().UTC())
	if err != nil {
		return 0, models.ErrVersionConflict
	}
	return 1, nil
}

// Upsert writes an order unconditionally, bumping the version. Kept for
// callers that have never fetched a version.
func (r *OrderRepository) Upsert(ctx context.Context, propertyKey string, images []models.ImageItem) error {
	if propertyKey == "" {
		return models.ErrEmptyProperty
	}
	if err := models.ValidateOrder(images); err != nil {
		return err
	}

	data, err := json.Marshal(images)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO photo_orders (property_slug, order_data, version, updated_at)
		 VALUES ($1, $2, 1, $3)
		 ON CONFLICT (property_slug) DO UPDATE
		 SET order_data = excluded.order_data,
		     version = photo_orders.version + 1,
		     updated_at = excluded.updated_at`,
		propertyKey, string(data), time.Now().UTC())
	return err
}
