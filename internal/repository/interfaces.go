package repository

import (
	"context"
	"time"

	"github.com/photoorder/server/internal/models"
)

// OrderRepo is the persistent photo-order store. Save enforces optimistic
// concurrency per property key: a write is accepted only when the caller's
// expected version matches the stored one.
type OrderRepo interface {
	Get(ctx context.Context, propertyKey string) (*models.VersionedOrder, error)
	GetAll(ctx context.Context) (map[string]models.VersionedOrder, error)
	// Save returns the new version on success and
	// models.ErrVersionConflict when the expected version is stale.
	Save(ctx context.Context, propertyKey string, images []models.ImageItem, expectedVersion int) (int, error)
	// Upsert writes unconditionally, bumping the version. Legacy path for
	// callers that do not track versions.
	Upsert(ctx context.Context, propertyKey string, images []models.ImageItem) error
}

// TrashRepo stores soft-deleted photos until restore or purge.
type TrashRepo interface {
	Add(ctx context.Context, item *models.TrashItem) error
	List(ctx context.Context) ([]*models.TrashItem, error)
	GetByID(ctx context.Context, id string) (*models.TrashItem, error)
	Remove(ctx context.Context, id string) error
	ListExpired(ctx context.Context, olderThan time.Time) ([]*models.TrashItem, error)
}
