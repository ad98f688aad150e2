package services

import (
	"context"
	"time"

	"github.com/photoorder/server/internal/models"
	"github.com/photoorder/server/internal/observability"
	"github.com/photoorder/server/internal/repository"
)

// TrashService implements recoverable deletes: the photo file moves into
// the storage trash area and a row records it for the admin trash view.
// Callers treat deletion as best effort; a storage failure still records
// the trash row so the photo can be found later.
type TrashService struct {
	trashRepo repository.TrashRepo
	storage   *MediaStorageService
	catalog   *CatalogService
	retention time.Duration
}

// NewTrashService creates a new TrashService
func NewTrashService(trashRepo repository.TrashRepo, storage *MediaStorageService, catalog *CatalogService, retentionDays int) *TrashService {
	if retentionDays <= 0 {
		retentionDays = 7
	}
	return &TrashService{
		trashRepo: trashRepo,
		storage:   storage,
		catalog:   catalog,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
	}
}

// Add moves one image into the trash
func (t *TrashService) Add(ctx context.Context, propertyKey, src string) (*models.TrashItem, error) {
	ctx, span := observability.StartServiceSpan(ctx, "trash", "add")
	defer span.End()

	item, err := models.NewTrashItem(propertyKey, src)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	if err := t.trashRepo.Add(ctx, item); err != nil {
		observability.RecordError(span, err)
		return nil, err
	}

	if err := t.storage.MoveToTrash(propertyKey, src); err != nil {
		// Row is kept; the file stays where it was and restore is a no-op
		observability.GetLogger().WithContext(ctx).Warnf("Moving %s to trash area: %v", src, err)
	}

	t.catalog.RemoveImage(propertyKey, src)

	observability.SetSuccess(span)
	return item, nil
}

// List returns all trash items, newest first
func (t *TrashService) List(ctx context.Context) ([]*models.TrashItem, error) {
	return t.trashRepo.List(ctx)
}

// Restore moves a trash item back into its property
func (t *TrashService) Restore(ctx context.Context, id string) error {
	ctx, span := observability.StartServiceSpan(ctx, "trash", "restore")
	defer span.End()

	item, err := t.trashRepo.GetByID(ctx, id)
	if err != nil {
		observability.RecordError(span, err)
		return err
	}
	if item == nil {
		return models.ErrTrashNotFound
	}

	if err := t.storage.RestoreFromTrash(item.PropertySlug, item.Src); err != nil {
		observability.GetLogger().WithContext(ctx).Warnf("Restoring %s from trash area: %v", item.Src, err)
	}

	if err := t.trashRepo.Remove(ctx, id); err != nil {
		observability.RecordError(span, err)
		return err
	}

	t.catalog.AddImage(item.PropertySlug, item.Src)

	observability.SetSuccess(span)
	return nil
}

// Purge permanently removes one trash item
func (t *TrashService) Purge(ctx context.Context, id string) error {
	item, err := t.trashRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if item == nil {
		return models.ErrTrashNotFound
	}

	if err := t.storage.DeleteFromTrash(item.PropertySlug, item.Src); err != nil {
		observability.GetLogger().WithContext(ctx).Warnf("Deleting %s from trash area: %v", item.Src, err)
	}
	return t.trashRepo.Remove(ctx, id)
}

// PurgeExpired sweeps everything older than the retention window and
// returns how many items were removed.
func (t *TrashService) PurgeExpired(ctx context.Context) (int, error) {
	ctx, span := observability.StartServiceSpan(ctx, "trash", "purge_expired")
	defer span.End()

	cutoff := time.Now().UTC().Add(-t.retention)
	expired, err := t.trashRepo.ListExpired(ctx, cutoff)
	if err != nil {
		observability.RecordError(span, err)
		return 0, err
	}

	purged := 0
	for _, item := range expired {
		if err := t.Purge(ctx, item.ID); err != nil {
			observability.GetLogger().WithContext(ctx).Warnf("Purging trash item %s: %v", item.ID, err)
			continue
		}
		purged++
	}

	observability.SetSuccess(span)
	return purged, nil
}
