package services

import (
	"context"
	"errors"

	"github.com/photoorder/server/internal/models"
	"github.com/photoorder/server/internal/observability"
	"github.com/photoorder/server/internal/repository"
)

// OrderService is the write path of the save protocol: it applies the
// compare-and-swap write and, on acceptance, announces the new order on the
// sync hub. The hub publish is a hint only and can never fail the save.
type OrderService struct {
	orderRepo repository.OrderRepo
	hub       *SyncHub
	metrics   *observability.OrderMetrics
}

// NewOrderService creates a new OrderService
func NewOrderService(orderRepo repository.OrderRepo, hub *SyncHub, metrics *observability.OrderMetrics) *OrderService {
	return &OrderService{orderRepo: orderRepo, hub: hub, metrics: metrics}
}

// Get returns the saved order for one property key
func (s *OrderService) Get(ctx context.Context, propertyKey string) (*models.VersionedOrder, error) {
	ctx, span := observability.StartStoreSpan(ctx, "get", propertyKey)
	defer span.End()

	order, err := s.orderRepo.Get(ctx, propertyKey)
	if err != nil && !errors.Is(err, models.ErrOrderNotFound) {
		observability.RecordError(span, err)
		return nil, err
	}
	observability.SetSuccess(span)
	return order, err
}

// GetAll returns every property's saved order and version
func (s *OrderService) GetAll(ctx context.Context) (map[string]models.VersionedOrder, error) {
	ctx, span := observability.StartStoreSpan(ctx, "get_all", "_all")
	defer span.End()

	orders, err := s.orderRepo.GetAll(ctx)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	observability.SetSuccess(span)
	return orders, nil
}

// Save commits an order under optimistic concurrency and broadcasts the
// accepted result. Returns the new version, or models.ErrVersionConflict
// when the expected version is stale.
func (s *OrderService) Save(ctx context.Context, propertyKey string, images []models.ImageItem, expectedVersion int) (int, error) {
	ctx, span := observability.StartStoreSpan(ctx, "save", propertyKey)
	defer span.End()

	newVersion, err := s.orderRepo.Save(ctx, propertyKey, images, expectedVersion)
	if err != nil {
		observability.RecordError(span, err)
		if errors.Is(err, models.ErrVersionConflict) {
			s.metrics.RecordConflict(ctx, propertyKey)
		}
		return 0, err
	}

	s.metrics.RecordSave(ctx, propertyKey)
	observability.SetSuccess(span)

	if s.hub != nil {
		s.hub.PublishOrderUpdate(propertyKey, images, newVersion)
	}
	return newVersion, nil
}

// SaveUnversioned commits an order without a version check. Legacy path;
// bumps the version and broadcasts like Save.
func (s *OrderService) SaveUnversioned(ctx context.Context, propertyKey string, images []models.ImageItem) error {
	ctx, span := observability.StartStoreSpan(ctx, "upsert", propertyKey)
	defer span.End()

	if err := s.orderRepo.Upsert(ctx, propertyKey, images); err != nil {
		observability.RecordError(span, err)
		return err
	}

	s.metrics.RecordSave(ctx, propertyKey)
	observability.SetSuccess(span)

	if s.hub != nil {
		order, err := s.orderRepo.Get(ctx, propertyKey)
		if err == nil {
			s.hub.PublishOrderUpdate(propertyKey, order.Images, order.Version)
		}
	}
	return nil
}
