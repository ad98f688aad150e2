package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/photoorder/server/internal/models"
	"github.com/photoorder/server/internal/observability"
	"github.com/photoorder/server/internal/services"
)

// OrderHandler handles the photo-order store API
type OrderHandler struct {
	orderService *services.OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService *services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// Get returns saved photo orders
// @Summary Get photo orders
// @Description Returns all saved orders when property=_all, or one property's order and version
// @Tags photo-order
// @Produce json
// @Param property query string true "Property key, or _all"
// @Success 200 {object} models.OrdersResponse
// @Failure 400 {object} models.ErrorResponse
// @Router /api/photo-order [get]
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	property := r.URL.Query().Get("property")
	if property == "" {
		writeError(w, http.StatusBadRequest, "Missing property param")
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if property == "_all" {
		all, err := h.orderService.GetAll(r.Context())
		if err != nil {
			// Degrade to empty orders so display surfaces fall back to
			// catalog image sequences instead of erroring.
			observability.GetLogger().WithContext(r.Context()).Errorf("Fetching all orders: %v", err)
			json.NewEncoder(w).Encode(models.OrdersResponse{
				Orders:   map[string][]models.ImageItem{},
				Versions: map[string]int{},
			})
			return
		}

		response := models.OrdersResponse{
			Orders:   make(map[string][]models.ImageItem, len(all)),
			Versions: make(map[string]int, len(all)),
		}
		for key, order := range all {
			response.Orders[key] = order.Images
			response.Versions[key] = order.Version
		}
		json.NewEncoder(w).Encode(response)
		return
	}

	order, err := h.orderService.Get(r.Context(), property)
	if errors.Is(err, models.ErrOrderNotFound) {
		json.NewEncoder(w).Encode(models.OrderResponse{Images: nil, Version: 0})
		return
	}
	if err != nil {
		observability.GetLogger().WithContext(r.Context()).Errorf("Fetching order for %s: %v", property, err)
		json.NewEncoder(w).Encode(models.OrderResponse{Images: nil, Version: 0})
		return
	}

	json.NewEncoder(w).Encode(models.OrderResponse{Images: order.Images, Version: order.Version})
}

// Save commits a photo order with optimistic concurrency
// @Summary Save a photo order
// @Description Writes a property's order; rejects stale versions with 409
// @Tags photo-order
// @Accept json
// @Produce json
// @Param request body models.SaveOrderRequest true "Order to save"
// @Success 200 {object} models.SaveOrderResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Security AdminKey
// @Router /api/photo-order [post]
func (h *OrderHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req models.SaveOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Property == "" || req.Images == nil {
		writeError(w, http.StatusBadRequest, "Missing property or images")
		return
	}
	// Keys must arrive normalized; normalize again so a raw display name
	// from a stray caller cannot fork the store.
	propertyKey := models.PropertyKey(req.Property)

	if req.Version == nil {
		if err := h.orderService.SaveUnversioned(r.Context(), propertyKey, req.Images); err != nil {
			writeError(w, http.StatusServiceUnavailable, "Store unavailable")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(models.SaveOrderResponse{OK: true})
		return
	}

	newVersion, err := h.orderService.Save(r.Context(), propertyKey, req.Images, *req.Version)
	if errors.Is(err, models.ErrVersionConflict) {
		writeError(w, http.StatusConflict, "Conflict - someone else updated this order. Please reload.")
		return
	}
	if err != nil {
		var orderErr models.OrderError
		if errors.As(err, &orderErr) {
			writeError(w, http.StatusBadRequest, orderErr.Message)
			return
		}
		observability.GetLogger().WithContext(r.Context()).Errorf("Saving order for %s: %v", propertyKey, err)
		writeError(w, http.StatusServiceUnavailable, "Store unavailable")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(models.SaveOrderResponse{OK: true, Version: newVersion})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(models.ErrorResponse{Error: msg})
}
