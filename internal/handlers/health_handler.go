package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/photoorder/server/internal/models"
	"github.com/photoorder/server/internal/services"
)

// DBPinger reports whether the order database answers
type DBPinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler reports whether the order store and catalog are usable
type HealthHandler struct {
	db      DBPinger
	catalog *services.CatalogService
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db DBPinger, catalog *services.CatalogService) *HealthHandler {
	return &HealthHandler{db: db, catalog: catalog}
}

// HealthCheck returns the server health status
// @Summary Health check
// @Description Reports order store reachability and catalog load state
// @Tags health
// @Produce json
// @Success 200 {object} models.HealthResponse "Store and catalog are usable"
// @Failure 503 {object} models.HealthResponse "Order store is unreachable"
// @Router /api/health [get]
func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := models.HealthResponse{
		Status:    "healthy",
		Store:     "ok",
		Timestamp: time.Now().UTC(),
	}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			response.Status = "degraded"
			response.Store = "unreachable"
		}
	}
	if h.catalog != nil {
		response.Properties = len(h.catalog.GetAll())
	}

	w.Header().Set("Content-Type", "application/json")
	if response.Status != "healthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(response)
}
