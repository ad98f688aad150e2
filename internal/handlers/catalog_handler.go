package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/photoorder/server/internal/models"
	"github.com/photoorder/server/internal/services"
)

// CatalogHandler serves the property catalog
type CatalogHandler struct {
	catalog *services.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalog *services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// List returns all catalog properties with their ground-truth image sets
// @Summary List properties
// @Tags properties
// @Produce json
// @Success 200 {object} models.PropertiesResponse
// @Router /api/properties [get]
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(models.PropertiesResponse{Properties: h.catalog.GetAll()})
}
