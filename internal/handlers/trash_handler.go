package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/photoorder/server/internal/models"
	"github.com/photoorder/server/internal/observability"
	"github.com/photoorder/server/internal/services"
)

// TrashHandler handles recoverable photo deletion
type TrashHandler struct {
	trashService *services.TrashService
}

// NewTrashHandler creates a new TrashHandler
func NewTrashHandler(trashService *services.TrashService) *TrashHandler {
	return &TrashHandler{trashService: trashService}
}

// Delete moves one image into the trash
// @Summary Delete a photo
// @Description Moves the image into the trash area; it stays recoverable for the retention window
// @Tags admin,trash
// @Accept json
// @Produce json
// @Param request body models.DeleteRequest true "Image to delete"
// @Success 200 {object} models.TrashListResponse
// @Failure 400 {object} models.ErrorResponse
// @Security AdminKey
// @Router /api/admin/delete [post]
func (h *TrashHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req models.DeleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Property == "" || req.Src == "" {
		writeError(w, http.StatusBadRequest, "Missing property or src")
		return
	}

	propertyKey := models.PropertyKey(req.Property)
	if _, err := h.trashService.Add(r.Context(), propertyKey, req.Src); err != nil {
		observability.GetLogger().WithContext(r.Context()).Errorf("Trashing %s: %v", req.Src, err)
		writeError(w, http.StatusServiceUnavailable, "Store unavailable")
		return
	}

	h.writeTrashList(w, r)
}

// List returns the trash contents, newest first
// @Summary List trash
// @Tags admin,trash
// @Produce json
// @Success 200 {object} models.TrashListResponse
// @Security AdminKey
// @Router /api/admin/trash [get]
func (h *TrashHandler) List(w http.ResponseWriter, r *http.Request) {
	h.writeTrashList(w, r)
}

// Restore moves one trash item back into its property
// @Summary Restore a trashed photo
// @Tags admin,trash
// @Accept json
// @Produce json
// @Param request body models.RestoreRequest true "Item to restore"
// @Success 200 {object} models.TrashListResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security AdminKey
// @Router /api/admin/restore [post]
func (h *TrashHandler) Restore(w http.ResponseWriter, r *http.Request) {
	var req models.RestoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.ID == "" {
		writeError(w, http.StatusBadRequest, "Missing id")
		return
	}

	if err := h.trashService.Restore(r.Context(), req.ID); err != nil {
		if errors.Is(err, models.ErrTrashNotFound) {
			writeError(w, http.StatusNotFound, "Trash item not found")
			return
		}
		observability.GetLogger().WithContext(r.Context()).Errorf("Restoring %s: %v", req.ID, err)
		writeError(w, http.StatusServiceUnavailable, "Store unavailable")
		return
	}

	h.writeTrashList(w, r)
}

// Purge permanently removes trash items
// @Summary Purge trash
// @Description Permanently deletes one item by id, or everything past the retention window with purgeExpired
// @Tags admin,trash
// @Accept json
// @Produce json
// @Param request body models.PurgeRequest true "Purge target"
// @Success 200 {object} models.PurgeResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Security AdminKey
// @Router /api/admin/purge [post]
func (h *TrashHandler) Purge(w http.ResponseWriter, r *http.Request) {
	var req models.PurgeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	w.Header().Set("Content-Type", "application/json")

	switch {
	case req.PurgeExpired:
		purged, err := h.trashService.PurgeExpired(r.Context())
		if err != nil {
			observability.GetLogger().WithContext(r.Context()).Errorf("Purging expired trash: %v", err)
			writeError(w, http.StatusServiceUnavailable, "Store unavailable")
			return
		}
		json.NewEncoder(w).Encode(models.PurgeResponse{OK: true, Purged: purged})
	case req.ID != "":
		if err := h.trashService.Purge(r.Context(), req.ID); err != nil {
			if errors.Is(err, models.ErrTrashNotFound) {
				writeError(w, http.StatusNotFound, "Trash item not found")
				return
			}
			observability.GetLogger().WithContext(r.Context()).Errorf("Purging %s: %v", req.ID, err)
			writeError(w, http.StatusServiceUnavailable, "Store unavailable")
			return
		}
		json.NewEncoder(w).Encode(models.PurgeResponse{OK: true, Purged: 1})
	default:
		writeError(w, http.StatusBadRequest, "Missing id or purgeExpired")
	}
}

func (h *TrashHandler) writeTrashList(w http.ResponseWriter, r *http.Request) {
	items, err := h.trashService.List(r.Context())
	if err != nil {
		observability.GetLogger().WithContext(r.Context()).Errorf("Listing trash: %v", err)
		writeError(w, http.StatusServiceUnavailable, "Store unavailable")
		return
	}
	if items == nil {
		items = []*models.TrashItem{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(models.TrashListResponse{Trash: items})
}
