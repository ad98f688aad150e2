package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"path"

	"github.com/photoorder/server/internal/models"
	"github.com/photoorder/server/internal/observability"
	"github.com/photoorder/server/internal/services"
)

// maxUploadMemory bounds the in-memory portion of multipart parsing
const maxUploadMemory = 32 << 20

// UploadHandler receives new property photos
type UploadHandler struct {
	storage    *services.MediaStorageService
	thumbnails *services.ThumbnailService
	exif       *services.EXIFService
	catalog    *services.CatalogService
}

// NewUploadHandler creates a new UploadHandler
func NewUploadHandler(
	storage *services.MediaStorageService,
	thumbnails *services.ThumbnailService,
	exif *services.EXIFService,
	catalog *services.CatalogService,
) *UploadHandler {
	return &UploadHandler{
		storage:    storage,
		thumbnails: thumbnails,
		exif:       exif,
		catalog:    catalog,
	}
}

// Upload stores submitted files and returns their assigned srcs
// @Summary Upload property photos
// @Description Stores files under the property's folder and returns public URLs in submission order
// @Tags admin,upload
// @Accept multipart/form-data
// @Produce json
// @Param property formData string true "Property key"
// @Param files formData file true "Photo files"
// @Success 200 {object} models.UploadResponse
// @Failure 400 {object} models.ErrorResponse
// @Security AdminKey
// @Router /api/admin/upload [post]
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	property := r.FormValue("property")
	if property == "" {
		writeError(w, http.StatusBadRequest, "Missing property")
		return
	}
	propertyKey := models.PropertyKey(property)

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "Missing files")
		return
	}

	log := observability.GetLogger().WithContext(r.Context())
	urls := make([]string, 0, len(files))

	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, "Cannot read uploaded file")
			return
		}

		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			writeError(w, http.StatusBadRequest, "Cannot read uploaded file")
			return
		}

		meta := h.exif.ExtractFromBytes(data)
		if meta.DateTaken != nil {
			log.Debugf("Upload %s taken at %s", header.Filename, meta.DateTaken.Format("2006-01-02"))
		}

		src, err := h.storage.Store(bytes.NewReader(data), propertyKey, header.Filename, int64(len(data)))
		if err != nil {
			var orderErr models.OrderError
			if errors.As(err, &orderErr) {
				writeError(w, http.StatusBadRequest, orderErr.Message)
			} else {
				writeError(w, http.StatusInternalServerError, "Upload failed")
			}
			return
		}

		if _, err := h.thumbnails.Generate(data, propertyKey+"/"+path.Base(src), meta.Orientation); err != nil {
			// Thumbnails are presentation sugar; the original is stored
			log.Warnf("Thumbnail generation for %s: %v", src, err)
		}

		h.catalog.AddImage(propertyKey, src)
		urls = append(urls, src)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(models.UploadResponse{OK: true, URLs: urls})
}
