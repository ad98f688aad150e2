package models

import "time"

// OrdersResponse is the bulk fetch payload for property=_all.
type OrdersResponse struct {
	Orders   map[string][]ImageItem `json:"orders"`
	Versions map[string]int         `json:"versions"`
}

// OrderResponse is the single-property fetch payload. Images is null when
// the property has no saved order.
type OrderResponse struct {
	Images  []ImageItem `json:"images"`
	Version int         `json:"version"`
}

// SaveOrderRequest is the optimistic-concurrency write payload. Version is
// the caller's expected version; omitting it requests an unconditional
// upsert (legacy clients only).
type SaveOrderRequest struct {
	Property string      `json:"property"`
	Images   []ImageItem `json:"images"`
	Version  *int        `json:"version,omitempty"`
}

// SaveOrderResponse reports the version assigned by an accepted write.
type SaveOrderResponse struct {
	OK      bool `json:"ok"`
	Version int  `json:"version"`
}

// UploadResponse returns the public URLs assigned to uploaded files, in
// submission order.
type UploadResponse struct {
	OK   bool     `json:"ok"`
	URLs []string `json:"urls"`
}

// DeleteRequest moves one image into the trash.
type DeleteRequest struct {
	Property string `json:"property"`
	Src      string `json:"src"`
}

// TrashListResponse lists soft-deleted photos, newest first.
type TrashListResponse struct {
	Trash []*TrashItem `json:"trash"`
}

// RestoreRequest moves one trash item back into its property.
type RestoreRequest struct {
	ID string `json:"id"`
}

// PurgeRequest deletes one trash item permanently, or sweeps everything
// past the retention window when PurgeExpired is set.
type PurgeRequest struct {
	ID           string `json:"id,omitempty"`
	PurgeExpired bool   `json:"purgeExpired,omitempty"`
}

// PurgeResponse reports how many items were permanently removed.
type PurgeResponse struct {
	OK     bool `json:"ok"`
	Purged int  `json:"purged"`
}

// PropertiesResponse lists the catalog.
type PropertiesResponse struct {
	Properties []*Property `json:"properties"`
}

// ErrorResponse is the generic error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the health check payload. Store reports whether the
// order database answers; Properties is the loaded catalog size.
type HealthResponse struct {
	Status     string    `json:"status"`
	Store      string    `json:"store"`
	Properties int       `json:"properties"`
	Timestamp  time.Time `json:"timestamp"`
}
