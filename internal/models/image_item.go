package models

import (
	"regexp"
	"strings"
)

// ImageItem is one photo entry in a property's saved order. Src is the
// natural key within a property; Pos is a sort key that is not required to
// be contiguous. Locked items keep their Pos through automatic renumbering
// passes and only change through an explicit position edit.
type ImageItem struct {
	Src    string  `json:"src"`
	Pos    float64 `json:"pos"`
	Locked bool    `json:"locked"`
}

// VersionedOrder pairs a property's saved order with its store version.
// Version starts at 0 for a property with no saved order and increments by
// exactly one on every accepted write.
type VersionedOrder struct {
	Images  []ImageItem `json:"images"`
	Version int         `json:"version"`
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// PropertyKey derives the storage key for a property display name:
// lowercase with whitespace runs collapsed to a single hyphen. Every caller
// that touches the store must go through this or keys silently diverge.
func PropertyKey(displayName string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(displayName)), "-")
}

// NewImageItem creates a validated unlocked item.
func NewImageItem(src string, pos float64) (ImageItem, error) {
	if strings.TrimSpace(src) == "" {
		return ImageItem{}, ErrEmptySrc
	}
	return ImageItem{Src: src, Pos: pos}, nil
}

// Srcs returns the src values of items in list order.
func Srcs(items []ImageItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.Src
	}
	return out
}

// OrderError is the error type for order and item validation failures.
type OrderError struct {
	Message string
}

func (e OrderError) Error() string {
	return e.Message
}

var (
	ErrEmptySrc         = OrderError{"image src cannot be empty"}
	ErrEmptyProperty    = OrderError{"property key cannot be empty"}
	ErrDuplicateSrc     = OrderError{"duplicate image src in order"}
	ErrVersionConflict  = OrderError{"order version conflict"}
	ErrOrderNotFound    = OrderError{"no saved order for property"}
	ErrIndexOutOfRange  = OrderError{"image index out of range"}
	ErrItemLocked       = OrderError{"image is locked"}
	ErrFileTooLarge     = OrderError{"file size exceeds maximum allowed"}
	ErrInvalidExtension = OrderError{"file extension not allowed"}
	ErrPathTraversal    = OrderError{"invalid path - path traversal detected"}
	ErrTrashNotFound    = OrderError{"trash item not found"}
)

// ValidateOrder rejects orders with empty or duplicate src values.
func ValidateOrder(items []ImageItem) error {
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		if strings.TrimSpace(item.Src) == "" {
			return ErrEmptySrc
		}
		if seen[item.Src] {
			return ErrDuplicateSrc
		}
		seen[item.Src] = true
	}
	return nil
}
