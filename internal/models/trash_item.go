package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TrashItem is a soft-deleted photo awaiting restore or purge.
type TrashItem struct {
	ID           string    `json:"id"`
	PropertySlug string    `json:"propertySlug"`
	Src          string    `json:"src"`
	DeletedAt    time.Time `json:"deletedAt"`
}

// NewTrashItem records a deletion for the given property and image.
func NewTrashItem(propertySlug, src string) (*TrashItem, error) {
	if strings.TrimSpace(propertySlug) == "" {
		return nil, ErrEmptyProperty
	}
	if strings.TrimSpace(src) == "" {
		return nil, ErrEmptySrc
	}
	return &TrashItem{
		ID:           uuid.New().String(),
		PropertySlug: propertySlug,
		Src:          src,
		DeletedAt:    time.Now().UTC(),
	}, nil
}
