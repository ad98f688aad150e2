package services

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/photoorder/server/internal/models"
)

// CatalogService serves the property catalog, the ground truth for which
// images belong to each property. Loaded once from a JSON file; the saved
// order store only decides presentation order for these images. Uploads and
// deletes mutate the in-memory image sets, so access is mutex-guarded.
type CatalogService struct {
	mu         sync.RWMutex
	properties []*models.Property
	byKey      map[string]*models.Property
}

// NewCatalogService loads the catalog from a JSON file
func NewCatalogService(path string) (*CatalogService, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var properties []*models.Property
	if err := json.Unmarshal(data, &properties); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	byKey := make(map[string]*models.Property, len(properties))
	for _, p := range properties {
		byKey[p.Key()] = p
	}

	return &CatalogService{properties: properties, byKey: byKey}, nil
}

// GetAll returns a snapshot of every property in catalog order
func (s *CatalogService) GetAll() []*models.Property {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Property, len(s.properties))
	for i, p := range s.properties {
		out[i] = snapshotProperty(p)
	}
	return out
}

// GetByKey returns a snapshot of the property for a normalized key, or nil
func (s *CatalogService) GetByKey(key string) *models.Property {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotProperty(s.byKey[key])
}

// AddImage appends a newly uploaded image to a property's ground-truth set
func (s *CatalogService) AddImage(key, src string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.byKey[key]
	if p == nil {
		return
	}
	for _, existing := range p.Images {
		if existing == src {
			return
		}
	}
	p.Images = append(p.Images, src)
}

// RemoveImage drops an image from a property's ground-truth set
func (s *CatalogService) RemoveImage(key, src string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.byKey[key]
	if p == nil {
		return
	}
	for i, existing := range p.Images {
		if existing == src {
			p.Images = append(p.Images[:i], p.Images[i+1:]...)
			return
		}
	}
}

func snapshotProperty(p *models.Property) *models.Property {
	if p == nil {
		return nil
	}
	images := make([]string, len(p.Images))
	copy(images, p.Images)
	return &models.Property{
		ID:     p.ID,
		Name:   p.Name,
		Image:  p.Image,
		Images: images,
	}
}
