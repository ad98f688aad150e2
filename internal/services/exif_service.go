package services

import (
	"bytes"
	"time"

	"github.com/rwcarlsen/goexif/exif"
)

// EXIFData is the subset of metadata the upload path cares about
type EXIFData struct {
	Orientation int
	DateTaken   *time.Time
}

// EXIFService extracts EXIF metadata from images
type EXIFService struct{}

// NewEXIFService creates a new EXIFService
func NewEXIFService() *EXIFService {
	return &EXIFService{}
}

// ExtractFromBytes extracts EXIF data from image bytes. Images without
// EXIF data return defaults rather than an error.
func (s *EXIFService) ExtractFromBytes(data []byte) *EXIFData {
	result := &EXIFData{Orientation: 1}

	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return result
	}

	if tag, err := x.Get(exif.Orientation); err == nil {
		if val, err := tag.Int(0); err == nil && val >= 1 && val <= 8 {
			result.Orientation = val
		}
	}

	if dt, err := x.DateTime(); err == nil {
		utc := dt.UTC()
		result.DateTaken = &utc
	}

	return result
}
