package services

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/jdeng/goheif"
)

// ThumbnailSize represents a thumbnail size configuration
type ThumbnailSize struct {
	Name    string
	MaxDim  int // Maximum dimension (width or height)
	Quality int // JPEG quality (1-100)
}

var (
	// ThumbCard is sized for property card grids
	ThumbCard = ThumbnailSize{Name: "card", MaxDim: 400, Quality: 80}
	// ThumbHero is sized for hero sections and galleries
	ThumbHero = ThumbnailSize{Name: "hero", MaxDim: 1200, Quality: 85}
)

// ThumbnailResult contains paths to generated thumbnails
type ThumbnailResult struct {
	CardPath string
	HeroPath string
	Width    int
	Height   int
}

// ThumbnailService renders card and hero size variants for uploaded
// property photos, written next to the original under .thumbs/.
type ThumbnailService struct {
	basePath string
}

// NewThumbnailService creates a new ThumbnailService
func NewThumbnailService(basePath string) *ThumbnailService {
	return &ThumbnailService{basePath: basePath}
}

// Generate creates both thumbnail variants for an uploaded image. relPath
// is the storage-relative path of the original, e.g. "milan-manor/12.jpg".
func (s *ThumbnailService) Generate(imageData []byte, relPath string, orientation int) (*ThumbnailResult, error) {
	var img image.Image
	var err error

	if isHEIC(relPath) {
		img, err = goheif.Decode(bytes.NewReader(imageData))
		if err != nil {
			return nil, fmt.Errorf("decode HEIC image: %w", err)
		}
	} else {
		img, _, err = image.Decode(bytes.NewReader(imageData))
		if err != nil {
			return nil, fmt.Errorf("decode image: %w", err)
		}
	}

	img = applyOrientation(img, orientation)

	bounds := img.Bounds()
	result := &ThumbnailResult{
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
	}

	thumbDir := filepath.Join(filepath.Dir(relPath), ".thumbs")
	if err := os.MkdirAll(filepath.Join(s.basePath, thumbDir), 0755); err != nil {
		return nil, fmt.Errorf("create thumbnail directory: %w", err)
	}

	stem := strings.TrimSuffix(filepath.Base(relPath), filepath.Ext(relPath))

	for _, size := range []struct {
		cfg     ThumbnailSize
		pathPtr *string
	}{
		{ThumbCard, &result.CardPath},
		{ThumbHero, &result.HeroPath},
	} {
		path, err := s.renderThumbnail(img, stem, thumbDir, size.cfg)
		if err != nil {
			return nil, fmt.Errorf("generate %s thumbnail: %w", size.cfg.Name, err)
		}
		*size.pathPtr = path
	}

	return result, nil
}

// renderThumbnail creates a single thumbnail and returns its relative path
func (s *ThumbnailService) renderThumbnail(img image.Image, stem, thumbDir string, size ThumbnailSize) (string, error) {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	var newWidth, newHeight int
	if width > height {
		if width > size.MaxDim {
			newWidth = size.MaxDim
			newHeight = height * size.MaxDim / width
		} else {
			newWidth, newHeight = width, height
		}
	} else {
		if height > size.MaxDim {
			newHeight = size.MaxDim
			newWidth = width * size.MaxDim / height
		} else {
			newWidth, newHeight = width, height
		}
	}

	resized := imaging.Resize(img, newWidth, newHeight, imaging.Lanczos)

	relativePath := filepath.Join(thumbDir, fmt.Sprintf("%s_%s.jpg", stem, size.Name))
	fullPath := filepath.Join(s.basePath, relativePath)

	out, err := os.Create(fullPath)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if err := jpeg.Encode(out, resized, &jpeg.Options{Quality: size.Quality}); err != nil {
		os.Remove(fullPath)
		return "", err
	}

	return relativePath, nil
}

// applyOrientation corrects image orientation based on EXIF data
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// isHEIC reports whether the path has a HEIC/HEIF extension
func isHEIC(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".heic" || ext == ".heif"
}
