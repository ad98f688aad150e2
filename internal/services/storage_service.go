package services

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/photoorder/server/internal/models"
)

const trashDirName = "_trash"

// MediaStorageService stores property photos on disk, one folder per
// property key, with a sibling trash area for recoverable deletes.
type MediaStorageService struct {
	basePath          string
	publicBaseURL     string
	allowedExtensions map[string]bool
	maxFileSizeBytes  int64
}

// NewMediaStorageService creates a new MediaStorageService
func NewMediaStorageService(basePath, publicBaseURL string, allowedExtensions []string, maxFileSizeMB int64) (*MediaStorageService, error) {
	if strings.TrimSpace(basePath) == "" {
		return nil, fmt.Errorf("base path cannot be empty")
	}

	absPath, err := filepath.Abs(basePath)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(absPath, 0755); err != nil {
		return nil, err
	}

	extSet := make(map[string]bool)
	if len(allowedExtensions) == 0 {
		for _, ext := range []string{".jpg", ".jpeg", ".png", ".webp", ".heic", ".heif"} {
			extSet[ext] = true
		}
	} else {
		for _, ext := range allowedExtensions {
			extSet[strings.ToLower(ext)] = true
		}
	}

	return &MediaStorageService{
		basePath:          absPath,
		publicBaseURL:     strings.TrimSuffix(publicBaseURL, "/"),
		allowedExtensions: extSet,
		maxFileSizeBytes:  maxFileSizeMB * 1024 * 1024,
	}, nil
}

// BasePath returns the absolute storage root
func (s *MediaStorageService) BasePath() string {
	return s.basePath
}

// Store saves an uploaded file under the property's folder and returns its
// public URL, which is the src used in photo orders.
func (s *MediaStorageService) Store(reader io.Reader, propertyKey, originalFilename string, fileSize int64) (string, error) {
	if fileSize > s.maxFileSizeBytes {
		return "", models.ErrFileTooLarge
	}

	sanitized := sanitizeFilename(originalFilename)
	ext := strings.ToLower(filepath.Ext(sanitized))
	if !s.allowedExtensions[ext] {
		return "", models.ErrInvalidExtension
	}

	folder := filepath.Join(s.basePath, propertyKey)
	if err := os.MkdirAll(folder, 0755); err != nil {
		return "", err
	}

	unique := generateUniqueFilename(sanitized, folder)
	fullPath := filepath.Join(folder, unique)

	if !strings.HasPrefix(fullPath, s.basePath) {
		return "", models.ErrPathTraversal
	}

	file, err := os.OpenFile(fullPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return "", err
	}
	defer file.Close()

	if _, err := io.Copy(file, reader); err != nil {
		os.Remove(fullPath)
		return "", err
	}

	return s.publicBaseURL + "/" + propertyKey + "/" + unique, nil
}

// MoveToTrash relocates a stored photo into the trash area. The file keeps
// its name under _trash/<propertyKey>/ so restore can put it back.
func (s *MediaStorageService) MoveToTrash(propertyKey, src string) error {
	rel, err := s.relFromSrc(propertyKey, src)
	if err != nil {
		return err
	}

	from := filepath.Join(s.basePath, rel)
	to := filepath.Join(s.basePath, trashDirName, rel)

	if err := os.MkdirAll(filepath.Dir(to), 0755); err != nil {
		return err
	}
	return os.Rename(from, to)
}

// RestoreFromTrash moves a trashed photo back into its property folder
func (s *MediaStorageService) RestoreFromTrash(propertyKey, src string) error {
	rel, err := s.relFromSrc(propertyKey, src)
	if err != nil {
		return err
	}

	from := filepath.Join(s.basePath, trashDirName, rel)
	to := filepath.Join(s.basePath, rel)

	if err := os.MkdirAll(filepath.Dir(to), 0755); err != nil {
		return err
	}
	return os.Rename(from, to)
}

// DeleteFromTrash permanently removes a trashed photo
func (s *MediaStorageService) DeleteFromTrash(propertyKey, src string) error {
	rel, err := s.relFromSrc(propertyKey, src)
	if err != nil {
		return err
	}
	return os.Remove(filepath.Join(s.basePath, trashDirName, rel))
}

// Exists checks whether a photo is present in its property folder
func (s *MediaStorageService) Exists(propertyKey, src string) bool {
	rel, err := s.relFromSrc(propertyKey, src)
	if err != nil {
		return false
	}
	_, statErr := os.Stat(filepath.Join(s.basePath, rel))
	return statErr == nil
}

// ReadFile returns the raw bytes of a stored photo
func (s *MediaStorageService) ReadFile(propertyKey, src string) ([]byte, error) {
	rel, err := s.relFromSrc(propertyKey, src)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(filepath.Join(s.basePath, rel))
}

// relFromSrc maps a public src URL back to a storage-relative path and
// rejects anything that escapes the property's folder.
func (s *MediaStorageService) relFromSrc(propertyKey, src string) (string, error) {
	name := filepath.Base(src)
	if name == "." || name == string(os.PathSeparator) || strings.Contains(name, "..") {
		return "", models.ErrPathTraversal
	}
	rel := filepath.Join(propertyKey, name)

	abs := filepath.Join(s.basePath, rel)
	if !strings.HasPrefix(abs, s.basePath) {
		return "", models.ErrPathTraversal
	}
	return rel, nil
}

// sanitizeFilename removes path components and invalid characters
func sanitizeFilename(filename string) string {
	name := filepath.Base(filename)

	replacer := strings.NewReplacer(
		"..", "",
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
	)

	return replacer.Replace(name)
}

// generateUniqueFilename appends a counter suffix until the name is free
func generateUniqueFilename(filename, folder string) string {
	candidate := filename
	ext := filepath.Ext(filename)
	stem := strings.TrimSuffix(filename, ext)

	for i := 1; ; i++ {
		if _, err := os.Stat(filepath.Join(folder, candidate)); os.IsNotExist(err) {
			return candidate
		}
		candidate = fmt.Sprintf("%s_%d%s", stem, i, ext)
	}
}
