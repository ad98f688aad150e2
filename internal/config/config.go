package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	ServerAddress string       `json:"serverAddress"`
	DatabasePath  string       `json:"databasePath"`
	DatabaseURL   string       `json:"databaseUrl"`
	CatalogPath   string       `json:"catalogPath"`
	MediaStorage  MediaStorage `json:"mediaStorage"`
	Security      Security     `json:"security"`
	Trash         Trash        `json:"trash"`
}

// MediaStorage configuration for uploaded property photos
type MediaStorage struct {
	BasePath          string   `json:"basePath"`
	PublicBaseURL     string   `json:"publicBaseUrl"`
	MaxFileSizeMB     int64    `json:"maxFileSizeMB"`
	AllowedExtensions []string `json:"allowedExtensions"`
}

// Security configuration. AdminKey may be a plaintext key or a bcrypt hash
// of one (prefixed $2a$/$2b$); the middleware handles both.
type Security struct {
	AdminKey       string `json:"adminKey"`
	AdminKeyHeader string `json:"adminKeyHeader"`
}

// Trash configuration for the recoverable delete area
type Trash struct {
	RetentionDays int `json:"retentionDays"`
}

// UsePostgres returns true if PostgreSQL should be used
func (c *Config) UsePostgres() bool {
	return c.DatabaseURL != ""
}

func defaultConfig() *Config {
	return &Config{
		ServerAddress: ":5000",
		DatabasePath:  "photoorder.db",
		CatalogPath:   "properties.json",
		MediaStorage: MediaStorage{
			BasePath:      "./media",
			PublicBaseURL: "/media",
			MaxFileSizeMB: 25,
			AllowedExtensions: []string{
				".jpg", ".jpeg", ".png", ".webp", ".heic", ".heif",
			},
		},
		Security: Security{
			AdminKey:       "CHANGE_THIS_TO_A_SECURE_ADMIN_KEY_AT_LEAST_32_CHARS",
			AdminKeyHeader: "X-Admin-Key",
		},
		Trash: Trash{
			RetentionDays: 7,
		},
	}
}

// Load loads configuration from file or environment
func Load() (*Config, error) {
	cfg := defaultConfig()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.json"
	}

	if data, err := os.ReadFile(configPath); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	// Override from environment variables
	if addr := os.Getenv("SERVER_ADDRESS"); addr != "" {
		cfg.ServerAddress = addr
	}
	if dbPath := os.Getenv("DATABASE_PATH"); dbPath != "" {
		cfg.DatabasePath = dbPath
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.DatabaseURL = dbURL
	}
	if catalogPath := os.Getenv("CATALOG_PATH"); catalogPath != "" {
		cfg.CatalogPath = catalogPath
	}
	if basePath := os.Getenv("MEDIA_STORAGE_PATH"); basePath != "" {
		cfg.MediaStorage.BasePath = basePath
	}
	if adminKey := os.Getenv("ADMIN_KEY"); adminKey != "" {
		cfg.Security.AdminKey = adminKey
	}
	if retention := os.Getenv("TRASH_RETENTION_DAYS"); retention != "" {
		if days, err := strconv.Atoi(retention); err == nil && days > 0 {
			cfg.Trash.RetentionDays = days
		}
	}
	// Ensure media storage directory exists
	if err := os.MkdirAll(cfg.MediaStorage.BasePath, 0755); err != nil {
		return nil, err
	}

	absPath, err := filepath.Abs(cfg.MediaStorage.BasePath)
	if err != nil {
		return nil, err
	}
	cfg.MediaStorage.BasePath = absPath

	return cfg, nil
}
