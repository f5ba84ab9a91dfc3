package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Scraper Scraper
	Import  Import
	Enhance Enhance
	Logging Logging
}

// Scraper controls the fetch layer.
type Scraper struct {
	Timeout   time.Duration
	UserAgent string
}

// Import controls how catalog rows and output files are produced.
type Import struct {
	Brand        string
	Category     string
	Tags         string
	SKUPrefix    string
	OutPrefix    string
	MaxImages    int
	GalleryLimit int
	OutputDir    string
}

// Enhance configures the optional description-enhancement collaborator.
// It only runs when Enabled is true and an API key is present.
type Enhance struct {
	Enabled bool
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

type Logging struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	cfg := &Config{
		Scraper: Scraper{
			Timeout:   getDurationOrDefault("SCRAPER_TIMEOUT", 30*time.Second),
			UserAgent: getEnvOrDefault("SCRAPER_USER_AGENT", defaultUserAgent),
		},
		Import: Import{
			Brand:        getEnvOrDefault("IMPORT_BRAND", ""),
			Category:     getEnvOrDefault("IMPORT_CATEGORY", ""),
			Tags:         getEnvOrDefault("IMPORT_TAGS", ""),
			SKUPrefix:    getEnvOrDefault("IMPORT_SKU_PREFIX", "GN-"),
			OutPrefix:    getEnvOrDefault("IMPORT_OUT_PREFIX", ""),
			MaxImages:    getIntOrDefault("IMPORT_MAX_IMAGES", 12),
			GalleryLimit: getIntOrDefault("IMPORT_GALLERY_LIMIT", 6),
			OutputDir:    getEnvOrDefault("IMPORT_OUTPUT_DIR", "."),
		},
		Enhance: Enhance{
			Enabled: getBoolOrDefault("OPENAI_ENABLE", false),
			APIKey:  getEnvOrDefault("OPENAI_API_KEY", ""),
			Model:   getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
			BaseURL: getEnvOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Timeout: getDurationOrDefault("OPENAI_TIMEOUT", 30*time.Second),
		},
		Logging: Logging{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "text"),
		},
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Import.MaxImages < 1 {
		return fmt.Errorf("IMPORT_MAX_IMAGES must be at least 1")
	}

	if c.Import.GalleryLimit < 1 {
		return fmt.Errorf("IMPORT_GALLERY_LIMIT must be at least 1")
	}

	if c.Scraper.Timeout <= 0 {
		return fmt.Errorf("SCRAPER_TIMEOUT must be positive")
	}

	if c.Enhance.Enabled && c.Enhance.APIKey == "" {
		return fmt.Errorf("OPENAI_ENABLE is set but OPENAI_API_KEY is empty")
	}

	return nil
}

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/119.0 Safari/537.36"

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
