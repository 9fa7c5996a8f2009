package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"kintone-catalog/internal/model"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	Kintone KintoneConfig
	Fields  model.FieldMapping
	Image   ImageConfig
	Logger  LoggerConfig
	Layout  Layout
}

// ServerConfig holds server-related configuration.
type ServerConfig struct {
	Host string
	Port int
}

// KintoneConfig holds the upstream record API configuration.
type KintoneConfig struct {
	BaseURL      string
	AppID        string
	APIToken     string
	GuestSpaceID string
	Timeout      time.Duration
}

// ImageConfig holds image relay configuration.
type ImageConfig struct {
	FetchTimeout time.Duration
	MaxBytes     int64
}

// LoggerConfig holds logger-related configuration.
type LoggerConfig struct {
	Level  string
	Format string // "json" or "console"
}

// Load loads configuration from environment variables. A .env file in the
// working directory is read first; variables already set take precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env file: %w", err)
	}

	fields := model.DefaultFieldMapping()
	fields.Code = getEnv("FIELD_CODE_CODE", fields.Code)
	fields.Name = getEnv("FIELD_CODE_NAME", fields.Name)
	fields.Price = getEnv("FIELD_CODE_PRICE", fields.Price)

	layout, err := LoadLayout(getEnv("CATALOG_LAYOUT_FILE", ""))
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog layout: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnvAsInt("PORT", 3000),
		},
		Kintone: KintoneConfig{
			BaseURL:      strings.TrimRight(getEnv("KINTONE_BASE_URL", ""), "/"),
			AppID:        getEnv("KINTONE_APP_ID", ""),
			APIToken:     getEnv("KINTONE_API_TOKEN", ""),
			GuestSpaceID: getEnv("KINTONE_GUEST_SPACE_ID", ""),
			Timeout:      time.Duration(getEnvAsInt("KINTONE_TIMEOUT_SECONDS", 30)) * time.Second,
		},
		Fields: fields,
		Image: ImageConfig{
			FetchTimeout: time.Duration(getEnvAsInt("IMAGE_FETCH_TIMEOUT_SECONDS", 15)) * time.Second,
			MaxBytes:     int64(getEnvAsInt("IMAGE_MAX_BYTES", 20<<20)),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		Layout: layout,
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Kintone.BaseURL == "" {
		return fmt.Errorf("KINTONE_BASE_URL is required")
	}

	if !strings.HasPrefix(c.Kintone.BaseURL, "https://") && !strings.HasPrefix(c.Kintone.BaseURL, "http://") {
		return fmt.Errorf("invalid kintone base URL: %s (must start with http:// or https://)", c.Kintone.BaseURL)
	}

	if c.Kintone.AppID == "" {
		return fmt.Errorf("KINTONE_APP_ID is required")
	}

	if c.Kintone.APIToken == "" {
		return fmt.Errorf("KINTONE_API_TOKEN is required")
	}

	if c.Kintone.Timeout <= 0 {
		return fmt.Errorf("kintone timeout must be positive")
	}

	if c.Fields.Code == "" || c.Fields.Name == "" || c.Fields.Price == "" {
		return fmt.Errorf("field codes for code, name and price must not be empty")
	}

	if c.Image.FetchTimeout <= 0 {
		return fmt.Errorf("image fetch timeout must be positive")
	}

	if c.Image.MaxBytes < 1 {
		return fmt.Errorf("image max bytes must be at least 1")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLogLevels[c.Logger.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Logger.Level)
	}

	if c.Logger.Format != "json" && c.Logger.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", c.Logger.Format)
	}

	return nil
}

// RecordsEndpoint returns the records.json URL, scoped to the guest space
// when one is configured.
func (c *KintoneConfig) RecordsEndpoint() string {
	if c.GuestSpaceID != "" {
		return fmt.Sprintf("%s/k/guest/%s/v1/records.json", c.BaseURL, c.GuestSpaceID)
	}
	return c.BaseURL + "/k/v1/records.json"
}

// Address returns the server address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// getEnv retrieves a trimmed environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
