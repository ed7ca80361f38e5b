// Package config handles application configuration from environment variables
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port      string
	Env       string // "development", "production"
	LogLevel  string
	LogFormat string // "console" or "json"

	// Model artifacts: local path, file:// or gs:// URI
	ScalerURI           string
	ModelURI            string
	ArtifactLoadTimeout time.Duration

	// Google Cloud Storage client
	GCSEndpoint        string
	GCSCredentialsFile string
	GCSAnonymous       bool

	// HTTP
	CORSAllowedOrigin string
}

const (
	DefaultPort                = "8080"
	DefaultEnv                 = "development"
	DefaultLogLevel            = "info"
	DefaultLogFormat           = "console"
	DefaultScalerURI           = "models/scaler.json"
	DefaultModelURI            = "models/logistic_model.json"
	DefaultArtifactLoadTimeout = 2 * time.Minute
	DefaultCORSAllowedOrigin   = "*"
)

// Load reads configuration from environment variables
// It loads .env file if present (for local development)
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	cfg := &Config{
		Port:                getEnv("PORT", DefaultPort),
		Env:                 getEnv("ENV", DefaultEnv),
		LogLevel:            getEnv("LOG_LEVEL", DefaultLogLevel),
		LogFormat:           os.Getenv("LOG_FORMAT"),
		ScalerURI:           getEnv("SCALER_URI", DefaultScalerURI),
		ModelURI:            getEnv("MODEL_URI", DefaultModelURI),
		ArtifactLoadTimeout: getEnvDuration("ARTIFACT_LOAD_TIMEOUT", DefaultArtifactLoadTimeout),
		GCSEndpoint:         os.Getenv("GCS_ENDPOINT"),
		GCSCredentialsFile:  os.Getenv("GCS_CREDENTIALS_FILE"),
		GCSAnonymous:        getEnvBool("GCS_ANONYMOUS", false),
		CORSAllowedOrigin:   getEnv("CORS_ALLOWED_ORIGIN", DefaultCORSAllowedOrigin),
	}

	// JSON logs by default in production
	if cfg.LogFormat == "" {
		cfg.LogFormat = DefaultLogFormat
		if cfg.IsProduction() {
			cfg.LogFormat = "json"
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration is present
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if p, err := strconv.Atoi(c.Port); err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("PORT must be a number between 1 and 65535, got %q", c.Port)
	}
	if c.ScalerURI == "" {
		return fmt.Errorf("SCALER_URI is required")
	}
	if c.ModelURI == "" {
		return fmt.Errorf("MODEL_URI is required")
	}
	if c.ArtifactLoadTimeout <= 0 {
		return fmt.Errorf("ARTIFACT_LOAD_TIMEOUT must be positive")
	}
	switch strings.ToLower(c.LogFormat) {
	case "console", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be console or json, got %q", c.LogFormat)
	}
	return nil
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
