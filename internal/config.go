package internal

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	Port     int
	LogLevel string

	// Application base URL (for absolute links)
	BaseURL string

	// Upstream board API
	APIBaseURL string
	APITimeout time.Duration

	// Pagination
	PageSize   int    // Posts per page on board listings
	PageWindow int    // Page links per pagination group
	UserPaging string // "fixed" or "sliding" window for the admin user list

	// Metrics endpoint authentication
	// If both are empty, the /metrics endpoint will be unprotected (not recommended)
	MetricsUsername string
	MetricsPassword string
}

func NewConfig() (*Config, error) {
	// Load .env file if it exists (ignored in production)
	_ = godotenv.Load()

	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		LogLevel: getEnv("LOG_LEVEL", "debug"),

		// Base URL defaults to localhost for development
		BaseURL: getEnv("BASE_URL", "http://localhost:8080"),

		// Upstream API defaults
		APITimeout: getEnvDuration("API_TIMEOUT", 10*time.Second),

		// Pagination defaults
		PageSize:   getEnvInt("PAGE_SIZE", 10),
		PageWindow: getEnvInt("PAGE_WINDOW", 10),
		UserPaging: getEnv("USER_PAGING", "sliding"),

		// Metrics authentication
		MetricsUsername: getEnv("METRICS_USERNAME", ""),
		MetricsPassword: getEnv("METRICS_PASSWORD", ""),
	}

	// Required
	cfg.APIBaseURL = os.Getenv("API_BASE_URL")
	if cfg.APIBaseURL == "" {
		return nil, fmt.Errorf("API_BASE_URL is required")
	}

	// Validate pagination configuration
	if cfg.PageSize < 1 {
		return nil, fmt.Errorf("PAGE_SIZE must be at least 1, got: %d", cfg.PageSize)
	}
	if cfg.PageWindow < 1 {
		return nil, fmt.Errorf("PAGE_WINDOW must be at least 1, got: %d", cfg.PageWindow)
	}
	if cfg.UserPaging != "fixed" && cfg.UserPaging != "sliding" {
		return nil, fmt.Errorf("USER_PAGING must be either 'fixed' or 'sliding', got: %s", cfg.UserPaging)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
