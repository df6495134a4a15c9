package config

import (
	"os"
	"strconv"

	"gofinemap/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Fit      FitConfig
}

// DatabaseConfig holds database connection settings. An empty URL disables
// fit persistence; the API keeps results in memory only.
type DatabaseConfig struct {
	URL     string
	SSLMode string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// FitConfig holds default fitting parameters applied when a request omits them
type FitConfig struct {
	MaxLayers      int
	MaxIterations  int
	Tolerance      float64
	Coverage       float64
	MinPurity      float64
	MaxConcurrency int // concurrent fits served by the API
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			URL:     os.Getenv("DATABASE_URL"),
			SSLMode: getEnv("DATABASE_SSLMODE", "disable"),
		},
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Fit: FitConfig{
			MaxLayers:      getEnvInt("FIT_MAX_LAYERS", 10),
			MaxIterations:  getEnvInt("FIT_MAX_ITERATIONS", 100),
			Tolerance:      getEnvFloat("FIT_TOLERANCE", 1e-3),
			Coverage:       getEnvFloat("FIT_COVERAGE", 0.95),
			MinPurity:      getEnvFloat("FIT_MIN_PURITY", 0.5),
			MaxConcurrency: getEnvInt("FIT_MAX_CONCURRENCY", 4),
		},
	}

	if cfg.Fit.MaxLayers <= 0 {
		return nil, errors.New("CONFIG_INVALID", "FIT_MAX_LAYERS must be positive")
	}
	if cfg.Fit.Tolerance <= 0 {
		return nil, errors.New("CONFIG_INVALID", "FIT_TOLERANCE must be positive")
	}
	if cfg.Fit.Coverage <= 0 || cfg.Fit.Coverage > 1 {
		return nil, errors.New("CONFIG_INVALID", "FIT_COVERAGE must lie in (0,1]")
	}
	if cfg.Fit.MaxConcurrency <= 0 {
		cfg.Fit.MaxConcurrency = 1
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
