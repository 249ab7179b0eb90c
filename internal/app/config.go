package app

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Store kinds.
const (
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

type Config struct {
	BaseURL           string        // REST API base URL (default: http://localhost:8080)
	EncryptionKey     string        // Key material for stored credentials
	EncryptionKeyFile string        // Optional: read key material from this file instead
	Store             string        // sqlite or memory (default: sqlite)
	DatabaseFile      string        // SQLite file (default: fleetadmin.db)
	Namespace         string        // Credential namespace (default: fleetadmin)
	Timeout           time.Duration // HTTP client timeout (default: 10s)
	RateLimit         float64       // Outbound requests per second, 0 disables (default: 20)
	RateBurst         int           // Limiter burst (default: 5)
	Env               string        // Environment (dev, staging, prod) (default: dev)
	LogLevel          string        // Log level (debug, info, warn, error) (default: info)
	LogFormat         string        // Log format (json, text) (default: text)
}

// LoadConfig reads the environment, after loading a .env file from the
// working directory when one exists.
func LoadConfig() Config {
	_ = godotenv.Load()

	return Config{
		BaseURL:           getEnvOrDefault("FLEETADMIN_BASE_URL", "http://localhost:8080"),
		EncryptionKey:     os.Getenv("FLEETADMIN_ENCRYPTION_KEY"),
		EncryptionKeyFile: os.Getenv("FLEETADMIN_ENCRYPTION_KEY_FILE"),
		Store:             getEnvOrDefault("FLEETADMIN_STORE", StoreSQLite),
		DatabaseFile:      getEnvOrDefault("FLEETADMIN_DATABASE_FILE", "fleetadmin.db"),
		Namespace:         getEnvOrDefault("FLEETADMIN_NAMESPACE", "fleetadmin"),
		Timeout:           getEnvDurationOrDefault("FLEETADMIN_TIMEOUT", 10*time.Second),
		RateLimit:         getEnvFloatOrDefault("FLEETADMIN_RATE_LIMIT", 20),
		RateBurst:         getEnvIntOrDefault("FLEETADMIN_RATE_BURST", 5),
		Env:               getEnvOrDefault("ENV", "dev"),
		LogLevel:          getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:         getEnvOrDefault("LOG_FORMAT", "text"),
	}
}

// Validate reports every problem with c at once.
func (c Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.BaseURL)
	switch {
	case err != nil:
		errs = append(errs, fmt.Errorf("invalid base URL: %w", err))
	case u.Scheme != "http" && u.Scheme != "https":
		errs = append(errs, fmt.Errorf("base URL must be http or https, got %q", c.BaseURL))
	case u.Host == "":
		errs = append(errs, fmt.Errorf("base URL has no host: %q", c.BaseURL))
	}

	switch c.Store {
	case StoreMemory:
	case StoreSQLite:
		if c.EncryptionKey == "" && c.EncryptionKeyFile == "" {
			errs = append(errs, errors.New("FLEETADMIN_ENCRYPTION_KEY or FLEETADMIN_ENCRYPTION_KEY_FILE is required for the sqlite store"))
		}
		if c.DatabaseFile == "" {
			errs = append(errs, errors.New("database file is required for the sqlite store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store %q (want %s or %s)", c.Store, StoreSQLite, StoreMemory))
	}

	if c.Namespace == "" {
		errs = append(errs, errors.New("namespace must not be empty"))
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", c.Timeout))
	}
	if c.RateLimit < 0 {
		errs = append(errs, fmt.Errorf("rate limit must not be negative, got %v", c.RateLimit))
	}

	return errors.Join(errs...)
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "30s", "1m")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are seconds
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
