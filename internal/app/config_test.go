package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"FLEETADMIN_BASE_URL", "FLEETADMIN_ENCRYPTION_KEY", "FLEETADMIN_ENCRYPTION_KEY_FILE",
		"FLEETADMIN_STORE", "FLEETADMIN_DATABASE_FILE", "FLEETADMIN_NAMESPACE",
		"FLEETADMIN_TIMEOUT", "FLEETADMIN_RATE_LIMIT", "FLEETADMIN_RATE_BURST",
		"ENV", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}

	cfg := LoadConfig()
	require.Equal(t, "http://localhost:8080", cfg.BaseURL)
	require.Equal(t, StoreSQLite, cfg.Store)
	require.Equal(t, "fleetadmin.db", cfg.DatabaseFile)
	require.Equal(t, "fleetadmin", cfg.Namespace)
	require.Equal(t, 10*time.Second, cfg.Timeout)
	require.InDelta(t, 20.0, cfg.RateLimit, 0)
	require.Equal(t, 5, cfg.RateBurst)
	require.Equal(t, "dev", cfg.Env)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, "text", cfg.LogFormat)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("FLEETADMIN_BASE_URL", "https://api.example.com")
	t.Setenv("FLEETADMIN_STORE", "memory")
	t.Setenv("FLEETADMIN_TIMEOUT", "30")
	t.Setenv("FLEETADMIN_RATE_LIMIT", "0")
	t.Setenv("FLEETADMIN_RATE_BURST", "not-a-number")
	t.Setenv("LOG_FORMAT", "json")

	cfg := LoadConfig()
	require.Equal(t, "https://api.example.com", cfg.BaseURL)
	require.Equal(t, StoreMemory, cfg.Store)
	require.Equal(t, 30*time.Second, cfg.Timeout)
	require.Zero(t, cfg.RateLimit)
	require.Equal(t, 5, cfg.RateBurst)
	require.Equal(t, "json", cfg.LogFormat)
	require.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	valid := Config{
		BaseURL:       "http://localhost:8080",
		EncryptionKey: "k",
		Store:         StoreSQLite,
		DatabaseFile:  "fleetadmin.db",
		Namespace:     "fleetadmin",
		Timeout:       time.Second,
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad scheme", func(c *Config) { c.BaseURL = "ftp://example.com" }, "http or https"},
		{"no host", func(c *Config) { c.BaseURL = "http://" }, "no host"},
		{"missing key", func(c *Config) { c.EncryptionKey = "" }, "FLEETADMIN_ENCRYPTION_KEY"},
		{"unknown store", func(c *Config) { c.Store = "redis" }, "unknown store"},
		{"empty namespace", func(c *Config) { c.Namespace = "" }, "namespace"},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, "timeout"},
		{"negative rate", func(c *Config) { c.RateLimit = -1 }, "rate limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.want)
		})
	}

	t.Run("memory store needs no key", func(t *testing.T) {
		t.Parallel()

		cfg := valid
		cfg.Store = StoreMemory
		cfg.EncryptionKey = ""
		require.NoError(t, cfg.Validate())
	})
}
