package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GIG_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5000/api/v1", cfg.APIBaseURL)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "91", cfg.DefaultCountryCode)
	assert.Equal(t, StoreFile, cfg.TokenStore)
	assert.Equal(t, "ws://localhost:5000/ws/chat", cfg.ChatWSURL)
	assert.False(t, cfg.IsProduction())
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gig.yaml")
	yaml := "api_base_url: https://api.example.com/api/v1/\nrequest_timeout: 5s\ntoken_store: Redis\nlog_level: debug\n"
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	t.Setenv("GIG_CONFIG", path)
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("GIG_REQUEST_TIMEOUT", "1500")
	t.Setenv("ENV", "Production")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com/api/v1", cfg.APIBaseURL)
	assert.Equal(t, 1500*time.Millisecond, cfg.RequestTimeout)
	assert.Equal(t, StoreRedis, cfg.TokenStore)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "wss://api.example.com/ws/chat", cfg.ChatWSURL)
	assert.True(t, cfg.IsProduction())
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gig.yaml")
	require.NoError(t, os.WriteFile(path, []byte("request_timeout: [nope"), 0o600))
	t.Setenv("GIG_CONFIG", path)

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"fake provider memory store", func(c *Config) {}, false},
		{"relative base url", func(c *Config) { c.APIBaseURL = "/api" }, true},
		{"zero timeout", func(c *Config) { c.RequestTimeout = 0 }, true},
		{"unknown store", func(c *Config) { c.TokenStore = "sqlite" }, true},
		{"firebase without key", func(c *Config) { c.PhoneProvider = "firebase" }, true},
		{"firebase with key", func(c *Config) { c.PhoneProvider = "firebase"; c.FirebaseAPIKey = "k" }, false},
		{"redis without uri", func(c *Config) { c.TokenStore = StoreRedis; c.RedisURI = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			cfg.PhoneProvider = "fake"
			cfg.TokenStore = StoreMemory
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
