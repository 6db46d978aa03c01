package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := DefaultConfig()
	cfg.TokenServer.URL = "http://localhost:8000"
	cfg.TokenServer.APIKey = "test-key"
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 5*time.Second, cfg.TokenServer.Timeout)
	assert.True(t, cfg.TokenServer.CacheXSCommon)
	assert.Equal(t, "cookies.json", cfg.XHS.CookiesPath)
	assert.Equal(t, 60, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 2.0, cfg.Retry.Multiplier)
	assert.Equal(t, 20, cfg.Crawl.PageSize)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Archive.Enabled)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("XHS_TOKEN_SERVER_URL", "http://tokens.example:9000")
	t.Setenv("XHS_TOKEN_SERVER_API_KEY", "env-key")
	t.Setenv("XHS_COOKIES_PATH", "/tmp/cookies.json")
	t.Setenv("XHS_REQUESTS_PER_MINUTE", "30")
	t.Setenv("XHS_ARCHIVE_ENABLED", "false")
	t.Setenv("XHS_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "http://tokens.example:9000", cfg.TokenServer.URL)
	assert.Equal(t, "env-key", cfg.TokenServer.APIKey)
	assert.Equal(t, "/tmp/cookies.json", cfg.XHS.CookiesPath)
	assert.Equal(t, 30, cfg.RateLimit.RequestsPerMinute)
	assert.False(t, cfg.Archive.Enabled)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromEnvIgnoresInvalidRate(t *testing.T) {
	t.Setenv("XHS_REQUESTS_PER_MINUTE", "not-a-number")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, 60, cfg.RateLimit.RequestsPerMinute)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			// Credentials may still come from the credential manager
			// after loading, so Validate does not require them.
			name: "missing credentials",
			mutate: func(c *Config) {
				c.TokenServer.URL = ""
				c.TokenServer.APIKey = ""
			},
		},
		{
			name:    "zero burst size",
			mutate:  func(c *Config) { c.RateLimit.BurstSize = 0 },
			wantErr: "burst size must be positive",
		},
		{
			name:    "missing cookies path",
			mutate:  func(c *Config) { c.XHS.CookiesPath = "" },
			wantErr: "cookies path is required",
		},
		{
			name:    "zero rate limit",
			mutate:  func(c *Config) { c.RateLimit.RequestsPerMinute = 0 },
			wantErr: "requests per minute must be positive",
		},
		{
			name:    "multiplier below one",
			mutate:  func(c *Config) { c.Retry.Multiplier = 0.5 },
			wantErr: "retry multiplier must be at least 1.0",
		},
		{
			name:    "too many concurrent fetches",
			mutate:  func(c *Config) { c.Crawl.ConcurrentFetches = 50 },
			wantErr: "concurrent fetches should not exceed 10",
		},
		{
			name:    "page size over limit",
			mutate:  func(c *Config) { c.Crawl.PageSize = 100 },
			wantErr: "crawl page size must be between 1 and 20",
		},
		{
			name:    "archive enabled without directory",
			mutate:  func(c *Config) { c.Archive.Directory = "" },
			wantErr: "archive directory is required when archiving is enabled",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "invalid log level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateCredentials(t *testing.T) {
	cfg := validConfig()
	assert.NoError(t, cfg.ValidateCredentials())

	cfg.TokenServer.APIKey = ""
	err := cfg.ValidateCredentials()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth login")

	cfg.TokenServer.URL = ""
	err = cfg.ValidateCredentials()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token server URL is required")
}

func TestLoadWithoutCredentials(t *testing.T) {
	t.Setenv("XHS_TOKEN_SERVER_URL", "")
	t.Setenv("XHS_TOKEN_SERVER_API_KEY", "")
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Empty(t, cfg.TokenServer.APIKey)
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := validConfig()

	cfg.MergeCommandLineFlags(map[string]interface{}{
		"token-server": "http://flag.example",
		"api-key":      "flag-key",
		"cookies":      "/flags/cookies.json",
		"archive-dir":  "/flags/archive",
		"rate-limit":   15,
		"log-level":    "warn",
	})

	assert.Equal(t, "http://flag.example", cfg.TokenServer.URL)
	assert.Equal(t, "flag-key", cfg.TokenServer.APIKey)
	assert.Equal(t, "/flags/cookies.json", cfg.XHS.CookiesPath)
	assert.Equal(t, "/flags/archive", cfg.Archive.Directory)
	assert.Equal(t, 15, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestMergeCommandLineFlagsIgnoresEmpty(t *testing.T) {
	cfg := validConfig()

	cfg.MergeCommandLineFlags(map[string]interface{}{
		"token-server": "",
		"rate-limit":   0,
	})

	assert.Equal(t, "http://localhost:8000", cfg.TokenServer.URL)
	assert.Equal(t, 60, cfg.RateLimit.RequestsPerMinute)
}

func TestSaveAndLoadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := validConfig()
	cfg.RateLimit.RequestsPerMinute = 42
	cfg.Logging.Level = "debug"
	require.NoError(t, cfg.Save(path))

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))

	assert.Equal(t, cfg.TokenServer.URL, loaded.TokenServer.URL)
	assert.Equal(t, 42, loaded.RateLimit.RequestsPerMinute)
	assert.Equal(t, "debug", loaded.Logging.Level)
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadFromFileInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("token_server: [not: closed"), 0600))

	cfg := DefaultConfig()
	err := cfg.LoadFromFile(path)
	assert.Error(t, err)
}
