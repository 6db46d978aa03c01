package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the XiaoHongShu client
type Config struct {
	// Token server connection
	TokenServer TokenServerConfig `yaml:"token_server" json:"token_server"`

	// Target site settings
	XHS XHSConfig `yaml:"xhs" json:"xhs"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Retry behavior for HTTP calls
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Response archive settings
	Archive ArchiveConfig `yaml:"archive" json:"archive"`

	// Crawl settings
	Crawl CrawlConfig `yaml:"crawl" json:"crawl"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// TokenServerConfig holds connection settings for the remote token server
type TokenServerConfig struct {
	URL                string        `yaml:"url" json:"url"`
	APIKey             string        `yaml:"api_key" json:"api_key"`
	Timeout            time.Duration `yaml:"timeout" json:"timeout"`
	HealthTimeout      time.Duration `yaml:"health_timeout" json:"health_timeout"`
	CacheXSCommon      bool          `yaml:"cache_xs_common" json:"cache_xs_common"`
	InsecureSkipVerify bool          `yaml:"insecure_skip_verify" json:"insecure_skip_verify"`
}

// XHSConfig holds settings for requests against the XiaoHongShu web API
type XHSConfig struct {
	CookiesPath string        `yaml:"cookies_path" json:"cookies_path"`
	UserAgent   string        `yaml:"user_agent" json:"user_agent"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
	BurstSize         int `yaml:"burst_size" json:"burst_size"`
}

// RetryConfig holds retry and backoff configuration
type RetryConfig struct {
	MaxAttempts  int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay    time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay     time.Duration `yaml:"max_delay" json:"max_delay"`
	Multiplier   float64       `yaml:"multiplier" json:"multiplier"`
	JitterFactor float64       `yaml:"jitter_factor" json:"jitter_factor"`
}

// ArchiveConfig holds response archive settings
type ArchiveConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	Directory string `yaml:"directory" json:"directory"`
}

// CrawlConfig holds settings for multi-page crawls
type CrawlConfig struct {
	Pages             int  `yaml:"pages" json:"pages"`
	PageSize          int  `yaml:"page_size" json:"page_size"`
	ConcurrentFetches int  `yaml:"concurrent_fetches" json:"concurrent_fetches"`
	WithComments      bool `yaml:"with_comments" json:"with_comments"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		TokenServer: TokenServerConfig{
			Timeout:       5 * time.Second,
			HealthTimeout: 2 * time.Second,
			CacheXSCommon: true,
		},
		XHS: XHSConfig{
			CookiesPath: "cookies.json",
			UserAgent:   "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36",
			Timeout:     30 * time.Second,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
			BurstSize:         10,
		},
		Retry: RetryConfig{
			MaxAttempts:  3,
			BaseDelay:    1 * time.Second,
			MaxDelay:     60 * time.Second,
			Multiplier:   2.0,
			JitterFactor: 0.1,
		},
		Archive: ArchiveConfig{
			Enabled:   true,
			Directory: "api_logs",
		},
		Crawl: CrawlConfig{
			Pages:             1,
			PageSize:          20,
			ConcurrentFetches: 3,
			WithComments:      false,
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if serverURL := os.Getenv("XHS_TOKEN_SERVER_URL"); serverURL != "" {
		c.TokenServer.URL = serverURL
	}
	if apiKey := os.Getenv("XHS_TOKEN_SERVER_API_KEY"); apiKey != "" {
		c.TokenServer.APIKey = apiKey
	}
	if skipVerify := os.Getenv("XHS_TOKEN_SERVER_INSECURE"); skipVerify != "" {
		c.TokenServer.InsecureSkipVerify = strings.ToLower(skipVerify) == "true"
	}

	if cookiesPath := os.Getenv("XHS_COOKIES_PATH"); cookiesPath != "" {
		c.XHS.CookiesPath = cookiesPath
	}
	if userAgent := os.Getenv("XHS_USER_AGENT"); userAgent != "" {
		c.XHS.UserAgent = userAgent
	}

	if rpm := os.Getenv("XHS_REQUESTS_PER_MINUTE"); rpm != "" {
		var val int
		fmt.Sscanf(rpm, "%d", &val)
		if val > 0 {
			c.RateLimit.RequestsPerMinute = val
		}
	}

	if archiveDir := os.Getenv("XHS_ARCHIVE_DIR"); archiveDir != "" {
		c.Archive.Directory = archiveDir
	}
	if archiveEnabled := os.Getenv("XHS_ARCHIVE_ENABLED"); archiveEnabled != "" {
		c.Archive.Enabled = strings.ToLower(archiveEnabled) == "true"
	}

	if logLevel := os.Getenv("XHS_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	// Check in order of precedence
	locations := []string{
		".xhsclient.yaml",
		".xhsclient.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "xhsclient", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "xhsclient", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".xhsclient.yaml"),
		filepath.Join(os.Getenv("HOME"), ".xhsclient.yml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid. Token server credentials
// are not checked here; they may still arrive from the credential manager
// after loading.
func (c *Config) Validate() error {
	var errs []error

	// Validate token server settings
	if c.TokenServer.Timeout <= 0 {
		errs = append(errs, errors.New("token server timeout must be positive"))
	}

	// Validate target site settings
	if c.XHS.CookiesPath == "" {
		errs = append(errs, errors.New("cookies path is required"))
	}
	if c.XHS.Timeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}

	// Validate rate limiting
	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if c.RateLimit.BurstSize <= 0 {
		errs = append(errs, errors.New("burst size must be positive"))
	}

	// Validate retry settings
	if c.Retry.MaxAttempts < 0 {
		errs = append(errs, errors.New("max attempts cannot be negative"))
	}
	if c.Retry.Multiplier < 1.0 {
		errs = append(errs, errors.New("retry multiplier must be at least 1.0"))
	}

	// Validate crawl settings
	if c.Crawl.ConcurrentFetches <= 0 {
		errs = append(errs, errors.New("concurrent fetches must be positive"))
	}
	if c.Crawl.ConcurrentFetches > 10 {
		errs = append(errs, errors.New("concurrent fetches should not exceed 10"))
	}
	if c.Crawl.PageSize <= 0 || c.Crawl.PageSize > 20 {
		errs = append(errs, errors.New("crawl page size must be between 1 and 20"))
	}

	// Validate archive settings
	if c.Archive.Enabled && c.Archive.Directory == "" {
		errs = append(errs, errors.New("archive directory is required when archiving is enabled"))
	}

	// Validate logging
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// ValidateCredentials checks that the token server connection settings are
// complete. Callers run this after the credential fallback has had a chance
// to fill in stored values.
func (c *Config) ValidateCredentials() error {
	if c.TokenServer.URL == "" {
		return errors.New("token server URL is required; set token_server.url or XHS_TOKEN_SERVER_URL")
	}
	if c.TokenServer.APIKey == "" {
		return errors.New("token server API key is required; run 'xhsclient auth login' or set XHS_TOKEN_SERVER_API_KEY")
	}
	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if serverURL, ok := flags["token-server"].(string); ok && serverURL != "" {
		c.TokenServer.URL = serverURL
	}
	if apiKey, ok := flags["api-key"].(string); ok && apiKey != "" {
		c.TokenServer.APIKey = apiKey
	}
	if cookiesPath, ok := flags["cookies"].(string); ok && cookiesPath != "" {
		c.XHS.CookiesPath = cookiesPath
	}
	if archiveDir, ok := flags["archive-dir"].(string); ok && archiveDir != "" {
		c.Archive.Directory = archiveDir
	}
	if rateLimit, ok := flags["rate-limit"].(int); ok && rateLimit > 0 {
		c.RateLimit.RequestsPerMinute = rateLimit
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".env"))
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".xhsclient.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
