package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrMissingAPIKey is returned when neither a catalog API key nor a proxy is
// configured.
var ErrMissingAPIKey = errors.New("TMDB API key is required. Get one from https://www.themoviedb.org/settings/api")

// Config represents the application configuration
type Config struct {
	TMDB      TMDBConfig      `yaml:"tmdb"`
	Proxy     ProxyConfig     `yaml:"proxy"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Options   OptionsConfig   `yaml:"options"`
	Log       LogConfig       `yaml:"log"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Export    ExportConfig    `yaml:"export"`
}

// TMDBConfig holds TMDB API configuration
type TMDBConfig struct {
	APIKey   string `yaml:"api_key"`
	Language string `yaml:"language"`
	BaseURL  string `yaml:"base_url"`
}

// ProxyConfig points at the catalog proxy tried before the direct API.
type ProxyConfig struct {
	URL                string `yaml:"url"`
	Enabled            bool   `yaml:"enabled"`
	FailureThreshold   uint32 `yaml:"failure_threshold"`
	OpenTimeoutSeconds int    `yaml:"open_timeout_seconds"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Listen       string `yaml:"listen"`
	ShareBaseURL string `yaml:"share_base_url"`
}

// StorageConfig holds the database location and cache lifetime
type StorageConfig struct {
	DBPath        string `yaml:"db_path"`
	CacheTTLHours int    `yaml:"cache_ttl_hours"`
}

// OptionsConfig holds request tuning
type OptionsConfig struct {
	RateLimitPerSecond    float64 `yaml:"rate_limit_per_second"`
	MaxAttempts           int     `yaml:"max_attempts"`
	InitialBackoffMs      int     `yaml:"initial_backoff_ms"`
	DiscoverWorkers       int     `yaml:"discover_workers"`
	RequestTimeoutSeconds int     `yaml:"request_timeout_seconds"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// SchedulerConfig controls periodic cache warm-up
type SchedulerConfig struct {
	WarmIntervalMinutes int  `yaml:"warm_interval_minutes"`
	WarmOnStartup       bool `yaml:"warm_on_startup"`
}

// ExportConfig holds the battle report directory
type ExportConfig struct {
	Dir string `yaml:"dir"`
}

// CacheTTL returns the catalog cache lifetime.
func (s StorageConfig) CacheTTL() time.Duration {
	return time.Duration(s.CacheTTLHours) * time.Hour
}

// RequestTimeout returns the per-request timeout.
func (o OptionsConfig) RequestTimeout() time.Duration {
	return time.Duration(o.RequestTimeoutSeconds) * time.Second
}

// OpenTimeout returns how long the proxy breaker stays open.
func (p ProxyConfig) OpenTimeout() time.Duration {
	return time.Duration(p.OpenTimeoutSeconds) * time.Second
}

// WarmInterval returns the cache warm-up interval. Zero disables it.
func (s SchedulerConfig) WarmInterval() time.Duration {
	return time.Duration(s.WarmIntervalMinutes) * time.Minute
}

// UseProxy reports whether the proxy should be tried first.
func (p ProxyConfig) UseProxy() bool {
	return p.Enabled && p.URL != ""
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	path, err := expandHome(path)
	if err != nil {
		return nil, err
	}

	// Read the config file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return Parse(data)
}

// Parse expands environment variables in data, decodes it, applies defaults
// and validates the result.
func Parse(data []byte) (*Config, error) {
	expandedData := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var err error
	if cfg.Storage.DBPath, err = expandHome(cfg.Storage.DBPath); err != nil {
		return nil, err
	}
	if cfg.Export.Dir, err = expandHome(cfg.Export.Dir); err != nil {
		return nil, err
	}
	if cfg.Log.File, err = expandHome(cfg.Log.File); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.TMDB.Language == "" {
		c.TMDB.Language = "en-US"
	}
	if c.Proxy.FailureThreshold == 0 {
		c.Proxy.FailureThreshold = 3
	}
	if c.Proxy.OpenTimeoutSeconds <= 0 {
		c.Proxy.OpenTimeoutSeconds = 30
	}
	if c.Server.Listen == "" {
		c.Server.Listen = ":8080"
	}
	if c.Storage.DBPath == "" {
		c.Storage.DBPath = "~/.cinepick/cinepick.db"
	}
	if c.Storage.CacheTTLHours <= 0 {
		c.Storage.CacheTTLHours = 24
	}
	if c.Options.RateLimitPerSecond <= 0 {
		c.Options.RateLimitPerSecond = 4
	}
	if c.Options.MaxAttempts <= 0 {
		c.Options.MaxAttempts = 3
	}
	if c.Options.InitialBackoffMs <= 0 {
		c.Options.InitialBackoffMs = 500
	}
	if c.Options.DiscoverWorkers <= 0 {
		c.Options.DiscoverWorkers = 5
	}
	if c.Options.RequestTimeoutSeconds <= 0 {
		c.Options.RequestTimeoutSeconds = 10
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Log.MaxSizeMB <= 0 {
		c.Log.MaxSizeMB = 10
	}
	if c.Export.Dir == "" {
		c.Export.Dir = "exports"
	}
}

// Validate checks required fields.
func (c *Config) Validate() error {
	apiKey := strings.TrimSpace(c.TMDB.APIKey)
	if (apiKey == "" || apiKey == "your_api_key_here") && !c.Proxy.UseProxy() {
		return ErrMissingAPIKey
	}
	if c.Proxy.Enabled && c.Proxy.URL == "" {
		return fmt.Errorf("proxy.url is required when the proxy is enabled")
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	if c.Scheduler.WarmIntervalMinutes < 0 {
		return fmt.Errorf("scheduler.warm_interval_minutes must not be negative")
	}
	return nil
}

// expandHome expands a leading ~ to the home directory.
func expandHome(path string) (string, error) {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}
