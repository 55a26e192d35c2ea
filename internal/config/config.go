package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// CurrentVersion is the configuration schema version written by Init.
const CurrentVersion = "1"

// DefaultPath is the configuration file looked up when none is given.
const DefaultPath = "remotevalues.yaml"

// Config is the complete remotevalues configuration.
type Config struct {
	Version string        `yaml:"version"`
	Fetch   FetchConfig   `yaml:"fetch"`
	Build   BuildConfig   `yaml:"build"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	// Values declares named remote values ("<url>|<path>") resolved as one batch.
	Values map[string]string `yaml:"values,omitempty"`
}

// FetchConfig controls how remote values are retrieved.
type FetchConfig struct {
	Timeout           string            `yaml:"timeout"`        // per request, e.g. "10s"
	MaxBodyBytes      int64             `yaml:"max_body_bytes"` // larger responses fail
	Concurrency       int               `yaml:"concurrency"`    // in-flight requests per resolution
	UserAgent         string            `yaml:"user_agent"`
	RateLimit         float64           `yaml:"rate_limit"` // requests per second, 0 disables
	RateBurst         int               `yaml:"rate_burst"`
	MaxRetries        int               `yaml:"max_retries"`
	RetryBackoff      RetryBackoffMode  `yaml:"retry_backoff"`
	RetryInitialDelay string            `yaml:"retry_initial_delay"`
	RetryMaxDelay     string            `yaml:"retry_max_delay"`
	// Headers are extra request headers keyed by host, e.g. an API token for one domain.
	Headers map[string]map[string]string `yaml:"headers,omitempty"`
}

// BuildConfig controls the site build command.
type BuildConfig struct {
	Concurrency int          `yaml:"concurrency"` // documents processed in parallel
	ShareCache  *bool        `yaml:"share_cache,omitempty"`
	Format      OutputFormat `yaml:"format"`
	Extensions  []string     `yaml:"extensions,omitempty"`
	CopyAssets  *bool        `yaml:"copy_assets,omitempty"`
}

// ServerConfig controls the HTTP service.
type ServerConfig struct {
	Addr     string `yaml:"addr"`
	CacheTTL string `yaml:"cache_ttl"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// MetricsConfig controls the Prometheus endpoint of the HTTP service.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// TimeoutDuration returns the parsed per-request timeout.
func (f FetchConfig) TimeoutDuration() time.Duration {
	return parseDurationOr(f.Timeout, 10*time.Second)
}

// RetryInitialDelayDuration returns the parsed initial retry delay.
func (f FetchConfig) RetryInitialDelayDuration() time.Duration {
	return parseDurationOr(f.RetryInitialDelay, 500*time.Millisecond)
}

// RetryMaxDelayDuration returns the parsed retry delay cap.
func (f FetchConfig) RetryMaxDelayDuration() time.Duration {
	return parseDurationOr(f.RetryMaxDelay, 5*time.Second)
}

// SharesCache reports whether documents of one build share a fetch cache.
func (b BuildConfig) SharesCache() bool { return b.ShareCache == nil || *b.ShareCache }

// CopiesAssets reports whether non-Markdown files are copied to the output.
func (b BuildConfig) CopiesAssets() bool { return b.CopyAssets == nil || *b.CopyAssets }

// CacheTTLDuration returns how long the service keeps fetched values.
func (s ServerConfig) CacheTTLDuration() time.Duration {
	return parseDurationOr(s.CacheTTL, 10*time.Minute)
}

func parseDurationOr(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{Version: CurrentVersion}
	applyDefaults(cfg)
	return cfg
}

// Load reads, expands, normalizes, defaults and validates a configuration file.
// Variables from .env and .env.local are loaded first without overriding the environment.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("configuration file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes configuration YAML. ${VAR} references are expanded from the environment.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader([]byte(expanded)))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Version == "" {
		cfg.Version = CurrentVersion
	}
	if cfg.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported configuration version: %s (expected %s)", cfg.Version, CurrentVersion)
	}

	for _, w := range normalize(&cfg) {
		slog.Warn("config normalization", "detail", w)
	}
	applyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func loadEnvFiles() {
	for _, p := range []string{".env", ".env.local"} {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			slog.Warn("failed to load env file", "path", p, "error", err)
			continue
		}
		slog.Debug("loaded environment file", "path", p)
	}
}

// Init writes an example configuration file.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
	}

	example := Default()
	example.Values = map[string]string{
		"latestRelease": "https://api.github.com/repos/OWNER/REPO/releases/latest|tag_name",
	}

	data, err := yaml.Marshal(example)
	if err != nil {
		return fmt.Errorf("failed to marshal example config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
