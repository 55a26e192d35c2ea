package config

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/remotevalues/internal/version"
)

const (
	defaultMaxBodyBytes     = 10 << 20
	defaultFetchConcurrency = 8
	defaultBuildConcurrency = 4
	defaultServerAddr       = ":8089"
	defaultMetricsPath      = "/metrics"
)

// DefaultUserAgent identifies outgoing requests.
var DefaultUserAgent = "remotevalues/" + version.String()

// DefaultExtensions are the document file extensions the build processes.
var DefaultExtensions = []string{".md", ".mdx", ".markdown"}

// normalize canonicalizes enumerations and returns warnings for values that were changed.
func normalize(cfg *Config) []string {
	var warnings []string

	if raw := cfg.Fetch.RetryBackoff; raw != "" {
		if mode := NormalizeRetryBackoff(string(raw)); mode != raw {
			warnings = append(warnings, normalizedWarning("fetch.retry_backoff", string(raw), string(mode)))
			cfg.Fetch.RetryBackoff = mode
		}
	}
	if raw := cfg.Logging.Level; raw != "" {
		if lvl := NormalizeLogLevel(string(raw)); lvl != raw {
			warnings = append(warnings, normalizedWarning("logging.level", string(raw), string(lvl)))
			cfg.Logging.Level = lvl
		}
	}
	if raw := cfg.Logging.Format; raw != "" {
		if f := NormalizeLogFormat(string(raw)); f != raw {
			warnings = append(warnings, normalizedWarning("logging.format", string(raw), string(f)))
			cfg.Logging.Format = f
		}
	}
	if raw := cfg.Build.Format; raw != "" {
		if f := NormalizeOutputFormat(string(raw)); f != raw {
			warnings = append(warnings, normalizedWarning("build.format", string(raw), string(f)))
			cfg.Build.Format = f
		}
	}
	for i, ext := range cfg.Build.Extensions {
		cleaned := strings.ToLower(strings.TrimSpace(ext))
		if cleaned != "" && !strings.HasPrefix(cleaned, ".") {
			cleaned = "." + cleaned
		}
		cfg.Build.Extensions[i] = cleaned
	}
	return warnings
}

func normalizedWarning(field, from, to string) string {
	if to == "" {
		return fmt.Sprintf("unknown %s %q, using default", field, from)
	}
	return fmt.Sprintf("normalized %s from %q to %q", field, from, to)
}

// applyDefaults fills every zero value with its default.
func applyDefaults(cfg *Config) {
	if cfg.Fetch.Timeout == "" {
		cfg.Fetch.Timeout = "10s"
	}
	if cfg.Fetch.MaxBodyBytes <= 0 {
		cfg.Fetch.MaxBodyBytes = defaultMaxBodyBytes
	}
	if cfg.Fetch.Concurrency <= 0 {
		cfg.Fetch.Concurrency = defaultFetchConcurrency
	}
	if cfg.Fetch.UserAgent == "" {
		cfg.Fetch.UserAgent = DefaultUserAgent
	}
	if cfg.Fetch.RateLimit > 0 && cfg.Fetch.RateBurst <= 0 {
		cfg.Fetch.RateBurst = 1
	}
	if cfg.Fetch.MaxRetries < 0 {
		cfg.Fetch.MaxRetries = 0
	}
	if cfg.Fetch.RetryBackoff == "" {
		cfg.Fetch.RetryBackoff = RetryBackoffExponential
	}
	if cfg.Fetch.RetryInitialDelay == "" {
		cfg.Fetch.RetryInitialDelay = "500ms"
	}
	if cfg.Fetch.RetryMaxDelay == "" {
		cfg.Fetch.RetryMaxDelay = "5s"
	}

	if cfg.Build.Concurrency <= 0 {
		cfg.Build.Concurrency = defaultBuildConcurrency
	}
	if cfg.Build.Format == "" {
		cfg.Build.Format = OutputMarkdown
	}
	if len(cfg.Build.Extensions) == 0 {
		cfg.Build.Extensions = append([]string(nil), DefaultExtensions...)
	}

	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaultServerAddr
	}
	if cfg.Server.CacheTTL == "" {
		cfg.Server.CacheTTL = "10m"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = LogLevelInfo
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = LogFormatText
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = defaultMetricsPath
	}
}
