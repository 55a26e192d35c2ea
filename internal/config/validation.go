package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"git.home.luguber.info/inful/remotevalues/internal/placeholder"
)

// Validate checks a defaulted configuration and reports every problem found.
func Validate(cfg *Config) error {
	var errs []error

	for field, raw := range map[string]string{
		"fetch.timeout":             cfg.Fetch.Timeout,
		"fetch.retry_initial_delay": cfg.Fetch.RetryInitialDelay,
		"fetch.retry_max_delay":     cfg.Fetch.RetryMaxDelay,
		"server.cache_ttl":          cfg.Server.CacheTTL,
	} {
		if d, err := time.ParseDuration(raw); err != nil || d <= 0 {
			errs = append(errs, fmt.Errorf("%s: invalid duration %q", field, raw))
		}
	}
	if cfg.Fetch.RateLimit < 0 {
		errs = append(errs, errors.New("fetch.rate_limit cannot be negative"))
	}
	if cfg.Fetch.MaxRetries > 10 {
		errs = append(errs, fmt.Errorf("fetch.max_retries %d exceeds 10", cfg.Fetch.MaxRetries))
	}
	for host := range cfg.Fetch.Headers {
		if strings.TrimSpace(host) == "" || strings.Contains(host, "/") {
			errs = append(errs, fmt.Errorf("fetch.headers: %q is not a host name", host))
		}
	}
	for _, ext := range cfg.Build.Extensions {
		if ext == "" || ext == "." {
			errs = append(errs, errors.New("build.extensions contains an empty extension"))
		}
	}
	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, fmt.Errorf("metrics.path must start with '/': %q", cfg.Metrics.Path))
	}

	names := make([]string, 0, len(cfg.Values))
	for name := range cfg.Values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			errs = append(errs, errors.New("values: empty value name"))
			continue
		}
		if _, ok := placeholder.ParseSpec(cfg.Values[name]); !ok {
			errs = append(errs, fmt.Errorf("values.%s: %q is not <url> or <url>|<path>", name, cfg.Values[name]))
		}
	}

	// Sort for stable messages; map iteration above is unordered.
	sort.Slice(errs, func(i, j int) bool { return errs[i].Error() < errs[j].Error() })
	return errors.Join(errs...)
}
