package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	require.Equal(t, CurrentVersion, cfg.Version)
	require.Equal(t, 10*time.Second, cfg.Fetch.TimeoutDuration())
	require.Equal(t, int64(10<<20), cfg.Fetch.MaxBodyBytes)
	require.Equal(t, 8, cfg.Fetch.Concurrency)
	require.Equal(t, 0, cfg.Fetch.MaxRetries)
	require.Equal(t, DefaultUserAgent, cfg.Fetch.UserAgent)
	require.Equal(t, OutputMarkdown, cfg.Build.Format)
	require.True(t, cfg.Build.SharesCache())
	require.True(t, cfg.Build.CopiesAssets())
	require.Equal(t, DefaultExtensions, cfg.Build.Extensions)
	require.Equal(t, 10*time.Minute, cfg.Server.CacheTTLDuration())
	require.Equal(t, LogLevelInfo, cfg.Logging.Level)
	require.Equal(t, "/metrics", cfg.Metrics.Path)
	require.NoError(t, Validate(cfg))
}

func TestParse_ExpandsEnvAndNormalizes(t *testing.T) {
	t.Setenv("RV_TEST_TIMEOUT", "3s")

	cfg, err := Parse([]byte(`
version: "1"
fetch:
  timeout: ${RV_TEST_TIMEOUT}
  retry_backoff: LINEAR
  max_retries: 2
  headers:
    api.github.com:
      Authorization: Bearer abc
build:
  format: MD
  share_cache: false
  extensions: [md, .MDX]
logging:
  level: Warning
  format: JSON
values:
  release: https://x/release.json|tag_name
`))
	require.NoError(t, err)

	require.Equal(t, 3*time.Second, cfg.Fetch.TimeoutDuration())
	require.Equal(t, RetryBackoffLinear, cfg.Fetch.RetryBackoff)
	require.Equal(t, 2, cfg.Fetch.MaxRetries)
	require.Equal(t, "Bearer abc", cfg.Fetch.Headers["api.github.com"]["Authorization"])
	require.Equal(t, OutputMarkdown, cfg.Build.Format)
	require.False(t, cfg.Build.SharesCache())
	require.Equal(t, []string{".md", ".mdx"}, cfg.Build.Extensions)
	require.Equal(t, LogLevelWarn, cfg.Logging.Level)
	require.Equal(t, LogFormatJSON, cfg.Logging.Format)
	require.Equal(t, "https://x/release.json|tag_name", cfg.Values["release"])
}

func TestParse_EmptyDocumentUsesDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestParse_RejectsUnknownFieldsAndVersions(t *testing.T) {
	_, err := Parse([]byte("fetch:\n  timeuot: 1s\n"))
	require.Error(t, err)

	_, err = Parse([]byte("version: \"2\"\n"))
	require.ErrorContains(t, err, "unsupported configuration version")
}

func TestParse_ValidationErrors(t *testing.T) {
	_, err := Parse([]byte(`
fetch:
  timeout: soon
  rate_limit: -1
metrics:
  path: metrics
values:
  broken: "|path"
`))
	require.Error(t, err)
	require.ErrorContains(t, err, "fetch.timeout")
	require.ErrorContains(t, err, "fetch.rate_limit")
	require.ErrorContains(t, err, "metrics.path")
	require.ErrorContains(t, err, "values.broken")
}

func TestLoad_ReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(".env", []byte("RV_DOTENV_UA=from-dotenv\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("RV_DOTENV_UA") })

	path := filepath.Join(dir, "remotevalues.yaml")
	require.NoError(t, os.WriteFile(path, []byte("fetch:\n  user_agent: ${RV_DOTENV_UA}\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "from-dotenv", cfg.Fetch.UserAgent)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.ErrorContains(t, err, "configuration file not found")
}

func TestInit_WritesLoadableConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "remotevalues.yaml")
	require.NoError(t, Init(path, false))
	require.Error(t, Init(path, false))
	require.NoError(t, Init(path, true))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Contains(t, cfg.Values, "latestRelease")
}
