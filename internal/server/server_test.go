package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/remotevalues/internal/config"
	"git.home.luguber.info/inful/remotevalues/internal/fetch"
	"git.home.luguber.info/inful/remotevalues/internal/metrics"
	"git.home.luguber.info/inful/remotevalues/internal/testutil/testutils"
)

func newUpstream(t *testing.T) string {
	return testutils.NewUpstream(t, map[string]testutils.Response{
		"/v.txt":        testutils.Text("1.2.3\n"),
		"/release.json": testutils.JSON(`{"tag_name":"v2"}`),
	}).URL
}

func newTestServer(t *testing.T, mutate func(*config.Config)) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.Metrics.Enabled = true
	if mutate != nil {
		mutate(cfg)
	}
	reg := prom.NewRegistry()
	rec := metrics.NewPrometheusRecorder(reg)
	resolver := fetch.NewResolver(fetch.NewFetcher(cfg.Fetch, fetch.WithFetchRecorder(rec)), fetch.WithRecorder(rec))
	s, err := New(cfg, resolver, WithRegistry(reg), WithRecorder(rec))
	require.NoError(t, err)
	return s
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(t, nil), http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	require.NotEmpty(t, rec.Header().Get("Content-Type"))
}

func TestTree(t *testing.T) {
	base := newUpstream(t)
	s := newTestServer(t, nil)

	tree := `{"type":"root","children":[{"type":"paragraph","children":[` +
		`{"type":"text","value":"v"},{"type":"inlineCode","value":"remote:` + base + `/v.txt"}]}]}`
	rec := do(t, s, http.MethodPost, "/v1/tree", tree)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "1", rec.Header().Get(HeaderPlaceholders))
	require.Equal(t, "0", rec.Header().Get(HeaderFailed))
	require.JSONEq(t, `{"type":"root","children":[{"type":"paragraph","children":[{"type":"text","value":"v"},{"type":"text","value":"1.2.3"}]}]}`, rec.Body.String())

	rec = do(t, s, http.MethodPost, "/v1/tree", `{"type":`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "invalid mdast tree")
}

func TestMarkdown(t *testing.T) {
	base := newUpstream(t)
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodPost, "/v1/markdown",
		"---\ntitle: Notes\n---\nRelease `remote:"+base+"/release.json|tag_name`, gone `remote:"+base+"/missing`.\n")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "2", rec.Header().Get(HeaderPlaceholders))
	require.Equal(t, "1", rec.Header().Get(HeaderFailed))
	require.Equal(t, "---\ntitle: Notes\n---\nRelease v2, gone .\n", rec.Body.String())

	rec = do(t, s, http.MethodPost, "/v1/markdown", "---\nremote_values: false\n---\nKeep `remote:"+base+"/v.txt`\n")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Keep `remote:"+base+"/v.txt`\n", rec.Body.String())

	rec = do(t, s, http.MethodPost, "/v1/markdown", "---\ntitle: open\n")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHTML(t *testing.T) {
	base := newUpstream(t)
	rec := do(t, newTestServer(t, nil), http.MethodPost, "/v1/html", "Version `remote:"+base+"/v.txt`\n")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	require.Equal(t, "<p>Version 1.2.3</p>\n", rec.Body.String())
}

func TestValues(t *testing.T) {
	base := newUpstream(t)
	s := newTestServer(t, func(cfg *config.Config) {
		cfg.Values = map[string]string{
			"latestRelease": base + "/release.json|tag_name",
			"version":       "remote:" + base + "/v.txt",
		}
	})

	rec := do(t, s, http.MethodGet, "/v1/values", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var values map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &values))
	require.Equal(t, map[string]string{"latestRelease": "v2", "version": "1.2.3"}, values)

	rec = do(t, newTestServer(t, func(cfg *config.Config) {
		cfg.Values = map[string]string{"bad": "remote:"}
	}), http.MethodGet, "/v1/values", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFlushCacheAndMetrics(t *testing.T) {
	base := newUpstream(t)
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodPost, "/v1/markdown", "`remote:"+base+"/v.txt`\n")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodDelete, "/v1/cache", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"flushed":1}`, rec.Body.String())

	rec = do(t, s, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "remotevalues_placeholders_total")
	require.Contains(t, rec.Body.String(), "remotevalues_fetch_duration_seconds")
}

func TestMetricsDisabled(t *testing.T) {
	s := newTestServer(t, func(cfg *config.Config) { cfg.Metrics.Enabled = false })
	require.Equal(t, http.StatusNotFound, do(t, s, http.MethodGet, "/metrics", "").Code)
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	s := newTestServer(t, nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestCacheFlusher(t *testing.T) {
	cache := fetch.NewMemoryCache()
	cache.Set("k|", "v")

	f, err := NewCacheFlusher(cache, 20*time.Millisecond)
	require.NoError(t, err)
	f.Start()
	t.Cleanup(func() { require.NoError(t, f.Stop()) })

	require.Eventually(t, func() bool { return cache.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}
