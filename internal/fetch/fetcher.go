package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"
	"golang.org/x/time/rate"

	"git.home.luguber.info/inful/remotevalues/internal/config"
	ferrors "git.home.luguber.info/inful/remotevalues/internal/foundation/errors"
	"git.home.luguber.info/inful/remotevalues/internal/jsonvalue"
	"git.home.luguber.info/inful/remotevalues/internal/logfields"
	"git.home.luguber.info/inful/remotevalues/internal/metrics"
	"git.home.luguber.info/inful/remotevalues/internal/placeholder"
	"git.home.luguber.info/inful/remotevalues/internal/retry"
)

const acceptHeader = "application/json, text/plain;q=0.9, */*;q=0.8"

// Source resolves one key to its final text.
type Source interface {
	Fetch(ctx context.Context, key placeholder.Key) (string, error)
}

// Fetcher retrieves remote values over HTTP and extracts their text.
type Fetcher struct {
	client    *http.Client
	timeout   time.Duration
	maxBody   int64
	userAgent string
	headers   map[string]map[string]string
	limiter   *rate.Limiter
	policy    retry.Policy
	recorder  metrics.Recorder
}

// FetcherOption customizes a Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient replaces the HTTP client. Its own Timeout is left untouched.
func WithHTTPClient(c *http.Client) FetcherOption {
	return func(f *Fetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithFetchRecorder records per-fetch metrics.
func WithFetchRecorder(r metrics.Recorder) FetcherOption {
	return func(f *Fetcher) { f.recorder = metrics.OrNoop(r) }
}

// NewFetcher builds a Fetcher from fetch configuration.
func NewFetcher(cfg config.FetchConfig, opts ...FetcherOption) *Fetcher {
	// Honors HTTP_PROXY, HTTPS_PROXY and NO_PROXY.
	transport := http.DefaultTransport.(*http.Transport).Clone()

	f := &Fetcher{
		client: &http.Client{
			Transport: transport,
			CheckRedirect: func(_ *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("stopped after %d redirects", len(via))
				}
				return nil
			},
		},
		timeout:   cfg.TimeoutDuration(),
		maxBody:   cfg.MaxBodyBytes,
		userAgent: cfg.UserAgent,
		headers:   cfg.Headers,
		policy:    retry.FromConfig(cfg),
		recorder:  metrics.NoopRecorder{},
	}
	if f.maxBody <= 0 {
		f.maxBody = 10 << 20
	}
	if f.userAgent == "" {
		f.userAgent = config.DefaultUserAgent
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = 1
		}
		f.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch performs a GET for key.URL and returns the extracted, trimmed text.
// Transient failures are retried according to the configured policy.
func (f *Fetcher) Fetch(ctx context.Context, key placeholder.Key) (string, error) {
	if key.URL == "" {
		return "", ferrors.ValidationError("empty remote value URL").Build()
	}
	var value string
	err := f.policy.Do(ctx, ferrors.IsRetryable,
		func(n int, err error) {
			slog.LogAttrs(ctx, slog.LevelDebug, "Retrying remote value fetch",
				logfields.URL(key.URL), logfields.Attempt(n), logfields.Error(err))
		},
		func(ctx context.Context) error {
			v, err := f.fetchOnce(ctx, key)
			value = v
			return err
		})
	if err != nil {
		return "", err
	}
	return value, nil
}

func (f *Fetcher) fetchOnce(ctx context.Context, key placeholder.Key) (string, error) {
	start := time.Now()
	result := metrics.FetchSuccess
	host := hostOf(key.URL)
	defer func() { f.recorder.ObserveFetch(host, time.Since(start), result) }()

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			result = metrics.FetchCanceled
			return "", ferrors.WrapError(err, ferrors.CategoryNetwork, "rate limiter wait").
				WithContext("url", key.URL).Build()
		}
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, key.URL, http.NoBody)
	if err != nil {
		result = metrics.FetchNetwork
		return "", ferrors.WrapError(err, ferrors.CategoryValidation, "invalid remote value URL").
			WithContext("url", key.URL).Build()
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", acceptHeader)
	for name, value := range f.hostHeaders(req.URL) {
		req.Header.Set(name, value)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			result = metrics.FetchCanceled
			return "", ferrors.WrapError(err, ferrors.CategoryNetwork, "request canceled").
				WithContext("url", key.URL).Build()
		}
		result = metrics.FetchNetwork
		return "", ferrors.WrapError(err, ferrors.CategoryNetwork, "request failed").
			WithContext("url", key.URL).Retryable().Build()
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		result = metrics.FetchHTTPError
		b := ferrors.NetworkError(fmt.Sprintf("unexpected status %d", resp.StatusCode)).
			WithContext("url", key.URL).
			WithContext("status", resp.StatusCode)
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			b = b.RateLimit()
		case resp.StatusCode >= 500:
			b = b.Retryable()
		default:
			b = b.WithRetry(ferrors.RetryNever)
		}
		return "", b.Build()
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBody+1))
	if err != nil {
		result = metrics.FetchNetwork
		return "", ferrors.WrapError(err, ferrors.CategoryNetwork, "reading response body").
			WithContext("url", key.URL).Retryable().Build()
	}
	if int64(len(body)) > f.maxBody {
		result = metrics.FetchParse
		return "", ferrors.ParseError(fmt.Sprintf("response body exceeds %d bytes", f.maxBody)).
			WithContext("url", key.URL).Build()
	}

	contentType := resp.Header.Get("Content-Type")
	if key.HasPath() && !IsJSON(contentType, req.URL.Path) {
		slog.LogAttrs(ctx, slog.LevelDebug, "Ignoring key path for non-JSON response",
			logfields.URL(key.URL),
			slog.String("content_type", contentType))
	}
	text, err := Extract(key, contentType, req.URL.Path, body)
	if err != nil {
		result = metrics.FetchParse
		return "", err
	}
	return text, nil
}

func (f *Fetcher) hostHeaders(u *url.URL) map[string]string {
	if len(f.headers) == 0 {
		return nil
	}
	if h, ok := f.headers[u.Host]; ok {
		return h
	}
	return f.headers[u.Hostname()]
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "invalid"
	}
	return u.Hostname()
}

// Extract turns a successful response body into the value text for key.
// JSON responses honour the key path; other content ignores it.
func Extract(key placeholder.Key, contentType, urlPath string, body []byte) (string, error) {
	if IsJSON(contentType, urlPath) {
		body = bytes.TrimPrefix(body, []byte("\uFEFF"))
		if !key.HasPath() {
			var buf bytes.Buffer
			if err := json.Compact(&buf, body); err != nil {
				return "", ferrors.WrapError(err, ferrors.CategoryParse, "invalid JSON response").Build()
			}
			return Trim(buf.String()), nil
		}
		v, err := jsonvalue.Parse(body)
		if err != nil {
			return "", ferrors.WrapError(err, ferrors.CategoryParse, "invalid JSON response").Build()
		}
		found, ok := v.Lookup(key.Path)
		if !ok {
			return "", nil
		}
		return Trim(found.Text()), nil
	}
	return Trim(decodeText(contentType, body)), nil
}

// IsJSON reports whether a response is treated as JSON: a JSON media type,
// or a URL path ending in ".json".
func IsJSON(contentType, urlPath string) bool {
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		if mediaType == "application/json" || strings.HasSuffix(mediaType, "+json") {
			return true
		}
	}
	return strings.HasSuffix(strings.ToLower(urlPath), ".json")
}

// Trim removes surrounding whitespace, including a byte order mark.
func Trim(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '\uFEFF'
	})
}

func decodeText(contentType string, body []byte) string {
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return string(body)
	}
	label := params["charset"]
	if label == "" {
		return string(body)
	}
	enc, name := charset.Lookup(label)
	if enc == nil || name == "utf-8" {
		return string(body)
	}
	decoded, _, err := transform.Bytes(enc.NewDecoder(), body)
	if err != nil {
		return string(body)
	}
	return string(decoded)
}
