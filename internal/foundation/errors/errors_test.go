package errors

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifiedError_Builder(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := NetworkError("fetch failed").
		WithContext("url", "https://x/a.txt").
		WithCause(cause).
		Build()

	require.Equal(t, CategoryNetwork, err.Category())
	require.Equal(t, SeverityError, err.Severity())
	require.Equal(t, RetryBackoff, err.RetryStrategy())
	require.True(t, err.CanRetry())
	require.False(t, err.IsFatal())
	require.ErrorIs(t, err, cause)
	require.Equal(t, "[network:error] fetch failed: connection refused", err.Error())

	url, ok := err.Context().GetString("url")
	require.True(t, ok)
	require.Equal(t, "https://x/a.txt", url)
}

func TestClassifiedError_ChainDetection(t *testing.T) {
	inner := ParseError("invalid JSON body").Build()
	wrapped := fmt.Errorf("resolve https://x/a.json: %w", inner)

	require.True(t, IsClassified(wrapped))
	require.True(t, HasCategory(wrapped, CategoryParse))
	require.False(t, IsRetryable(wrapped))
	require.Equal(t, CategoryParse, GetCategory(wrapped))
	require.Equal(t, CategoryInternal, GetCategory(stderrors.New("plain")))
	require.ErrorIs(t, wrapped, ParseError("invalid JSON body").Build())
}

func TestErrorContext_Merge(t *testing.T) {
	a := ErrorContext{"a": 1, "b": 2}
	b := ErrorContext{"b": 3}
	merged := a.Merge(b)
	require.Equal(t, ErrorContext{"a": 1, "b": 3}, merged)
	require.Equal(t, b, ErrorContext(nil).Merge(b))
}

func TestCLIErrorAdapter_ExitCodes(t *testing.T) {
	a := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	require.Equal(t, 0, a.ExitCodeFor(nil))
	require.Equal(t, 1, a.ExitCodeFor(stderrors.New("boom")))
	require.Equal(t, 7, a.ExitCodeFor(ConfigError("bad").Build()))
	require.Equal(t, 2, a.ExitCodeFor(ValidationError("bad").Build()))
	require.Equal(t, 8, a.ExitCodeFor(NetworkError("down").Build()))
	require.Equal(t, 11, a.ExitCodeFor(FileSystemError("disk").Build()))
}

func TestCLIErrorAdapter_Report(t *testing.T) {
	var logs, out bytes.Buffer
	a := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logs, nil)))

	code := a.Report(&out, ConfigError("missing file").WithCause(stderrors.New("enoent")).Build())

	require.Equal(t, 7, code)
	require.Equal(t, "Error: missing file (use -v for details)\n", out.String())
	require.Contains(t, logs.String(), "category=config")
}

func TestHTTPErrorAdapter_WriteErrorResponse(t *testing.T) {
	a := NewHTTPErrorAdapter(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/tree", nil)

	a.WriteErrorResponse(rec, req, ValidationError("request body is not an mdast tree").WithContext("field", "type").Build())

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var payload HTTPErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Equal(t, "request body is not an mdast tree", payload.Error)
	require.Equal(t, "validation", payload.Code)
	require.Equal(t, "type", payload.Details["field"])
	require.False(t, payload.Retryable)
}

func TestHTTPErrorAdapter_StatusCodes(t *testing.T) {
	a := NewHTTPErrorAdapter(nil)
	require.Equal(t, http.StatusOK, a.StatusCodeFor(nil))
	require.Equal(t, http.StatusBadGateway, a.StatusCodeFor(NetworkError("x").Build()))
	require.Equal(t, http.StatusNotFound, a.StatusCodeFor(NotFoundError("x").Build()))
	require.Equal(t, http.StatusInternalServerError, a.StatusCodeFor(stderrors.New("x")))
}
