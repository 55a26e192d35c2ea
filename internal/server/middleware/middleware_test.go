package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/remotevalues/internal/foundation/errors"
	"git.home.luguber.info/inful/remotevalues/internal/observability"
)

func TestChain_LogsRequestWithRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	var seen string
	h := chimw.RequestID(Chain(logger, ferrors.NewHTTPErrorAdapter(logger))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = observability.GetContext(r.Context()).RequestID
		w.WriteHeader(http.StatusTeapot)
	})))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/values", nil))

	require.Equal(t, http.StatusTeapot, rec.Code)
	require.NotEmpty(t, seen)
	require.Contains(t, buf.String(), "HTTP request")
	require.Contains(t, buf.String(), "status=418")
	require.Contains(t, buf.String(), "path=/v1/values")
}

func TestChain_RecoversPanics(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	h := Chain(logger, ferrors.NewHTTPErrorAdapter(logger))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/tree", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.JSONEq(t, `{"error":"internal server error","code":"internal","details":{"method":"POST","path":"/v1/tree"}}`, rec.Body.String())
	require.Contains(t, buf.String(), "HTTP handler panic")
}
