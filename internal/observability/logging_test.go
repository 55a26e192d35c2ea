package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/remotevalues/internal/config"
)

func TestLogContext_Accumulates(t *testing.T) {
	ctx := WithBuildID(context.Background(), "b-1")
	ctx = WithRequestID(ctx, "r-1")
	ctx = WithFile(ctx, "docs/intro.md")

	require.Equal(t, LogContext{BuildID: "b-1", RequestID: "r-1", File: "docs/intro.md"}, GetContext(ctx))
	require.Equal(t, LogContext{}, GetContext(context.Background()))
}

func TestNewBuild_GeneratesUUID(t *testing.T) {
	ctx, id := NewBuild(context.Background())
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	require.Equal(t, id, GetContext(ctx).BuildID)

	_, other := NewBuild(context.Background())
	require.NotEqual(t, id, other)
}

func TestNewLogger_JSONIncludesContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, config.LoggingConfig{Level: config.LogLevelInfo, Format: config.LogFormatJSON}, false)

	ctx := WithFile(WithBuildID(context.Background(), "b-42"), "guide.md")
	logger.InfoContext(ctx, "resolved", slog.Int("placeholders", 2))
	logger.DebugContext(ctx, "hidden")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	require.Equal(t, "resolved", rec["msg"])
	require.Equal(t, "b-42", rec["build_id"])
	require.Equal(t, "guide.md", rec["file"])
	require.InDelta(t, 2, rec["placeholders"], 0)
}

func TestNewLogger_VerboseEnablesDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, config.LoggingConfig{Level: config.LogLevelError}, true)
	logger.Debug("visible")
	require.Contains(t, buf.String(), "msg=visible")
}

func TestContextHandler_WithAttrsKeepsContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, config.LoggingConfig{}, false).With("component", "fetch").WithGroup("g")
	logger.InfoContext(WithRequestID(context.Background(), "req-9"), "hello", "k", "v")

	out := buf.String()
	require.Contains(t, out, "component=fetch")
	require.Contains(t, out, "req-9")
}

func TestLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, Level(config.LogLevelDebug))
	require.Equal(t, slog.LevelWarn, Level(config.LogLevelWarn))
	require.Equal(t, slog.LevelError, Level(config.LogLevelError))
	require.Equal(t, slog.LevelInfo, Level(""))
}
