package observability

import (
	"context"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/remotevalues/internal/config"
	"git.home.luguber.info/inful/remotevalues/internal/logfields"
)

// LogContext holds the identifiers attached to every record logged with a context.
type LogContext struct {
	BuildID   string
	RequestID string
	File      string
}

type logContextKeyType string

const logContextKey logContextKeyType = "log-context"

// WithBuildID adds a build ID to the context.
func WithBuildID(ctx context.Context, buildID string) context.Context {
	lc := extractLogContext(ctx)
	lc.BuildID = buildID
	return context.WithValue(ctx, logContextKey, lc)
}

// NewBuild returns a context carrying a fresh random build ID, and the ID.
func NewBuild(ctx context.Context) (context.Context, string) {
	id := uuid.NewString()
	return WithBuildID(ctx, id), id
}

// WithRequestID adds an HTTP request ID to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	lc := extractLogContext(ctx)
	lc.RequestID = requestID
	return context.WithValue(ctx, logContextKey, lc)
}

// WithFile adds the document being processed to the context.
func WithFile(ctx context.Context, file string) context.Context {
	lc := extractLogContext(ctx)
	lc.File = file
	return context.WithValue(ctx, logContextKey, lc)
}

// GetContext returns the structured log context from the provided context.
func GetContext(ctx context.Context) LogContext {
	return extractLogContext(ctx)
}

func extractLogContext(ctx context.Context) LogContext {
	if ctx == nil {
		return LogContext{}
	}
	if lc, ok := ctx.Value(logContextKey).(LogContext); ok {
		return lc
	}
	return LogContext{}
}

func (lc LogContext) attrs() []slog.Attr {
	var attrs []slog.Attr
	if lc.BuildID != "" {
		attrs = append(attrs, logfields.BuildID(lc.BuildID))
	}
	if lc.RequestID != "" {
		attrs = append(attrs, logfields.RequestID(lc.RequestID))
	}
	if lc.File != "" {
		attrs = append(attrs, logfields.File(lc.File))
	}
	return attrs
}

// ContextHandler decorates a handler with the LogContext found in each record's context.
type ContextHandler struct {
	next slog.Handler
}

// NewContextHandler wraps next.
func NewContextHandler(next slog.Handler) *ContextHandler {
	return &ContextHandler{next: next}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if attrs := extractLogContext(ctx).attrs(); len(attrs) > 0 {
		r = r.Clone()
		r.AddAttrs(attrs...)
	}
	return h.next.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{next: h.next.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{next: h.next.WithGroup(name)}
}

// NewLogger builds the process logger from logging configuration. verbose forces debug level.
func NewLogger(w io.Writer, cfg config.LoggingConfig, verbose bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: Level(cfg.Level)}
	if verbose {
		opts.Level = slog.LevelDebug
	}

	var base slog.Handler
	if cfg.Format == config.LogFormatJSON {
		base = slog.NewJSONHandler(w, opts)
	} else {
		base = slog.NewTextHandler(w, opts)
	}
	return slog.New(NewContextHandler(base))
}

// Level maps a configured level to slog; unknown values are info.
func Level(l config.LogLevel) slog.Level {
	switch l {
	case config.LogLevelDebug:
		return slog.LevelDebug
	case config.LogLevelWarn:
		return slog.LevelWarn
	case config.LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
