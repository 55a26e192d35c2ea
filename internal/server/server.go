// Package server exposes placeholder resolution over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/remotevalues/internal/config"
	"git.home.luguber.info/inful/remotevalues/internal/fetch"
	ferrors "git.home.luguber.info/inful/remotevalues/internal/foundation/errors"
	"git.home.luguber.info/inful/remotevalues/internal/logfields"
	"git.home.luguber.info/inful/remotevalues/internal/metrics"
	"git.home.luguber.info/inful/remotevalues/internal/remotevalues"
	"git.home.luguber.info/inful/remotevalues/internal/server/middleware"
)

// maxRequestBytes bounds request bodies.
const maxRequestBytes = 10 << 20

// Server serves the resolution API. All requests share one cache, flushed
// every server.cache_ttl.
type Server struct {
	cfg         *config.Config
	cache       fetch.Cache
	transformer *remotevalues.Transformer
	registry    *prom.Registry
	logger      *slog.Logger
	errors      *ferrors.HTTPErrorAdapter
	router      *chi.Mux
	flusher     *CacheFlusher
}

// Option configures a Server.
type Option func(*serverOptions)

type serverOptions struct {
	registry *prom.Registry
	recorder metrics.Recorder
	logger   *slog.Logger
}

// WithRegistry serves reg on the metrics path when metrics are enabled.
func WithRegistry(reg *prom.Registry) Option {
	return func(o *serverOptions) { o.registry = reg }
}

// WithRecorder records transform metrics.
func WithRecorder(r metrics.Recorder) Option {
	return func(o *serverOptions) { o.recorder = r }
}

// WithLogger sets the request logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *serverOptions) { o.logger = l }
}

// New builds a Server resolving through resolver.
func New(cfg *config.Config, resolver *fetch.Resolver, opts ...Option) (*Server, error) {
	if cfg == nil {
		return nil, ferrors.ConfigError("config required").Build()
	}
	o := serverOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}

	cache := fetch.NewMemoryCache()
	s := &Server{
		cfg:   cfg,
		cache: cache,
		transformer: remotevalues.New(resolver,
			remotevalues.WithCache(cache),
			remotevalues.WithRecorder(o.recorder)),
		registry: o.registry,
		logger:   o.logger,
		errors:   ferrors.NewHTTPErrorAdapter(o.logger),
		router:   chi.NewRouter(),
	}

	flusher, err := NewCacheFlusher(cache, cfg.Server.CacheTTLDuration())
	if err != nil {
		return nil, err
	}
	s.flusher = flusher

	s.setupRoutes()
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) setupRoutes() {
	s.router.Use(chimw.RequestID)
	s.router.Use(chimw.RealIP)
	s.router.Use(middleware.Chain(s.logger, s.errors))

	s.router.Get("/healthz", s.handleHealth)
	if s.cfg.Metrics.Enabled && s.registry != nil {
		s.router.Method(http.MethodGet, s.cfg.Metrics.Path, metrics.HTTPHandler(s.registry))
	}

	s.router.Route("/v1", func(r chi.Router) {
		r.Post("/tree", s.handleTree)
		r.Post("/markdown", s.handleMarkdown)
		r.Post("/html", s.handleHTML)
		r.Get("/values", s.handleValues)
		r.Delete("/cache", s.handleFlushCache)
	})
}

// ListenAndServe serves on cfg.Server.Addr until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Addr)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryRuntime, "listen").
			WithContext("addr", s.cfg.Server.Addr).Build()
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	s.flusher.Start()
	defer func() {
		if err := s.flusher.Stop(); err != nil {
			slog.Warn("Cache flush scheduler shutdown failed", logfields.Error(err))
		}
	}()

	errCh := make(chan error, 1)
	go func() { errCh <- httpServer.Serve(ln) }()
	slog.Info("Server listening", slog.String("addr", ln.Addr().String()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	slog.Info("Shutting down server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
