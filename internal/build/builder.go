package build

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/remotevalues/internal/config"
	"git.home.luguber.info/inful/remotevalues/internal/docs"
	"git.home.luguber.info/inful/remotevalues/internal/fetch"
	ferrors "git.home.luguber.info/inful/remotevalues/internal/foundation/errors"
	"git.home.luguber.info/inful/remotevalues/internal/frontmatter"
	"git.home.luguber.info/inful/remotevalues/internal/logfields"
	"git.home.luguber.info/inful/remotevalues/internal/markdown"
	"git.home.luguber.info/inful/remotevalues/internal/metrics"
	"git.home.luguber.info/inful/remotevalues/internal/observability"
	"git.home.luguber.info/inful/remotevalues/internal/remotevalues"
)

// Builder resolves a source tree into an output tree.
type Builder struct {
	cfg       config.BuildConfig
	resolver  *fetch.Resolver
	discovery *docs.Discovery
	recorder  metrics.Recorder
}

// Option configures a Builder.
type Option func(*Builder)

// WithRecorder records document and transform metrics.
func WithRecorder(r metrics.Recorder) Option {
	return func(b *Builder) { b.recorder = metrics.OrNoop(r) }
}

// New returns a Builder that resolves placeholders through resolver.
func New(cfg config.BuildConfig, resolver *fetch.Resolver, opts ...Option) *Builder {
	b := &Builder{
		cfg:       cfg,
		resolver:  resolver,
		discovery: docs.NewDiscovery(cfg),
		recorder:  metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Discovery returns the discovery used to classify source files.
func (b *Builder) Discovery() *docs.Discovery { return b.discovery }

// Build processes every document under src and writes the results below out.
func (b *Builder) Build(ctx context.Context, src, out string) (*Result, error) {
	ctx, buildID := observability.NewBuild(ctx)
	result := &Result{BuildID: buildID, StartTime: time.Now()}
	finish := func(status Status, err error) (*Result, error) {
		result.Status = status
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(result.StartTime)
		return result, err
	}

	if err := checkDirs(src, out); err != nil {
		return finish(StatusFailed, err)
	}

	files, err := b.discovery.Discover(src)
	if err != nil {
		return finish(StatusFailed, fmt.Errorf("%w: %w", ErrDiscovery, err))
	}
	files = excludeOutput(files, out)
	slog.InfoContext(ctx, "Starting build",
		logfields.Path(src),
		slog.String("output", out),
		slog.Int("files", len(files)))

	transformer := b.transformer()

	var (
		mu        sync.Mutex
		documents []DocumentResult
		assets    int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(b.cfg.Concurrency, 1))
	for _, file := range files {
		if file.IsAsset {
			if !b.cfg.CopiesAssets() {
				continue
			}
			g.Go(func() error {
				if err := copyFile(file.Path, filepath.Join(out, filepath.FromSlash(file.RelativePath))); err != nil {
					return outputError(file.RelativePath, err)
				}
				mu.Lock()
				assets++
				mu.Unlock()
				return nil
			})
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			doc, err := b.processDocument(observability.WithFile(gctx, file.RelativePath), transformer, file, out)
			if err != nil {
				b.recorder.IncDocument(metrics.DocumentFailed)
				return err
			}
			b.recorder.IncDocument(doc.Outcome)
			mu.Lock()
			documents = append(documents, doc)
			mu.Unlock()
			return nil
		})
	}

	err = g.Wait()
	sortResults(documents)
	result.Documents = documents
	result.Assets = assets

	switch {
	case err != nil && ctx.Err() != nil:
		return finish(StatusCancelled, errors.Join(err, ctx.Err()))
	case err != nil:
		return finish(StatusFailed, err)
	}

	res, _ := finish(StatusSuccess, nil)
	slog.InfoContext(ctx, "Build complete",
		slog.Int("documents", len(res.Documents)),
		slog.Int("written", res.Count(metrics.DocumentWritten)),
		slog.Int("unchanged", res.Count(metrics.DocumentUnchanged)),
		slog.Int("assets", res.Assets),
		logfields.Placeholders(res.Placeholders()),
		logfields.Duration(res.Duration))
	return res, nil
}

func (b *Builder) transformer() *remotevalues.Transformer {
	opts := []remotevalues.Option{remotevalues.WithRecorder(b.recorder)}
	if b.cfg.SharesCache() {
		opts = append(opts, remotevalues.WithCache(fetch.NewMemoryCache()))
	}
	return remotevalues.New(b.resolver, opts...)
}

// processDocument resolves one document and writes it unless the output already
// has the same fingerprint.
func (b *Builder) processDocument(ctx context.Context, t *remotevalues.Transformer, file docs.DocFile, out string) (DocumentResult, error) {
	res := DocumentResult{Path: file.RelativePath, Output: b.outputPath(file.RelativePath)}

	content, err := file.LoadContent()
	if err != nil {
		return res, documentError(file.RelativePath, err)
	}
	doc, err := frontmatter.Parse(content)
	if err != nil {
		return res, documentError(file.RelativePath, err)
	}

	enabled := doc.RemoteValuesEnabled()
	if !enabled {
		t = nil
		slog.DebugContext(ctx, "Remote values disabled by front matter")
	}

	var (
		rendered []byte
		report   remotevalues.Report
	)
	if b.cfg.Format == config.OutputHTML {
		rendered, report, err = markdown.RenderHTML(ctx, t, doc.Body)
	} else {
		body := doc.Body
		if t != nil {
			body, report, err = markdown.ResolveSource(ctx, t, doc.Body)
		}
		if err == nil {
			rendered, err = doc.Assemble(body)
		}
	}
	if err != nil {
		return res, documentError(file.RelativePath, err)
	}
	res.Placeholders = report.Placeholders
	res.Failed = report.Failed

	target := filepath.Join(out, filepath.FromSlash(res.Output))
	if unchanged(target, rendered) {
		res.Outcome = metrics.DocumentUnchanged
	} else {
		if err := writeFile(target, rendered); err != nil {
			return res, outputError(res.Output, err)
		}
		res.Outcome = metrics.DocumentWritten
	}
	if !enabled {
		res.Outcome = metrics.DocumentSkipped
	}

	slog.DebugContext(ctx, "Processed document",
		slog.String("outcome", string(res.Outcome)),
		logfields.Placeholders(res.Placeholders),
		logfields.Failed(res.Failed))
	return res, nil
}

// outputPath maps a source document path to its output path.
func (b *Builder) outputPath(rel string) string {
	if b.cfg.Format != config.OutputHTML {
		return rel
	}
	return strings.TrimSuffix(rel, filepath.Ext(rel)) + ".html"
}

// unchanged reports whether the file at path already holds exactly content. Differing
// fingerprints rule out a match before the byte comparison.
func unchanged(path string, content []byte) bool {
	existing, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	want, err := frontmatter.FingerprintFile(content)
	if err != nil {
		return false
	}
	if have, err := frontmatter.FingerprintFile(existing); err != nil || have != want {
		return false
	}
	return bytes.Equal(existing, content)
}

func checkDirs(src, out string) error {
	if strings.TrimSpace(src) == "" || strings.TrimSpace(out) == "" {
		return ferrors.ValidationError("source and output directories are required").Build()
	}
	absSrc, err := filepath.Abs(src)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "resolve source directory").Build()
	}
	absOut, err := filepath.Abs(out)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "resolve output directory").Build()
	}
	if absSrc == absOut {
		return ferrors.ValidationError("output directory must differ from source directory").
			WithContext("path", absSrc).
			Build()
	}
	return nil
}

// excludeOutput drops files that live inside an output directory nested in the source.
func excludeOutput(files []docs.DocFile, out string) []docs.DocFile {
	absOut, err := filepath.Abs(out)
	if err != nil {
		return files
	}
	prefix := absOut + string(filepath.Separator)
	kept := files[:0]
	for _, f := range files {
		if !strings.HasPrefix(f.Path, prefix) {
			kept = append(kept, f)
		}
	}
	return kept
}

func documentError(rel string, err error) error {
	return ferrors.WrapError(fmt.Errorf("%w: %w", ErrDocument, err), ferrors.CategoryBuild, "process document").
		WithContext("file", rel).
		Build()
}

func outputError(rel string, err error) error {
	return ferrors.WrapError(fmt.Errorf("%w: %w", ErrOutput, err), ferrors.CategoryFileSystem, "write output").
		WithContext("file", rel).
		Build()
}

func writeFile(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, content, 0o644)
}

func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	if err := os.MkdirAll(filepath.Dir(dst), 0o750); err != nil {
		return err
	}
	outFile, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, fs.FileMode(0o644))
	if err != nil {
		return err
	}
	defer func() {
		if cerr := outFile.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	_, err = io.Copy(outFile, in)
	return err
}
