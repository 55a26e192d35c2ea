package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	ferrors "git.home.luguber.info/inful/remotevalues/internal/foundation/errors"
	"git.home.luguber.info/inful/remotevalues/internal/frontmatter"
	"git.home.luguber.info/inful/remotevalues/internal/logfields"
	"git.home.luguber.info/inful/remotevalues/internal/markdown"
	"git.home.luguber.info/inful/remotevalues/internal/metrics"
	"git.home.luguber.info/inful/remotevalues/internal/remotevalues"
)

// ResolveCmd implements the 'resolve' command.
type ResolveCmd struct {
	File    string `arg:"" name:"file" help:"Markdown file, or - for stdin" default:"-"`
	Output  string `short:"o" help:"Write to this file instead of stdout"`
	InPlace bool   `short:"i" name:"in-place" help:"Rewrite the input file"`
}

func (r *ResolveCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	if r.InPlace && (r.File == "-" || r.Output != "") {
		return ferrors.ValidationError("--in-place needs a file argument and no --output").Build()
	}
	cfg, err := root.LoadConfig(g)
	if err != nil {
		return err
	}
	doc, err := readDocument(g, r.File)
	if err != nil {
		return err
	}

	body := doc.Body
	if doc.RemoteValuesEnabled() {
		t := remotevalues.New(NewResolver(cfg, metrics.NoopRecorder{}))
		var report remotevalues.Report
		body, report, err = markdown.ResolveSource(ctx, t, doc.Body)
		if err != nil {
			return ferrors.WrapError(err, ferrors.CategoryBuild, "resolve markdown").Build()
		}
		logReport(ctx, r.File, report)
	}
	out, err := doc.Assemble(body)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryBuild, "assemble document").Build()
	}

	target := r.Output
	if r.InPlace {
		target = r.File
	}
	return writeOutput(g, target, out)
}

// RenderCmd implements the 'render' command.
type RenderCmd struct {
	File   string `arg:"" name:"file" help:"Markdown file, or - for stdin" default:"-"`
	Output string `short:"o" help:"Write to this file instead of stdout"`
}

func (r *RenderCmd) Run(ctx context.Context, g *Global, root *CLI) error {
	cfg, err := root.LoadConfig(g)
	if err != nil {
		return err
	}
	doc, err := readDocument(g, r.File)
	if err != nil {
		return err
	}

	var t *remotevalues.Transformer
	if doc.RemoteValuesEnabled() {
		t = remotevalues.New(NewResolver(cfg, metrics.NoopRecorder{}))
	}
	html, report, err := markdown.RenderHTML(ctx, t, doc.Body)
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryBuild, "render html").Build()
	}
	logReport(ctx, r.File, report)
	return writeOutput(g, r.Output, html)
}

func readDocument(g *Global, path string) (*frontmatter.Document, error) {
	var (
		content []byte
		err     error
	)
	if path == "-" {
		content, err = io.ReadAll(g.stdin())
	} else {
		content, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryFileSystem, "read input").
			WithContext("path", path).Build()
	}
	doc, err := frontmatter.Parse(content)
	if err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryParse, "invalid front matter").
			WithContext("path", path).Build()
	}
	return doc, nil
}

func writeOutput(g *Global, path string, content []byte) error {
	if path == "" || path == "-" {
		_, err := g.stdout().Write(content)
		return err
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryFileSystem, "write output").
			WithContext("path", path).Build()
	}
	return nil
}

func logReport(ctx context.Context, file string, report remotevalues.Report) {
	slog.LogAttrs(ctx, slog.LevelInfo, "Resolved document",
		logfields.File(file),
		logfields.Placeholders(report.Placeholders),
		logfields.Keys(report.Keys),
		logfields.Failed(report.Failed),
		logfields.Duration(report.Duration))
}

func parseDuration(flag, raw string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil || d <= 0 {
		return 0, ferrors.ValidationError(fmt.Sprintf("invalid %s %q", flag, raw)).Build()
	}
	return d, nil
}
