package markdown

import (
	"bytes"
	"context"
	"fmt"

	"github.com/yuin/goldmark"
	gast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"git.home.luguber.info/inful/remotevalues/internal/remotevalues"
)

var (
	contextKey = parser.NewContextKey()
	reportKey  = parser.NewContextKey()
)

// Extension resolves remote placeholders while goldmark parses a document, so
// rendered HTML carries the fetched text instead of the code span.
type Extension struct {
	transformer *remotevalues.Transformer
}

// NewExtension returns a goldmark extension backed by t.
func NewExtension(t *remotevalues.Transformer) *Extension {
	return &Extension{transformer: t}
}

// Extend implements goldmark.Extender.
func (e *Extension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithASTTransformers(
		util.Prioritized(&astTransformer{transformer: e.transformer}, 500),
	))
}

type astTransformer struct {
	transformer *remotevalues.Transformer
}

func (a *astTransformer) Transform(doc *gast.Document, reader text.Reader, pc parser.Context) {
	ctx := context.Background()
	if pc != nil {
		if c, ok := pc.Get(contextKey).(context.Context); ok {
			ctx = c
		}
	}

	conv := newConverter(reader.Source())
	nodes := conv.convert(doc)
	if len(nodes) == 0 {
		return
	}
	report := a.transformer.Transform(ctx, nodes[0])

	for _, r := range report.Replacements {
		span, ok := conv.codeSpans[r.Node]
		if !ok {
			continue
		}
		parent := span.Parent()
		if parent == nil {
			continue
		}
		s := gast.NewString([]byte(r.Value))
		s.SetRaw(true)
		parent.ReplaceChild(parent, span, s)
	}
	if pc != nil {
		pc.Set(reportKey, report)
	}
}

// RenderHTML renders body to HTML with placeholders resolved. A nil t renders
// code spans as they are.
func RenderHTML(ctx context.Context, t *remotevalues.Transformer, body []byte) ([]byte, remotevalues.Report, error) {
	md := newMarkdown()
	if t != nil {
		md = newMarkdown(NewExtension(t))
	}

	pc := parser.NewContext()
	pc.Set(contextKey, ctx)

	var buf bytes.Buffer
	if err := md.Convert(body, &buf, parser.WithContext(pc)); err != nil {
		return nil, remotevalues.Report{}, fmt.Errorf("render markdown: %w", err)
	}
	report, _ := pc.Get(reportKey).(remotevalues.Report)
	return buf.Bytes(), report, nil
}
