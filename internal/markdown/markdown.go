// Package markdown connects goldmark to the placeholder transform: it converts
// Markdown into a document tree, writes resolved values back into the source as
// minimal byte edits, and resolves placeholders while rendering HTML.
package markdown

import (
	"bytes"
	"context"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"git.home.luguber.info/inful/remotevalues/internal/mdtree"
	"git.home.luguber.info/inful/remotevalues/internal/remotevalues"
)

func newMarkdown(extra ...goldmark.Extender) goldmark.Markdown {
	exts := append([]goldmark.Extender{extension.GFM}, extra...)
	return goldmark.New(goldmark.WithExtensions(exts...))
}

// Parse converts a Markdown body (front matter already removed) into a document tree.
// Inline code nodes carry the byte span of the whole code span, fences included.
func Parse(body []byte) (*mdtree.Node, error) {
	root, _ := parse(body)
	if root == nil {
		return nil, fmt.Errorf("markdown parser returned no document")
	}
	return root, nil
}

func parse(body []byte) (*mdtree.Node, *converter) {
	doc := newMarkdown().Parser().Parse(text.NewReader(body))
	conv := newConverter(body)
	nodes := conv.convert(doc)
	if len(nodes) == 0 {
		return nil, conv
	}
	return nodes[0], conv
}

// ResolveSource resolves every placeholder in body and returns the rewritten
// Markdown. Bytes outside the rewritten code spans are left untouched.
func ResolveSource(ctx context.Context, t *remotevalues.Transformer, body []byte) ([]byte, remotevalues.Report, error) {
	root, err := Parse(body)
	if err != nil {
		return nil, remotevalues.Report{}, err
	}

	report := t.Transform(ctx, root)
	if len(report.Replacements) == 0 {
		return body, report, nil
	}

	newline := "\n"
	if bytes.Contains(body, []byte("\r\n")) {
		newline = "\r\n"
	}

	edits := make([]Edit, 0, len(report.Replacements))
	for _, r := range report.Replacements {
		if !r.Span.Valid() {
			continue
		}
		edits = append(edits, Edit{
			Start:       r.Span.Start,
			End:         r.Span.End,
			Replacement: EscapeText(r.Value, newline, atLineStart(body, r.Span.Start)),
		})
	}

	out, err := ApplyEdits(body, edits)
	if err != nil {
		return nil, report, fmt.Errorf("apply placeholder edits: %w", err)
	}
	return out, report, nil
}

func atLineStart(body []byte, offset int) bool {
	for i := offset - 1; i >= 0; i-- {
		switch body[i] {
		case '\n':
			return true
		case ' ', '\t':
			continue
		default:
			return false
		}
	}
	return true
}
