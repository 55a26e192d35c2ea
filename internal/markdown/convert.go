package markdown

import (
	"bytes"
	"strings"

	gast "github.com/yuin/goldmark/ast"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/util"

	"git.home.luguber.info/inful/remotevalues/internal/mdtree"
)

// converter builds an mdtree from a goldmark AST. Inline code nodes keep a
// link back to their goldmark node so rewrites can be mirrored.
type converter struct {
	source    []byte
	codeSpans map[*mdtree.Node]gast.Node
}

func newConverter(source []byte) *converter {
	return &converter{source: source, codeSpans: make(map[*mdtree.Node]gast.Node)}
}

func (c *converter) convert(n gast.Node) []*mdtree.Node {
	switch node := n.(type) {
	case *gast.Document:
		return one(c.parent(mdtree.KindRoot, n))
	case *gast.Paragraph, *gast.TextBlock:
		return one(c.parent(mdtree.KindParagraph, n))
	case *gast.Heading:
		h := c.parent(mdtree.KindHeading, n)
		h.Depth = node.Level
		return one(h)
	case *gast.ThematicBreak:
		return one(&mdtree.Node{Kind: mdtree.KindThematicBreak})
	case *gast.Blockquote:
		return one(c.parent(mdtree.KindBlockquote, n))
	case *gast.List:
		l := c.parent(mdtree.KindList, n)
		l.Extra = map[string]any{"ordered": node.IsOrdered(), "spread": !node.IsTight}
		if node.IsOrdered() {
			l.Extra["start"] = node.Start
		}
		return one(l)
	case *gast.ListItem:
		return one(c.parent(mdtree.KindListItem, n))
	case *gast.FencedCodeBlock:
		code := &mdtree.Node{Kind: mdtree.KindCode, Value: c.lines(n)}
		if node.Info != nil {
			info := strings.TrimSpace(string(node.Info.Segment.Value(c.source)))
			lang, meta, _ := strings.Cut(info, " ")
			code.Lang = lang
			code.Meta = strings.TrimSpace(meta)
		}
		return one(code)
	case *gast.CodeBlock:
		return one(&mdtree.Node{Kind: mdtree.KindCode, Value: c.lines(n)})
	case *gast.HTMLBlock:
		value := c.lines(n)
		if node.HasClosure() {
			value += "\n" + strings.TrimRight(string(node.ClosureLine.Value(c.source)), "\r\n")
		}
		return one(&mdtree.Node{Kind: mdtree.KindHTML, Value: value})
	case *gast.Text:
		return c.text(node)
	case *gast.String:
		return one(mdtree.NewText(string(node.Value)))
	case *gast.CodeSpan:
		return one(c.codeSpan(node))
	case *gast.Emphasis:
		if node.Level >= 2 {
			return one(c.parent(mdtree.KindStrong, n))
		}
		return one(c.parent(mdtree.KindEmphasis, n))
	case *gast.Link:
		l := c.parent(mdtree.KindLink, n)
		l.URL = string(node.Destination)
		if len(node.Title) > 0 {
			l.Extra = map[string]any{"title": string(node.Title)}
		}
		return one(l)
	case *gast.Image:
		img := &mdtree.Node{Kind: mdtree.KindImage, URL: string(node.Destination)}
		img.Extra = map[string]any{"alt": plainText(c.children(n))}
		if len(node.Title) > 0 {
			img.Extra["title"] = string(node.Title)
		}
		return one(img)
	case *gast.AutoLink:
		return one(&mdtree.Node{
			Kind:     mdtree.KindLink,
			URL:      string(node.URL(c.source)),
			Children: []*mdtree.Node{mdtree.NewText(string(node.Label(c.source)))},
		})
	case *gast.RawHTML:
		var b strings.Builder
		for i := 0; i < node.Segments.Len(); i++ {
			seg := node.Segments.At(i)
			b.Write(seg.Value(c.source))
		}
		return one(&mdtree.Node{Kind: mdtree.KindHTML, Value: b.String()})
	case *east.Strikethrough:
		return one(c.parent(mdtree.KindDelete, n))
	case *east.Table:
		return one(c.parent(mdtree.KindTable, n))
	case *east.TableHeader, *east.TableRow:
		return one(c.parent(mdtree.KindTableRow, n))
	case *east.TableCell:
		return one(c.parent(mdtree.KindTableCell, n))
	case *east.TaskCheckBox:
		return nil
	default:
		return one(c.parent(mdtree.Kind(n.Kind().String()), n))
	}
}

func one(n *mdtree.Node) []*mdtree.Node { return []*mdtree.Node{n} }

func (c *converter) parent(kind mdtree.Kind, n gast.Node) *mdtree.Node {
	return &mdtree.Node{Kind: kind, Children: c.children(n)}
}

func (c *converter) children(n gast.Node) []*mdtree.Node {
	var out []*mdtree.Node
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		out = append(out, c.convert(child)...)
	}
	return out
}

func (c *converter) text(t *gast.Text) []*mdtree.Node {
	seg := t.Segment
	value := seg.Value(c.source)
	if !t.IsRaw() {
		value = util.UnescapePunctuations(value)
	}
	n := &mdtree.Node{Kind: mdtree.KindText, Value: string(value), Span: mdtree.Span{Start: seg.Start, End: seg.Stop}}
	switch {
	case t.HardLineBreak():
		return []*mdtree.Node{n, {Kind: mdtree.KindBreak}}
	case t.SoftLineBreak():
		n.Value += "\n"
	}
	return one(n)
}

func (c *converter) codeSpan(cs *gast.CodeSpan) *mdtree.Node {
	var b bytes.Buffer
	start, stop := -1, -1
	for child := cs.FirstChild(); child != nil; child = child.NextSibling() {
		switch t := child.(type) {
		case *gast.Text:
			if start < 0 {
				start = t.Segment.Start
			}
			stop = t.Segment.Stop
			b.Write(t.Segment.Value(c.source))
		case *gast.String:
			b.Write(t.Value)
		}
	}
	value := strings.NewReplacer("\r\n", " ", "\n", " ").Replace(b.String())

	n := &mdtree.Node{Kind: mdtree.KindInlineCode, Value: value}
	if start >= 0 {
		n.Span = c.fenceSpan(start, stop)
	}
	c.codeSpans[n] = cs
	return n
}

// fenceSpan widens the content range [start, stop) of a code span to include
// its backtick fences and the single padding space goldmark strips.
func (c *converter) fenceSpan(start, stop int) mdtree.Span {
	src := c.source
	isPad := func(b byte) bool { return b == ' ' || b == '\n' }

	if start >= 2 && isPad(src[start-1]) && src[start-2] == '`' {
		start--
	}
	fence := 0
	for start > 0 && src[start-1] == '`' {
		start--
		fence++
	}
	if fence == 0 {
		return mdtree.Span{}
	}

	if stop+1 < len(src) && isPad(src[stop]) && src[stop+1] == '`' {
		stop++
	}
	for closing := 0; closing < fence && stop < len(src) && src[stop] == '`'; closing++ {
		stop++
	}
	return mdtree.Span{Start: start, End: stop}
}

func (c *converter) lines(n gast.Node) string {
	lines := n.Lines()
	var b strings.Builder
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(c.source))
	}
	return strings.TrimRight(b.String(), "\r\n")
}

func plainText(nodes []*mdtree.Node) string {
	var b strings.Builder
	for _, n := range nodes {
		mdtree.Walk(n, func(x *mdtree.Node) bool {
			if x.Kind == mdtree.KindText || x.Kind == mdtree.KindInlineCode {
				b.WriteString(x.Value)
			}
			return true
		})
	}
	return b.String()
}
