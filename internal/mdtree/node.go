// Package mdtree is the mutable document tree the placeholder transform operates on.
//
// The node vocabulary follows mdast so trees produced by remark can be exchanged as JSON.
// Nodes are always handled by pointer: rewriting a node changes it in place and parents keep
// referring to the same *Node.
package mdtree

// Kind discriminates node types. Values match mdast "type" names.
type Kind string

const (
	KindRoot          Kind = "root"
	KindParagraph     Kind = "paragraph"
	KindHeading       Kind = "heading"
	KindText          Kind = "text"
	KindInlineCode    Kind = "inlineCode"
	KindCode          Kind = "code"
	KindEmphasis      Kind = "emphasis"
	KindStrong        Kind = "strong"
	KindDelete        Kind = "delete"
	KindLink          Kind = "link"
	KindImage         Kind = "image"
	KindList          Kind = "list"
	KindListItem      Kind = "listItem"
	KindBlockquote    Kind = "blockquote"
	KindThematicBreak Kind = "thematicBreak"
	KindBreak         Kind = "break"
	KindHTML          Kind = "html"
	KindTable         Kind = "table"
	KindTableRow      Kind = "tableRow"
	KindTableCell     Kind = "tableCell"
)

// Span is a half-open byte range into the source a tree was parsed from.
type Span struct {
	Start int
	End   int
}

// Valid reports whether the span points at real source bytes.
func (s Span) Valid() bool { return s.End > s.Start && s.Start >= 0 }

// Node is one element of a document tree.
type Node struct {
	Kind     Kind
	Value    string
	Lang     string
	Meta     string
	URL      string
	Depth    int
	Children []*Node

	// Span locates the node in its Markdown source. It is never serialized.
	Span Span

	// Extra holds mdast fields this package does not model (position, data, title, ...).
	Extra map[string]any
}

// NewText returns a text node.
func NewText(value string) *Node { return &Node{Kind: KindText, Value: value} }

// NewInlineCode returns an inline code node.
func NewInlineCode(value string) *Node { return &Node{Kind: KindInlineCode, Value: value} }

// NewParent returns a container node of the given kind.
func NewParent(kind Kind, children ...*Node) *Node {
	return &Node{Kind: kind, Children: children}
}

// IsText reports whether n is a plain text-bearing node.
func (n *Node) IsText() bool { return n != nil && n.Kind == KindText }

// IsInlineCode reports whether n is an inline code span.
func (n *Node) IsInlineCode() bool { return n != nil && n.Kind == KindInlineCode }

// Append adds children to n and returns n.
func (n *Node) Append(children ...*Node) *Node {
	n.Children = append(n.Children, children...)
	return n
}

// VisitFunc is called for every node in pre-order. Returning false skips the node's children.
type VisitFunc func(n *Node) bool

// Walk visits root and its descendants in document (pre-)order.
func Walk(root *Node, fn VisitFunc) {
	if root == nil {
		return
	}
	if !fn(root) {
		return
	}
	for _, child := range root.Children {
		Walk(child, fn)
	}
}

// Count returns the number of nodes in the tree rooted at root.
func Count(root *Node) int {
	n := 0
	Walk(root, func(*Node) bool {
		n++
		return true
	})
	return n
}

// Clone returns a deep copy of the tree. Extra maps are copied shallowly.
func Clone(root *Node) *Node {
	if root == nil {
		return nil
	}
	cp := *root
	if root.Extra != nil {
		cp.Extra = make(map[string]any, len(root.Extra))
		for k, v := range root.Extra {
			cp.Extra[k] = v
		}
	}
	if root.Children != nil {
		cp.Children = make([]*Node, len(root.Children))
		for i, c := range root.Children {
			cp.Children[i] = Clone(c)
		}
	}
	return &cp
}

// Equal reports whether two trees have the same shape and content, ignoring Span.
func Equal(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind || a.Value != b.Value || a.Lang != b.Lang || a.Meta != b.Meta ||
		a.URL != b.URL || a.Depth != b.Depth || len(a.Children) != len(b.Children) {
		return false
	}
	for i := range a.Children {
		if !Equal(a.Children[i], b.Children[i]) {
			return false
		}
	}
	return true
}
