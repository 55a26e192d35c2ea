package mdtree

// MergeAdjacentText merges runs of consecutive text siblings into their first node, in every
// container of the tree, depth-first.
//
// Upstream parsers split text at punctuation and emphasis delimiters; merging reassembles those
// fragments before anything inspects node values. The first node of each run survives so references
// held elsewhere stay valid, and its Span grows to cover the run. Non-text siblings and container
// boundaries are never crossed. Running it twice yields the same tree as running it once.
func MergeAdjacentText(root *Node) {
	if root == nil || len(root.Children) == 0 {
		return
	}

	merged := root.Children[:0]
	for _, child := range root.Children {
		if n := len(merged); n > 0 && merged[n-1].IsText() && child.IsText() {
			prev := merged[n-1]
			prev.Value += child.Value
			prev.Span = unionSpan(prev.Span, child.Span)
			continue
		}
		merged = append(merged, child)
	}
	// Clear the tail so dropped nodes are not kept alive by the backing array.
	for i := len(merged); i < len(root.Children); i++ {
		root.Children[i] = nil
	}
	root.Children = merged

	for _, child := range root.Children {
		MergeAdjacentText(child)
	}
}

func unionSpan(a, b Span) Span {
	switch {
	case !a.Valid():
		return b
	case !b.Valid():
		return a
	}
	out := a
	if b.Start < out.Start {
		out.Start = b.Start
	}
	if b.End > out.End {
		out.End = b.End
	}
	return out
}
