package mdtree

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMergeAdjacentText_MergesRuns(t *testing.T) {
	first := NewText("remote:")
	root := NewParent(KindRoot,
		NewParent(KindParagraph,
			first,
			NewText("https://x/"),
			NewText("plain.txt"),
			NewInlineCode("code"),
			NewText("a"),
			NewText("b"),
		),
	)

	MergeAdjacentText(root)

	para := root.Children[0]
	require.Len(t, para.Children, 3)
	require.Same(t, first, para.Children[0])
	require.Equal(t, "remote:https://x/plain.txt", para.Children[0].Value)
	require.Equal(t, KindInlineCode, para.Children[1].Kind)
	require.Equal(t, "ab", para.Children[2].Value)
}

func TestMergeAdjacentText_DoesNotCrossContainers(t *testing.T) {
	root := NewParent(KindParagraph,
		NewText("a"),
		NewParent(KindEmphasis, NewText("b"), NewText("c")),
		NewText("d"),
	)

	MergeAdjacentText(root)

	require.Len(t, root.Children, 3)
	require.Equal(t, "a", root.Children[0].Value)
	require.Len(t, root.Children[1].Children, 1)
	require.Equal(t, "bc", root.Children[1].Children[0].Value)
	require.Equal(t, "d", root.Children[2].Value)
}

func TestMergeAdjacentText_Idempotent(t *testing.T) {
	build := func() *Node {
		return NewParent(KindRoot,
			NewParent(KindParagraph, NewText("x"), NewText("y"), NewInlineCode("z"), NewText("w")),
			NewParent(KindList, NewParent(KindListItem, NewText("1"), NewText("2"))),
		)
	}
	once := build()
	MergeAdjacentText(once)

	twice := build()
	MergeAdjacentText(twice)
	MergeAdjacentText(twice)

	require.True(t, Equal(once, twice))
}

func TestMergeAdjacentText_EmptyTrees(t *testing.T) {
	MergeAdjacentText(nil)

	root := NewParent(KindRoot)
	MergeAdjacentText(root)
	require.Empty(t, root.Children)

	leaf := NewText("only")
	MergeAdjacentText(leaf)
	require.Equal(t, "only", leaf.Value)
}

func TestMergeAdjacentText_WidensSpan(t *testing.T) {
	a := &Node{Kind: KindText, Value: "ab", Span: Span{Start: 4, End: 6}}
	b := &Node{Kind: KindText, Value: "cd", Span: Span{Start: 6, End: 8}}
	root := NewParent(KindParagraph, a, b)

	MergeAdjacentText(root)

	require.Equal(t, Span{Start: 4, End: 8}, a.Span)
}

func TestNodeJSON_RoundTripKeepsUnknownFields(t *testing.T) {
	input := `{"type":"root","children":[{"type":"paragraph","children":[` +
		`{"type":"inlineCode","value":"remote:https://x/a.txt","position":{"start":{"line":1,"column":1,"offset":0}}},` +
		`{"type":"link","url":"https://example.com","title":null,"children":[{"type":"text","value":"x"}]}` +
		`]},{"type":"heading","depth":2,"children":[]},{"type":"code","lang":"go","meta":"title=x","value":"a := 1"}]}`

	var root Node
	require.NoError(t, json.Unmarshal([]byte(input), &root))

	require.Equal(t, KindRoot, root.Kind)
	para := root.Children[0]
	require.Equal(t, "remote:https://x/a.txt", para.Children[0].Value)
	require.Contains(t, para.Children[0].Extra, "position")
	require.Equal(t, "https://example.com", para.Children[1].URL)
	require.Equal(t, 2, root.Children[1].Depth)
	require.NotNil(t, root.Children[1].Children)
	require.Equal(t, "go", root.Children[2].Lang)

	out, err := json.Marshal(&root)
	require.NoError(t, err)
	require.JSONEq(t, input, string(out))
}

func TestNodeJSON_RejectsMissingType(t *testing.T) {
	var n Node
	require.Error(t, json.Unmarshal([]byte(`{"value":"x"}`), &n))
}
