package markdown

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func spanOf(t *testing.T, src []byte, needle string) (int, int) {
	t.Helper()
	idx := bytes.Index(src, []byte(needle))
	require.NotEqual(t, -1, idx, "missing %q", needle)
	return idx, idx + len(needle)
}

func TestApplyEdits_SingleReplacement(t *testing.T) {
	src := []byte("Version `remote:https://x/v.txt` is out.\n")
	start, end := spanOf(t, src, "`remote:https://x/v.txt`")

	out, err := ApplyEdits(src, []Edit{{Start: start, End: end, Replacement: []byte("1.2.3")}})
	require.NoError(t, err)
	require.Equal(t, "Version 1.2.3 is out.\n", string(out))
	require.Equal(t, "Version `remote:https://x/v.txt` is out.\n", string(src))
}

func TestApplyEdits_UnsortedInput(t *testing.T) {
	src := []byte("A: `remote:a`\nB: `remote:b|x.y`\n")
	s1, e1 := spanOf(t, src, "`remote:a`")
	s2, e2 := spanOf(t, src, "`remote:b|x.y`")

	out, err := ApplyEdits(src, []Edit{
		{Start: s2, End: e2, Replacement: []byte("second value")},
		{Start: s1, End: e1, Replacement: nil},
	})
	require.NoError(t, err)
	require.Equal(t, "A: \nB: second value\n", string(out))
}

func TestApplyEdits_CRLFInputPreserved(t *testing.T) {
	src := []byte("A: `remote:a`\r\nB: `remote:a`\r\n")
	start, end := spanOf(t, src, "`remote:a`")

	out, err := ApplyEdits(src, []Edit{{Start: start, End: end, Replacement: []byte("v")}})
	require.NoError(t, err)
	require.Equal(t, "A: v\r\nB: `remote:a`\r\n", string(out))
}

func TestApplyEdits_NoEditsReturnsSource(t *testing.T) {
	src := []byte("unchanged")
	out, err := ApplyEdits(src, nil)
	require.NoError(t, err)
	require.Equal(t, src, out)
}

func TestApplyEdits_InvalidRanges(t *testing.T) {
	src := []byte("abcdef")
	cases := map[string][]Edit{
		"overlap":       {{Start: 1, End: 4}, {Start: 3, End: 5}},
		"negative":      {{Start: -1, End: 2}},
		"reversed":      {{Start: 4, End: 2}},
		"out of bounds": {{Start: 2, End: 10}},
	}
	for name, edits := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ApplyEdits(src, edits)
			require.Error(t, err)
		})
	}
}
