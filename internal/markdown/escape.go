package markdown

import (
	"strings"
)

// inlineSpecial are characters that could start inline syntax (or MDX expressions)
// anywhere in a line.
const inlineSpecial = "\\`*_[]<>{}|~&"

// blockSpecial are characters that only matter at the start of a line.
const blockSpecial = "#-+=>"

// EscapeText renders value as literal Markdown text. Line breaks in value use
// newline. lineStart reports whether the text begins a line in the output.
func EscapeText(value, newline string, lineStart bool) []byte {
	lines := strings.Split(strings.ReplaceAll(value, "\r\n", "\n"), "\n")

	var b strings.Builder
	b.Grow(len(value) + 8)
	for i, line := range lines {
		if i > 0 {
			b.WriteString(newline)
		}
		escapeLine(&b, line, lineStart || i > 0)
	}
	return []byte(b.String())
}

func escapeLine(b *strings.Builder, line string, lineStart bool) {
	if lineStart {
		trimmed := strings.TrimLeft(line, " \t")
		b.WriteString(line[:len(line)-len(trimmed)])
		line = trimmed
		if line != "" && strings.IndexByte(blockSpecial, line[0]) >= 0 {
			b.WriteByte('\\')
			b.WriteByte(line[0])
			line = line[1:]
		} else if n := orderedMarker(line); n > 0 {
			b.WriteString(line[:n])
			b.WriteByte('\\')
			line = line[n:]
		}
	}
	for i := 0; i < len(line); i++ {
		c := line[i]
		if strings.IndexByte(inlineSpecial, c) >= 0 {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
}

// orderedMarker returns the number of leading digits when line starts like an
// ordered list item ("1." or "1)").
func orderedMarker(line string) int {
	n := 0
	for n < len(line) && n < 9 && line[n] >= '0' && line[n] <= '9' {
		n++
	}
	if n == 0 || n >= len(line) || (line[n] != '.' && line[n] != ')') {
		return 0
	}
	return n
}
