// Package frontmatter separates YAML front matter from a Markdown body and reads
// the per-document options remotevalues understands.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// OptionKey is the front matter field that switches placeholder resolution
// off for one document when set to false.
const OptionKey = "remote_values"

// ErrMissingClosingDelimiter indicates the document opened a front matter block but never closed it.
var ErrMissingClosingDelimiter = errors.New("yaml front matter start delimiter found but closing delimiter is missing")

// Style captures the newline shape needed to reassemble a document byte for byte.
type Style struct {
	Newline            string
	HasTrailingNewline bool
}

// Document is a Markdown file split into front matter and body.
type Document struct {
	Raw    []byte         // front matter without delimiters
	Body   []byte         // Markdown after the closing delimiter
	Had    bool           // whether the file carried a front matter block
	Style  Style          // newline style of the file
	Fields map[string]any // parsed front matter; empty when absent
}

// Parse splits content and decodes its front matter.
func Parse(content []byte) (*Document, error) {
	raw, body, had, style, err := Split(content)
	if err != nil {
		return nil, err
	}
	fields, err := ParseYAML(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid front matter: %w", err)
	}
	return &Document{Raw: raw, Body: body, Had: had, Style: style, Fields: fields}, nil
}

// RemoteValuesEnabled reports whether placeholders in this document should be resolved.
// Only an explicit boolean false disables resolution.
func (d *Document) RemoteValuesEnabled() bool {
	v, ok := d.Fields[OptionKey].(bool)
	return !ok || v
}

// Assemble rebuilds the file around body. The option key is removed from the
// output front matter; any other front matter is kept byte for byte.
func (d *Document) Assemble(body []byte) ([]byte, error) {
	raw := d.Raw
	if _, ok := d.Fields[OptionKey]; ok {
		rest := make(map[string]any, len(d.Fields))
		for k, v := range d.Fields {
			if k != OptionKey {
				rest[k] = v
			}
		}
		if len(rest) == 0 {
			return body, nil
		}
		serialized, err := SerializeYAML(rest, d.Style)
		if err != nil {
			return nil, err
		}
		raw = serialized
	}
	return Join(raw, body, d.Had, d.Style), nil
}

// Split separates `---` delimited front matter from the body. Without an opening
// delimiter had is false and body is the whole input.
func Split(content []byte) (raw, body []byte, had bool, style Style, err error) {
	style = detectStyle(content)
	delim := []byte("---" + style.Newline)
	if !bytes.HasPrefix(content, delim) {
		return nil, content, false, style, nil
	}

	rest := content[len(delim):]
	if bytes.HasPrefix(rest, delim) {
		return []byte{}, rest[len(delim):], true, style, nil
	}

	closing := append([]byte(style.Newline), delim...)
	idx := bytes.Index(rest, closing)
	if idx < 0 {
		return nil, nil, false, style, ErrMissingClosingDelimiter
	}
	end := idx + len(style.Newline)
	return rest[:end], rest[idx+len(closing):], true, style, nil
}

// Join is the inverse of Split.
func Join(raw, body []byte, had bool, style Style) []byte {
	if !had {
		return body
	}
	nl := style.Newline
	if nl == "" {
		nl = "\n"
	}
	var buf bytes.Buffer
	buf.Grow(len(raw) + len(body) + 2*(3+len(nl)))
	buf.WriteString("---" + nl)
	buf.Write(raw)
	buf.WriteString("---" + nl)
	buf.Write(body)
	return buf.Bytes()
}

// ParseYAML decodes raw front matter into a map. Empty input yields an empty map.
func ParseYAML(raw []byte) (map[string]any, error) {
	fields := map[string]any{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return fields, nil
	}
	if err := yaml.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

func detectStyle(content []byte) Style {
	style := Style{Newline: "\n"}
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		style.Newline = "\r\n"
	}
	style.HasTrailingNewline = bytes.HasSuffix(content, []byte("\n"))
	return style
}
