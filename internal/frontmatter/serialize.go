package frontmatter

import (
	"bytes"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// SerializeYAML encodes fields as YAML without delimiters, keys sorted
// recursively, using the newline of style. Empty fields yield empty output.
func SerializeYAML(fields map[string]any, style Style) ([]byte, error) {
	if len(fields) == 0 {
		return []byte{}, nil
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(sortedNode(fields)); err != nil {
		_ = enc.Close()
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}

	out := buf.Bytes()
	if nl := style.Newline; nl != "" && nl != "\n" {
		out = bytes.ReplaceAll(out, []byte("\n"), []byte(nl))
	}
	return out, nil
}

// sortedNode converts maps into mapping nodes with sorted keys; everything
// else is left to the yaml encoder.
func sortedNode(v any) any {
	switch vv := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(vv))
		for k := range vv {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		n := &yaml.Node{Kind: yaml.MappingNode}
		for _, k := range keys {
			var val yaml.Node
			if err := val.Encode(sortedNode(vv[k])); err != nil {
				val = yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: fmt.Sprint(vv[k])}
			}
			n.Content = append(n.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k}, &val)
		}
		return n
	case map[any]any:
		converted := make(map[string]any, len(vv))
		for k, val := range vv {
			converted[fmt.Sprint(k)] = val
		}
		return sortedNode(converted)
	case []any:
		out := make([]any, len(vv))
		for i, item := range vv {
			out[i] = sortedNode(item)
		}
		return out
	default:
		return v
	}
}
