package mdtree

import (
	"encoding/json"
	"fmt"
)

// literalKinds always serialize a value, even when empty, because mdast requires it.
var literalKinds = map[Kind]bool{
	KindText:       true,
	KindInlineCode: true,
	KindCode:       true,
	KindHTML:       true,
}

var modeledFields = map[string]bool{
	"type":     true,
	"value":    true,
	"lang":     true,
	"meta":     true,
	"url":      true,
	"depth":    true,
	"children": true,
}

// MarshalJSON encodes the node as an mdast object.
func (n *Node) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(n.Extra)+4)
	for k, v := range n.Extra {
		if modeledFields[k] {
			continue
		}
		out[k] = v
	}
	out["type"] = string(n.Kind)
	if n.Value != "" || literalKinds[n.Kind] {
		out["value"] = n.Value
	}
	if n.Lang != "" {
		out["lang"] = n.Lang
	}
	if n.Meta != "" {
		out["meta"] = n.Meta
	}
	if n.URL != "" {
		out["url"] = n.URL
	}
	if n.Depth != 0 {
		out["depth"] = n.Depth
	}
	if n.Children != nil {
		out["children"] = n.Children
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes an mdast object. Fields that are not modeled are kept verbatim in Extra.
func (n *Node) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var kind string
	if err := decodeField(raw, "type", &kind); err != nil {
		return err
	}
	if kind == "" {
		return fmt.Errorf("mdast node without type")
	}

	decoded := Node{Kind: Kind(kind)}
	for _, f := range []struct {
		name string
		dst  *string
	}{
		{"value", &decoded.Value},
		{"lang", &decoded.Lang},
		{"meta", &decoded.Meta},
		{"url", &decoded.URL},
	} {
		if err := decodeOptionalString(raw, f.name, f.dst); err != nil {
			return err
		}
	}
	if msg, ok := raw["depth"]; ok && string(msg) != "null" {
		if err := json.Unmarshal(msg, &decoded.Depth); err != nil {
			return fmt.Errorf("mdast %s.depth: %w", kind, err)
		}
	}
	if msg, ok := raw["children"]; ok && string(msg) != "null" {
		decoded.Children = make([]*Node, 0)
		if err := json.Unmarshal(msg, &decoded.Children); err != nil {
			return fmt.Errorf("mdast %s.children: %w", kind, err)
		}
	}

	for k, v := range raw {
		if modeledFields[k] {
			continue
		}
		if decoded.Extra == nil {
			decoded.Extra = make(map[string]any)
		}
		decoded.Extra[k] = v
	}

	*n = decoded
	return nil
}

func decodeField(raw map[string]json.RawMessage, name string, dst *string) error {
	msg, ok := raw[name]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(msg, dst); err != nil {
		return fmt.Errorf("mdast field %q: %w", name, err)
	}
	return nil
}

func decodeOptionalString(raw map[string]json.RawMessage, name string, dst *string) error {
	msg, ok := raw[name]
	if !ok || string(msg) == "null" {
		return nil
	}
	return decodeField(raw, name, dst)
}
