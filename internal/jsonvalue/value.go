// Package jsonvalue models a decoded JSON document as a typed variant with safe path lookup.
//
// Objects keep their member order so values re-serialized for display match the source.
package jsonvalue

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Type discriminates Value variants.
type Type int

const (
	Null Type = iota
	Bool
	Number
	String
	Array
	Object
)

func (t Type) String() string {
	switch t {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}

// Member is one name/value pair of an object.
type Member struct {
	Name  string
	Value *Value
}

// Value is a decoded JSON value.
type Value struct {
	typ     Type
	boolean bool
	text    string // string contents, or the literal text of a number
	items   []*Value
	members []Member
}

// Type returns the variant of v.
func (v *Value) Type() Type {
	if v == nil {
		return Null
	}
	return v.typ
}

// Indexable reports whether path segments can be applied to v.
func (v *Value) Indexable() bool {
	t := v.Type()
	return t == Object || t == Array
}

// Field returns the member called name of an object.
func (v *Value) Field(name string) (*Value, bool) {
	if v.Type() != Object {
		return nil, false
	}
	// Later duplicates win, as in most JSON decoders.
	for i := len(v.members) - 1; i >= 0; i-- {
		if v.members[i].Name == name {
			return v.members[i].Value, true
		}
	}
	return nil, false
}

// Index returns the i-th element of an array.
func (v *Value) Index(i int) (*Value, bool) {
	if v.Type() != Array || i < 0 || i >= len(v.items) {
		return nil, false
	}
	return v.items[i], true
}

// Get applies a single path segment: a member name for objects, a decimal index for arrays.
func (v *Value) Get(segment string) (*Value, bool) {
	switch v.Type() {
	case Object:
		return v.Field(segment)
	case Array:
		i, err := strconv.Atoi(segment)
		if err != nil {
			return nil, false
		}
		return v.Index(i)
	default:
		return nil, false
	}
}

// Lookup walks a dot-separated path. An empty path returns v itself. Any missing member, bad index
// or non-indexable intermediate yields ok=false.
func (v *Value) Lookup(path string) (*Value, bool) {
	if path == "" {
		return v, true
	}
	cur := v
	for _, seg := range strings.Split(path, ".") {
		if !cur.Indexable() {
			return nil, false
		}
		next, ok := cur.Get(seg)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// Text renders v for substitution into a document: strings verbatim, numbers as written, booleans
// as true/false, null as the empty string, and containers as compact JSON.
func (v *Value) Text() string {
	switch v.Type() {
	case Null:
		return ""
	case Bool:
		return strconv.FormatBool(v.boolean)
	case Number, String:
		return v.text
	default:
		var buf bytes.Buffer
		v.encode(&buf)
		return buf.String()
	}
}

// MarshalJSON encodes v compactly, preserving object member order.
func (v *Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	v.encode(&buf)
	return buf.Bytes(), nil
}

func (v *Value) encode(buf *bytes.Buffer) {
	switch v.Type() {
	case Null:
		buf.WriteString("null")
	case Bool:
		buf.WriteString(strconv.FormatBool(v.boolean))
	case Number:
		buf.WriteString(v.text)
	case String:
		writeString(buf, v.text)
	case Array:
		buf.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			item.encode(buf)
		}
		buf.WriteByte(']')
	case Object:
		buf.WriteByte('{')
		for i, m := range v.members {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeString(buf, m.Name)
			buf.WriteByte(':')
			m.Value.encode(buf)
		}
		buf.WriteByte('}')
	}
}

func writeString(buf *bytes.Buffer, s string) {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	// Encoder terminates every value with a newline.
	buf.Truncate(buf.Len() - 1)
}

// ErrTrailingData is returned when a document holds more than one JSON value.
var ErrTrailingData = errors.New("unexpected data after top-level JSON value")

// Parse decodes a single JSON document.
func Parse(data []byte) (*Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decode(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, ErrTrailingData
	}
	return v, nil
}

func decode(dec *json.Decoder) (*Value, error) {
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	switch t := tok.(type) {
	case nil:
		return &Value{typ: Null}, nil
	case bool:
		return &Value{typ: Bool, boolean: t}, nil
	case json.Number:
		return &Value{typ: Number, text: t.String()}, nil
	case string:
		return &Value{typ: String, text: t}, nil
	case json.Delim:
		switch t {
		case '[':
			arr := &Value{typ: Array}
			for dec.More() {
				item, err := decode(dec)
				if err != nil {
					return nil, err
				}
				arr.items = append(arr.items, item)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return arr, nil
		case '{':
			obj := &Value{typ: Object}
			for dec.More() {
				nameTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				name, ok := nameTok.(string)
				if !ok {
					return nil, fmt.Errorf("object key is %T, not string", nameTok)
				}
				val, err := decode(dec)
				if err != nil {
					return nil, err
				}
				obj.members = append(obj.members, Member{Name: name, Value: val})
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return obj, nil
		}
	}
	return nil, fmt.Errorf("unexpected JSON token %v", tok)
}
