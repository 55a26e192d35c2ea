// Package placeholder recognises remote-value directives inside inline code spans.
//
// Grammar, applied to the complete inline code value:
//
//	remote:<url>          whole response body
//	remote:<url>|<path>   dot-separated path into a JSON response
package placeholder

import (
	"regexp"
	"strings"

	"git.home.luguber.info/inful/remotevalues/internal/mdtree"
)

// Prefix starts every placeholder.
const Prefix = "remote:"

var grammar = regexp.MustCompile("^remote:([^|]+)(?:\\|([^`]+))?$")

// Key identifies one resolution request. Tokens with equal keys share a single fetch.
type Key struct {
	URL  string
	Path string
}

// String returns the composite cache key "<url>|<path>".
func (k Key) String() string { return k.URL + "|" + k.Path }

// HasPath reports whether a JSON extraction path was given.
func (k Key) HasPath() bool { return k.Path != "" }

// Token is a placeholder found in a tree. Node is the inline code node to rewrite.
type Token struct {
	Node *mdtree.Node
	Key  Key
}

// Parse matches value against the placeholder grammar.
func Parse(value string) (Key, bool) {
	m := grammar.FindStringSubmatch(value)
	if m == nil {
		return Key{}, false
	}
	return Key{URL: strings.TrimSpace(m[1]), Path: strings.TrimSpace(m[2])}, true
}

// ParseSpec parses a placeholder written without the inline code fence, with or without the
// "remote:" prefix. It is used for named values declared in configuration, where a blank URL
// is rejected.
func ParseSpec(spec string) (Key, bool) {
	spec = strings.TrimSpace(spec)
	if !strings.HasPrefix(spec, Prefix) {
		spec = Prefix + spec
	}
	key, ok := Parse(spec)
	if !ok || key.URL == "" {
		return Key{}, false
	}
	return key, true
}

// Scan collects every inline code node under root whose value is a placeholder, in document
// order. Other nodes are left alone. The result is nil when the tree has no placeholders.
func Scan(root *mdtree.Node) []Token {
	var tokens []Token
	mdtree.Walk(root, func(n *mdtree.Node) bool {
		if !n.IsInlineCode() || n.Value == "" {
			return true
		}
		if key, ok := Parse(n.Value); ok {
			tokens = append(tokens, Token{Node: n, Key: key})
		}
		return true
	})
	return tokens
}

// UniqueKeys returns the distinct keys of tokens in first-seen order.
func UniqueKeys(tokens []Token) []Key {
	seen := make(map[Key]struct{}, len(tokens))
	keys := make([]Key, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t.Key]; ok {
			continue
		}
		seen[t.Key] = struct{}{}
		keys = append(keys, t.Key)
	}
	return keys
}
