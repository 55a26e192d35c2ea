// Package remotevalues rewrites remote-value placeholders in a document tree into fetched text.
//
// A transform runs in strictly sequential phases:
//
//	Idle -> Normalizing -> Scanning -> Resolving -> Rewriting -> Done
//
// A tree without placeholders goes from Scanning straight to Done. Only Resolving
// fans out, and it returns once every distinct key has settled. Failures never
// surface as errors: the placeholder becomes an empty text node.
package remotevalues

import (
	"context"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/remotevalues/internal/fetch"
	"git.home.luguber.info/inful/remotevalues/internal/logfields"
	"git.home.luguber.info/inful/remotevalues/internal/mdtree"
	"git.home.luguber.info/inful/remotevalues/internal/metrics"
	"git.home.luguber.info/inful/remotevalues/internal/placeholder"
)

// Phase is a state of one transform invocation.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseNormalizing
	PhaseScanning
	PhaseResolving
	PhaseRewriting
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseNormalizing:
		return "normalizing"
	case PhaseScanning:
		return "scanning"
	case PhaseResolving:
		return "resolving"
	case PhaseRewriting:
		return "rewriting"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}

// PhaseHook observes phase transitions.
type PhaseHook func(from, to Phase)

// Replacement records one rewritten placeholder.
type Replacement struct {
	Node *mdtree.Node
	Key  placeholder.Key
	// Span is the source range of the inline code span before rewriting.
	Span   mdtree.Span
	Value  string
	Failed bool
}

// Report summarizes one transform invocation.
type Report struct {
	Placeholders int
	Keys         int
	Failed       int // distinct keys that failed
	Replacements []Replacement
	Duration     time.Duration
}

// Transformer resolves placeholders in document trees.
// It is safe for concurrent use when its cache is.
type Transformer struct {
	resolver *fetch.Resolver
	cache    fetch.Cache
	hook     PhaseHook
	recorder metrics.Recorder
}

// Option customizes a Transformer.
type Option func(*Transformer)

// WithCache shares c between every Transform call. Without it each call gets a
// fresh cache that is dropped when the call returns.
func WithCache(c fetch.Cache) Option {
	return func(t *Transformer) { t.cache = c }
}

// WithPhaseHook registers fn to be called on every phase transition.
func WithPhaseHook(fn PhaseHook) Option {
	return func(t *Transformer) { t.hook = fn }
}

// WithRecorder records transform metrics.
func WithRecorder(r metrics.Recorder) Option {
	return func(t *Transformer) { t.recorder = metrics.OrNoop(r) }
}

// New returns a Transformer that resolves keys through resolver.
func New(resolver *fetch.Resolver, opts ...Option) *Transformer {
	t := &Transformer{resolver: resolver, recorder: metrics.NoopRecorder{}}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Cache returns the shared cache, or nil when each call uses its own.
func (t *Transformer) Cache() fetch.Cache { return t.cache }

// Transform rewrites every placeholder under root in place and reports what it did.
func (t *Transformer) Transform(ctx context.Context, root *mdtree.Node) Report {
	start := time.Now()
	phase := PhaseIdle
	enter := func(next Phase) {
		if t.hook != nil {
			t.hook(phase, next)
		}
		phase = next
	}

	enter(PhaseNormalizing)
	mdtree.MergeAdjacentText(root)

	enter(PhaseScanning)
	tokens := placeholder.Scan(root)
	if len(tokens) == 0 {
		enter(PhaseDone)
		return Report{Duration: time.Since(start)}
	}

	enter(PhaseResolving)
	cache := t.cache
	if cache == nil {
		cache = fetch.NewMemoryCache()
	}
	keys := placeholder.UniqueKeys(tokens)
	outcomes := t.resolver.ResolveAll(ctx, cache, keys)

	enter(PhaseRewriting)
	report := Report{
		Placeholders: len(tokens),
		Keys:         len(keys),
		Replacements: make([]Replacement, 0, len(tokens)),
	}
	for _, o := range outcomes {
		if o.Err != nil {
			report.Failed++
		}
	}
	failedTokens := 0
	for _, tok := range tokens {
		o := outcomes[tok.Key]
		report.Replacements = append(report.Replacements, Replacement{
			Node:   tok.Node,
			Key:    tok.Key,
			Span:   tok.Node.Span,
			Value:  o.Value,
			Failed: o.Err != nil,
		})
		if o.Err != nil {
			failedTokens++
		}
		rewrite(tok.Node, o.Value)
	}

	enter(PhaseDone)
	report.Duration = time.Since(start)

	t.recorder.ObserveTransform(report.Duration)
	t.recorder.AddPlaceholders(report.Placeholders-failedTokens, failedTokens)
	slog.LogAttrs(ctx, slog.LevelDebug, "Resolved remote placeholders",
		logfields.Placeholders(report.Placeholders),
		logfields.Keys(report.Keys),
		logfields.Failed(report.Failed),
		logfields.Duration(report.Duration))
	return report
}

// rewrite turns n into a plain text node in place.
func rewrite(n *mdtree.Node, value string) {
	n.Kind = mdtree.KindText
	n.Value = value
	n.Lang = ""
	n.Meta = ""
}
