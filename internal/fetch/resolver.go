package fetch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"git.home.luguber.info/inful/remotevalues/internal/logfields"
	"git.home.luguber.info/inful/remotevalues/internal/metrics"
	"git.home.luguber.info/inful/remotevalues/internal/placeholder"
)

const defaultConcurrency = 8

// Outcome is the settled result for one key. Value is "" whenever Err is set.
type Outcome struct {
	Value  string
	Err    error
	Cached bool // served from the cache without a fetch
}

// Resolver fans out fetches for distinct keys and settles each into a cache.
// One Resolver may serve many documents concurrently; identical in-flight
// keys are fetched once.
type Resolver struct {
	source      Source
	concurrency int
	recorder    metrics.Recorder
	flight      singleflight.Group
}

// ResolverOption customizes a Resolver.
type ResolverOption func(*Resolver)

// WithConcurrency bounds the number of in-flight fetches per ResolveAll call.
func WithConcurrency(n int) ResolverOption {
	return func(r *Resolver) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithRecorder records cache lookups.
func WithRecorder(rec metrics.Recorder) ResolverOption {
	return func(r *Resolver) { r.recorder = metrics.OrNoop(rec) }
}

// NewResolver returns a Resolver backed by source.
func NewResolver(source Source, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		source:      source,
		concurrency: defaultConcurrency,
		recorder:    metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveAll settles every key into cache and returns one Outcome per distinct key.
// It returns only after every key has a value or the failure sentinel.
// Failures are logged and cached as ""; they never affect other keys.
// Keys abandoned because ctx ended get "" and are not cached by this call; a
// fetch other callers still wait on keeps running.
func (r *Resolver) ResolveAll(ctx context.Context, cache Cache, keys []placeholder.Key) map[placeholder.Key]Outcome {
	out := make(map[placeholder.Key]Outcome, len(keys))
	if len(keys) == 0 {
		return out
	}

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(r.concurrency)

	seen := make(map[placeholder.Key]struct{}, len(keys))
	for _, key := range keys {
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		if v, ok := cache.Get(key.String()); ok {
			r.recorder.IncCacheLookup(true)
			mu.Lock()
			out[key] = Outcome{Value: v, Cached: true}
			mu.Unlock()
			continue
		}
		r.recorder.IncCacheLookup(false)

		g.Go(func() error {
			o := r.resolveOne(ctx, cache, key)
			mu.Lock()
			out[key] = o
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (r *Resolver) resolveOne(ctx context.Context, cache Cache, key placeholder.Key) Outcome {
	cacheKey := key.String()
	start := time.Now()

	// The flight outlives any single caller: it runs detached from the starter's
	// cancellation and is bounded by the fetcher's own timeout.
	flightCtx := context.WithoutCancel(ctx)
	ch := r.flight.DoChan(cacheKey, func() (any, error) {
		// A flight that finished between the caller's lookup and this one
		// has already stored the value.
		if v, ok := cache.Get(cacheKey); ok {
			return v, nil
		}
		v, err := r.source.Fetch(flightCtx, key)
		if err != nil {
			v = ""
		}
		cache.Set(cacheKey, v)
		return v, err
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		slog.LogAttrs(ctx, slog.LevelDebug, "Remote value fetch abandoned",
			logfields.URL(key.URL), logfields.CacheKey(cacheKey), logfields.Error(ctx.Err()))
		return Outcome{Err: ctx.Err()}
	case res = <-ch:
	}

	value, _ := res.Val.(string)
	if res.Err != nil {
		value = ""
		slog.LogAttrs(ctx, slog.LevelWarn, "Failed to resolve remote value",
			logfields.URL(key.URL), logfields.CacheKey(cacheKey), logfields.Error(res.Err))
	} else {
		slog.LogAttrs(ctx, slog.LevelDebug, "Resolved remote value",
			logfields.URL(key.URL), logfields.CacheKey(cacheKey),
			slog.Bool("shared", res.Shared), logfields.Duration(time.Since(start)))
	}

	cache.Set(cacheKey, value)
	return Outcome{Value: value, Err: res.Err}
}
