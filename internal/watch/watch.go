// Package watch rebuilds a source tree whenever files under it change.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/remotevalues/internal/docs"
	"git.home.luguber.info/inful/remotevalues/internal/logfields"
)

// DefaultDebounce is the quiet period after the last event before a rebuild starts.
const DefaultDebounce = 300 * time.Millisecond

// RebuildFunc performs one rebuild.
type RebuildFunc func(ctx context.Context) error

// Watcher coalesces filesystem events under a root into rebuilds. At most one
// rebuild runs at a time; events during a rebuild queue exactly one more.
type Watcher struct {
	root     string
	rebuild  RebuildFunc
	debounce time.Duration
	ignore   []string
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithIgnore excludes paths, typically an output directory nested in the root.
func WithIgnore(paths ...string) Option {
	return func(w *Watcher) {
		for _, p := range paths {
			if abs, err := filepath.Abs(p); err == nil {
				w.ignore = append(w.ignore, abs)
			}
		}
	}
}

// New returns a Watcher for root.
func New(root string, rebuild RebuildFunc, opts ...Option) *Watcher {
	w := &Watcher{root: root, rebuild: rebuild, debounce: DefaultDebounce}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is done. The returned error is nil on cancellation.
func (w *Watcher) Run(ctx context.Context) error {
	root, err := filepath.Abs(w.root)
	if err != nil {
		return fmt.Errorf("resolve watch root: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() { _ = fsw.Close() }()
	w.addDirsRecursive(fsw, root)

	rebuildReq, trigger, stop := newDebouncer(w.debounce)
	defer stop()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.worker(ctx, rebuildReq)
	}()
	defer wg.Wait()

	slog.Info("Watching for changes", logfields.Path(root))
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if w.handleEvent(fsw, ev) {
				trigger()
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", logfields.Error(err))
		}
	}
}

// newDebouncer returns a request channel and a trigger that fires it once the
// debounce window passes without another call.
func newDebouncer(window time.Duration) (chan struct{}, func(), func()) {
	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	req := make(chan struct{}, 1)

	trigger := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(window, func() {
			select {
			case req <- struct{}{}:
			default:
			}
		})
	}
	stop := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
	}
	return req, trigger, stop
}

// worker starts a rebuild per request. Requests that arrive while a rebuild
// runs set pending, which starts exactly one more rebuild when it finishes.
func (w *Watcher) worker(ctx context.Context, req <-chan struct{}) {
	var (
		running bool
		pending bool
		wg      sync.WaitGroup
	)
	done := make(chan struct{})
	defer wg.Wait()

	start := func() {
		running = true
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.runRebuild(ctx)
			select {
			case done <- struct{}{}:
			case <-ctx.Done():
			}
		}()
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-req:
			if running {
				pending = true
				continue
			}
			start()
		case <-done:
			running = false
			if pending {
				pending = false
				start()
			}
		}
	}
}

func (w *Watcher) runRebuild(ctx context.Context) {
	start := time.Now()
	slog.Info("Change detected; rebuilding")
	if err := w.rebuild(ctx); err != nil {
		if ctx.Err() == nil {
			slog.Warn("Rebuild failed", logfields.Error(err))
		}
		return
	}
	slog.Info("Rebuild complete", logfields.Duration(time.Since(start)))
}

// handleEvent reports whether ev should trigger a rebuild. New directories are
// added to the watch set.
func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, ev fsnotify.Event) bool {
	if w.ignored(ev.Name) {
		return false
	}
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			w.addDirsRecursive(fsw, ev.Name)
		}
	}
	if ev.Op == fsnotify.Chmod {
		return false
	}
	slog.Debug("File change detected", logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
	return true
}

func (w *Watcher) addDirsRecursive(fsw *fsnotify.Watcher, root string) {
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.ignored(path) {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			slog.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

// ignored reports whether path is excluded: hidden or node_modules entries,
// editor temp files and configured ignore paths.
func (w *Watcher) ignored(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return true
	}
	for _, ig := range w.ignore {
		if abs == ig || strings.HasPrefix(abs, ig+string(filepath.Separator)) {
			return true
		}
	}
	base := filepath.Base(abs)
	if docs.SkipName(base) || strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp") ||
		(strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#")) {
		return true
	}
	return false
}
