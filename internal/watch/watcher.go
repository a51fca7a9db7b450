// Package watch re-runs work when fixture files change on disk.
package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce absorbs the burst of events an editor save produces.
const DefaultDebounce = 200 * time.Millisecond

// Watcher calls OnChange with the paths that changed, at most once per
// debounce window.
type Watcher struct {
	fs       *fsnotify.Watcher
	exts     map[string]struct{}
	files    map[string]struct{} // watched one by one
	dirs     map[string]struct{} // watched whole
	debounce time.Duration
	log      *zap.Logger

	mu      sync.Mutex
	pending map[string]struct{}
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithExtensions restricts events to files with the given extensions
// (e.g. ".yaml").
func WithExtensions(exts ...string) Option {
	return func(w *Watcher) {
		for _, e := range exts {
			w.exts[strings.ToLower(e)] = struct{}{}
		}
	}
}

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(w *Watcher) {
		if log != nil {
			w.log = log
		}
	}
}

// New watches paths. A directory reports changes to any file in it that
// passes the extension filter; a file path reports changes to that file
// only.
func New(paths []string, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fs:       fsw,
		exts:     make(map[string]struct{}),
		files:    make(map[string]struct{}),
		dirs:     make(map[string]struct{}),
		debounce: DefaultDebounce,
		log:      zap.NewNop(),
		pending:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	added := make(map[string]struct{})
	for _, p := range paths {
		p = filepath.Clean(p)
		dir := p
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			dir = filepath.Dir(p)
			w.files[p] = struct{}{}
		} else {
			w.dirs[dir] = struct{}{}
		}
		if _, ok := added[dir]; ok {
			continue
		}
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			return nil, err
		}
		added[dir] = struct{}{}
	}
	return w, nil
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Clean(ev.Name)
	if len(w.exts) > 0 {
		if _, ok := w.exts[strings.ToLower(filepath.Ext(name))]; !ok {
			return false
		}
	}
	if _, ok := w.dirs[filepath.Dir(name)]; ok {
		return true
	}
	_, ok := w.files[name]
	return ok
}

// Run blocks until ctx is done, calling onChange with the sorted set of
// changed paths after each quiet debounce window. The underlying watcher
// is closed on return.
func (w *Watcher) Run(ctx context.Context, onChange func(paths []string)) error {
	defer w.fs.Close()

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			w.mu.Lock()
			w.pending[ev.Name] = struct{}{}
			w.mu.Unlock()
			timer.Reset(w.debounce)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				w.log.Warn("watch: event overflow, some changes may be missed")
				continue
			}
			return err

		case <-timer.C:
			onChange(w.drain())
		}
	}
}

func (w *Watcher) drain() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.pending))
	for p := range w.pending {
		out = append(out, p)
	}
	clear(w.pending)
	sort.Strings(out)
	return out
}

