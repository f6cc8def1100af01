// Package watcher turns fsnotify filesystem notifications into ordered
// file-change events on a channel. Rapid write bursts to one file are
// debounced into a single event.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/semscout/semscout/pkg/types"
)

// DefaultDebounce is applied when no debounce interval is configured.
const DefaultDebounce = 500 * time.Millisecond

// eventBuffer sizes the outbound channel; a slow consumer blocks the
// watcher loop rather than dropping events.
const eventBuffer = 64

// Watcher watches directory trees and emits FileEvents.
type Watcher struct {
	roots      []string
	extensions []string
	debounce   time.Duration
	logger     *zap.Logger

	fsw    *fsnotify.Watcher
	events chan types.FileEvent

	mu       sync.Mutex
	pending  map[string]*time.Timer
	known    map[string]struct{} // paths emitted at least once, distinguishes added from changed
	started  bool
	stopOnce sync.Once
	done     chan struct{}

	// sendMu fences emits against the channel close in Stop. Emitters hold
	// the read side; Stop closes the channel under the write side.
	sendMu  sync.RWMutex
	stopped bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// WithDebounce overrides the write-coalescing interval.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// New creates a watcher over the given roots. extensions filter which
// files produce events (empty = all).
func New(roots []string, extensions []string, opts ...Option) *Watcher {
	w := &Watcher{
		roots:      roots,
		extensions: extensions,
		debounce:   DefaultDebounce,
		logger:     zap.NewNop(),
		events:     make(chan types.FileEvent, eventBuffer),
		pending:    make(map[string]*time.Timer),
		known:      make(map[string]struct{}),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Events returns the channel the watcher emits on. It is closed when the
// watcher stops, so consumers can range over it.
func (w *Watcher) Events() <-chan types.FileEvent {
	return w.events
}

// Start begins watching. It runs until ctx is cancelled or Stop is called,
// then closes the event channel.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return nil
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		w.mu.Unlock()
		return err
	}
	w.fsw = fsw
	w.started = true
	for _, root := range w.roots {
		if err := w.addTreeLocked(root); err != nil {
			_ = fsw.Close()
			w.fsw = nil
			w.started = false
			w.mu.Unlock()
			return err
		}
	}
	w.mu.Unlock()

	w.logger.Debug("watcher started",
		zap.Strings("roots", w.roots), zap.Duration("debounce", w.debounce))
	go w.run(ctx)
	return nil
}

// Stop shuts the watcher down and closes the event channel.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done) // unblocks any emit in flight
		w.mu.Lock()
		if w.fsw != nil {
			_ = w.fsw.Close()
		}
		for path, t := range w.pending {
			t.Stop()
			delete(w.pending, path)
		}
		w.mu.Unlock()

		w.sendMu.Lock()
		w.stopped = true
		close(w.events)
		w.sendMu.Unlock()
	})
}

func (w *Watcher) run(ctx context.Context) {
	defer w.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			if err != nil {
				w.logger.Debug("watcher error", zap.Error(err))
			}
		}
	}
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	path := ev.Name
	switch {
	case ev.Op.Has(fsnotify.Create), ev.Op.Has(fsnotify.Write):
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			w.watchNewDirectory(path)
			return
		}
		if w.matchExtension(path) {
			w.debounceWrite(path)
		}
	case ev.Op.Has(fsnotify.Remove), ev.Op.Has(fsnotify.Rename):
		w.cancelPending(path)
		if w.matchExtension(path) {
			w.emitRemove(path)
		}
	}
}

// debounceWrite coalesces a burst of writes to one path into one event,
// emitted after the interval elapses with no further writes.
func (w *Watcher) debounceWrite(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		_, seen := w.known[path]
		w.known[path] = struct{}{}
		w.mu.Unlock()

		kind := types.EventAdded
		if seen {
			kind = types.EventChanged
		}
		w.emit(types.FileEvent{Kind: kind, Path: path, Time: time.Now()})
	})
}

func (w *Watcher) cancelPending(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) emitRemove(path string) {
	w.mu.Lock()
	delete(w.known, path)
	w.mu.Unlock()
	w.emit(types.FileEvent{Kind: types.EventRemoved, Path: path, Time: time.Now()})
}

func (w *Watcher) emit(ev types.FileEvent) {
	w.sendMu.RLock()
	defer w.sendMu.RUnlock()
	if w.stopped {
		return
	}
	select {
	case w.events <- ev:
	case <-w.done:
	}
}

// watchNewDirectory registers a directory created after Start, so files
// written inside it are seen.
func (w *Watcher) watchNewDirectory(dir string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fsw == nil {
		return
	}
	if err := w.addTreeLocked(dir); err != nil {
		w.logger.Debug("watcher failed to add directory", zap.String("path", dir), zap.Error(err))
	}
}

func (w *Watcher) addTreeLocked(root string) error {
	root = filepath.Clean(root)
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

func (w *Watcher) matchExtension(path string) bool {
	if len(w.extensions) == 0 {
		return true
	}
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	for _, e := range w.extensions {
		if strings.TrimPrefix(strings.ToLower(e), ".") == ext {
			return true
		}
	}
	return false
}
