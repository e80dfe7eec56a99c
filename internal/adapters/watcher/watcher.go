// Package watcher implements recursive file system watching with fsnotify.
package watcher

import (
	"context"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.trai.ch/reel/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Watcher = (*Watcher)(nil)

// shouldSkipDirectories are directory names that are never watched.
var shouldSkipDirectories = map[string]bool{
	".git":         true,
	".jj":          true,
	"node_modules": true,
	"__pycache__":  true,
	".venv":        true,
}

const (
	eventChannelBuffer = 100

	// renamePairWindow is how long a rename waits for the matching create
	// before it is reported on its own.
	renamePairWindow = 20 * time.Millisecond
)

// Watcher implements file system watching using fsnotify.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	skipDirs  map[string]struct{}
	logger    ports.Logger
	events    chan ports.WatchEvent
	stopOnce  sync.Once
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithSkipDirs excludes the given directories, compared by absolute path.
func WithSkipDirs(dirs ...string) Option {
	return func(w *Watcher) {
		for _, dir := range dirs {
			if dir == "" {
				continue
			}
			if abs, err := filepath.Abs(dir); err == nil {
				dir = abs
			}
			w.skipDirs[filepath.Clean(dir)] = struct{}{}
		}
	}
}

// WithLogger routes watcher errors to logger instead of dropping them.
func WithLogger(logger ports.Logger) Option {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// NewWatcher creates a new file system watcher.
func NewWatcher(opts ...Option) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, zerr.Wrap(err, "failed to create fsnotify watcher")
	}
	w := &Watcher{
		fsWatcher: watcher,
		skipDirs:  make(map[string]struct{}),
		events:    make(chan ports.WatchEvent, eventChannelBuffer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start begins watching the given root directory recursively.
func (w *Watcher) Start(ctx context.Context, root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to resolve watch root"), "root", root)
	}
	if info, err := os.Stat(abs); err != nil || !info.IsDir() {
		return zerr.With(zerr.New("watch root is not a directory"), "root", abs)
	}
	for dir := range w.watchRecursively(abs) {
		if err := w.fsWatcher.Add(dir); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to watch directory"), "dir", dir)
		}
	}

	go w.processEvents(ctx)

	return nil
}

// Stop stops the watcher and releases all resources.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		err = w.fsWatcher.Close()
	})
	return err
}

// Events returns an iterator of file system events.
// The sequence ends when the watcher stops or its context is canceled.
func (w *Watcher) Events() iter.Seq[ports.WatchEvent] {
	return func(yield func(ports.WatchEvent) bool) {
		for event := range w.events {
			if !yield(event) {
				return
			}
		}
	}
}

// watchRecursively walks the directory tree and yields all directories.
func (w *Watcher) watchRecursively(root string) iter.Seq[string] {
	return func(yield func(string) bool) {
		_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil //nolint:nilerr // unreadable directories are skipped, not fatal
			}
			if d.IsDir() {
				if w.shouldSkip(path) {
					return fs.SkipDir
				}
				if !yield(path) {
					return filepath.SkipAll
				}
			}
			return nil
		})
	}
}

// shouldSkip returns true if the directory should not be watched.
func (w *Watcher) shouldSkip(path string) bool {
	if shouldSkipDirectories[filepath.Base(path)] {
		return true
	}
	_, skip := w.skipDirs[filepath.Clean(path)]
	return skip
}

// processEvents converts raw fsnotify events into ports.WatchEvent values.
//
// A rename directly followed by a create is reported as a single move event
// carrying both paths. A rename with no create inside renamePairWindow is
// reported alone, as the file left the watched tree.
//
//nolint:cyclop // multiplexes events, errors, rename pairing and cancellation
func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.events)

	var (
		pendingRename string
		renameTimer   <-chan time.Time
	)

	emit := func(ev ports.WatchEvent) bool {
		select {
		case w.events <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	flushRename := func() bool {
		if pendingRename == "" {
			return true
		}
		ev := ports.WatchEvent{Path: pendingRename, Operation: ports.OpRename}
		pendingRename = ""
		renameTimer = nil
		return emit(ev)
	}

	for {
		select {
		case <-ctx.Done():
			return

		case <-renameTimer:
			if !flushRename() {
				return
			}

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				flushRename()
				return
			}

			watchEvent, ok := convertEvent(event)
			if !ok {
				continue
			}

			switch {
			case watchEvent.Operation == ports.OpRename:
				if !flushRename() {
					return
				}
				pendingRename = watchEvent.Path
				renameTimer = time.After(renamePairWindow)
				continue

			case watchEvent.Operation == ports.OpCreate && pendingRename != "":
				watchEvent = ports.WatchEvent{
					Path:      watchEvent.Path,
					OldPath:   pendingRename,
					Operation: ports.OpRename,
				}
				pendingRename = ""
				renameTimer = nil

			default:
				if !flushRename() {
					return
				}
			}

			if !emit(watchEvent) {
				return
			}

			// A new directory, created or moved in, needs its own watches.
			if event.Has(fsnotify.Create) {
				w.addTree(event.Name)
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				flushRename()
				return
			}
			if w.logger != nil {
				w.logger.Warn("watcher: " + err.Error())
			}
		}
	}
}

func (w *Watcher) addTree(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() || w.shouldSkip(path) {
		return
	}
	for dir := range w.watchRecursively(path) {
		_ = w.fsWatcher.Add(dir)
	}
}

// convertEvent maps an fsnotify event to a ports.WatchEvent.
// Chmod-only events are dropped.
func convertEvent(event fsnotify.Event) (ports.WatchEvent, bool) {
	ev := ports.WatchEvent{Path: event.Name}

	switch {
	case event.Has(fsnotify.Write):
		ev.Operation = ports.OpWrite
	case event.Has(fsnotify.Create):
		ev.Operation = ports.OpCreate
	case event.Has(fsnotify.Remove):
		ev.Operation = ports.OpRemove
	case event.Has(fsnotify.Rename):
		ev.Operation = ports.OpRename
	default:
		return ports.WatchEvent{}, false
	}

	return ev, true
}
