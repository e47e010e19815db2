// Package watch re-runs lint when files under the project root change.
// Changes are debounced: a burst of writes from a save-all or a branch
// switch triggers one re-run, not hundreds.
package watch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/plint-dev/plint/internal/logger"
)

// DefaultDebounce is how long the watcher waits for more changes before
// re-running.
const DefaultDebounce = 300 * time.Millisecond

// Config configures a watcher.
type Config struct {
	Root     string
	Debounce time.Duration

	// OnChange runs after each debounce window that saw changes, with the
	// changed paths relative to Root. Runs on the watcher goroutine; a
	// slow callback delays the next flush, never drops changes.
	OnChange func(paths []string)
}

// Watcher debounces filesystem events into re-run triggers.
type Watcher struct {
	cfg Config
	fsw *fsnotify.Watcher

	pendingMu sync.Mutex
	pending   map[string]struct{}
}

// New builds a watcher for cfg.Root. Call Start to begin watching.
func New(cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	return &Watcher{
		cfg:     cfg,
		fsw:     fsw,
		pending: make(map[string]struct{}),
	}, nil
}

// Start adds recursive watches and processes events until ctx is done.
// Blocks; run it on its own goroutine if the caller has other work.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addRecursive(w.cfg.Root); err != nil {
		return err
	}
	defer w.fsw.Close()

	logger.Debug("watcher started", "root", w.cfg.Root, "debounce", w.cfg.Debounce)

	ticker := time.NewTicker(w.cfg.Debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", "error", err)

		case <-ticker.C:
			w.flush()
		}
	}
}

// addRecursive watches every directory under root, skipping hidden and
// dependency directories.
func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && skipDir(filepath.Base(path)) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			logger.Warn("failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

func skipDir(base string) bool {
	return base == "vendor" || base == "node_modules" || strings.HasPrefix(base, ".")
}

func (w *Watcher) handle(event fsnotify.Event) {
	path := event.Name

	// New directories need their own watch; fsnotify is not recursive.
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if !skipDir(filepath.Base(path)) {
				if err := w.fsw.Add(path); err != nil {
					logger.Warn("failed to watch new directory", "path", path, "error", err)
				}
			}
			return
		}
	}

	rel, err := filepath.Rel(w.cfg.Root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)
	if strings.HasPrefix(rel, ".") && rel != "." {
		return
	}

	w.pendingMu.Lock()
	w.pending[rel] = struct{}{}
	w.pendingMu.Unlock()

	logger.Debug("change detected", "path", rel, "op", event.Op.String())
}

// flush fires OnChange with the accumulated paths, if any.
func (w *Watcher) flush() {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]struct{})
	w.pendingMu.Unlock()

	if w.cfg.OnChange != nil {
		w.cfg.OnChange(paths)
	}
}
