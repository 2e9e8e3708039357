// Package watch is an optional, out-of-core convenience adapter: it
// watches a project root for file changes with fsnotify and debounces
// them into Indexer.IndexFiles calls. It is not part of the indexing
// core — spec.md's non-goals exclude real-time file-watch reindexing as
// a core behavior — but is a thin external driver in the same spirit as
// the git post-commit/post-merge hooks, wired here so the teacher's
// fsnotify dependency has a concrete home. Grounded on the shape of the
// teacher's internal/watcher package (event coalescing into debounced
// batches), simplified to the one thing this adapter needs: a debounced
// set of changed paths, not a typed event/operation model.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Aman-CERP/codelibrarian/internal/config"
	"github.com/Aman-CERP/codelibrarian/internal/index"
)

// Reindexer is the capability watch needs from an *index.Indexer.
type Reindexer interface {
	IndexFiles(ctx context.Context, paths []string, full bool) (index.IndexStats, error)
}

// Options configures the watcher.
type Options struct {
	// DebounceWindow coalesces rapid-fire events (e.g. an editor's
	// write-then-rename save) into a single reindex call. Default: 300ms.
	DebounceWindow time.Duration
}

func (o Options) withDefaults() Options {
	if o.DebounceWindow <= 0 {
		o.DebounceWindow = 300 * time.Millisecond
	}
	return o
}

// Watcher watches a configured project root and debounces changed paths
// into Reindexer.IndexFiles calls.
type Watcher struct {
	cfg  *config.Config
	ix   Reindexer
	opts Options
	log  *slog.Logger

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
}

// New constructs a Watcher. log may be nil, in which case slog.Default
// is used.
func New(cfg *config.Config, ix Reindexer, opts Options, log *slog.Logger) *Watcher {
	if log == nil {
		log = slog.Default()
	}
	return &Watcher{
		cfg:     cfg,
		ix:      ix,
		opts:    opts.withDefaults(),
		log:     log,
		pending: make(map[string]struct{}),
	}
}

// Run watches cfg's index root until ctx is cancelled, reindexing
// debounced batches of changed files as they settle. Newly created
// directories are added to the watch as they appear, so the tree stays
// covered without a restart. Returns nil on clean cancellation, or an
// error if the underlying watcher fails to start.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting file watcher: %w", err)
	}
	defer fw.Close()

	root := w.cfg.IndexRoot()
	if err := addRecursive(fw, w.cfg, root); err != nil {
		return fmt.Errorf("watching %s: %w", root, err)
	}
	w.log.Info("watch started", "root", root, "debounce", w.opts.DebounceWindow)

	for {
		select {
		case <-ctx.Done():
			w.cancelTimer()
			w.flush(context.Background())
			return nil
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fw, ev)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(fw *fsnotify.Watcher, ev fsnotify.Event) {
	if ev.Op&fsnotify.Remove != 0 || ev.Op&fsnotify.Rename != 0 {
		// The path no longer exists (or was renamed away); IndexFiles
		// already skips missing paths, and any new path that replaces it
		// arrives as its own Create event.
		return
	}

	info, statErr := os.Stat(ev.Name)
	if statErr == nil && info.IsDir() {
		if ev.Op&fsnotify.Create != 0 {
			_ = addRecursive(fw, w.cfg, ev.Name)
		}
		return
	}
	if !index.ShouldIndex(w.cfg, ev.Name) {
		return
	}

	w.mu.Lock()
	w.pending[ev.Name] = struct{}{}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.opts.DebounceWindow, func() { w.flush(context.Background()) })
	w.mu.Unlock()
}

func (w *Watcher) cancelTimer() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}

func (w *Watcher) flush(ctx context.Context) {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	paths := make([]string, 0, len(w.pending))
	for p := range w.pending {
		paths = append(paths, p)
	}
	w.pending = make(map[string]struct{})
	w.mu.Unlock()

	stats, err := w.ix.IndexFiles(ctx, paths, false)
	if err != nil {
		w.log.Error("watch reindex failed", "error", err)
		return
	}
	w.log.Info("watch reindex", "files", stats.FilesIndexed, "symbols", stats.SymbolsAdded)
}

// addRecursive registers a watch on root and every non-excluded
// subdirectory beneath it.
func addRecursive(fw *fsnotify.Watcher, cfg *config.Config, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			// The directory may have been removed between the event and
			// this walk (e.g. a rapid create-then-delete); not fatal.
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if path != root && index.IsDirExcluded(cfg, path) {
			return filepath.SkipDir
		}
		return fw.Add(path)
	})
}
