// Package watch re-runs a tsgrep search whenever a watched file changes,
// adapted from indexer.FileWatcher's debounce-timer map (fsnotify-based,
// one timer per dirty path) but driving orchestrator.Run instead of the
// teacher's incremental symbol reindex.
package watch

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jayvdb/tsgrep/pkg/orchestrator"
)

// DefaultDebounce matches indexer.FileWatcher's default: rapid-fire saves
// within this window collapse into one re-run.
const DefaultDebounce = 200 * time.Millisecond

// Watcher re-runs cfg's search on every write, create, remove, or rename
// event under the directories implied by cfg.Paths (or "." when cfg.Paths
// is empty), debounced per-path.
type Watcher struct {
	cfg      orchestrator.RunConfig
	fsw      *fsnotify.Watcher
	logger   *slog.Logger
	debounce time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer

	stop chan struct{}
}

// New creates a Watcher over cfg. Run must be called to begin watching.
func New(cfg orchestrator.RunConfig, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}
	return &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		logger:   logger,
		debounce: DefaultDebounce,
		timers:   make(map[string]*time.Timer),
		stop:     make(chan struct{}),
	}, nil
}

// Run performs the initial search, then watches for changes and re-runs the
// search (debounced) until stopped. It blocks until Stop is called or the
// watched roots can no longer be watched, returning the exit code of the
// initial search. The exit codes of the re-runs are not returned.
func (w *Watcher) Run() int {
	code := orchestrator.Run(w.cfg)

	roots := w.cfg.Paths
	if len(roots) == 0 {
		roots = []string{"."}
	}
	for _, root := range roots {
		if err := w.addTree(root); err != nil {
			w.logger.Warn("watch: failed to watch root", "root", root, "error", err)
		}
	}

	w.logger.Info("watching for changes", "roots", roots)
	w.eventLoop()
	return code
}

// Stop halts the watcher and releases its fsnotify handle. Safe to call
// once.
func (w *Watcher) Stop() {
	close(w.stop)
	w.mu.Lock()
	for _, t := range w.timers {
		t.Stop()
	}
	w.timers = make(map[string]*time.Timer)
	w.mu.Unlock()
	w.fsw.Close()
}

func (w *Watcher) addTree(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if shouldIgnoreDir(path) {
			return filepath.SkipDir
		}
		if addErr := w.fsw.Add(path); addErr != nil {
			w.logger.Warn("watch: failed to watch directory", "path", path, "error", addErr)
		}
		return nil
	})
}

func shouldIgnoreDir(path string) bool {
	switch filepath.Base(path) {
	case ".git", "node_modules", "target", "vendor", "dist", "build", "__pycache__":
		return true
	default:
		return false
	}
}

func (w *Watcher) eventLoop() {
	for {
		select {
		case <-w.stop:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Error("watch: fsnotify error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	w.debounceRerun(event.Name)
}

func (w *Watcher) debounceRerun(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, exists := w.timers[path]; exists {
		t.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.logger.Debug("watch: re-running search", "changed", path)
		orchestrator.Run(w.cfg)

		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
	})
}
