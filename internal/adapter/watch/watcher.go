// Package watch re-runs the engine when station CSVs change on disk, so a
// long-running server picks up freshly dropped exports without a restart.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/couchcryptid/offshore-downtime/internal/pipeline"
)

// Bulk copies land as many events in quick succession; one rerun at the end
// covers them all.
const defaultDebounce = 2 * time.Second

// Runner triggers a recomputation. *pipeline.Pipeline satisfies it.
type Runner interface {
	Run(ctx context.Context) (*pipeline.Result, error)
}

// Watcher debounces filesystem events under a data directory into pipeline
// reruns.
type Watcher struct {
	dir      string
	runner   Runner
	logger   *slog.Logger
	debounce time.Duration

	watcher *fsnotify.Watcher
	done    chan struct{}

	mu    sync.Mutex
	timer *time.Timer
}

func New(dir string, runner Runner, logger *slog.Logger) *Watcher {
	return &Watcher{
		dir:      dir,
		runner:   runner,
		logger:   logger,
		debounce: defaultDebounce,
		done:     make(chan struct{}),
	}
}

// Start begins watching the data directory and every subdirectory under it.
// The event loop stops when ctx is cancelled or the watcher is closed.
func (w *Watcher) Start(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	// fsnotify does not recurse, so register each directory explicitly.
	err = filepath.WalkDir(w.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fw.Add(path)
		}
		return nil
	})
	if err != nil {
		_ = fw.Close()
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}

	w.watcher = fw
	go w.loop(ctx)

	w.logger.Info("watching for station file changes", "dir", w.dir)
	return nil
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(ctx, event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)

		case <-ctx.Done():
			return
		}
	}
}

func (w *Watcher) handle(ctx context.Context, event fsnotify.Event) {
	// New subdirectories join the watch instead of triggering a rerun; the
	// files copied into them will.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.watcher.Add(event.Name); err != nil {
				w.logger.Warn("watch subdirectory", "dir", event.Name, "error", err)
			}
			return
		}
	}

	if !strings.EqualFold(filepath.Ext(event.Name), ".csv") {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	w.logger.Debug("station file changed", "file", event.Name, "op", event.Op.String())

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.rerun(ctx)
	})
}

func (w *Watcher) rerun(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	w.logger.Info("station files changed, recomputing")
	if _, err := w.runner.Run(ctx); err != nil {
		w.logger.Error("recompute failed", "error", err)
	}
}

// Close stops the watcher and waits for the event loop to exit. Safe to call
// when Start was never reached.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	if w.watcher == nil {
		return nil
	}
	err := w.watcher.Close()
	<-w.done
	return err
}
