package worker

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/asclepius/pkg/utils/errutil"
	"github.com/secmon-lab/asclepius/pkg/utils/logging"
)

// DefaultDebounce collapses the burst of events an editor save produces into one reload
const DefaultDebounce = 500 * time.Millisecond

// Reloader rebuilds served state from its sources
type Reloader interface {
	Reload(ctx context.Context) error
}

// KnowledgeWatcher reloads the knowledge base when a watched local file changes.
//
// Parent directories are watched rather than the files, so atomic replace-by-rename
// saves are seen. Only a single server instance is assumed.
type KnowledgeWatcher struct {
	reloader Reloader
	files    map[string]struct{}
	debounce time.Duration
	watcher  *fsnotify.Watcher
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewKnowledgeWatcher creates a watcher for the given local file paths
func NewKnowledgeWatcher(reloader Reloader, paths []string, debounce time.Duration) (*KnowledgeWatcher, error) {
	if len(paths) == 0 {
		return nil, goerr.New("no files to watch")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	files := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to resolve watched file", goerr.V("path", p))
		}
		files[filepath.Clean(abs)] = struct{}{}
	}

	return &KnowledgeWatcher{
		reloader: reloader,
		files:    files,
		debounce: debounce,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// Start registers the directories and begins the event loop
func (w *KnowledgeWatcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return goerr.Wrap(err, "failed to create file watcher")
	}

	dirs := make(map[string]struct{})
	for f := range w.files {
		dirs[filepath.Dir(f)] = struct{}{}
	}
	for d := range dirs {
		if err := watcher.Add(d); err != nil {
			_ = watcher.Close()
			return goerr.Wrap(err, "failed to watch directory", goerr.V("dir", d))
		}
	}
	w.watcher = watcher

	logging.From(ctx).Info("knowledge watcher starting",
		"files", len(w.files),
		"debounce", w.debounce.String())

	go w.run(ctx)
	return nil
}

// Stop signals the watcher to stop and waits for completion
func (w *KnowledgeWatcher) Stop() {
	logging.Default().Info("knowledge watcher stopping")
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("knowledge watcher stopped")
}

func (w *KnowledgeWatcher) run(ctx context.Context) {
	defer close(w.doneCh)
	defer func() {
		if err := w.watcher.Close(); err != nil {
			logging.Default().Warn("failed to close file watcher", "error", err.Error())
		}
	}()

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			logging.From(ctx).Debug("knowledge source changed", "path", event.Name, "op", event.Op.String())
			timer.Reset(w.debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.From(ctx).Warn("file watcher error", "error", err.Error())

		case <-timer.C:
			if err := w.reloader.Reload(ctx); err != nil {
				// previous knowledge stays in service
				_ = errutil.Handle(ctx, err, "knowledge reload after file change failed")
				continue
			}
			logging.From(ctx).Info("knowledge reloaded after file change")

		case <-w.stopCh:
			return

		case <-ctx.Done():
			return
		}
	}
}

func (w *KnowledgeWatcher) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	_, ok := w.files[filepath.Clean(abs)]
	return ok
}
