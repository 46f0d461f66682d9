package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileWatcher implements Watcher for a fixed set of files using fsnotify,
// falling back to polling.
type FileWatcher struct {
	paths          []string
	watched        map[string]struct{}
	fsWatcher      *fsnotify.Watcher
	pollWatcher    *PollingWatcher
	debouncer      *Debouncer
	events         chan []FileEvent
	errors         chan error
	stopCh         chan struct{}
	mu             sync.RWMutex
	stopped        bool
	droppedBatches atomic.Uint64
}

var _ Watcher = (*FileWatcher)(nil)

// New creates a watcher for the given files. Missing files are allowed and
// reported with OpCreate once they appear.
func New(paths []string, opts Options) (*FileWatcher, error) {
	opts = opts.WithDefaults()
	if len(paths) == 0 {
		return nil, fmt.Errorf("no files to watch")
	}

	w := &FileWatcher{
		watched:   make(map[string]struct{}, len(paths)),
		debouncer: NewDebouncer(opts.Debounce),
		events:    make(chan []FileEvent, opts.EventBufferSize),
		errors:    make(chan error, 10),
		stopCh:    make(chan struct{}),
	}
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return nil, fmt.Errorf("resolve absolute path: %w", err)
		}
		if _, dup := w.watched[abs]; dup {
			continue
		}
		w.watched[abs] = struct{}{}
		w.paths = append(w.paths, abs)
	}
	sort.Strings(w.paths)

	if !opts.ForcePolling {
		fsw, err := fsnotify.NewWatcher()
		if err == nil {
			w.fsWatcher = fsw
			return w, nil
		}
		slog.Warn("fsnotify unavailable, falling back to polling", slog.String("error", err.Error()))
	}
	w.pollWatcher = NewPollingWatcher(w.paths, opts.PollInterval)
	return w, nil
}

// Paths returns the absolute paths being watched.
func (w *FileWatcher) Paths() []string {
	return w.paths
}

// Type returns "fsnotify" or "polling".
func (w *FileWatcher) Type() string {
	if w.fsWatcher != nil {
		return "fsnotify"
	}
	return "polling"
}

// Start begins watching and blocks until Stop is called or ctx is cancelled.
func (w *FileWatcher) Start(ctx context.Context) error {
	go w.forwardDebouncedEvents(ctx)

	if w.fsWatcher != nil {
		return w.startFsnotify(ctx)
	}
	return w.startPolling(ctx)
}

func (w *FileWatcher) startFsnotify(ctx context.Context) error {
	dirs := make(map[string]struct{})
	for _, p := range w.paths {
		dir := filepath.Dir(p)
		if _, ok := dirs[dir]; ok {
			continue
		}
		dirs[dir] = struct{}{}
		if err := w.fsWatcher.Add(dir); err != nil {
			_ = w.Stop()
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	slog.Debug("watcher_started", slog.String("type", w.Type()), slog.Int("files", len(w.paths)))

	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return ctx.Err()
		case <-w.stopCh:
			return nil
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleFsnotifyEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.emitError(err)
		}
	}
}

func (w *FileWatcher) startPolling(ctx context.Context) error {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-w.stopCh:
				return
			case event, ok := <-w.pollWatcher.Events():
				if !ok {
					return
				}
				w.debouncer.Add(event)
			case err, ok := <-w.pollWatcher.Errors():
				if !ok {
					return
				}
				w.emitError(err)
			}
		}
	}()

	slog.Debug("watcher_started", slog.String("type", w.Type()), slog.Int("files", len(w.paths)))
	err := w.pollWatcher.Start(ctx)
	if ctx.Err() != nil {
		_ = w.Stop()
	}
	return err
}

// handleFsnotifyEvent drops events for files outside the watched set.
func (w *FileWatcher) handleFsnotifyEvent(event fsnotify.Event) {
	path := filepath.Clean(event.Name)
	if _, ok := w.watched[path]; !ok {
		return
	}

	var op Operation
	switch {
	case event.Op&fsnotify.Create != 0:
		op = OpCreate
	case event.Op&fsnotify.Write != 0:
		op = OpModify
	case event.Op&fsnotify.Remove != 0:
		op = OpDelete
	case event.Op&fsnotify.Rename != 0:
		op = OpRename
	default:
		return
	}

	w.debouncer.Add(FileEvent{Path: path, Operation: op, Timestamp: time.Now()})
}

func (w *FileWatcher) forwardDebouncedEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case events, ok := <-w.debouncer.Output():
			if !ok {
				return
			}
			if len(events) > 0 {
				w.emitEvents(events)
			}
		}
	}
}

func (w *FileWatcher) emitEvents(events []FileEvent) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.stopped {
		return
	}
	select {
	case w.events <- events:
	default:
		count := w.droppedBatches.Add(1)
		slog.Warn("event buffer full, dropping batch",
			slog.Int("batch_size", len(events)),
			slog.Uint64("total_dropped_batches", count),
		)
	}
}

// DroppedBatches returns the number of batches dropped due to buffer overflow.
func (w *FileWatcher) DroppedBatches() uint64 {
	return w.droppedBatches.Load()
}

func (w *FileWatcher) emitError(err error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.stopped {
		return
	}
	select {
	case w.errors <- err:
	default:
	}
}

// Stop stops the watcher and closes the event and error channels.
func (w *FileWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopCh)
	w.debouncer.Stop()

	if w.fsWatcher != nil {
		_ = w.fsWatcher.Close()
	}
	if w.pollWatcher != nil {
		_ = w.pollWatcher.Stop()
	}

	close(w.events)
	close(w.errors)
	return nil
}

// Events returns the channel of batched file events.
func (w *FileWatcher) Events() <-chan []FileEvent {
	return w.events
}

// Errors returns the channel of errors.
func (w *FileWatcher) Errors() <-chan error {
	return w.errors
}
