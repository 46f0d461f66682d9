package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"
)

// PollingWatcher detects changes by comparing file metadata on an interval.
// Used when fsnotify is not available.
type PollingWatcher struct {
	interval time.Duration
	paths    []string
	state    map[string]fileSnapshot
	events   chan FileEvent
	errors   chan error
	stopCh   chan struct{}
	mu       sync.Mutex
	stopped  bool
}

type fileSnapshot struct {
	exists  bool
	modTime time.Time
	size    int64
}

// NewPollingWatcher creates a polling watcher for the given absolute paths.
func NewPollingWatcher(paths []string, interval time.Duration) *PollingWatcher {
	return &PollingWatcher{
		interval: interval,
		paths:    paths,
		state:    make(map[string]fileSnapshot, len(paths)),
		events:   make(chan FileEvent, 100),
		errors:   make(chan error, 10),
		stopCh:   make(chan struct{}),
	}
}

// Start records a baseline and polls until stopped.
func (p *PollingWatcher) Start(ctx context.Context) error {
	p.mu.Lock()
	for _, path := range p.paths {
		snap, err := stat(path)
		if err != nil {
			p.mu.Unlock()
			return fmt.Errorf("stat %s: %w", path, err)
		}
		p.state[path] = snap
	}
	p.mu.Unlock()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = p.Stop()
			return ctx.Err()
		case <-p.stopCh:
			return nil
		case <-ticker.C:
			p.detectChanges()
		}
	}
}

func stat(path string) (fileSnapshot, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fileSnapshot{}, nil
	}
	if err != nil {
		return fileSnapshot{}, err
	}
	return fileSnapshot{exists: true, modTime: info.ModTime(), size: info.Size()}, nil
}

func (p *PollingWatcher) detectChanges() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, path := range p.paths {
		current, err := stat(path)
		if err != nil {
			p.emitError(fmt.Errorf("stat %s: %w", path, err))
			continue
		}
		prev := p.state[path]
		p.state[path] = current

		var op Operation
		switch {
		case !prev.exists && current.exists:
			op = OpCreate
		case prev.exists && !current.exists:
			op = OpDelete
		case current.exists && (prev.modTime != current.modTime || prev.size != current.size):
			op = OpModify
		default:
			continue
		}
		p.emitEvent(FileEvent{Path: path, Operation: op, Timestamp: time.Now()})
	}
}

// emitEvent must be called with the lock held.
func (p *PollingWatcher) emitEvent(event FileEvent) {
	if p.stopped {
		return
	}
	select {
	case p.events <- event:
	default:
		slog.Warn("polling watcher buffer full, dropping event",
			slog.String("path", event.Path),
			slog.String("op", event.Operation.String()),
		)
	}
}

// emitError must be called with the lock held.
func (p *PollingWatcher) emitError(err error) {
	if p.stopped {
		return
	}
	select {
	case p.errors <- err:
	default:
	}
}

// Stop stops the polling watcher. Safe to call multiple times.
func (p *PollingWatcher) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return nil
	}
	p.stopped = true
	close(p.stopCh)
	close(p.events)
	close(p.errors)
	return nil
}

// Events returns the channel of file events.
func (p *PollingWatcher) Events() <-chan FileEvent {
	return p.events
}

// Errors returns the channel of errors.
func (p *PollingWatcher) Errors() <-chan error {
	return p.errors
}
