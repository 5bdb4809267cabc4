package memory

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/pjgates/memsearch/internal/observability"
	"github.com/pjgates/memsearch/internal/tracing"
	"github.com/pjgates/memsearch/pkg/scanner"
)

// EventKind classifies a filesystem notification.
type EventKind string

const (
	EventCreated  EventKind = "created"
	EventModified EventKind = "modified"
	EventDeleted  EventKind = "deleted"
)

// Event is one markdown file change.
type Event struct {
	Kind EventKind
	Path string
}

// WatchState is the watcher lifecycle: idle until Start, watching until
// Stop, stopped forever after.
type WatchState int

const (
	WatchIdle WatchState = iota
	WatchWatching
	WatchStopped
)

// Watcher translates raw fsnotify notifications into classified markdown
// events on a channel. Events are not debounced; consumers rely on the
// pipeline's idempotence under replay.
type Watcher struct {
	fs         *fsnotify.Watcher
	logger     zerolog.Logger
	extensions []string

	events chan Event
	stopCh chan struct{}
	done   chan struct{}

	mu    sync.Mutex
	state WatchState
}

// NewWatcher creates an idle watcher.
func NewWatcher(logger zerolog.Logger, extensions []string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if len(extensions) == 0 {
		extensions = scanner.DefaultExtensions
	}

	return &Watcher{
		fs:         fsw,
		logger:     logger,
		extensions: extensions,
		events:     make(chan Event, 256),
		stopCh:     make(chan struct{}),
		done:       make(chan struct{}),
	}, nil
}

// Start begins watching every directory root, recursively. Non-directory
// roots are ignored for live changes.
func (w *Watcher) Start(roots []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != WatchIdle {
		return nil
	}

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			continue
		}
		if err := w.addRecursive(root); err != nil {
			return err
		}
		w.logger.Info().Str("path", root).Msg("Watching directory")
	}

	w.state = WatchWatching
	go w.run()
	return nil
}

// Stop quiesces the event source. No events are delivered on the channel
// after Stop returns; the channel is closed so consumers can drain and exit.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	prev := w.state
	if prev == WatchStopped {
		w.mu.Unlock()
		return nil
	}
	w.state = WatchStopped
	w.mu.Unlock()

	close(w.stopCh)
	err := w.fs.Close()
	if prev == WatchWatching {
		<-w.done
	}
	close(w.events)
	return err
}

// State returns the current lifecycle state.
func (w *Watcher) State() WatchState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Events is the dispatch channel. It is closed by Stop.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// addRecursive registers root and all non-hidden subdirectories. fsnotify
// watches are per-directory.
func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.fs.Add(path)
	})
}

func (w *Watcher) run() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("File watcher error")
		case <-w.stopCh:
			return
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	// Newly created directories must be added to keep the watch recursive.
	if ev.Has(fsnotify.Create) {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if !strings.HasPrefix(filepath.Base(ev.Name), ".") {
				_ = w.addRecursive(ev.Name)
			}
			return
		}
	}

	if !w.isWatched(ev.Name) {
		return
	}

	var kind EventKind
	switch {
	case ev.Has(fsnotify.Create):
		kind = EventCreated
	case ev.Has(fsnotify.Write):
		kind = EventModified
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		kind = EventDeleted
	default:
		return
	}

	w.logger.Debug().
		Str("file", filepath.Base(ev.Name)).
		Str("kind", string(kind)).
		Msg("File change detected")
	observability.RecordWatcherEvent(string(kind))

	select {
	case w.events <- Event{Kind: kind, Path: ev.Name}:
	case <-w.stopCh:
	}
}

func (w *Watcher) isWatched(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range w.extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// WatchSession couples a running watcher with the consumer goroutine that
// dispatches its events into the indexing pipeline.
type WatchSession struct {
	watcher *Watcher
	done    chan struct{}
}

// Stop stops the watcher and waits for the consumer to finish dispatching.
// An indexing pass already in flight completes; no new events are handled
// after Stop returns.
func (s *WatchSession) Stop() error {
	err := s.watcher.Stop()
	<-s.done
	return err
}

// Watch starts a background watcher over the configured paths. Created and
// modified files trigger a single-file incremental index; deleted files have
// their store entries removed by source. Both operations are idempotent
// under event replay.
func (m *Manager) Watch(ctx context.Context, onEvent func(Event, int, error)) (*WatchSession, error) {
	w, err := NewWatcher(m.logger, m.cfg.Extensions)
	if err != nil {
		return nil, err
	}
	if err := w.Start(m.cfg.Paths); err != nil {
		w.Stop()
		return nil, err
	}

	sess := &WatchSession{watcher: w, done: make(chan struct{})}
	go func() {
		defer close(sess.done)
		for ev := range w.Events() {
			evCtx := tracing.WithSource(ctx, ev.Path)
			n, err := m.dispatch(evCtx, ev)
			if err != nil {
				logger := tracing.LoggerFromContext(evCtx, m.logger)
				logger.Warn().Err(err).Str("kind", string(ev.Kind)).Msg("Failed to handle file event")
			}
			if onEvent != nil {
				onEvent(ev, n, err)
			}
		}
	}()
	return sess, nil
}

func (m *Manager) dispatch(ctx context.Context, ev Event) (int, error) {
	switch ev.Kind {
	case EventCreated, EventModified:
		n, err := m.IndexFile(ctx, ev.Path, false)
		if err == nil {
			m.updateStoredGauge(ctx)
		}
		return n, err
	case EventDeleted:
		if err := m.store.DeleteBySource(ctx, ev.Path); err != nil {
			return 0, err
		}
		m.updateStoredGauge(ctx)
		return 0, nil
	}
	return 0, nil
}
