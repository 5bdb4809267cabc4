package memory

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWatcher(t *testing.T) *Watcher {
	t.Helper()
	w, err := NewWatcher(zerolog.New(os.Stdout).Level(zerolog.Disabled), nil)
	require.NoError(t, err)
	return w
}

// collectEvents drains the watcher channel in the background so tests can
// wait for specific paths without racing the producer.
type eventSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *eventSink) consume(w *Watcher) chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range w.Events() {
			s.mu.Lock()
			s.events = append(s.events, ev)
			s.mu.Unlock()
		}
	}()
	return done
}

func (s *eventSink) waitFor(t *testing.T, path string, kind EventKind) {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		s.mu.Lock()
		for _, ev := range s.events {
			if ev.Path == path && ev.Kind == kind {
				s.mu.Unlock()
				return
			}
		}
		s.mu.Unlock()

		select {
		case <-deadline:
			t.Fatalf("timed out waiting for %s event on %s", kind, path)
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestWatcher_StateMachine(t *testing.T) {
	w := newTestWatcher(t)
	assert.Equal(t, WatchIdle, w.State())

	require.NoError(t, w.Start([]string{t.TempDir()}))
	assert.Equal(t, WatchWatching, w.State())

	require.NoError(t, w.Stop())
	assert.Equal(t, WatchStopped, w.State())

	// Stop is idempotent.
	assert.NoError(t, w.Stop())
}

func TestWatcher_ChannelClosedAfterStop(t *testing.T) {
	w := newTestWatcher(t)
	require.NoError(t, w.Start([]string{t.TempDir()}))
	require.NoError(t, w.Stop())

	_, ok := <-w.Events()
	assert.False(t, ok)
}

func TestWatcher_ClassifiesEvents(t *testing.T) {
	w := newTestWatcher(t)
	dir := t.TempDir()
	require.NoError(t, w.Start([]string{dir}))

	sink := &eventSink{}
	done := sink.consume(w)

	path := filepath.Join(dir, "doc.md")
	require.NoError(t, os.WriteFile(path, []byte("# A\n"), 0o644))
	sink.waitFor(t, path, EventCreated)

	require.NoError(t, os.WriteFile(path, []byte("# A\nmore\n"), 0o644))
	sink.waitFor(t, path, EventModified)

	require.NoError(t, os.Remove(path))
	sink.waitFor(t, path, EventDeleted)

	require.NoError(t, w.Stop())
	<-done
}

func TestWatcher_IgnoresNonMarkdownAndHidden(t *testing.T) {
	w := newTestWatcher(t)
	dir := t.TempDir()
	require.NoError(t, w.Start([]string{dir}))

	sink := &eventSink{}
	done := sink.consume(w)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "data.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden.md"), []byte("x"), 0o644))
	seen := filepath.Join(dir, "seen.md")
	require.NoError(t, os.WriteFile(seen, []byte("# S\n"), 0o644))
	sink.waitFor(t, seen, EventCreated)

	require.NoError(t, w.Stop())
	<-done

	for _, ev := range sink.events {
		assert.Equal(t, seen, ev.Path)
	}
}

func TestWatcher_NewSubdirectoryIsWatched(t *testing.T) {
	w := newTestWatcher(t)
	dir := t.TempDir()
	require.NoError(t, w.Start([]string{dir}))

	sink := &eventSink{}
	done := sink.consume(w)

	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.Mkdir(sub, 0o755))
	// Give fsnotify a beat to register the new directory watch.
	time.Sleep(100 * time.Millisecond)

	path := filepath.Join(sub, "inner.md")
	require.NoError(t, os.WriteFile(path, []byte("# Inner\n"), 0o644))
	sink.waitFor(t, path, EventCreated)

	require.NoError(t, w.Stop())
	<-done
}

func TestWatch_IndexesCreatedFile(t *testing.T) {
	m, workspace, _ := createTestManager(t, Config{})
	ctx := context.Background()

	type outcome struct {
		ev  Event
		n   int
		err error
	}
	results := make(chan outcome, 16)
	sess, err := m.Watch(ctx, func(ev Event, n int, err error) {
		results <- outcome{ev, n, err}
	})
	require.NoError(t, err)

	path := writeDoc(t, workspace, "live.md", "# Live\nwatched content\n")

	deadline := time.After(3 * time.Second)
	for {
		var got outcome
		select {
		case got = <-results:
		case <-deadline:
			t.Fatal("timed out waiting for dispatch")
		}
		if got.ev.Path == path && got.n > 0 {
			require.NoError(t, got.err)
			break
		}
	}
	require.NoError(t, sess.Stop())

	count, err := m.Store().CountBySource(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestWatch_DeleteClearsSource(t *testing.T) {
	m, workspace, _ := createTestManager(t, Config{})
	ctx := context.Background()

	path := writeDoc(t, workspace, "gone.md", "# Gone\nto be removed\n")
	_, err := m.Index(ctx, IndexOptions{})
	require.NoError(t, err)

	deleted := make(chan struct{})
	var once sync.Once
	sess, err := m.Watch(ctx, func(ev Event, _ int, err error) {
		if ev.Kind == EventDeleted && ev.Path == path && err == nil {
			once.Do(func() { close(deleted) })
		}
	})
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))
	select {
	case <-deleted:
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for delete dispatch")
	}
	require.NoError(t, sess.Stop())

	count, err := m.Store().CountBySource(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestWatch_StopQuiesces(t *testing.T) {
	m, workspace, _ := createTestManager(t, Config{})

	var mu sync.Mutex
	dispatched := 0
	sess, err := m.Watch(context.Background(), func(Event, int, error) {
		mu.Lock()
		dispatched++
		mu.Unlock()
	})
	require.NoError(t, err)
	require.NoError(t, sess.Stop())

	mu.Lock()
	after := dispatched
	mu.Unlock()

	// Writes after Stop never reach the callback.
	writeDoc(t, workspace, "late.md", "# Late\n")
	time.Sleep(150 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, after, dispatched)
}
