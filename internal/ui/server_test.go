package ui

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapchart/internal/pipeline"
	"github.com/leapstack-labs/leapchart/internal/registry"
	"github.com/leapstack-labs/leapchart/internal/testutil"
	"github.com/leapstack-labs/leapchart/internal/ui/features/charts"
	"github.com/leapstack-labs/leapchart/internal/ui/notifier"
)

func TestServer_HandlerPublishesHost(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hello.chart"), []byte(`{ title = { text = "hi" } }`), 0o600))

	logger := testutil.NewTestLogger(t)
	s := NewServer(Config{TemplatesDir: dir, SessionSecret: "test-secret-key-32-bytes-long!!", Logger: logger})

	deps := charts.Deps{
		Pipeline: pipeline.New(pipeline.Config{TemplatesDir: dir, Logger: logger}),
		Notifier: s.Notifier(),
		Logger:   logger,
	}
	require.NoError(t, s.Registry().Register(charts.ViewKey, charts.Register(deps, false)))
	assert.Equal(t, 1, s.Registry().Pending())

	handler, err := s.Handler()
	require.NoError(t, err)
	assert.True(t, s.Registry().Published())

	_, err = s.Handler()
	assert.ErrorIs(t, err, registry.ErrAlreadyPublished)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `href="/charts/hello"`)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/charts/hello", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/charts/hello/sse")

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/static/leapchart.css", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		event      fsnotify.Event
		wantOK     bool
		wantReason notifier.Reason
	}{
		{name: "chart write", event: fsnotify.Event{Name: "t/a.chart", Op: fsnotify.Write}, wantOK: true, wantReason: notifier.ReasonTemplate},
		{name: "macro create", event: fsnotify.Event{Name: "m/fmt.star", Op: fsnotify.Create}, wantOK: true, wantReason: notifier.ReasonMacro},
		{name: "chart removed", event: fsnotify.Event{Name: "t/a.chart", Op: fsnotify.Remove}, wantOK: true, wantReason: notifier.ReasonTemplate},
		{name: "chmod ignored", event: fsnotify.Event{Name: "t/a.chart", Op: fsnotify.Chmod}},
		{name: "other extension", event: fsnotify.Event{Name: "t/notes.md", Op: fsnotify.Write}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := classify(tt.event)
			assert.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.wantReason, ev.Reason)
				assert.Equal(t, tt.event.Name, ev.Path)
			}
		})
	}
}

func TestDebouncer_CoalescesBursts(t *testing.T) {
	var mu sync.Mutex
	var got []notifier.Event
	d := newDebouncer(20*time.Millisecond, func(ev notifier.Event) {
		mu.Lock()
		got = append(got, ev)
		mu.Unlock()
	})
	defer d.stop()

	d.trigger(notifier.Event{Path: "a.chart"})
	d.trigger(notifier.Event{Path: "b.chart"})
	d.trigger(notifier.Event{Path: "c.star", Reason: notifier.ReasonMacro})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	assert.Equal(t, "c.star", got[0].Path)
}

func TestServer_WatchBroadcastsChanges(t *testing.T) {
	templates := t.TempDir()
	macros := t.TempDir()
	s := NewServer(Config{TemplatesDir: templates, MacrosDir: macros, Watch: true, Logger: testutil.NewTestLogger(t)})

	updates := s.Notifier().Subscribe()
	defer s.Notifier().Unsubscribe(updates)

	ctx := t.Context()
	go func() { _ = s.watchFiles(ctx) }()
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(macros, "fmt.star"), []byte("x = 1\n"), 0o600))

	select {
	case ev := <-updates:
		assert.Equal(t, notifier.ReasonMacro, ev.Reason)
	case <-time.After(2 * time.Second):
		t.Fatal("no reload event")
	}
}

type fakeRevisions struct {
	mu  sync.Mutex
	rev string
	err error
}

func (f *fakeRevisions) FragmentsRevision(_ context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rev, f.err
}

func (f *fakeRevisions) set(rev string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rev = rev
}

func TestServer_WatchFragments(t *testing.T) {
	revs := &fakeRevisions{rev: "1"}
	s := NewServer(Config{Fragments: revs, FragmentsPoll: 10 * time.Millisecond, Logger: testutil.NewTestLogger(t)})

	updates := s.Notifier().Subscribe()
	defer s.Notifier().Unsubscribe(updates)

	go func() { _ = s.watchFragments(t.Context()) }()

	select {
	case ev := <-updates:
		t.Fatalf("unexpected event before change: %v", ev.Reason)
	case <-time.After(50 * time.Millisecond):
	}

	revs.set("2")
	select {
	case ev := <-updates:
		assert.Equal(t, notifier.ReasonFragments, ev.Reason)
	case <-time.After(2 * time.Second):
		t.Fatal("no reload event")
	}
}

func TestServer_WatchFragments_LogsErrors(t *testing.T) {
	revs := &fakeRevisions{err: errors.New("database is locked")}
	logger, rec := testutil.NewRecordingLogger(t)
	s := NewServer(Config{Fragments: revs, FragmentsPoll: 10 * time.Millisecond, Logger: logger})

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan struct{})
	go func() {
		_ = s.watchFragments(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return rec.Has(slog.LevelWarn, "reading fragments revision")
	}, 2*time.Second, 10*time.Millisecond)
	cancel()
	<-done
}
