// Package ui serves charts to browsers: a chi server whose views are
// registered through the host registry, with live reload of chart and
// macro files.
package ui

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/leapchart/internal/chartfile"
	"github.com/leapstack-labs/leapchart/internal/macro"
	"github.com/leapstack-labs/leapchart/internal/registry"
	"github.com/leapstack-labs/leapchart/internal/ui/host"
	"github.com/leapstack-labs/leapchart/internal/ui/notifier"
	"github.com/leapstack-labs/leapchart/internal/ui/router"
)

const (
	debounceDelay        = 100 * time.Millisecond
	defaultFragmentsPoll = 2 * time.Second
)

// RevisionSource reports the current revision of the persisted fragments.
type RevisionSource interface {
	FragmentsRevision(ctx context.Context) (string, error)
}

// Server is the chart UI server.
type Server struct {
	cfg          Config
	sessionStore *sessions.CookieStore
	registry     *registry.Registry[*host.Host]
	notifier     *notifier.Notifier
	logger       *slog.Logger
}

// Config holds configuration for the UI server.
type Config struct {
	Port          int
	Watch         bool
	SessionSecret string
	TemplatesDir  string
	MacrosDir     string
	Dev           bool
	Logger        *slog.Logger

	// Fragments, when set, is polled every FragmentsPoll and a reload is
	// broadcast when its revision changes.
	Fragments     RevisionSource
	FragmentsPoll time.Duration
}

// NewServer creates a new UI server instance.
func NewServer(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	secret := cfg.SessionSecret
	if secret == "" {
		secret = uuid.NewString() + uuid.NewString()
		cfg.Logger.Warn("no session secret configured, flags reset on restart")
	}
	sessionStore := sessions.NewCookieStore([]byte(secret))
	sessionStore.MaxAge(86400 * 30)
	sessionStore.Options.Path = "/"
	sessionStore.Options.HttpOnly = true
	sessionStore.Options.SameSite = http.SameSiteLaxMode

	return &Server{
		cfg:          cfg,
		sessionStore: sessionStore,
		registry:     registry.New[*host.Host](registry.Options{Logger: cfg.Logger}),
		notifier:     notifier.New(),
		logger:       cfg.Logger,
	}
}

// Registry returns the registry views subscribe to. Subscribers queue until
// the server builds its handler.
func (s *Server) Registry() *registry.Registry[*host.Host] { return s.registry }

// Notifier returns the server's notifier for reload events.
func (s *Server) Notifier() *notifier.Notifier { return s.notifier }

// IsDev reports whether the dev reload endpoints are served.
func (s *Server) IsDev() bool { return s.cfg.Dev }

// Handler publishes the host API and returns the routed handler. It may
// be called once.
func (s *Server) Handler() (http.Handler, error) {
	h := host.New(s.sessionStore)
	if err := s.registry.Publish(h); err != nil {
		return nil, fmt.Errorf("publishing host: %w", err)
	}

	r := chi.NewMux()
	r.Use(
		middleware.Logger,
		middleware.Recoverer,
	)
	router.SetupRoutes(r, h, s.IsDev())
	return r, nil
}

// Serve starts the UI server and blocks until the context is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	handler, err := s.Handler()
	if err != nil {
		return err
	}

	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.logger.Info("starting UI server", "addr", fmt.Sprintf("http://localhost:%d", s.cfg.Port))

	eg, egctx := errgroup.WithContext(ctx)

	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
		BaseContext: func(_ net.Listener) context.Context {
			return egctx
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	if s.cfg.Watch {
		eg.Go(func() error {
			return s.watchFiles(egctx)
		})
	}

	if s.cfg.Fragments != nil {
		eg.Go(func() error {
			return s.watchFragments(egctx)
		})
	}

	eg.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Debug("shutting down UI server...")
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}

// watchFiles broadcasts a reload when a chart or macro file changes.
func (s *Server) watchFiles(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	for _, dir := range []string{s.cfg.TemplatesDir, s.cfg.MacrosDir} {
		if dir == "" {
			continue
		}
		if err := watchDirRecursive(watcher, dir); err != nil {
			s.logger.Warn("not watching directory", "dir", dir, "error", err)
		}
	}

	debounce := newDebouncer(debounceDelay, s.notifier.Broadcast)
	defer debounce.stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			ev, relevant := classify(event)
			if !relevant {
				continue
			}
			s.logger.Debug("file changed", "file", event.Name, "reason", ev.Reason.String())
			debounce.trigger(ev)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("watcher error", "error", err)
		}
	}
}

// watchFragments broadcasts a reload when the fragment revision changes.
func (s *Server) watchFragments(ctx context.Context) error {
	interval := s.cfg.FragmentsPoll
	if interval <= 0 {
		interval = defaultFragmentsPoll
	}
	last, err := s.cfg.Fragments.FragmentsRevision(ctx)
	if err != nil {
		s.logger.Warn("reading fragments revision", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			rev, err := s.cfg.Fragments.FragmentsRevision(ctx)
			if err != nil {
				s.logger.Warn("reading fragments revision", "error", err)
				continue
			}
			if rev != last {
				last = rev
				s.logger.Debug("fragments changed", "revision", rev)
				s.notifier.Broadcast(notifier.Event{Reason: notifier.ReasonFragments})
			}
		}
	}
}

// classify maps a file event to a reload event.
func classify(event fsnotify.Event) (notifier.Event, bool) {
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return notifier.Event{}, false
	}
	switch filepath.Ext(event.Name) {
	case chartfile.Ext:
		return notifier.Event{Reason: notifier.ReasonTemplate, Path: event.Name}, true
	case macro.Ext:
		return notifier.Event{Reason: notifier.ReasonMacro, Path: event.Name}, true
	}
	return notifier.Event{}, false
}

// debouncer delivers the last event of a burst once the burst has been
// quiet for delay.
type debouncer struct {
	delay time.Duration
	fire  func(notifier.Event)

	mu    sync.Mutex
	timer *time.Timer
	last  notifier.Event
}

func newDebouncer(delay time.Duration, fire func(notifier.Event)) *debouncer {
	return &debouncer{delay: delay, fire: fire}
}

func (d *debouncer) trigger(ev notifier.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.last = ev
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		ev := d.last
		d.mu.Unlock()
		d.fire(ev)
	})
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}

// watchDirRecursive adds a directory and all subdirectories to the watcher.
func watchDirRecursive(watcher *fsnotify.Watcher, dir string) error {
	if _, err := os.Stat(dir); err != nil {
		return err
	}
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
}
