// Package charts provides the chart view of the UI: a catalog of chart
// files and one live surface per open chart page.
package charts

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/leapchart/internal/chartfile"
	"github.com/leapstack-labs/leapchart/internal/pipeline"
	"github.com/leapstack-labs/leapchart/internal/surface"
	"github.com/leapstack-labs/leapchart/internal/template"
	"github.com/leapstack-labs/leapchart/internal/ui/echarts"
	"github.com/leapstack-labs/leapchart/internal/ui/host"
	"github.com/leapstack-labs/leapchart/internal/ui/notifier"
	"github.com/leapstack-labs/leapchart/pkg/core"
)

const teardownTimeout = 2 * time.Second

// Deps are the collaborators of the chart view.
type Deps struct {
	Pipeline        *pipeline.Pipeline
	Evaluator       *template.Evaluator
	Notifier        *notifier.Notifier
	RefreshInterval time.Duration
	Logger          *slog.Logger
	IsDev           bool
}

// Handlers provides HTTP handlers for the chart view.
type Handlers struct {
	deps   Deps
	host   *host.Host
	hub    *Hub
	logger *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(deps Deps, h *host.Host) *Handlers {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.DiscardHandler)
	}
	if deps.Evaluator == nil {
		deps.Evaluator = template.NewEvaluator(template.Options{Logger: deps.Logger})
	}
	if deps.Notifier == nil {
		deps.Notifier = notifier.New()
	}
	return &Handlers{
		deps:   deps,
		host:   h,
		hub:    NewHub(),
		logger: deps.Logger,
	}
}

// Hub returns the live stream index.
func (h *Handlers) Hub() *Hub { return h.hub }

// IndexPage lists the chart files and the browser flags.
func (h *Handlers) IndexPage(w http.ResponseWriter, r *http.Request) {
	files, err := h.deps.Pipeline.Charts()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	entries := make([]Entry, 0, len(files))
	for _, f := range files {
		entries = append(entries, Entry{Name: f.Name, Title: f.Title, HasQuery: f.Query != ""})
	}
	values := h.host.FlagsFor(r)
	flags := make([]FlagState, 0, len(values))
	for _, f := range h.host.Flags() {
		flags = append(flags, FlagState{Flag: f, On: values[f.Key]})
	}

	if err := IndexPage("Charts", h.deps.IsDev, entries, flags).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// ChartPage renders the page shell. The chart arrives over ChartUpdates.
func (h *Handlers) ChartPage(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	f, err := h.deps.Pipeline.File(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, chartfile.ErrInvalidName) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	title := f.Title
	if title == "" {
		title = f.Name
	}
	if err := ChartPage(title, h.deps.IsDev, f.Name).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// ChartUpdates is the long-lived SSE endpoint of one chart page. It owns
// the page's surface loop and reloads the chart on file changes and on
// the refresh interval.
func (h *Handlers) ChartUpdates(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	flags := h.host.FlagsFor(r)
	sse := datastar.NewSSE(w, r)
	emit := echarts.SSE(sse)

	id := "s" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	logger := h.logger.With("surface", id, "chart", name)

	if err := emit.Patch(Root(id)); err != nil {
		logger.Debug("stream closed before attach", "error", err)
		return
	}
	if js, err := echarts.Call("attach", id); err == nil {
		_ = emit.Script(js)
	}

	conn := h.open(id, name, emit, logger)
	defer h.close(conn)

	updates := h.deps.Notifier.Subscribe()
	defer h.deps.Notifier.Unsubscribe(updates)

	ctx := r.Context()
	h.refresh(ctx, conn, flags, true)

	var tick <-chan time.Time
	if h.deps.RefreshInterval > 0 {
		ticker := time.NewTicker(h.deps.RefreshInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-updates:
			logger.Debug("reloading chart", "reason", ev.Reason.String(), "path", ev.Path)
			h.refresh(ctx, conn, flags, true)
		case <-tick:
			h.refresh(ctx, conn, flags, false)
		}
	}
}

func (h *Handlers) open(id, name string, emit echarts.Emitter, logger *slog.Logger) *Conn {
	loop := surface.NewLoop(surface.LoopOptions{Logger: logger})
	conn := &Conn{
		ID:        id,
		Chart:     name,
		Loop:      loop,
		Browser:   echarts.New(id, emit, logger),
		evaluator: h.deps.Evaluator,
		logger:    logger,
	}
	ctx, cancel := context.WithCancel(context.Background())
	conn.stop = cancel
	go func() { _ = loop.Run(ctx) }()
	h.hub.add(conn)
	logger.Debug("chart stream opened")
	return conn
}

func (h *Handlers) close(conn *Conn) {
	h.hub.remove(conn.ID)
	ctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
	defer cancel()
	_ = conn.Loop.Call(ctx, func() error {
		conn.destroy()
		return nil
	})
	conn.stop()
	conn.logger.Debug("chart stream closed")
}

// refresh loads the chart off the loop and hands the result to it.
func (h *Handlers) refresh(ctx context.Context, conn *Conn, flags core.Flags, reload bool) {
	chart, err := h.deps.Pipeline.Load(ctx, conn.Chart, flags)
	if ctx.Err() != nil {
		return
	}
	if postErr := conn.Loop.Post(func() { conn.apply(chart, err, reload) }); postErr != nil {
		conn.logger.Warn("chart refresh dropped", "error", postErr)
	}
}
