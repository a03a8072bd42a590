package charts

import (
	"errors"
	"log/slog"
	"sync"

	"github.com/leapstack-labs/leapchart/internal/pipeline"
	"github.com/leapstack-labs/leapchart/internal/surface"
	"github.com/leapstack-labs/leapchart/internal/template"
	"github.com/leapstack-labs/leapchart/internal/ui/echarts"
)

// ErrUnknownSurface is returned when a browser event names a surface that
// has no live stream.
var ErrUnknownSurface = errors.New("unknown surface")

// Conn is one live chart stream. Browser and the controller are touched
// only on Loop's goroutine.
type Conn struct {
	ID      string
	Chart   string
	Loop    *surface.Loop
	Browser *echarts.Browser

	evaluator *template.Evaluator
	logger    *slog.Logger
	ctrl      *surface.Controller
	stop      func()
}

// Controller returns the mounted controller, or nil before the first
// successful load. Call it on the loop goroutine.
func (c *Conn) Controller() *surface.Controller { return c.ctrl }

// apply shows a freshly loaded chart. reload rebuilds the controller so a
// changed template, fragment or macro takes effect; otherwise only the
// data is refreshed.
func (c *Conn) apply(chart *pipeline.Chart, err error, reload bool) {
	if err != nil {
		c.logger.Error("loading chart failed", "error", err)
		if c.ctrl != nil {
			c.ctrl.Error(err.Error())
		} else {
			c.Browser.ShowError(err.Error())
		}
		return
	}

	if c.ctrl == nil || reload {
		if c.ctrl != nil {
			c.ctrl.Destroy()
		}
		c.ctrl = surface.Mount(surface.Config{
			ID:        c.ID,
			Template:  chart.File.Template,
			Evaluator: c.evaluator,
			Engine:    c.Browser,
			Container: c.Browser,
			Window:    c.Browser,
			Scheduler: c.Loop,
			Logger:    c.logger,
			Fragments: chart.Fragments,
			Macros:    chart.Macros,
		})
	}
	// Pipeline errors are shown in place by the controller.
	_ = c.ctrl.Render(chart.Payload)
}

func (c *Conn) destroy() {
	if c.ctrl != nil {
		c.ctrl.Destroy()
	}
}

// Hub indexes live streams by surface id.
type Hub struct {
	mu    sync.RWMutex
	conns map[string]*Conn
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{conns: map[string]*Conn{}}
}

func (h *Hub) add(c *Conn) {
	h.mu.Lock()
	h.conns[c.ID] = c
	h.mu.Unlock()
}

func (h *Hub) remove(id string) {
	h.mu.Lock()
	delete(h.conns, id)
	h.mu.Unlock()
}

// Len returns the number of live streams.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Post runs fn on the loop of surface id.
func (h *Hub) Post(id string, fn func(c *Conn)) error {
	h.mu.RLock()
	c, ok := h.conns[id]
	h.mu.RUnlock()
	if !ok {
		return ErrUnknownSurface
	}
	return c.Loop.Post(func() { fn(c) })
}
