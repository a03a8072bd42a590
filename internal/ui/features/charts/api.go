package charts

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/leapchart/internal/surface"
)

// SizeSignals is a box reported by the page.
type SizeSignals struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// KeySignals is a key press forwarded by the page.
type KeySignals struct {
	Key string `json:"key"`
}

// FlagSignals toggles a browser flag.
type FlagSignals struct {
	Flag  string `json:"flag"`
	Value bool   `json:"value"`
}

// Resize records the container box of a surface.
func (h *Handlers) Resize(w http.ResponseWriter, r *http.Request) {
	h.size(w, r, func(c *Conn, s surface.Size) { c.Browser.ContainerResized(s) })
}

// Viewport records the viewport of a surface's page.
func (h *Handlers) Viewport(w http.ResponseWriter, r *http.Request) {
	h.size(w, r, func(c *Conn, s surface.Size) { c.Browser.ViewportResized(s) })
}

// ModalSize records the content box of a surface's overlay.
func (h *Handlers) ModalSize(w http.ResponseWriter, r *http.Request) {
	h.size(w, r, func(c *Conn, s surface.Size) { c.Browser.ModalResized(s) })
}

// Key forwards a key press to a surface.
func (h *Handlers) Key(w http.ResponseWriter, r *http.Request) {
	var signals KeySignals
	if err := datastar.ReadSignals(r, &signals); err != nil || signals.Key == "" {
		http.Error(w, "invalid key signals", http.StatusBadRequest)
		return
	}
	if h.post(w, r, func(c *Conn) { c.Browser.KeyPressed(signals.Key) }) {
		w.WriteHeader(http.StatusNoContent)
	}
}

// Fullscreen opens the detached view of a surface.
func (h *Handlers) Fullscreen(w http.ResponseWriter, r *http.Request) {
	if !h.post(w, r, func(c *Conn) { c.Browser.FullscreenClicked() }) {
		return
	}
	datastar.NewSSE(w, r)
}

// Close closes the detached view of a surface.
func (h *Handlers) Close(w http.ResponseWriter, r *http.Request) {
	ok := h.post(w, r, func(c *Conn) {
		if c.ctrl != nil {
			c.ctrl.CloseDetached()
		}
	})
	if !ok {
		return
	}
	datastar.NewSSE(w, r)
}

// SetFlag stores a flag in the browser session and reloads the page so
// open streams pick it up.
func (h *Handlers) SetFlag(w http.ResponseWriter, r *http.Request) {
	var signals FlagSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		http.Error(w, "invalid flag signals", http.StatusBadRequest)
		return
	}
	if err := h.host.SetFlag(w, r, signals.Flag, signals.Value); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	h.logger.Debug("flag changed", "flag", signals.Flag, "value", signals.Value)

	sse := datastar.NewSSE(w, r)
	_ = sse.ExecuteScript("window.location.reload()")
}

func (h *Handlers) size(w http.ResponseWriter, r *http.Request, apply func(*Conn, surface.Size)) {
	var signals SizeSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		http.Error(w, "invalid size signals", http.StatusBadRequest)
		return
	}
	size := surface.Size{Width: signals.Width, Height: signals.Height}
	if h.post(w, r, func(c *Conn) { apply(c, size) }) {
		w.WriteHeader(http.StatusNoContent)
	}
}

// post runs fn on the surface named in the URL. It writes the error
// response and reports false when the surface is gone.
func (h *Handlers) post(w http.ResponseWriter, r *http.Request, fn func(*Conn)) bool {
	err := h.hub.Post(chi.URLParam(r, "id"), fn)
	switch {
	case err == nil:
		return true
	case errors.Is(err, ErrUnknownSurface), errors.Is(err, surface.ErrLoopClosed):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
	return false
}
