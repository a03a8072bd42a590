package surface

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/leapstack-labs/leapchart/pkg/core"
)

// Detached sizing when the modal reports no size in time.
const (
	fallbackWidthRatio  = 0.9
	fallbackHeightRatio = 0.8

	// measureTimeout bounds the wait for the modal's first size report.
	measureTimeout = 250 * time.Millisecond

	// followUpResize is the delay of the single auto-resize scheduled
	// after the instance is created.
	followUpResize = 100 * time.Millisecond

	// EscapeKey closes a detached surface.
	EscapeKey = "Escape"
)

// DetachedConfig configures a detached surface.
type DetachedConfig struct {
	Engine    Engine
	Window    Window
	Scheduler Scheduler
	Logger    *slog.Logger

	// OnClose runs once after the surface has closed.
	OnClose func()
}

// Detached is a full-screen view of a spec snapshot. It owns its own
// modal, instance and window listeners. Failures inside it are logged and
// close it; they never propagate to the caller.
type Detached struct {
	engine  Engine
	window  Window
	sched   Scheduler
	logger  *slog.Logger
	onClose func()

	spec          core.Spec
	modal         Modal
	instance      Instance
	cancelMount   func()
	cancelMeasure func()
	removeMeasure func()
	cancelTimer   func()
	removeKey     func()
	removeSize    func()
	closed        bool
}

// OpenDetached opens a modal showing a deep copy of spec. The instance is
// created on the next frame, or once the modal reports its size if it has
// not yet.
func OpenDetached(cfg DetachedConfig, spec core.Spec) (*Detached, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	d := &Detached{
		engine:  cfg.Engine,
		window:  cfg.Window,
		sched:   cfg.Scheduler,
		logger:  logger.With("surface", "detached"),
		onClose: cfg.OnClose,
		spec:    spec.Clone(),
	}

	modal, err := cfg.Window.OpenModal()
	if err != nil {
		return nil, fmt.Errorf("opening full-screen view: %w", err)
	}
	d.modal = modal
	d.removeKey = cfg.Window.RegisterKey(EscapeKey, d.guard(d.close))
	d.cancelMount = cfg.Scheduler.RequestFrame(d.guard(d.mount))
	return d, nil
}

// Spec returns the snapshot the surface draws.
func (d *Detached) Spec() core.Spec { return d.spec }

// Instance returns the live engine instance, or nil.
func (d *Detached) Instance() Instance { return d.instance }

// Closed reports whether the surface has been closed.
func (d *Detached) Closed() bool { return d.closed }

func (d *Detached) mount() {
	d.cancelMount = nil
	if d.closed {
		return
	}
	if !d.modal.Size().IsZero() {
		d.create()
		return
	}
	create := d.guard(d.create)
	d.removeMeasure = d.modal.OnMeasure(create)
	d.cancelMeasure = d.sched.After(measureTimeout, create)
}

// create builds the instance at the modal's size, or at the viewport
// fallback when the modal never reported one.
func (d *Detached) create() {
	d.stopMeasuring()
	if d.closed || d.instance != nil {
		return
	}

	size := d.modal.Size()
	if size.Width <= 0 || size.Height <= 0 {
		vp := d.window.Viewport()
		if size.Width <= 0 {
			size.Width = vp.Width * fallbackWidthRatio
		}
		if size.Height <= 0 {
			size.Height = vp.Height * fallbackHeightRatio
		}
	}

	inst, err := d.engine.Init(d.modal.Content(), size)
	if err != nil {
		d.logger.Error("creating full-screen chart failed", "error", err)
		d.close()
		return
	}
	d.instance = inst
	if err := inst.SetOption(d.spec); err != nil {
		d.logger.Error("applying full-screen chart options failed", "error", err)
		d.close()
		return
	}

	d.removeSize = d.window.OnResize(d.guard(d.autoResize))
	d.modal.Loaded()
	d.cancelTimer = d.sched.After(followUpResize, d.guard(d.autoResize))
}

func (d *Detached) stopMeasuring() {
	if d.removeMeasure != nil {
		d.removeMeasure()
		d.removeMeasure = nil
	}
	if d.cancelMeasure != nil {
		d.cancelMeasure()
		d.cancelMeasure = nil
	}
}

func (d *Detached) autoResize() {
	if d.instance == nil {
		return
	}
	if err := d.instance.Resize(Size{}); err != nil {
		d.logger.Warn("resizing full-screen chart failed", "error", err)
	}
}

// Close unregisters the listeners, disposes the instance and closes the
// modal. It is idempotent.
func (d *Detached) Close() { d.guard(d.close)() }

func (d *Detached) close() {
	if d.closed {
		return
	}
	d.closed = true

	d.stopMeasuring()
	for _, release := range []func(){d.cancelMount, d.cancelTimer, d.removeKey, d.removeSize} {
		if release != nil {
			release()
		}
	}
	d.cancelMount, d.cancelTimer, d.removeKey, d.removeSize = nil, nil, nil, nil

	if d.instance != nil {
		if err := d.instance.Dispose(); err != nil {
			d.logger.Warn("disposing full-screen chart failed", "error", err)
		}
		d.instance = nil
	}
	if d.modal != nil {
		d.modal.Close()
	}
	d.logger.Debug("full-screen view closed")
	if d.onClose != nil {
		d.onClose()
	}
}

// guard recovers panics raised by fn so they stay inside this surface.
func (d *Detached) guard(fn func()) func() {
	return func() {
		defer func() {
			if r := recover(); r != nil {
				d.logger.Error("full-screen view failed", "panic", r)
				if !d.closed {
					d.safeClose()
				}
			}
		}()
		fn()
	}
}

func (d *Detached) safeClose() {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("closing full-screen view failed", "panic", r)
		}
	}()
	d.close()
}
