package surface

import (
	"errors"
	"time"

	"github.com/leapstack-labs/leapchart/pkg/core"
)

type fakeInstance struct {
	id       int
	el       Element
	size     Size
	options  []core.Spec
	resizes  []Size
	disposed bool
	panicOn  string
}

func (i *fakeInstance) SetOption(spec core.Spec) error {
	if i.panicOn == "setOption" {
		panic("engine exploded")
	}
	i.options = append(i.options, spec)
	return nil
}

func (i *fakeInstance) Resize(size Size) error {
	if i.panicOn == "resize" {
		panic("engine exploded")
	}
	i.resizes = append(i.resizes, size)
	return nil
}

func (i *fakeInstance) Dispose() error {
	i.disposed = true
	return nil
}

type fakeEngine struct {
	instances []*fakeInstance
	failInit  bool
	panicOn   string
}

func (e *fakeEngine) Init(el Element, size Size) (Instance, error) {
	if e.failInit {
		return nil, errors.New("no canvas")
	}
	inst := &fakeInstance{id: len(e.instances) + 1, el: el, size: size, panicOn: e.panicOn}
	e.instances = append(e.instances, inst)
	return inst, nil
}

func (e *fakeEngine) last() *fakeInstance {
	if len(e.instances) == 0 {
		return nil
	}
	return e.instances[len(e.instances)-1]
}

type fakeObservation struct{ disconnected bool }

func (o *fakeObservation) Disconnect() { o.disconnected = true }

type fakeContainer struct {
	size       Size
	clears     int
	layouts    int
	errors     []string
	observer   func(Size)
	obs        *fakeObservation
	fullscreen func()
}

func (c *fakeContainer) Clear() { c.clears++ }

func (c *fakeContainer) Layout(fullscreen func()) (Element, error) {
	c.layouts++
	c.fullscreen = fullscreen
	return "chart-content", nil
}

func (c *fakeContainer) ShowError(msg string) { c.errors = append(c.errors, msg) }

func (c *fakeContainer) Size() Size { return c.size }

func (c *fakeContainer) ObserveResize(fn func(Size)) Observation {
	c.observer = fn
	c.obs = &fakeObservation{}
	return c.obs
}

// resize simulates the host reporting a new container box.
func (c *fakeContainer) resize(size Size) {
	c.size = size
	if c.observer != nil && !c.obs.disconnected {
		c.observer(size)
	}
}

type fakeModal struct {
	size    Size
	loaded  bool
	closed  bool
	measure func()
}

func (m *fakeModal) Content() Element { return "modal-content" }
func (m *fakeModal) Size() Size       { return m.size }
func (m *fakeModal) Loaded()          { m.loaded = true }
func (m *fakeModal) Close()           { m.closed = true }

func (m *fakeModal) OnMeasure(fn func()) func() {
	m.measure = fn
	return func() { m.measure = nil }
}

// report simulates the host measuring the modal content box.
func (m *fakeModal) report(size Size) {
	m.size = size
	if m.measure != nil {
		m.measure()
	}
}

type fakeWindow struct {
	viewport  Size
	modalSize Size
	modals    []*fakeModal
	resize    map[int]func()
	keys      map[string]func()
	nextID    int
}

func newFakeWindow() *fakeWindow {
	return &fakeWindow{
		viewport:  Size{Width: 1000, Height: 500},
		modalSize: Size{Width: 1200, Height: 700},
		resize:    make(map[int]func()),
		keys:      make(map[string]func()),
	}
}

func (w *fakeWindow) Viewport() Size { return w.viewport }

func (w *fakeWindow) OnResize(fn func()) func() {
	w.nextID++
	id := w.nextID
	w.resize[id] = fn
	return func() { delete(w.resize, id) }
}

func (w *fakeWindow) RegisterKey(key string, fn func()) func() {
	w.keys[key] = fn
	return func() { delete(w.keys, key) }
}

func (w *fakeWindow) OpenModal() (Modal, error) {
	m := &fakeModal{size: w.modalSize}
	w.modals = append(w.modals, m)
	return m, nil
}

func (w *fakeWindow) press(key string) {
	if fn, ok := w.keys[key]; ok {
		fn()
	}
}

func (w *fakeWindow) fireResize() {
	for _, fn := range w.resize {
		fn()
	}
}

type fakeTimer struct {
	d         time.Duration
	fn        func()
	cancelled bool
}

// fakeScheduler runs frames and timers only when the test says so.
type fakeScheduler struct {
	frames FrameQueue
	timers []*fakeTimer
}

func (s *fakeScheduler) RequestFrame(fn func()) func() { return s.frames.Schedule(fn) }

func (s *fakeScheduler) After(d time.Duration, fn func()) func() {
	t := &fakeTimer{d: d, fn: fn}
	s.timers = append(s.timers, t)
	return func() { t.cancelled = true }
}

func (s *fakeScheduler) frame() int { return s.frames.Flush() }

func (s *fakeScheduler) fireTimers() {
	timers := s.timers
	s.timers = nil
	for _, t := range timers {
		if !t.cancelled {
			t.fn()
		}
	}
}
