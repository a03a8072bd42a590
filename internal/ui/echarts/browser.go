// Package echarts drives ECharts instances in a connected browser. A
// Browser implements the surface engine, container and window over one
// SSE stream: DOM changes go out as element patches, instance calls as
// scripts, and browser events come back through the Browser's event
// methods. All methods must be called on the surface goroutine.
package echarts

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strconv"

	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/leapchart/internal/surface"
	"github.com/leapstack-labs/leapchart/pkg/core"
)

// Emitter sends patches and scripts to the browser.
type Emitter interface {
	Patch(c templ.Component) error
	Script(js string) error
}

// SSE adapts a datastar event generator to an Emitter.
func SSE(sse *datastar.ServerSentEventGenerator) Emitter {
	return sseEmitter{sse: sse}
}

type sseEmitter struct {
	sse *datastar.ServerSentEventGenerator
}

func (e sseEmitter) Patch(c templ.Component) error { return e.sse.PatchElementTempl(c) }
func (e sseEmitter) Script(js string) error { return e.sse.ExecuteScript(js) }

// Browser is the surface host of one connected page.
type Browser struct {
	id     string
	emit   Emitter
	logger *slog.Logger

	containerSize surface.Size
	viewport      surface.Size
	fullscreen    func()

	nextID    int
	observers map[int]func(surface.Size)
	listeners map[int]func()
	keys      map[string]map[int]func()
	modal     *modal
	instances map[string]*instance
}

// New creates a Browser for the surface with the given DOM id.
func New(id string, emit Emitter, logger *slog.Logger) *Browser {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Browser{
		id:        id,
		emit:      emit,
		logger:    logger.With("surface", id),
		observers: map[int]func(surface.Size){},
		listeners: map[int]func(){},
		keys:      map[string]map[int]func(){},
		instances: map[string]*instance{},
	}
}

// ID returns the surface DOM id.
func (b *Browser) ID() string { return b.id }

// Live returns the number of undisposed instances.
func (b *Browser) Live() int { return len(b.instances) }

// Init creates an ECharts instance on el.
func (b *Browser) Init(el surface.Element, size surface.Size) (surface.Instance, error) {
	b.nextID++
	inst := &instance{b: b, id: b.id + "-i" + strconv.Itoa(b.nextID)}
	if err := b.call("init", inst.id, string(el), sizeArg(size)); err != nil {
		return nil, err
	}
	b.instances[inst.id] = inst
	return inst, nil
}

// Clear empties the mount point.
func (b *Browser) Clear() {
	if err := b.emit.Patch(Mount(b.id)); err != nil {
		b.logger.Warn("clearing surface failed", "error", err)
	}
}

// Layout renders the header and the content area.
func (b *Browser) Layout(fullscreen func()) (surface.Element, error) {
	b.fullscreen = fullscreen
	if err := b.emit.Patch(Layout(b.id)); err != nil {
		return "", fmt.Errorf("patching layout: %w", err)
	}
	return surface.Element(ContentID(b.id)), nil
}

// ShowError renders msg in place of the chart.
func (b *Browser) ShowError(msg string) {
	b.fullscreen = nil
	if err := b.emit.Patch(ErrorPlaceholder(b.id, msg)); err != nil {
		b.logger.Warn("showing error failed", "error", err)
	}
}

// Size returns the last container size reported by the browser.
func (b *Browser) Size() surface.Size { return b.containerSize }

// ObserveResize registers fn for container size reports.
func (b *Browser) ObserveResize(fn func(surface.Size)) surface.Observation {
	b.nextID++
	id := b.nextID
	b.observers[id] = fn
	return observation(func() { delete(b.observers, id) })
}

// Viewport returns the last viewport size reported by the browser.
func (b *Browser) Viewport() surface.Size { return b.viewport }

// OnResize registers fn for viewport size reports.
func (b *Browser) OnResize(fn func()) (remove func()) {
	b.nextID++
	id := b.nextID
	b.listeners[id] = fn
	return func() { delete(b.listeners, id) }
}

// RegisterKey registers fn for key presses forwarded by the page.
func (b *Browser) RegisterKey(key string, fn func()) (unregister func()) {
	b.nextID++
	id := b.nextID
	if b.keys[key] == nil {
		b.keys[key] = map[int]func(){}
	}
	b.keys[key][id] = fn
	return func() { delete(b.keys[key], id) }
}

// OpenModal renders the full-screen overlay.
func (b *Browser) OpenModal() (surface.Modal, error) {
	if b.modal != nil {
		return nil, fmt.Errorf("modal already open on %s", b.id)
	}
	if err := b.emit.Patch(Modal(b.id)); err != nil {
		return nil, fmt.Errorf("patching modal: %w", err)
	}
	b.modal = &modal{b: b}
	return b.modal, nil
}

// ContainerResized records a container size report and notifies observers.
func (b *Browser) ContainerResized(size surface.Size) {
	b.containerSize = size
	for _, id := range sortedIDs(b.observers) {
		if fn, ok := b.observers[id]; ok {
			fn(size)
		}
	}
}

// ViewportResized records a viewport size report and notifies listeners.
func (b *Browser) ViewportResized(size surface.Size) {
	b.viewport = size
	for _, id := range sortedIDs(b.listeners) {
		if fn, ok := b.listeners[id]; ok {
			fn()
		}
	}
}

// ModalResized records the modal content size and notifies the modal's
// measure handler.
func (b *Browser) ModalResized(size surface.Size) {
	if b.modal == nil {
		return
	}
	b.modal.size = size
	if fn := b.modal.measure; fn != nil && !size.IsZero() {
		fn()
	}
}

// FullscreenClicked runs the header trigger. It reports false when no
// chart is laid out.
func (b *Browser) FullscreenClicked() bool {
	if b.fullscreen == nil {
		return false
	}
	b.fullscreen()
	return true
}

// KeyPressed runs the handlers registered for key.
func (b *Browser) KeyPressed(key string) {
	handlers := b.keys[key]
	for _, id := range sortedIDs(handlers) {
		if fn, ok := handlers[id]; ok {
			fn()
		}
	}
}

// ModalOpen reports whether the overlay is shown.
func (b *Browser) ModalOpen() bool { return b.modal != nil }

func (b *Browser) call(fn string, args ...any) error {
	js, err := Call(fn, args...)
	if err != nil {
		return err
	}
	if err := b.emit.Script(js); err != nil {
		return fmt.Errorf("leapchart.%s: %w", fn, err)
	}
	return nil
}

// Call renders a call of the page-side leapchart API.
func Call(fn string, args ...any) (string, error) {
	out := "leapchart." + fn + "("
	for i, arg := range args {
		raw, err := json.Marshal(arg)
		if err != nil {
			return "", fmt.Errorf("encoding argument %d of %s: %w", i, fn, err)
		}
		if i > 0 {
			out += ", "
		}
		out += string(raw)
	}
	return out + ")", nil
}

func sizeArg(size surface.Size) any {
	if size.IsZero() {
		return nil
	}
	return size
}

type instance struct {
	b        *Browser
	id       string
	disposed bool
}

func (i *instance) SetOption(spec core.Spec) error {
	if i.disposed {
		return fmt.Errorf("instance %s is disposed", i.id)
	}
	return i.b.call("setOption", i.id, spec)
}

func (i *instance) Resize(size surface.Size) error {
	if i.disposed {
		return nil
	}
	return i.b.call("resize", i.id, sizeArg(size))
}

func (i *instance) Dispose() error {
	if i.disposed {
		return nil
	}
	i.disposed = true
	delete(i.b.instances, i.id)
	return i.b.call("dispose", i.id)
}

type modal struct {
	b       *Browser
	size    surface.Size
	measure func()
	closed  bool
}

func (m *modal) Content() surface.Element { return surface.Element(ModalContentID(m.b.id)) }
func (m *modal) Size() surface.Size { return m.size }

func (m *modal) OnMeasure(fn func()) (remove func()) {
	m.measure = fn
	return func() { m.measure = nil }
}

func (m *modal) Loaded() {
	if err := m.b.call("loaded", ModalID(m.b.id)); err != nil {
		m.b.logger.Warn("revealing modal failed", "error", err)
	}
}

func (m *modal) Close() {
	if m.closed {
		return
	}
	m.closed = true
	if m.b.modal == m {
		m.b.modal = nil
	}
	if err := m.b.emit.Patch(ModalHost(m.b.id)); err != nil {
		m.b.logger.Warn("removing modal failed", "error", err)
	}
}

type observation func()

func (o observation) Disconnect() { o() }

func sortedIDs[V any](m map[int]V) []int {
	return slices.Sorted(maps.Keys(m))
}
