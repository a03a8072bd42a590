package surface

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapchart/pkg/core"
)

// ErrDestroyed is returned when rendering into a destroyed surface.
var ErrDestroyed = errors.New("surface destroyed")

// State is the lifecycle state of a Surface.
type State int

// State constants.
const (
	StateUninitialized State = iota
	StateMounted
	// StateFailed shows an error in place of the chart. A later Render
	// lays the surface out again.
	StateFailed
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateMounted:
		return "mounted"
	case StateFailed:
		return "failed"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// AspectRatio is the height/width ratio the main surface keeps on resize.
const AspectRatio = 9.0 / 16.0

// unobserved marks a surface whose container has not been observed yet.
const unobserved = -1

// SurfaceConfig configures a Surface.
type SurfaceConfig struct {
	ID        string
	Engine    Engine
	Container Container
	Scheduler Scheduler
	Logger    *slog.Logger

	// OnFullscreen is called with a deep copy of the current spec when the
	// header trigger fires.
	OnFullscreen func(spec core.Spec)
}

// Surface binds at most one engine instance to one container.
type Surface struct {
	id           string
	engine       Engine
	container    Container
	sched        Scheduler
	logger       *slog.Logger
	onFullscreen func(core.Spec)

	state       State
	content     Element
	cancelMount func()
	instance    Instance
	observation Observation
	spec        core.Spec
	lastWidth   float64
}

// NewSurface creates an uninitialized surface.
func NewSurface(cfg SurfaceConfig) *Surface {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Surface{
		id:           cfg.ID,
		engine:       cfg.Engine,
		container:    cfg.Container,
		sched:        cfg.Scheduler,
		logger:       logger.With("surface", cfg.ID),
		onFullscreen: cfg.OnFullscreen,
		lastWidth:    unobserved,
	}
}

// State returns the current lifecycle state.
func (s *Surface) State() State { return s.state }

// Instance returns the live engine instance, or nil.
func (s *Surface) Instance() Instance { return s.instance }

// Spec returns the most recently rendered spec.
func (s *Surface) Spec() core.Spec { return s.spec }

// Pending reports whether instance creation is scheduled but not done.
func (s *Surface) Pending() bool { return s.cancelMount != nil }

// Render shows spec. The first call lays out the container and defers
// instance creation to the next frame; later calls only update the
// existing instance.
func (s *Surface) Render(spec core.Spec) error {
	switch {
	case s.state == StateDestroyed:
		return ErrDestroyed
	case s.state == StateMounted:
		s.spec = spec
		if err := s.instance.SetOption(spec); err != nil {
			return fmt.Errorf("updating chart: %w", err)
		}
		s.logger.Debug("chart updated")
		return nil
	case s.cancelMount != nil:
		// Mount pending: the frame callback applies the latest spec.
		s.spec = spec
		return nil
	}

	s.container.Clear()
	content, err := s.container.Layout(s.Fullscreen)
	if err != nil {
		return fmt.Errorf("building chart layout: %w", err)
	}
	s.content = content
	s.spec = spec
	s.cancelMount = s.sched.RequestFrame(s.mount)
	s.logger.Debug("chart mount scheduled")
	return nil
}

func (s *Surface) mount() {
	s.cancelMount = nil
	if s.state == StateMounted || s.state == StateDestroyed {
		return
	}

	size := s.container.Size()
	inst, err := s.engine.Init(s.content, size)
	if err != nil {
		s.logger.Error("creating chart instance failed", "error", err)
		s.state = StateFailed
		s.container.ShowError(err.Error())
		return
	}
	if err := inst.SetOption(s.spec); err != nil {
		s.logger.Error("applying chart options failed", "error", err)
		_ = inst.Dispose()
		s.state = StateFailed
		s.container.ShowError(err.Error())
		return
	}

	s.instance = inst
	s.state = StateMounted
	s.lastWidth = unobserved
	s.observation = s.container.ObserveResize(s.resize)
	// The first observation reports the current box.
	if size.Width > 0 {
		s.resize(size)
	}
	s.logger.Debug("chart mounted")
}

// resize keeps the instance at the container width with a 16:9 box.
func (s *Surface) resize(size Size) {
	if s.instance == nil || size.Width == s.lastWidth {
		return
	}
	s.lastWidth = size.Width
	if err := s.instance.Resize(Size{Width: size.Width, Height: size.Width * AspectRatio}); err != nil {
		s.logger.Warn("resizing chart failed", "error", err)
	}
}

// Fullscreen invokes the full-screen callback with a copy of the spec.
func (s *Surface) Fullscreen() {
	if s.onFullscreen == nil || s.state == StateDestroyed || s.spec == nil {
		return
	}
	s.onFullscreen(s.spec.Clone())
}

// Fail releases the instance and shows msg in its place. A later Render
// lays the surface out again.
func (s *Surface) Fail(msg string) {
	if s.state == StateDestroyed {
		return
	}
	s.teardown()
	s.state = StateFailed
	s.container.Clear()
	s.container.ShowError(msg)
}

// Destroy releases the instance and the size observation. It is safe to
// call more than once and before any Render.
func (s *Surface) Destroy() {
	if s.state == StateDestroyed {
		return
	}
	s.teardown()
	s.state = StateDestroyed
	s.logger.Debug("chart destroyed")
}

func (s *Surface) teardown() {
	if s.cancelMount != nil {
		s.cancelMount()
		s.cancelMount = nil
	}
	if s.observation != nil {
		s.observation.Disconnect()
		s.observation = nil
	}
	if s.instance != nil {
		if err := s.instance.Dispose(); err != nil {
			s.logger.Warn("disposing chart failed", "error", err)
		}
		s.instance = nil
	}
	s.lastWidth = unobserved
}
