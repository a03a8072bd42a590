// Package surface manages the lifecycle of chart surfaces: one rendering
// engine instance bound to one host container, plus an optional detached
// full-screen view. All methods of Surface, Detached and Controller must be
// called from a single goroutine, normally the one running a Loop.
package surface

import (
	"time"

	"github.com/leapstack-labs/leapchart/pkg/core"
)

// Size is a width/height box in CSS pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// IsZero reports whether either dimension is missing.
func (s Size) IsZero() bool { return s.Width <= 0 || s.Height <= 0 }

// Element identifies a host node an engine instance draws into.
type Element string

// Engine creates rendering instances.
type Engine interface {
	Init(el Element, size Size) (Instance, error)
}

// Instance is one live drawing bound to one element.
type Instance interface {
	SetOption(spec core.Spec) error
	// Resize resizes the instance; a zero Size fits it to its element.
	Resize(size Size) error
	Dispose() error
}

// Observation is a live container size subscription.
type Observation interface {
	Disconnect()
}

// Container is the host mount point of a Surface.
type Container interface {
	// Clear removes everything previously placed in the mount point.
	Clear()
	// Layout builds a header holding a full-screen trigger that calls
	// fullscreen, and a content area returned as the drawing element.
	Layout(fullscreen func()) (Element, error)
	// ShowError replaces the mount point content with an inert message.
	ShowError(msg string)
	Size() Size
	ObserveResize(fn func(Size)) Observation
}

// Modal is the container of a detached surface.
type Modal interface {
	Content() Element
	// Size returns the last content box the host reported, zero before the
	// first report.
	Size() Size
	// OnMeasure registers fn for content box reports.
	OnMeasure(fn func()) (remove func())
	// Loaded reveals the modal once the instance has drawn.
	Loaded()
	Close()
}

// Window is the host's top-level scope: the viewport, window-level
// listeners, keyboard shortcuts and modals.
type Window interface {
	Viewport() Size
	OnResize(fn func()) (remove func())
	RegisterKey(key string, fn func()) (unregister func())
	OpenModal() (Modal, error)
}

// Scheduler defers work to the next frame or to a later time. Callbacks run
// on the surface goroutine.
type Scheduler interface {
	RequestFrame(fn func()) (cancel func())
	After(d time.Duration, fn func()) (cancel func())
}
