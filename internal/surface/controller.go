package surface

import (
	"errors"
	"log/slog"

	"github.com/leapstack-labs/leapchart/internal/normalize"
	"github.com/leapstack-labs/leapchart/internal/template"
	"github.com/leapstack-labs/leapchart/internal/vars"
	"github.com/leapstack-labs/leapchart/pkg/core"
)

// Config configures Mount.
type Config struct {
	ID        string
	Template  template.Template
	Evaluator *template.Evaluator
	Engine    Engine
	Container Container
	Window    Window
	Scheduler Scheduler
	Logger    *slog.Logger

	// Fragments are injected into dynamic-code templates.
	Fragments []vars.Binding
	// Macros are injected after the built-in helpers.
	Macros []vars.Binding
}

// Controller is the mount contract returned to a host: it runs the
// template pipeline on every payload and is the single place where
// pipeline errors are logged and shown.
type Controller struct {
	cfg      Config
	logger   *slog.Logger
	surface  *Surface
	detached *Detached
}

// Mount binds a template to a container. Nothing is drawn until the first
// Render.
func Mount(cfg Config) *Controller {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Evaluator == nil {
		cfg.Evaluator = template.NewEvaluator(template.Options{Logger: cfg.Logger})
	}
	c := &Controller{
		cfg:    cfg,
		logger: cfg.Logger.With("chart", cfg.Template.Name),
	}
	c.surface = NewSurface(SurfaceConfig{
		ID:           cfg.ID,
		Engine:       cfg.Engine,
		Container:    cfg.Container,
		Scheduler:    cfg.Scheduler,
		Logger:       cfg.Logger,
		OnFullscreen: c.openDetached,
	})
	return c
}

// Surface returns the main surface.
func (c *Controller) Surface() *Surface { return c.surface }

// Detached returns the open full-screen view, or nil.
func (c *Controller) Detached() *Detached { return c.detached }

// Render evaluates the template against payload and shows the result.
// Pipeline errors are logged and shown in place of the chart; the
// returned error is informational and the controller stays usable.
func (c *Controller) Render(payload core.Payload) error {
	if c.surface.State() == StateDestroyed {
		return ErrDestroyed
	}

	ctx := vars.Build(payload.ResultSet(),
		vars.WithMacros(c.cfg.Macros),
		vars.WithFragments(c.cfg.Fragments),
	)

	out, err := c.cfg.Evaluator.Run(c.cfg.Template, ctx, payload.Flags)
	if err != nil {
		c.fail(err)
		return err
	}
	spec, err := normalize.Apply(out, ctx.Rows)
	if err != nil {
		c.fail(err)
		return err
	}
	if err := c.surface.Render(spec); err != nil {
		c.fail(err)
		return err
	}
	return nil
}

// Error shows msg in place of the chart.
func (c *Controller) Error(msg string) {
	c.surface.Fail(msg)
}

// Fullscreen opens the detached view of the current spec.
func (c *Controller) Fullscreen() {
	c.surface.Fullscreen()
}

// CloseDetached closes the full-screen view if one is open.
func (c *Controller) CloseDetached() {
	if c.detached != nil {
		c.detached.Close()
	}
}

// Destroy tears down the detached view and the main surface. It is
// idempotent.
func (c *Controller) Destroy() {
	c.CloseDetached()
	c.surface.Destroy()
}

func (c *Controller) fail(err error) {
	c.logger.Error("chart render failed", "error", err.Error())
	var tplErr template.Error
	if errors.As(err, &tplErr) {
		c.logger.Debug("template error position", "position", tplErr.Position().String())
	}
	c.surface.Fail(err.Error())
}

func (c *Controller) openDetached(spec core.Spec) {
	if c.cfg.Window == nil {
		return
	}
	c.CloseDetached()

	var d *Detached
	d, err := OpenDetached(DetachedConfig{
		Engine:    c.cfg.Engine,
		Window:    c.cfg.Window,
		Scheduler: c.cfg.Scheduler,
		Logger:    c.cfg.Logger,
		OnClose: func() {
			if c.detached == d {
				c.detached = nil
			}
		},
	}, spec)
	if err != nil {
		c.logger.Error("opening full-screen view failed", "error", err)
		return
	}
	c.detached = d
}
