// Package pipeline assembles everything a chart render needs: the chart
// file, the rows its query returns, the persisted fragments and the user
// macros. The browser host and the render command share it.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/leapchart/internal/chartfile"
	"github.com/leapstack-labs/leapchart/internal/macro"
	"github.com/leapstack-labs/leapchart/internal/normalize"
	"github.com/leapstack-labs/leapchart/internal/template"
	"github.com/leapstack-labs/leapchart/internal/vars"
	"github.com/leapstack-labs/leapchart/pkg/core"
)

// Querier runs chart queries.
type Querier interface {
	Query(ctx context.Context, query string, args ...any) (*core.ResultSet, error)
}

// FragmentLister returns the persisted fragments.
type FragmentLister interface {
	Fragments(ctx context.Context) ([]core.ChartConfig, error)
}

// Config configures a Pipeline. Every field except TemplatesDir is optional.
type Config struct {
	TemplatesDir string
	Source       Querier
	Fragments    FragmentLister
	Macros       *macro.Loader
	Logger       *slog.Logger
}

// Pipeline loads charts.
type Pipeline struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Pipeline.
func New(cfg Config) *Pipeline {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return &Pipeline{cfg: cfg, logger: cfg.Logger}
}

// Chart is a loaded chart ready to render.
type Chart struct {
	File      *chartfile.File
	Payload   core.Payload
	Fragments []vars.Binding
	Macros    []vars.Binding
}

// Charts lists the chart files in the templates directory.
func (p *Pipeline) Charts() ([]*chartfile.File, error) {
	return chartfile.List(p.cfg.TemplatesDir)
}

// File reads the named chart file without running its query.
func (p *Pipeline) File(name string) (*chartfile.File, error) {
	return chartfile.Find(p.cfg.TemplatesDir, name)
}

// Load loads the named chart from the templates directory.
func (p *Pipeline) Load(ctx context.Context, name string, flags core.Flags) (*Chart, error) {
	f, err := chartfile.Find(p.cfg.TemplatesDir, name)
	if err != nil {
		return nil, err
	}
	return p.Prepare(ctx, f, flags)
}

// Prepare runs f's query and collects fragments and macros.
func (p *Pipeline) Prepare(ctx context.Context, f *chartfile.File, flags core.Flags) (*Chart, error) {
	chart := &Chart{File: f}

	rs, err := p.Query(ctx, f)
	if err != nil {
		return nil, err
	}
	chart.Payload = core.Payload{Columns: rs.Columns, Data: rs.Rows, Flags: flags}

	if chart.Fragments, err = p.FragmentBindings(ctx); err != nil {
		return nil, err
	}
	if chart.Macros, err = p.MacroBindings(); err != nil {
		return nil, err
	}
	return chart, nil
}

// Query runs f's query. A chart without a query gets an empty result set.
func (p *Pipeline) Query(ctx context.Context, f *chartfile.File) (*core.ResultSet, error) {
	if f.Query == "" {
		return &core.ResultSet{Columns: []string{}}, nil
	}
	if p.cfg.Source == nil {
		return nil, fmt.Errorf("chart %s has a query but no data source is configured", f.Name)
	}
	rs, err := p.cfg.Source.Query(ctx, f.Query)
	if err != nil {
		return nil, fmt.Errorf("chart %s: %w", f.Name, err)
	}
	p.logger.Debug("chart query executed", "chart", f.Name, "rows", rs.Len())
	return rs, nil
}

// FragmentBindings parses the persisted fragments.
func (p *Pipeline) FragmentBindings(ctx context.Context) ([]vars.Binding, error) {
	if p.cfg.Fragments == nil {
		return nil, nil
	}
	cfgs, err := p.cfg.Fragments.Fragments(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading fragments: %w", err)
	}
	return template.ParseFragments(cfgs)
}

// MacroBindings loads the user macros.
func (p *Pipeline) MacroBindings() ([]vars.Binding, error) {
	if p.cfg.Macros == nil {
		return nil, nil
	}
	modules, err := p.cfg.Macros.Load()
	if err != nil {
		return nil, err
	}
	return macro.Bindings(modules), nil
}

// Render evaluates a loaded chart without a surface and returns the
// normalized spec.
func Render(e *template.Evaluator, chart *Chart) (core.Spec, error) {
	ctx := vars.Build(chart.Payload.ResultSet(),
		vars.WithMacros(chart.Macros),
		vars.WithFragments(chart.Fragments),
	)
	out, err := e.Run(chart.File.Template, ctx, chart.Payload.Flags)
	if err != nil {
		return nil, err
	}
	return normalize.Apply(out, ctx.Rows)
}
