package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapchart/internal/chartfile"
	"github.com/leapstack-labs/leapchart/internal/pipeline"
	"github.com/leapstack-labs/leapchart/pkg/core"
)

// RenderOptions holds options for the render command.
type RenderOptions struct {
	Query string
}

// NewRenderCommand creates the render command.
func NewRenderCommand() *cobra.Command {
	opts := &RenderOptions{}

	cmd := &cobra.Command{
		Use:   "render <chart>",
		Short: "Render a chart template to its configuration",
		Long: `Evaluate a chart template against its query result and print the
normalized visualization configuration as JSON.

<chart> is a path to a .chart file, or the name of a chart in the
templates directory.`,
		Example: `  # Render a chart by name
  leapchart render revenue

  # Render a file with a different query
  leapchart render ./charts/revenue.chart --query "SELECT * FROM sales LIMIT 10"

  # Allow script templates
  leapchart render forecast --advanced`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVar(&opts.Query, "query", "", "Override the chart's query")

	return cmd
}

func runRender(cmd *cobra.Command, ref string, opts *RenderOptions) error {
	cc := NewCommandContext(cmd)

	store, err := cc.OpenStore(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	f, err := resolveChart(cc, ref)
	if err != nil {
		return err
	}
	if opts.Query != "" {
		f.Query = opts.Query
	}

	var p *pipeline.Pipeline
	if f.Query != "" {
		src, err := cc.OpenSource(cmd)
		if err != nil {
			return err
		}
		defer func() { _ = src.Close() }()
		p = cc.Pipeline(src, store)
	} else {
		p = cc.Pipeline(nil, store)
	}

	flags := core.Flags{core.FlagAdvancedMode: cc.Cfg.AdvancedMode}
	chart, err := p.Prepare(cmd.Context(), f, flags)
	if err != nil {
		return err
	}
	cc.Logger.Debug("rendering chart", "chart", f.Name, "rows", len(chart.Payload.Data))

	spec, err := pipeline.Render(cc.Evaluator(), chart)
	if err != nil {
		return fmt.Errorf("chart %s: %w", f.Name, err)
	}
	return renderJSON(cc.Out, spec)
}

// resolveChart loads ref as a file path when one exists, otherwise as a
// chart name in the templates directory.
func resolveChart(cc *CommandContext, ref string) (*chartfile.File, error) {
	if info, err := os.Stat(ref); err == nil && !info.IsDir() {
		return chartfile.Load(ref)
	}
	f, err := chartfile.Find(cc.Cfg.TemplatesDir, ref)
	if err != nil {
		return nil, fmt.Errorf("chart %q: %w", ref, err)
	}
	return f, nil
}
