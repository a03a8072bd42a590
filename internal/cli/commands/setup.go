package commands

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapchart/internal/cli/config"
	"github.com/leapstack-labs/leapchart/internal/macro"
	"github.com/leapstack-labs/leapchart/internal/pipeline"
	"github.com/leapstack-labs/leapchart/internal/source"
	"github.com/leapstack-labs/leapchart/internal/state"
	"github.com/leapstack-labs/leapchart/internal/template"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg    *config.Config
	Logger *slog.Logger
	Out    io.Writer
	Err    io.Writer
}

// NewCommandContext reads the configuration and logger stored by the root
// command. Resources are opened on demand by the Open* helpers.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	return &CommandContext{
		Cfg:    config.FromContext(cmd.Context()),
		Logger: config.GetLogger(cmd.Context()),
		Out:    cmd.OutOrStdout(),
		Err:    cmd.ErrOrStderr(),
	}
}

// OpenSource opens the configured data source. The caller closes it.
func (c *CommandContext) OpenSource(cmd *cobra.Command) (*source.Source, error) {
	src, err := source.Open(cmd.Context(), c.Cfg.Source, c.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open data source: %w", err)
	}
	return src, nil
}

// OpenStore opens the state database, creating its directory if needed.
func (c *CommandContext) OpenStore(cmd *cobra.Command) (*state.SQLiteStore, error) {
	stateDir := filepath.Dir(c.Cfg.StatePath)
	if stateDir != "." && stateDir != "" {
		if err := os.MkdirAll(stateDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create state directory: %w", err)
		}
	}
	store, err := state.Open(cmd.Context(), c.Cfg.StatePath, c.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open state database: %w", err)
	}
	return store, nil
}

// Macros returns a loader for the configured macros directory.
func (c *CommandContext) Macros() *macro.Loader {
	return macro.NewLoader(c.Cfg.MacrosDir, c.Logger).WithMaxSteps(c.Cfg.Eval.MaxSteps)
}

// Evaluator returns a template evaluator bounded by the configured step limit.
func (c *CommandContext) Evaluator() *template.Evaluator {
	return template.NewEvaluator(template.Options{Logger: c.Logger, MaxSteps: c.Cfg.Eval.MaxSteps})
}

// Pipeline builds a chart pipeline. Pass an untyped nil for a missing
// source or store.
func (c *CommandContext) Pipeline(src pipeline.Querier, store pipeline.FragmentLister) *pipeline.Pipeline {
	return pipeline.New(pipeline.Config{
		TemplatesDir: c.Cfg.TemplatesDir,
		Source:       src,
		Fragments:    store,
		Macros:       c.Macros(),
		Logger:       c.Logger,
	})
}
