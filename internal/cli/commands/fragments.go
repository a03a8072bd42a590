package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/leapchart/internal/state"
	"github.com/leapstack-labs/leapchart/internal/template"
	"github.com/leapstack-labs/leapchart/pkg/core"
)

// fragmentsFile is the export/import document.
type fragmentsFile struct {
	Fragments []core.ChartConfig `yaml:"fragments"`
}

// NewFragmentsCommand creates the fragments command and its subcommands.
func NewFragmentsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "fragments",
		Aliases: []string{"fragment", "frag"},
		Short:   "Manage reusable configuration fragments",
		Long: `Fragments are named configuration objects stored in the state database.
Every template sees them as variables, in list order.`,
	}

	cmd.AddCommand(
		newFragmentsListCommand(),
		newFragmentsShowCommand(),
		newFragmentsAddCommand(),
		newFragmentsRemoveCommand(),
		newFragmentsExportCommand(),
		newFragmentsImportCommand(),
	)
	return cmd
}

// withStore opens the state store for the duration of fn.
func withStore(cmd *cobra.Command, fn func(cc *CommandContext, store state.Store) error) error {
	cc := NewCommandContext(cmd)
	store, err := cc.OpenStore(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	return fn(cc, store)
}

func newFragmentsListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List fragments in order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, func(cc *CommandContext, store state.Store) error {
				cfgs, err := store.Fragments(cmd.Context())
				if err != nil {
					return err
				}
				rs := &core.ResultSet{Columns: []string{"position", "name", "summary"}}
				for i, cfg := range cfgs {
					rs.Rows = append(rs.Rows, core.Row{
						"position": strconv.Itoa(i),
						"name":     cfg.Name,
						"summary":  summarize(cfg.Config),
					})
				}
				return renderResults(cc.Out, rs, cc.Cfg.OutputFormat)
			})
		},
	}
}

// summarize returns the first non-blank line of src, shortened.
func summarize(src string) string {
	const maxLen = 48
	for line := range strings.Lines(src) {
		line = strings.TrimSpace(line)
		if line == "" || line == "{" {
			continue
		}
		if len(line) > maxLen {
			line = line[:maxLen-3] + "..."
		}
		return line
	}
	return ""
}

func newFragmentsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Print a fragment's source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(cc *CommandContext, store state.Store) error {
				f, err := store.Fragment(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cc.Out, strings.TrimRight(f.Config, "\n"))
				return nil
			})
		},
	}
}

func newFragmentsAddCommand() *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "add <name> [config]",
		Short: "Add or update a fragment",
		Long: `Add a fragment, or replace the source of an existing one in place.
The source is read from the argument, from --input, or from stdin, and must
parse as an object.`,
		Example: `  leapchart fragments add compactGrid '{ grid = { left = 8, right = 8 } }'
  leapchart fragments add darkTheme --input dark.hcl`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := readInput(cmd.InOrStdin(), args[1:], input)
			if err != nil {
				return fmt.Errorf("fragment source: %w", err)
			}
			cfg := core.ChartConfig{Name: args[0], Config: src}
			if err := validateFragment(cfg); err != nil {
				return err
			}
			return withStore(cmd, func(cc *CommandContext, store state.Store) error {
				if err := store.PutFragment(cmd.Context(), cfg); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cc.Out, "Saved fragment %s\n", cfg.Name)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Read the fragment source from a file")
	return cmd
}

func newFragmentsRemoveCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <name>",
		Aliases: []string{"rm"},
		Short:   "Remove a fragment",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(cc *CommandContext, store state.Store) error {
				if err := store.DeleteFragment(cmd.Context(), args[0]); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cc.Out, "Removed fragment %s\n", args[0])
				return nil
			})
		},
	}
}

func newFragmentsExportCommand() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export fragments as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, func(cc *CommandContext, store state.Store) error {
				cfgs, err := store.Fragments(cmd.Context())
				if err != nil {
					return err
				}
				w := cc.Out
				if file != "" {
					f, err := os.Create(file) //nolint:gosec // G304: user-supplied export path
					if err != nil {
						return fmt.Errorf("failed to create export file: %w", err)
					}
					defer func() { _ = f.Close() }()
					w = f
				}
				return writeFragments(w, cfgs)
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Write to a file instead of stdout")
	return cmd
}

func writeFragments(w io.Writer, cfgs []core.ChartConfig) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(fragmentsFile{Fragments: cfgs}); err != nil {
		return fmt.Errorf("failed to encode fragments: %w", err)
	}
	return enc.Close()
}

func newFragmentsImportCommand() *cobra.Command {
	var replace bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import fragments from YAML",
		Long: `Import fragments exported with "fragments export". Existing fragments
with the same name are updated in place and new ones are appended. With
--replace the stored list becomes exactly the imported one.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read import file: %w", err)
			}
			cfgs, err := readFragments(data)
			if err != nil {
				return err
			}
			return withStore(cmd, func(cc *CommandContext, store state.Store) error {
				if replace {
					err = store.ReplaceFragments(cmd.Context(), cfgs)
				} else {
					for _, cfg := range cfgs {
						if err = store.PutFragment(cmd.Context(), cfg); err != nil {
							break
						}
					}
				}
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cc.Out, "Imported %d fragments\n", len(cfgs))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&replace, "replace", false, "Replace all stored fragments")
	return cmd
}

func readFragments(data []byte) ([]core.ChartConfig, error) {
	var doc fragmentsFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse fragments: %w", err)
	}
	seen := make(map[string]bool, len(doc.Fragments))
	var errs []error
	for _, cfg := range doc.Fragments {
		if seen[cfg.Name] {
			errs = append(errs, fmt.Errorf("fragment %s listed twice", cfg.Name))
			continue
		}
		seen[cfg.Name] = true
		if err := validateFragment(cfg); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return doc.Fragments, nil
}

func validateFragment(cfg core.ChartConfig) error {
	if cfg.Name == "" {
		return errors.New("fragment name is required")
	}
	if _, err := template.ParseFragment(cfg.Name, cfg.Config); err != nil {
		return fmt.Errorf("invalid fragment %s: %w", cfg.Name, err)
	}
	return nil
}
