package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapchart/internal/macro"
	"github.com/leapstack-labs/leapchart/pkg/core"
)

// NewMacrosCommand creates the macros command.
func NewMacrosCommand() *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "macros",
		Short: "List the macro functions available to templates",
		Long: `List the public functions of every .star file in the macros directory.
Templates call them as <file>.<function>(...). With --check each file is
also executed, reporting runtime errors the listing alone would miss.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := NewCommandContext(cmd)

			namespaces, err := macro.DescribeDir(cc.Cfg.MacrosDir)
			if err != nil {
				return err
			}
			if check {
				if _, err := cc.Macros().Load(); err != nil {
					return err
				}
			}

			if resolveFormat(cc.Cfg.OutputFormat, cc.Out) == "json" {
				return renderJSON(cc.Out, namespaces)
			}
			rs := &core.ResultSet{Columns: []string{"function", "doc", "location"}}
			for _, ns := range namespaces {
				for _, fn := range ns.Functions {
					rs.Rows = append(rs.Rows, core.Row{
						"function": ns.Name + "." + fn.Signature(),
						"doc":      summarize(fn.Doc),
						"location": fmt.Sprintf("%s:%d", ns.Path, fn.Line),
					})
				}
			}
			return renderResults(cc.Out, rs, cc.Cfg.OutputFormat)
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "Also execute each macro file")
	return cmd
}
