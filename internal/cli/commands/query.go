package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Input string
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query [SQL]",
		Short: "Run a query against the data source",
		Long: `Run a SQL query against the configured data source and print the rows.

The query is taken from the argument, from --input, or from stdin when
neither is given. With no query and an interactive terminal an
interactive REPL starts instead. Use --output to pick the format.`,
		Example: `  # Execute SQL directly
  leapchart query "SELECT region, sum(amount) FROM sales GROUP BY 1"

  # Read the query from a file, print JSON
  leapchart query --input top_regions.sql -o json

  # Pipe a query in
  echo "SELECT 42 AS answer" | leapchart query -o csv

  # Start the interactive REPL
  leapchart query`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read the query from a file")

	return cmd
}

func runQuery(cmd *cobra.Command, args []string, opts *QueryOptions) error {
	cc := NewCommandContext(cmd)
	if len(args) == 0 && opts.Input == "" && isTerminal(cmd.InOrStdin()) {
		return runQueryREPL(cmd, cc)
	}

	query, err := readInput(cmd.InOrStdin(), args, opts.Input)
	if err != nil {
		return err
	}

	src, err := cc.OpenSource(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	rs, err := src.Query(cmd.Context(), query)
	if err != nil {
		return err
	}
	return renderResults(cc.Out, rs, cc.Cfg.OutputFormat)
}

func readInput(stdin io.Reader, args []string, input string) (string, error) {
	var query string
	switch {
	case len(args) > 0:
		query = args[0]
	case input != "":
		data, err := os.ReadFile(input) //nolint:gosec // G304: user-supplied query file
		if err != nil {
			return "", fmt.Errorf("failed to read input file: %w", err)
		}
		query = string(data)
	default:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		query = string(data)
	}

	query = strings.TrimSpace(query)
	if query == "" {
		return "", errors.New("no input given")
	}
	return query, nil
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // G115: fd fits in int
}
