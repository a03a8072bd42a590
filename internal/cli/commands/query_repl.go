package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/leapchart/internal/chartfile"
	"github.com/leapstack-labs/leapchart/internal/source"
)

const (
	replPrompt     = "leapchart> "
	replContPrompt = "      ...> "
)

// replSession runs statements and dot-commands for one REPL.
type replSession struct {
	src          *source.Source
	format       string
	templatesDir string
	out          io.Writer
	errOut       io.Writer
	styles       *Styles
}

func runQueryREPL(cmd *cobra.Command, cc *CommandContext) error {
	ctx := cmd.Context()

	src, err := cc.OpenSource(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	s := &replSession{
		src:          src,
		format:       cc.Cfg.OutputFormat,
		templatesDir: cc.Cfg.TemplatesDir,
		out:          cc.Out,
		errOut:       cc.Err,
		styles:       NewStyles(cc.Out),
	}

	historyDir := filepath.Dir(cc.Cfg.StatePath)
	if err := os.MkdirAll(historyDir, 0750); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          s.styles.Prompt.Render(replPrompt),
		HistoryFile:     filepath.Join(historyDir, "query_history"),
		AutoComplete:    s.completer(ctx),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	_, _ = fmt.Fprintln(s.out, s.styles.Title.Render(fmt.Sprintf("LeapChart query REPL (%s)", src.Driver())))
	_, _ = fmt.Fprintln(s.out, s.styles.Muted.Render("Type .help for commands, .quit to exit"))
	_, _ = fmt.Fprintln(s.out)

	var buf strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			buf.Reset()
			rl.SetPrompt(s.styles.Prompt.Render(replPrompt))
			continue
		}
		if err != nil {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if buf.Len() == 0 && strings.HasPrefix(line, ".") {
			if quit := s.dotCommand(ctx, line); quit {
				break
			}
			continue
		}

		// Accumulate multi-line SQL until semicolon
		buf.WriteString(line)
		if !strings.HasSuffix(line, ";") {
			buf.WriteString("\n")
			rl.SetPrompt(s.styles.Prompt.Render(replContPrompt))
			continue
		}
		rl.SetPrompt(s.styles.Prompt.Render(replPrompt))

		query := strings.TrimSuffix(buf.String(), ";")
		buf.Reset()
		s.execute(ctx, query)
		_, _ = fmt.Fprintln(s.out)
	}
	return nil
}

func (s *replSession) execute(ctx context.Context, query string) {
	rs, err := s.src.Query(ctx, query)
	if err == nil {
		err = renderResults(s.out, rs, s.format)
	}
	if err != nil {
		s.fail(err)
	}
}

func (s *replSession) fail(err error) {
	_, _ = fmt.Fprintln(s.errOut, s.styles.Error.Render("Error: "+err.Error()))
}

// dotCommand handles a REPL command and reports whether the session ends.
func (s *replSession) dotCommand(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	switch strings.ToLower(parts[0]) {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(s.out)

	case ".tables":
		names, err := s.src.Tables(ctx)
		if err != nil {
			s.fail(err)
			return false
		}
		for _, name := range names {
			_, _ = fmt.Fprintln(s.out, name)
		}

	case ".charts":
		files, err := chartfile.List(s.templatesDir)
		if err != nil {
			s.fail(err)
			return false
		}
		for _, f := range files {
			_, _ = fmt.Fprintf(s.out, "%-20s %s\n", f.Name, s.styles.Muted.Render(f.Title))
		}

	case ".chart":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(s.errOut, "Usage: .chart <name>")
			return false
		}
		f, err := chartfile.Find(s.templatesDir, parts[1])
		if err != nil {
			s.fail(err)
			return false
		}
		if strings.TrimSpace(f.Query) == "" {
			_, _ = fmt.Fprintf(s.out, "chart %s has no query\n", f.Name)
			return false
		}
		s.execute(ctx, f.Query)

	case ".clear":
		_, _ = fmt.Fprint(s.out, "\033[H\033[2J")

	default:
		_, _ = fmt.Fprintf(s.errOut, "Unknown command: %s (type .help for commands)\n", parts[0])
	}
	return false
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help           Show this help message
  .tables         List tables and views of the data source
  .charts         List chart templates
  .chart <name>   Run the query of a chart template
  .clear          Clear the screen
  .quit / .exit   Exit the REPL

Tips:
  - SQL statements must end with a semicolon (;)
  - Use arrow keys to navigate history
  - Tab completion works for table names
`
	_, _ = fmt.Fprintln(w, help)
}

// completer offers table names, chart names and dot-commands.
func (s *replSession) completer(ctx context.Context) *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface
	// Completion is best effort.
	if names, err := s.src.Tables(ctx); err == nil {
		for _, name := range names {
			items = append(items, readline.PcItem(name))
		}
	}

	var charts []readline.PrefixCompleterInterface
	if files, err := chartfile.List(s.templatesDir); err == nil {
		for _, f := range files {
			charts = append(charts, readline.PcItem(f.Name))
		}
	}

	items = append(items,
		readline.PcItem(".help"),
		readline.PcItem(".tables"),
		readline.PcItem(".charts"),
		readline.PcItem(".chart", charts...),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
	return readline.NewPrefixCompleter(items...)
}
