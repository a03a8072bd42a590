package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/term"

	"github.com/leapstack-labs/leapchart/pkg/core"
)

// resolveFormat turns "auto" into a concrete format: a table on a terminal,
// markdown otherwise.
func resolveFormat(format string, w io.Writer) string {
	if format != "" && format != "auto" {
		return format
	}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) { //nolint:gosec // G115: file descriptors fit in int
		return "table"
	}
	return "md"
}

func renderResults(w io.Writer, rs *core.ResultSet, format string) error {
	switch resolveFormat(format, w) {
	case "json":
		return renderJSON(w, rs)
	case "csv":
		return renderCSV(w, rs)
	case "md", "markdown":
		if rs.Len() == 0 {
			_, _ = fmt.Fprintln(w, "(0 rows)")
			return nil
		}
		newTable(w, rs).RenderMarkdown()
		return nil
	case "table":
		return renderTable(w, rs)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func renderTable(w io.Writer, rs *core.ResultSet) error {
	if rs.Len() == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := newTable(w, rs)
	t.SetStyle(table.StyleLight)
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", rs.Len())
	return nil
}

func newTable(w io.Writer, rs *core.ResultSet) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)

	header := make(table.Row, len(rs.Columns))
	for i, col := range rs.Columns {
		header[i] = col
	}
	t.AppendHeader(header)

	for _, result := range rs.Rows {
		row := make(table.Row, len(rs.Columns))
		for i, col := range rs.Columns {
			row[i] = formatValue(result[col])
		}
		t.AppendRow(row)
	}
	return t
}

func renderCSV(w io.Writer, rs *core.ResultSet) error {
	header := make([]string, len(rs.Columns))
	for i, col := range rs.Columns {
		header[i] = escapeCSV(col)
	}
	if _, err := fmt.Fprintln(w, strings.Join(header, ",")); err != nil {
		return err
	}

	values := make([]string, len(rs.Columns))
	for _, result := range rs.Rows {
		for i, col := range rs.Columns {
			values[i] = escapeCSV(formatValue(result[col]))
		}
		if _, err := fmt.Fprintln(w, strings.Join(values, ",")); err != nil {
			return err
		}
	}
	return nil
}

// escapeCSV quotes s when it holds a separator, a quote or a line break.
func escapeCSV(s string) string {
	if strings.ContainsAny(s, ",\"\r\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

func renderJSON(w io.Writer, v any) error {
	if rs, ok := v.(*core.ResultSet); ok {
		rows := rs.Rows
		if rows == nil {
			rows = []core.Row{}
		}
		v = rows
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", v)
	}
}
