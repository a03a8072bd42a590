// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

// Project chart fixtures. Queries are self-contained so that an in-memory
// SQLite source serves them without seeding.
const (
	RevenueChart = `-- title: Revenue by region
-- query: SELECT 'north' AS region, 10 AS amount
--   UNION ALL SELECT 'south', 32
{
  xAxis  = { type = "category", data = region }
  yAxis  = { type = "value" }
  series = [{ type = "bar", data = amount }]
}
`
	StaticChart = `{ title = { text = "static" } }
`
	ScriptChart = `-- query: SELECT 1 AS n
return dict(title={"text": fmtx.label(len(data))})
`
	FmtxMacro = `def label(n):
    """Labels a row count."""
    return "rows=%d" % n
`
)

// SetupTestProject creates a temporary project with a config file, charts
// and one macro file, and returns its root.
func SetupTestProject(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()

	files := map[string]string{
		"leapchart.yaml":       "source:\n  driver: sqlite\nstate_path: .leapchart/state.db\n",
		"charts/revenue.chart": RevenueChart,
		"charts/static.chart":  StaticChart,
		"charts/script.chart":  ScriptChart,
		"macros/fmtx.star":     FmtxMacro,
	}
	for name, content := range files {
		path := filepath.Join(tmpDir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("failed to create directory for %s: %v", name, err)
		}
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}

	return tmpDir
}

// Result holds the captured output of a command run.
type Result struct {
	Stdout string
	Stderr string
	Err    error
}

// Execute runs cmd with args and captures its output. stdin may be empty.
func Execute(t *testing.T, cmd *cobra.Command, stdin string, args ...string) Result {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	cmd.SetContext(t.Context())

	err := cmd.Execute()
	return Result{Stdout: stdout.String(), Stderr: stderr.String(), Err: err}
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*m`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("output contains ANSI escape codes: %q", s)
	}
}
