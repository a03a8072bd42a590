package commands

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/leapchart/internal/cli/testutil"
	"github.com/leapstack-labs/leapchart/internal/source"
)

func newTestSession(t *testing.T) (*replSession, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	root := testutil.SetupTestProject(t)

	src, err := source.Open(context.Background(), source.Config{Driver: source.DriverSQLite}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = src.Close() })
	require.NoError(t, src.Exec(context.Background(), "CREATE TABLE sales (region TEXT, amount INTEGER)"))

	var out, errOut bytes.Buffer
	return &replSession{
		src:          src,
		format:       "csv",
		templatesDir: filepath.Join(root, "charts"),
		out:          &out,
		errOut:       &errOut,
		styles:       NewStyles(&out),
	}, &out, &errOut
}

func TestREPL_DotCommands(t *testing.T) {
	s, out, errOut := newTestSession(t)
	ctx := context.Background()

	assert.False(t, s.dotCommand(ctx, ".tables"))
	assert.Contains(t, out.String(), "sales")

	out.Reset()
	assert.False(t, s.dotCommand(ctx, ".charts"))
	assert.Contains(t, out.String(), "revenue")
	assert.Contains(t, out.String(), "Revenue by region")

	out.Reset()
	assert.False(t, s.dotCommand(ctx, ".chart revenue"))
	assert.Contains(t, out.String(), "north")

	out.Reset()
	assert.False(t, s.dotCommand(ctx, ".chart static"))
	assert.Contains(t, out.String(), "has no query")

	assert.False(t, s.dotCommand(ctx, ".chart"))
	assert.Contains(t, errOut.String(), "Usage: .chart <name>")

	assert.False(t, s.dotCommand(ctx, ".bogus"))
	assert.Contains(t, errOut.String(), "Unknown command: .bogus")

	out.Reset()
	assert.False(t, s.dotCommand(ctx, ".help"))
	assert.Contains(t, out.String(), ".tables")

	assert.True(t, s.dotCommand(ctx, ".quit"))
	assert.True(t, s.dotCommand(ctx, ".EXIT"))
}

func TestREPL_Execute(t *testing.T) {
	s, out, errOut := newTestSession(t)
	ctx := context.Background()

	s.execute(ctx, "SELECT 7 AS lucky")
	assert.Contains(t, out.String(), "lucky")
	assert.Contains(t, out.String(), "7")

	s.execute(ctx, "SELECT * FROM nowhere")
	assert.Contains(t, errOut.String(), "Error:")
	testutil.AssertNoANSI(t, errOut.String())
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, isTerminal(&bytes.Buffer{}))
}
