package macro

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/leapchart/internal/template"
	"github.com/leapstack-labs/leapchart/internal/testutil"
	"github.com/leapstack-labs/leapchart/internal/vars"
	"github.com/leapstack-labs/leapchart/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.starlark.net/starlark"
)

const formatMacro = `
def pct(x, digits=1):
    """Formats a ratio as a percentage label."""
    if digits == 0:
        return "%d%%" % int(x * 100)
    return "%d%%" % int(x * 100 + 0.5)

def palette():
    return ["#5470c6", "#91cc75"]

_private = 1
`

func writeMacro(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoader_Load(t *testing.T) {
	tests := []struct {
		name           string
		setup          func(t *testing.T) string
		wantNamespaces []string
		wantErr        string
	}{
		{
			name:  "missing directory",
			setup: func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope") },
		},
		{
			name:  "empty directory",
			setup: func(t *testing.T) string { return t.TempDir() },
		},
		{
			name: "not a directory",
			setup: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "macros")
				require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
				return path
			},
			wantErr: "not a directory",
		},
		{
			name: "sorted by file name",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeMacro(t, dir, "zeta.star", "def f():\n    return 1\n")
				writeMacro(t, dir, "fmt.star", formatMacro)
				writeMacro(t, dir, "notes.txt", "ignored")
				return dir
			},
			wantNamespaces: []string{"fmt", "zeta"},
		},
		{
			name: "reserved namespace",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeMacro(t, dir, "sum.star", "x = 1\n")
				return dir
			},
			wantErr: "reserved",
		},
		{
			name: "invalid namespace",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeMacro(t, dir, "my-macros.star", "x = 1\n")
				return dir
			},
			wantErr: "not a valid identifier",
		},
		{
			name: "execution error",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeMacro(t, dir, "broken.star", "x = undefined_name\n")
				return dir
			},
			wantErr: "macros/broken.star",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			modules, err := NewLoader(tt.setup(t), testutil.NewTestLogger(t)).Load()
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)

			var got []string
			for _, m := range modules {
				got = append(got, m.Namespace)
			}
			assert.Equal(t, tt.wantNamespaces, got)
		})
	}
}

func TestLoader_ExportsArePublic(t *testing.T) {
	dir := t.TempDir()
	writeMacro(t, dir, "fmt.star", formatMacro)

	modules, err := NewLoader(dir, nil).Load()
	require.NoError(t, err)
	require.Len(t, modules, 1)

	assert.Contains(t, modules[0].Exports, "pct")
	assert.Contains(t, modules[0].Exports, "palette")
	assert.NotContains(t, modules[0].Exports, "_private")
}

func TestLoader_StepLimit(t *testing.T) {
	dir := t.TempDir()
	writeMacro(t, dir, "spin.star", "n = 0\nwhile True:\n    n += 1\n")

	_, err := NewLoader(dir, nil).WithMaxSteps(500).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too many steps")
}

func TestLoader_TopLevelLoops(t *testing.T) {
	dir := t.TempDir()
	writeMacro(t, dir, "scale.star", "steps = []\nfor i in range(3):\n    steps.append(i * 10)\nif len(steps) == 3:\n    ok = True\n")

	modules, err := NewLoader(dir, nil).Load()
	require.NoError(t, err)
	require.Len(t, modules, 1)
	assert.Contains(t, modules[0].Exports, "steps")
	assert.Contains(t, modules[0].Exports, "ok")
}

func TestBindings_CallableFromTemplates(t *testing.T) {
	dir := t.TempDir()
	writeMacro(t, dir, "fmt.star", formatMacro)
	modules, err := NewLoader(dir, nil).Load()
	require.NoError(t, err)

	bindings := Bindings(modules)
	require.Len(t, bindings, 1)
	assert.Equal(t, "fmt", bindings[0].Name)
	_, isValue := bindings[0].Value.(starlark.Value)
	assert.True(t, isValue)

	ctx := vars.Build(&core.ResultSet{}, vars.WithMacros(bindings))
	eval := template.NewEvaluator(template.Options{Logger: testutil.NewTestLogger(t)})
	got, err := eval.Evaluate(template.New("t", `{"label": fmt.pct(0.25), "color": fmt.palette()}`), ctx,
		core.Flags{core.FlagAdvancedMode: true})
	require.NoError(t, err)
	assert.Equal(t, "25%", got["label"])
	assert.Equal(t, []any{"#5470c6", "#91cc75"}, got["color"])
}

func TestDescribe(t *testing.T) {
	ns, err := Describe("/macros/fmt.star", []byte(formatMacro))
	require.NoError(t, err)

	assert.Equal(t, "fmt", ns.Name)
	require.Len(t, ns.Functions, 2)
	assert.Equal(t, "pct(x, digits=1)", ns.Functions[0].Signature())
	assert.Equal(t, "Formats a ratio as a percentage label.", ns.Functions[0].Doc)
	assert.Equal(t, "palette()", ns.Functions[1].Signature())
	assert.Empty(t, ns.Functions[1].Doc)
}

func TestDescribe_SyntaxError(t *testing.T) {
	_, err := Describe("/macros/bad.star", []byte("def broken(:\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "macros/bad.star")
}

func TestDescribeDir(t *testing.T) {
	dir := t.TempDir()
	writeMacro(t, dir, "b.star", "def two():\n    return 2\n")
	writeMacro(t, dir, "a.star", "def one():\n    return 1\n")

	got, err := DescribeDir(dir)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Name)
	assert.Equal(t, "b", got[1].Name)
}
