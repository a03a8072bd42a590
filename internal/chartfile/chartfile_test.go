package chartfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantQuery string
		wantTitle string
		wantSrc   string
		wantErr   string
	}{
		{
			name:    "template only",
			content: "{ type: \"bar\" }\n",
			wantSrc: `{ type: "bar" }`,
		},
		{
			name:      "query header",
			content:   "-- query: SELECT 1 AS x\n{ type: \"bar\" }",
			wantQuery: "SELECT 1 AS x",
			wantSrc:   `{ type: "bar" }`,
		},
		{
			name:      "multi-line query and title",
			content:   "-- title: Sales\n-- query: SELECT month,\n--   sum(amount) AS total\n--   FROM sales GROUP BY 1\n\n{ type: \"line\" }",
			wantQuery: "SELECT month,\nsum(amount) AS total\nFROM sales GROUP BY 1",
			wantTitle: "Sales",
			wantSrc:   `{ type: "line" }`,
		},
		{
			name:    "script body keeps comment-like lines after header",
			content: "-- query: SELECT 1\nreturn {\"n\": len(data)}",
			wantSrc: `return {"n": len(data)}`,
		},
		{
			name:    "unknown header",
			content: "-- colour: red\n{}",
			wantErr: "unknown header",
		},
		{
			name:    "duplicate header",
			content: "-- query: SELECT 1\n-- query: SELECT 2\n{}",
			wantErr: "duplicate header",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse("sales", []byte(tt.content))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			if tt.wantQuery != "" {
				assert.Equal(t, tt.wantQuery, f.Query)
			}
			assert.Equal(t, tt.wantTitle, f.Title)
			assert.Equal(t, tt.wantSrc, f.Template.Source)
			assert.Equal(t, "sales", f.Template.Name)
		})
	}
}

func TestListAndFind(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.chart"), []byte("{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.chart"), []byte("-- query: SELECT 1\n{}"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("x"), 0o644))

	files, err := List(dir)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "a", files[0].Name)
	assert.Equal(t, "SELECT 1", files[0].Query)
	assert.Equal(t, filepath.Join(dir, "a.chart"), files[0].Path)

	f, err := Find(dir, "b")
	require.NoError(t, err)
	assert.Equal(t, "b", f.Name)

	_, err = Find(dir, "../b")
	assert.Error(t, err)
	_, err = Find(dir, "missing")
	assert.Error(t, err)
}

func TestList_MissingDir(t *testing.T) {
	files, err := List(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, files)
}
