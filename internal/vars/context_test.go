package vars

import (
	"testing"

	"github.com/leapstack-labs/leapchart/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResultSet() *core.ResultSet {
	return &core.ResultSet{
		Columns: []string{"x", "y", "total sales"},
		Rows: []core.Row{
			{"x": int64(1), "y": int64(2), "total sales": 10.5},
			{"x": int64(3), "y": int64(4), "total sales": nil},
			{"x": int64(5), "y": int64(6), "total sales": 2.0},
		},
	}
}

func TestBuild_ColumnArraysFollowRowOrder(t *testing.T) {
	rs := sampleResultSet()
	ctx := Build(rs)

	require.Len(t, ctx.Values, len(rs.Columns))
	for ci, col := range rs.Columns {
		values, ok := ctx.Column(col)
		require.True(t, ok, "column %q", col)
		require.Len(t, values, rs.Len(), "column %q length", col)
		for i, row := range rs.Rows {
			assert.Equal(t, row[col], values[i], "context[%s][%d]", col, i)
		}
		assert.Equal(t, values, ctx.Values[ci])
	}
}

func TestBuild_RowsAndColumns(t *testing.T) {
	ctx := Build(sampleResultSet())

	assert.Len(t, ctx.Rows, 3)
	assert.Equal(t, []any{"x", "y", "total sales"}, ctx.ColumnNames())
	assert.Equal(t, []string{"x", "y", "total_sales"}, ctx.Idents)
}

func TestBuild_Empty(t *testing.T) {
	tests := []struct {
		name string
		rs   *core.ResultSet
	}{
		{"nil", nil},
		{"no columns", &core.ResultSet{}},
		{"no rows", &core.ResultSet{Columns: []string{"a", "b"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := Build(tt.rs)
			require.NotNil(t, ctx.Rows)
			assert.Empty(t, ctx.Rows)
			for _, values := range ctx.Values {
				assert.NotNil(t, values)
				assert.Empty(t, values)
			}
			assert.NotEmpty(t, ctx.Helpers, "helpers are independent of data shape")
		})
	}
}

func TestBuild_Variables(t *testing.T) {
	ctx := Build(&core.ResultSet{
		Columns: []string{"a b", "a_b"},
		Rows:    []core.Row{{"a b": 1, "a_b": 2}},
	})

	vars := ctx.Variables()
	require.Len(t, vars, 2)
	assert.Equal(t, "a_b", vars[0].Name)
	assert.Equal(t, []any{1}, vars[0].Value)
	assert.Equal(t, "a_b_2", vars[1].Name)
	assert.Equal(t, []any{2}, vars[1].Value)
}

func TestBuild_Options(t *testing.T) {
	ctx := Build(sampleResultSet(),
		WithFragments([]Binding{{Name: "theme", Value: map[string]any{"color": "red"}}}),
		WithMacros([]Binding{{Name: "fmt", Value: "module"}}),
	)

	require.Len(t, ctx.Fragments, 1)
	assert.Equal(t, "theme", ctx.Fragments[0].Name)
	require.Len(t, ctx.Macros, 1)
	assert.Equal(t, "fmt", ctx.Macros[0].Name)
}
