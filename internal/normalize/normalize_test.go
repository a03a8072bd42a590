package normalize

import (
	"testing"

	"github.com/leapstack-labs/leapchart/internal/template"
	"github.com/leapstack-labs/leapchart/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rows() []any {
	return []any{
		map[string]any{"x": "a", "y": int64(1)},
		map[string]any{"x": "b", "y": int64(2)},
	}
}

func TestApply_PrependsPrimaryDataset(t *testing.T) {
	got, err := Apply(map[string]any{"type": "bar"}, rows())
	require.NoError(t, err)

	datasets := got[core.DatasetKey].([]any)
	require.Len(t, datasets, 1)
	assert.Equal(t, map[string]any{"id": "data", "source": rows()}, datasets[0])
	assert.Equal(t, "bar", got["type"])
}

func TestApply_KeepsUserDatasets(t *testing.T) {
	user := map[string]any{"id": "agg", "source": []any{}}
	got, err := Apply(map[string]any{"dataset": []any{user}}, rows())
	require.NoError(t, err)

	datasets := got[core.DatasetKey].([]any)
	require.Len(t, datasets, 2)
	assert.Equal(t, "data", datasets[0].(map[string]any)["id"])
	assert.Equal(t, user, datasets[1])
}

func TestApply_Idempotent(t *testing.T) {
	once, err := Apply(map[string]any{"dataset": []any{map[string]any{"id": "extra"}}}, rows())
	require.NoError(t, err)

	twice, err := Apply(once, rows())
	require.NoError(t, err)
	assert.Equal(t, once, twice)
	assert.Len(t, twice[core.DatasetKey], 2)
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	cfg := map[string]any{"type": "line"}
	_, err := Apply(cfg, rows())
	require.NoError(t, err)
	assert.NotContains(t, cfg, core.DatasetKey)
}

func TestApply_NilRows(t *testing.T) {
	got, err := Apply(map[string]any{}, nil)
	require.NoError(t, err)
	primary := got[core.DatasetKey].([]any)[0].(map[string]any)
	assert.Equal(t, []any{}, primary["source"])
}

func TestApply_ShapeErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  any
	}{
		{name: "number", cfg: int64(2)},
		{name: "list", cfg: []any{1, 2}},
		{name: "nil", cfg: nil},
		{name: "dataset object", cfg: map[string]any{"dataset": map[string]any{"source": []any{}}}},
		{name: "dataset string", cfg: map[string]any{"dataset": "data"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Apply(tt.cfg, rows())
			require.ErrorIs(t, err, template.ErrConfigShape)
			assert.Contains(t, err.Error(), "issue with parsing config")
		})
	}
}
