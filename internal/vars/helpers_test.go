package vars

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func helper(t *testing.T, name string) Helper {
	t.Helper()
	for _, h := range Helpers() {
		if h.Name == name {
			return h
		}
	}
	t.Fatalf("helper %q not found", name)
	return Helper{}
}

func TestHelpers_Aggregates(t *testing.T) {
	xs := []any{int64(2), 4.0, int64(4), int64(4), 5, 5.0, int64(7), 9.0}

	tests := []struct {
		name string
		want float64
	}{
		{"sum", 40},
		{"mean", 5},
		{"variance", 32.0 / 7.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := helper(t, tt.name).Call([]any{xs})
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestHelpers_SkipNonNumeric(t *testing.T) {
	got, err := helper(t, "sum").Call([]any{[]any{int64(1), nil, "x", 2.5}})
	require.NoError(t, err)
	assert.InDelta(t, 3.5, got, 1e-9)
}

func TestHelpers_EmptyAggregateIsNull(t *testing.T) {
	got, err := helper(t, "mean").Call([]any{[]any{}})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestHelpers_Median(t *testing.T) {
	got, err := helper(t, "median").Call([]any{[]any{int64(3), int64(1), int64(2)}})
	require.NoError(t, err)
	assert.InDelta(t, 2.0, got, 1e-9)
}

func TestHelpers_MedianEvenLength(t *testing.T) {
	got, err := helper(t, "median").Call([]any{[]any{int64(4), int64(1), int64(3), int64(2)}})
	require.NoError(t, err)
	assert.InDelta(t, 2.5, got, 1e-9)
}

func TestHelpers_Quantile(t *testing.T) {
	xs := []any{int64(50), int64(10), int64(40), int64(20), int64(30)}
	tests := []struct {
		q    float64
		want float64
	}{
		{0, 10},
		{0.25, 50.0 / 3},
		{0.5, 30},
		{1, 50},
	}
	for _, tt := range tests {
		got, err := helper(t, "quantile").Call([]any{xs, tt.q})
		require.NoError(t, err)
		assert.InDelta(t, tt.want, got, 1e-9, "q=%v", tt.q)
	}

	got, err := helper(t, "quantile").Call([]any{[]any{}, 0.5})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestHelpers_Bounds(t *testing.T) {
	got, err := helper(t, "bounds").Call([]any{[]any{int64(3), -1.5, nil, int64(8)}})
	require.NoError(t, err)
	assert.Equal(t, []any{-1.5, 8.0}, got)
}

func TestHelpers_CountAndDistinct(t *testing.T) {
	list := []any{"a", "b", nil, "a", int64(1), int64(1)}

	n, err := helper(t, "count").Call([]any{list})
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)

	uniq, err := helper(t, "distinct").Call([]any{list})
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b", nil, int64(1)}, uniq)
}

func TestHelpers_Round(t *testing.T) {
	got, err := helper(t, "round").Call([]any{3.14159, int64(2)})
	require.NoError(t, err)
	assert.InDelta(t, 3.14, got, 1e-9)

	got, err = helper(t, "round").Call([]any{2.5})
	require.NoError(t, err)
	assert.InDelta(t, 3.0, got, 1e-9)
}

func TestHelpers_ArgumentErrors(t *testing.T) {
	_, err := helper(t, "sum").Call(nil)
	assert.ErrorContains(t, err, "want 1")

	_, err = helper(t, "sum").Call([]any{"not a list"})
	assert.ErrorContains(t, err, "must be a list")

	_, err = helper(t, "quantile").Call([]any{[]any{1.0}, 2.0})
	assert.ErrorContains(t, err, "[0, 1]")
}
