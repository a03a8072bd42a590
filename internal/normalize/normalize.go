// Package normalize guarantees that every configuration handed to the
// rendering engine carries the primary "data" dataset.
package normalize

import (
	"github.com/leapstack-labs/leapchart/internal/template"
	"github.com/leapstack-labs/leapchart/pkg/core"
)

// Apply returns a copy of cfg whose dataset list starts with
// {id: "data", source: rows}. A dataset list that already starts with the
// primary entry is left untouched, so Apply is idempotent. User dataset
// entries keep their order after the primary one.
func Apply(cfg any, rows []any) (core.Spec, error) {
	var obj map[string]any
	switch v := cfg.(type) {
	case core.Spec:
		obj = v
	case map[string]any:
		obj = v
	default:
		return nil, template.NewConfigShapeErrorf("configuration must be an object, got %T", cfg)
	}

	var datasets []any
	switch ds := obj[core.DatasetKey].(type) {
	case nil:
	case []any:
		datasets = ds
	case []map[string]any:
		for _, d := range ds {
			datasets = append(datasets, d)
		}
	default:
		return nil, template.NewConfigShapeErrorf("%s must be an array, got %T", core.DatasetKey, ds)
	}

	out := make(core.Spec, len(obj)+1)
	for k, v := range obj {
		out[k] = v
	}

	if len(datasets) > 0 && isPrimary(datasets[0]) {
		out[core.DatasetKey] = datasets
		return out, nil
	}

	if rows == nil {
		rows = []any{}
	}
	primary := map[string]any{"id": core.PrimaryDatasetID, "source": rows}
	out[core.DatasetKey] = append([]any{primary}, datasets...)
	return out, nil
}

func isPrimary(v any) bool {
	var entry map[string]any
	switch d := v.(type) {
	case map[string]any:
		entry = d
	case core.Spec:
		entry = d
	default:
		return false
	}
	id, _ := entry["id"].(string)
	return id == core.PrimaryDatasetID
}
