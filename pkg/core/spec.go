package core

import "time"

// Spec is a visualization configuration: a plain tree of maps, slices and
// scalars handed to the rendering engine as-is.
type Spec map[string]any

// DatasetKey is the top-level key holding dataset entries.
const DatasetKey = "dataset"

// PrimaryDatasetID identifies the dataset entry bound to the current rows.
const PrimaryDatasetID = "data"

// Clone returns a deep copy of s. Surfaces receive clones so that a later
// mutation of one snapshot never reaches another surface.
func (s Spec) Clone() Spec {
	if s == nil {
		return nil
	}
	return Spec(cloneMap(s))
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = CloneValue(v)
	}
	return out
}

// CloneValue deep-copies maps and slices inside v. Scalars are returned as is.
func CloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneMap(val)
	case Spec:
		return Spec(cloneMap(val))
	case Row:
		return Row(cloneMap(val))
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = CloneValue(item)
		}
		return out
	case []Row:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Row(cloneMap(item))
		}
		return out
	case []string:
		out := make([]string, len(val))
		copy(out, val)
		return out
	case []byte:
		out := make([]byte, len(val))
		copy(out, val)
		return out
	case time.Time:
		return val
	default:
		return val
	}
}
