package source

import (
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/marcboeker/go-duckdb"
)

// Normalize converts a driver value into the plain scalar tree templates
// see: nil, bool, int64, float64, string, time.Time, []any and
// map[string]any.
func Normalize(v any) any {
	switch val := v.(type) {
	case nil, bool, int64, float64, string, time.Time:
		return val
	case []byte:
		return string(val)
	case int:
		return int64(val)
	case int8:
		return int64(val)
	case int16:
		return int64(val)
	case int32:
		return int64(val)
	case uint8:
		return int64(val)
	case uint16:
		return int64(val)
	case uint32:
		return int64(val)
	case uint64:
		if val <= 1<<63-1 {
			return int64(val)
		}
		return float64(val)
	case float32:
		return float64(val)
	case *big.Int:
		if val.IsInt64() {
			return val.Int64()
		}
		f, _ := new(big.Float).SetInt(val).Float64()
		return f
	case duckdb.Decimal:
		return val.Float64()
	case duckdb.UUID:
		return uuid.UUID(val).String()
	case duckdb.Interval:
		return fmt.Sprintf("%d months %d days %d us", val.Months, val.Days, val.Micros)
	case duckdb.Map:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprint(k)] = Normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = Normalize(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = Normalize(item)
		}
		return out
	case fmt.Stringer:
		return val.String()
	default:
		return val
	}
}
