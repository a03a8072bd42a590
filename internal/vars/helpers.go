package vars

import (
	"fmt"
	"math"
	"time"

	"github.com/aclements/go-moremath/stats"
)

// Helper is a function available to every template regardless of the data
// shape. Arguments and results use the plain Go value tree (nil, bool,
// int64, float64, string, []any, map[string]any).
type Helper struct {
	Name    string
	Doc     string
	MinArgs int
	MaxArgs int
	Fn      func(args []any) (any, error)
}

// Call checks the argument count and invokes the helper.
func (h Helper) Call(args []any) (any, error) {
	if len(args) < h.MinArgs || len(args) > h.MaxArgs {
		if h.MinArgs == h.MaxArgs {
			return nil, fmt.Errorf("%s: got %d arguments, want %d", h.Name, len(args), h.MinArgs)
		}
		return nil, fmt.Errorf("%s: got %d arguments, want %d to %d", h.Name, len(args), h.MinArgs, h.MaxArgs)
	}
	return h.Fn(args)
}

// Helpers returns the fixed helper set, in binding order.
func Helpers() []Helper {
	return []Helper{
		{Name: "sum", Doc: "sum(xs) adds the numeric values of xs", MinArgs: 1, MaxArgs: 1, Fn: aggregate("sum", func(s stats.Sample) float64 { return s.Sum() })},
		{Name: "mean", Doc: "mean(xs) is the arithmetic mean of the numeric values of xs", MinArgs: 1, MaxArgs: 1, Fn: aggregate("mean", func(s stats.Sample) float64 { return s.Mean() })},
		{Name: "median", Doc: "median(xs) is the 50th percentile of xs", MinArgs: 1, MaxArgs: 1, Fn: aggregate("median", func(s stats.Sample) float64 { return s.Sort().Quantile(0.5) })},
		{Name: "variance", Doc: "variance(xs) is the sample variance of xs", MinArgs: 1, MaxArgs: 1, Fn: aggregate("variance", func(s stats.Sample) float64 { return s.Variance() })},
		{Name: "stddev", Doc: "stddev(xs) is the sample standard deviation of xs", MinArgs: 1, MaxArgs: 1, Fn: aggregate("stddev", func(s stats.Sample) float64 { return s.StdDev() })},
		{Name: "quantile", Doc: "quantile(xs, q) is the q-th quantile of xs, q in [0, 1]", MinArgs: 2, MaxArgs: 2, Fn: quantile},
		{Name: "bounds", Doc: "bounds(xs) returns [min, max] of xs", MinArgs: 1, MaxArgs: 1, Fn: bounds},
		{Name: "count", Doc: "count(xs) counts the non-null values of xs", MinArgs: 1, MaxArgs: 1, Fn: count},
		{Name: "distinct", Doc: "distinct(xs) returns the unique values of xs in first-seen order", MinArgs: 1, MaxArgs: 1, Fn: distinct},
		{Name: "round", Doc: "round(x, digits=0) rounds x half away from zero", MinArgs: 1, MaxArgs: 2, Fn: round},
	}
}

// Float converts a numeric scalar to float64.
func Float(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

// numbers collects the numeric values of a list argument, skipping nulls
// and non-numeric entries.
func numbers(name string, v any) ([]float64, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("%s: argument must be a list, got %T", name, v)
	}
	xs := make([]float64, 0, len(list))
	for _, item := range list {
		if f, ok := Float(item); ok && !math.IsNaN(f) {
			xs = append(xs, f)
		}
	}
	return xs, nil
}

func aggregate(name string, fn func(stats.Sample) float64) func([]any) (any, error) {
	return func(args []any) (any, error) {
		xs, err := numbers(name, args[0])
		if err != nil {
			return nil, err
		}
		if len(xs) == 0 {
			return nil, nil
		}
		return fn(stats.Sample{Xs: xs}), nil
	}
}

func quantile(args []any) (any, error) {
	xs, err := numbers("quantile", args[0])
	if err != nil {
		return nil, err
	}
	q, ok := Float(args[1])
	if !ok || q < 0 || q > 1 {
		return nil, fmt.Errorf("quantile: q must be a number in [0, 1], got %v", args[1])
	}
	if len(xs) == 0 {
		return nil, nil
	}
	s := stats.Sample{Xs: xs}
	return s.Sort().Quantile(q), nil
}

func bounds(args []any) (any, error) {
	xs, err := numbers("bounds", args[0])
	if err != nil {
		return nil, err
	}
	if len(xs) == 0 {
		return []any{nil, nil}, nil
	}
	lo, hi := stats.Bounds(xs)
	return []any{lo, hi}, nil
}

func count(args []any) (any, error) {
	list, ok := args[0].([]any)
	if !ok {
		return nil, fmt.Errorf("count: argument must be a list, got %T", args[0])
	}
	var n int64
	for _, item := range list {
		if item != nil {
			n++
		}
	}
	return n, nil
}

func distinct(args []any) (any, error) {
	list, ok := args[0].([]any)
	if !ok {
		return nil, fmt.Errorf("distinct: argument must be a list, got %T", args[0])
	}
	seen := make(map[any]struct{}, len(list))
	out := make([]any, 0, len(list))
	for _, item := range list {
		key := item
		switch v := item.(type) {
		case []any, map[string]any:
			return nil, fmt.Errorf("distinct: unhashable value %T", v)
		case []byte:
			key = string(v)
		case time.Time:
			key = v.UnixNano()
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out, nil
}

func round(args []any) (any, error) {
	x, ok := Float(args[0])
	if !ok {
		if args[0] == nil {
			return nil, nil
		}
		return nil, fmt.Errorf("round: argument must be a number, got %T", args[0])
	}
	digits := 0.0
	if len(args) == 2 {
		d, ok := Float(args[1])
		if !ok {
			return nil, fmt.Errorf("round: digits must be a number, got %T", args[1])
		}
		digits = math.Trunc(d)
	}
	scale := math.Pow(10, digits)
	return math.Round(x*scale) / scale, nil
}
