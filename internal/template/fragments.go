package template

import (
	"fmt"

	"github.com/leapstack-labs/leapchart/internal/vars"
	"github.com/leapstack-labs/leapchart/pkg/core"
)

// ParseFragments parses persisted fragments into bindings, preserving order.
// The first fragment that fails to parse aborts the whole list.
func ParseFragments(configs []core.ChartConfig) ([]vars.Binding, error) {
	out := make([]vars.Binding, 0, len(configs))
	for _, cfg := range configs {
		obj, err := ParseFragment(cfg.Name, cfg.Config)
		if err != nil {
			return nil, fmt.Errorf("fragment %s: %w", cfg.Name, err)
		}
		out = append(out, vars.Binding{Name: cfg.Name, Value: obj})
	}
	return out, nil
}
