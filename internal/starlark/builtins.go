package starlark

import (
	"fmt"

	"github.com/leapstack-labs/leapchart/internal/vars"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

// HelperBuiltin wraps a helper as a Starlark builtin. Arguments are
// converted to Go values, so lists, tuples and dicts are all accepted.
func HelperBuiltin(h vars.Helper) *starlark.Builtin {
	return starlark.NewBuiltin(h.Name, func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		if len(kwargs) > 0 {
			return nil, fmt.Errorf("%s: unexpected keyword arguments", b.Name())
		}
		goArgs := make([]any, len(args))
		for i, arg := range args {
			v, err := ToGo(arg)
			if err != nil {
				return nil, fmt.Errorf("%s: argument %d: %w", b.Name(), i+1, err)
			}
			goArgs[i] = v
		}
		result, err := h.Call(goArgs)
		if err != nil {
			return nil, err
		}
		return GoToStarlark(result)
	})
}

// Functions converts the context's helpers and macros into bindings, in
// that order: built-in helpers first, then macro namespaces.
func Functions(ctx *vars.Context) []vars.Binding {
	out := make([]vars.Binding, 0, len(ctx.Helpers)+len(ctx.Macros))
	for _, h := range ctx.Helpers {
		out = append(out, vars.Binding{Name: h.Name, Value: HelperBuiltin(h)})
	}
	out = append(out, ctx.Macros...)
	return out
}

// ModuleBindings turns loaded macro namespaces into struct values so a
// template can call namespace.function(...).
func ModuleBindings(namespaces map[string]starlark.StringDict, order []string) []vars.Binding {
	out := make([]vars.Binding, 0, len(order))
	for _, name := range order {
		exports, ok := namespaces[name]
		if !ok {
			continue
		}
		out = append(out, vars.Binding{
			Name:  name,
			Value: starlarkstruct.FromStringDict(starlark.String(name), exports),
		})
	}
	return out
}
