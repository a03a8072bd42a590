package template

import (
	"github.com/leapstack-labs/leapchart/internal/ident"
	starctx "github.com/leapstack-labs/leapchart/internal/starlark"
	"github.com/leapstack-labs/leapchart/internal/vars"
	"go.starlark.net/starlark"
)

// dynamicBindings returns the names injected into a dynamic-code template:
// helpers, macros, column arrays, data, columns, then fragments.
func dynamicBindings(ctx *vars.Context) []vars.Binding {
	groups := [][]vars.Binding{starctx.Functions(ctx)}
	groups = append(groups, dataBindings(ctx)...)
	groups = append(groups, ctx.Fragments)

	list := Bindings(groups...)
	out := list[:0]
	for _, b := range list {
		// A name Starlark cannot bind would fail compilation of the
		// whole template.
		if ident.Valid(b.Name) {
			out = append(out, b)
		}
	}
	return out
}

func (e *Evaluator) evalDynamic(t Template, ctx *vars.Context) (any, error) {
	bindings := dynamicBindings(ctx)
	names := make([]string, len(bindings))
	args := make([]starlark.Value, len(bindings))
	for i, b := range bindings {
		sv, err := starctx.GoToStarlark(b.Value)
		if err != nil {
			return nil, &EvaluationError{Template: t.Name, Mode: ModeDynamic, Cause: err}
		}
		names[i] = b.Name
		args[i] = sv
	}

	prog, err := e.program(t, names)
	if err != nil {
		return nil, &EvaluationError{Template: t.Name, Mode: ModeDynamic, Cause: err}
	}

	thread := starctx.NewThread(t.Name, e.maxSteps, e.logger)
	result, err := prog.Call(thread, args)
	if err != nil {
		return nil, &EvaluationError{Template: t.Name, Mode: ModeDynamic, Cause: err}
	}

	out, err := starctx.ToGo(result)
	if err != nil {
		return nil, NewConfigShapeErrorf("template %s returned %s: %v", t.Name, result.Type(), err)
	}
	return out, nil
}
