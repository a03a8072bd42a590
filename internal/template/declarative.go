package template

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/leapstack-labs/leapchart/internal/vars"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// stdFunctions are the general-purpose functions available to declarative
// templates in addition to the helpers.
var stdFunctions = map[string]function.Function{
	"concat":     stdlib.ConcatFunc,
	"format":     stdlib.FormatFunc,
	"jsonencode": stdlib.JSONEncodeFunc,
	"keys":       stdlib.KeysFunc,
	"length":     stdlib.LengthFunc,
	"lower":      stdlib.LowerFunc,
	"merge":      stdlib.MergeFunc,
	"range":      stdlib.RangeFunc,
	"slice":      stdlib.SliceFunc,
	"upper":      stdlib.UpperFunc,
	"values":     stdlib.ValuesFunc,
}

// helperFunction adapts a helper to a cty function taking any arguments.
func helperFunction(h vars.Helper) function.Function {
	return function.New(&function.Spec{
		Description: h.Doc,
		VarParam: &function.Parameter{
			Name:             "args",
			Type:             cty.DynamicPseudoType,
			AllowNull:        true,
			AllowDynamicType: true,
		},
		Type: function.StaticReturnType(cty.DynamicPseudoType),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			goArgs := make([]any, len(args))
			for i, arg := range args {
				v, err := fromCty(arg)
				if err != nil {
					return cty.NilVal, fmt.Errorf("argument %d: %w", i+1, err)
				}
				goArgs[i] = v
			}
			result, err := h.Call(goArgs)
			if err != nil {
				return cty.NilVal, err
			}
			return toCty(result)
		},
	})
}

// declarativeContext builds the HCL evaluation context. Functions live in
// their own namespace; variables follow the same first-wins order as the
// dynamic strategy.
func declarativeContext(ctx *vars.Context, extra ...[]vars.Binding) (*hcl.EvalContext, error) {
	functions := make(map[string]function.Function, len(stdFunctions)+len(ctx.Helpers))
	for name, fn := range stdFunctions {
		functions[name] = fn
	}
	for _, h := range ctx.Helpers {
		functions[h.Name] = helperFunction(h)
	}

	groups := append(dataBindings(ctx), extra...)
	variables := make(map[string]cty.Value)
	for _, b := range Bindings(groups...) {
		cv, err := toCty(b.Value)
		if err != nil {
			return nil, fmt.Errorf("variable %q: %w", b.Name, err)
		}
		variables[b.Name] = cv
	}

	return &hcl.EvalContext{Variables: variables, Functions: functions}, nil
}

// evalObjectLiteral parses src as an HCL object constructor and evaluates
// it against evalCtx.
func evalObjectLiteral(name, src string, evalCtx *hcl.EvalContext) (any, error) {
	expr, diags := hclsyntax.ParseExpression([]byte(src), name, hcl.InitialPos)
	if diags.HasErrors() {
		return nil, syntaxError(name, diags)
	}
	if _, ok := expr.(*hclsyntax.ObjectConsExpr); !ok {
		return nil, NewTemplateSyntaxError(toPosition(name, expr.StartRange().Start), "template must be an object literal")
	}

	for _, trav := range expr.Variables() {
		root := trav.RootName()
		if _, ok := evalCtx.Variables[root]; !ok {
			err := NewUnknownVariableError(toPosition(name, trav.SourceRange().Start), root)
			if known := sortedKeys(evalCtx.Variables); len(known) > 0 {
				err.msg += fmt.Sprintf(" (available: %s)", strings.Join(known, ", "))
			}
			return nil, err
		}
	}

	val, diags := expr.Value(evalCtx)
	if diags.HasErrors() {
		return nil, &EvaluationError{Template: name, Mode: ModeDeclarative, Cause: diags}
	}
	return fromCty(val)
}

func syntaxError(name string, diags hcl.Diagnostics) *TemplateSyntaxError {
	for _, d := range diags {
		if d.Severity != hcl.DiagError {
			continue
		}
		pos := Position{File: name, Line: 1, Column: 1}
		if d.Subject != nil {
			pos = toPosition(name, d.Subject.Start)
		}
		msg := d.Summary
		if d.Detail != "" {
			msg += "; " + d.Detail
		}
		return NewTemplateSyntaxError(pos, msg)
	}
	return NewTemplateSyntaxError(Position{File: name, Line: 1, Column: 1}, diags.Error())
}

func toPosition(name string, p hcl.Pos) Position {
	return Position{File: name, Line: p.Line, Column: p.Column}
}

// ParseFragment parses a persisted, loosely formatted configuration fragment.
// No variables are in scope; the general-purpose functions are.
func ParseFragment(name, src string) (map[string]any, error) {
	evalCtx := &hcl.EvalContext{Functions: stdFunctions}
	out, err := evalObjectLiteral(name, strings.TrimSpace(src), evalCtx)
	if err != nil {
		return nil, err
	}
	obj, ok := out.(map[string]any)
	if !ok {
		return nil, NewConfigShapeErrorf("fragment %s is %s, want an object", name, describe(out))
	}
	return obj, nil
}
