package starlark

import (
	"fmt"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// entryPoint is the name of the function every template is compiled into.
const entryPoint = "__chart_template__"

// fileOptions enables the full Starlark dialect for dynamic-code templates.
var fileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
	Recursion:       true,
}

// Program is a dynamic-code template compiled into a Starlark function whose
// parameters are the injected names.
//
// Trust boundary: the template runs with every injected helper and the full
// Starlark language. Its author is trusted as much as the user running
// leapchart. Compile and Call are the only way template text becomes code.
type Program struct {
	name   string
	params []string
	fn     *starlark.Function
}

// Compile turns src into a Program taking params in order. A src that is a
// single expression evaluates to that expression; otherwise src is a
// function body that may return a value.
func Compile(name, src string, params []string) (*Program, error) {
	seen := make(map[string]struct{}, len(params))
	for _, p := range params {
		if _, dup := seen[p]; dup {
			return nil, fmt.Errorf("duplicate parameter %q", p)
		}
		seen[p] = struct{}{}
	}

	wrapped := "def " + entryPoint + "(" + strings.Join(params, ", ") + "):\n" + functionBody(name, src)

	thread := &starlark.Thread{Name: "compile:" + name}
	globals, err := starlark.ExecFileOptions(fileOptions, thread, name, wrapped, nil)
	if err != nil {
		return nil, err
	}
	fn, ok := globals[entryPoint].(*starlark.Function)
	if !ok {
		return nil, fmt.Errorf("template %s did not compile to a function", name)
	}

	return &Program{name: name, params: append([]string{}, params...), fn: fn}, nil
}

func functionBody(name, src string) string {
	if strings.TrimSpace(src) == "" {
		return "    return None\n"
	}
	if _, err := fileOptions.ParseExpr(name, src, 0); err == nil {
		return "    return (" + src + "\n    )\n"
	}

	var b strings.Builder
	for _, line := range strings.Split(src, "\n") {
		if strings.TrimSpace(line) != "" {
			b.WriteString("    ")
			b.WriteString(line)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// Name returns the template name used in error positions.
func (p *Program) Name() string { return p.name }

// Params returns the parameter names in call order.
func (p *Program) Params() []string { return p.params }

// Call runs the program with args bound positionally to Params.
func (p *Program) Call(thread *starlark.Thread, args []starlark.Value) (starlark.Value, error) {
	if len(args) != len(p.params) {
		return nil, fmt.Errorf("template %s: got %d arguments, want %d", p.name, len(args), len(p.params))
	}
	return starlark.Call(thread, p.fn, starlark.Tuple(args), nil)
}
