// Package template turns a chart template plus the current evaluation
// context into a configuration object. Declarative templates are HCL object
// constructor expressions; dynamic-code templates are Starlark programs.
package template

import (
	"strings"

	"github.com/leapstack-labs/leapchart/internal/vars"
)

// Mode selects the evaluation strategy.
type Mode int

// Mode constants.
const (
	ModeDeclarative Mode = iota // object literal with variable references
	ModeDynamic                 // Starlark script body
)

func (m Mode) String() string {
	switch m {
	case ModeDeclarative:
		return "declarative"
	case ModeDynamic:
		return "dynamic"
	default:
		return "unknown"
	}
}

// Template is a user-authored chart template.
type Template struct {
	Name   string // used in error positions, e.g. a file name
	Source string
}

// New creates a template, trimming surrounding whitespace from src.
func New(name, src string) Template {
	return Template{Name: name, Source: strings.TrimSpace(src)}
}

// ObjectLike reports whether the trimmed source begins with '{'.
func (t Template) ObjectLike() bool {
	return strings.HasPrefix(strings.TrimSpace(t.Source), "{")
}

// SelectMode picks the strategy for t. Script-like templates require the
// advanced flag; that check happens before any parsing.
func SelectMode(t Template, advanced bool) (Mode, error) {
	if advanced {
		return ModeDynamic, nil
	}
	if !t.ObjectLike() {
		return ModeDeclarative, &ModeRequiredError{Template: t.Name}
	}
	return ModeDeclarative, nil
}

// Bindings flattens groups of bindings into one list, keeping the first
// occurrence of each name and silently dropping later duplicates.
func Bindings(groups ...[]vars.Binding) []vars.Binding {
	seen := make(map[string]struct{})
	var out []vars.Binding
	for _, group := range groups {
		for _, b := range group {
			if _, dup := seen[b.Name]; dup {
				continue
			}
			seen[b.Name] = struct{}{}
			out = append(out, b)
		}
	}
	return out
}

// dataBindings are the column arrays followed by the raw rows and the column
// names, the variable part shared by both strategies.
func dataBindings(ctx *vars.Context) [][]vars.Binding {
	return [][]vars.Binding{
		ctx.Variables(),
		{{Name: vars.DataName, Value: ctx.Rows}},
		{{Name: vars.ColumnsName, Value: ctx.ColumnNames()}},
	}
}
