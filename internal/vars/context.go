// Package vars builds the evaluation context templates run against: one
// array per result column, the raw rows, the column names and a fixed set of
// helper functions.
package vars

import (
	"github.com/leapstack-labs/leapchart/internal/ident"
	"github.com/leapstack-labs/leapchart/pkg/core"
)

// Names under which the raw rows and the column names are bound.
const (
	DataName    = "data"
	ColumnsName = "columns"
)

// Binding is one named value injected into an evaluator.
type Binding struct {
	Name  string
	Value any
}

// Context is the per-render-cycle set of values available to a template.
// It is rebuilt from every ResultSet and never mutated afterwards.
type Context struct {
	// Columns are the original column names, in result order.
	Columns []string

	// Idents are the sanitized binding names, parallel to Columns.
	Idents []string

	// Values holds each column's values across all rows, parallel to Columns.
	Values [][]any

	// Rows is the raw row sequence.
	Rows []any

	// Helpers are the built-in helper functions.
	Helpers []Helper

	// Macros are additional named functions (e.g. loaded Starlark modules).
	// They follow Helpers in binding order.
	Macros []Binding

	// Fragments are named reusable configuration fragments.
	Fragments []Binding
}

// Option configures Build.
type Option func(*Context)

// WithFragments adds reusable configuration fragments in the given order.
func WithFragments(fragments []Binding) Option {
	return func(c *Context) {
		c.Fragments = append(c.Fragments, fragments...)
	}
}

// WithMacros adds named functions bound after the built-in helpers.
func WithMacros(macros []Binding) Option {
	return func(c *Context) {
		c.Macros = append(c.Macros, macros...)
	}
}

// Build derives a Context from rs. It tolerates nil, zero rows and zero
// columns, returning empty arrays rather than failing.
func Build(rs *core.ResultSet, opts ...Option) *Context {
	var columns []string
	if rs != nil {
		columns = rs.Columns
	}

	ctx := &Context{
		Columns: append([]string{}, columns...),
		Idents:  ident.Assign(columns),
		Values:  make([][]any, len(columns)),
		Rows:    rs.RowValues(),
		Helpers: Helpers(),
	}
	for i, col := range columns {
		ctx.Values[i] = rs.Column(col)
	}

	for _, opt := range opts {
		opt(ctx)
	}
	return ctx
}

// Column returns the values of the column with the given original name.
func (c *Context) Column(name string) ([]any, bool) {
	for i, col := range c.Columns {
		if col == name {
			return c.Values[i], true
		}
	}
	return nil, false
}

// ColumnNames returns the column names as a generic list.
func (c *Context) ColumnNames() []any {
	out := make([]any, len(c.Columns))
	for i, col := range c.Columns {
		out[i] = col
	}
	return out
}

// Variables returns column arrays keyed by sanitized identifier, in column
// order.
func (c *Context) Variables() []Binding {
	out := make([]Binding, len(c.Columns))
	for i := range c.Columns {
		out[i] = Binding{Name: c.Idents[i], Value: c.Values[i]}
	}
	return out
}
