package macro

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.starlark.net/syntax"
)

// Function describes one public function of a macro file.
type Function struct {
	Name   string   `json:"name"`
	Params []string `json:"params"` // with defaults, e.g. "digits=2"
	Doc    string   `json:"doc,omitempty"`
	Line   int      `json:"line"`
}

// Signature renders the function as name(params).
func (f Function) Signature() string {
	return f.Name + "(" + strings.Join(f.Params, ", ") + ")"
}

// Namespace describes a macro file without executing it.
type Namespace struct {
	Name      string     `json:"name"`
	Path      string     `json:"path"`
	Functions []Function `json:"functions"`
}

// Describe statically parses a macro file and lists its public functions.
func Describe(path string, content []byte) (*Namespace, error) {
	f, err := syntax.Parse(path, content, 0)
	if err != nil {
		return nil, &LoadError{File: path, Message: err.Error()}
	}

	ns := &Namespace{Name: strings.TrimSuffix(filepath.Base(path), Ext), Path: path}
	for _, stmt := range f.Stmts {
		def, ok := stmt.(*syntax.DefStmt)
		if !ok || strings.HasPrefix(def.Name.Name, "_") {
			continue
		}
		ns.Functions = append(ns.Functions, Function{
			Name:   def.Name.Name,
			Params: params(def.Params),
			Doc:    docstring(def.Body),
			Line:   int(def.Name.NamePos.Line),
		})
	}
	return ns, nil
}

// DescribeDir describes every macro file in dir, sorted by namespace.
func DescribeDir(dir string) ([]*Namespace, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*"+Ext))
	if err != nil {
		return nil, fmt.Errorf("scanning macros directory: %w", err)
	}
	sort.Strings(files)

	out := make([]*Namespace, 0, len(files))
	for _, file := range files {
		content, err := os.ReadFile(file) //nolint:gosec // G304: path comes from a glob within the macros directory
		if err != nil {
			return nil, err
		}
		ns, err := Describe(file, content)
		if err != nil {
			return nil, err
		}
		out = append(out, ns)
	}
	return out, nil
}

func params(list []syntax.Expr) []string {
	out := make([]string, 0, len(list))
	for _, param := range list {
		switch p := param.(type) {
		case *syntax.Ident:
			out = append(out, p.Name)
		case *syntax.BinaryExpr:
			if id, ok := p.X.(*syntax.Ident); ok && p.Op == syntax.EQ {
				out = append(out, id.Name+"="+exprString(p.Y))
			}
		case *syntax.UnaryExpr:
			prefix := "*"
			if p.Op == syntax.STARSTAR {
				prefix = "**"
			}
			if id, ok := p.X.(*syntax.Ident); ok {
				out = append(out, prefix+id.Name)
			} else {
				out = append(out, prefix)
			}
		}
	}
	return out
}

func docstring(body []syntax.Stmt) string {
	if len(body) == 0 {
		return ""
	}
	stmt, ok := body[0].(*syntax.ExprStmt)
	if !ok {
		return ""
	}
	lit, ok := stmt.X.(*syntax.Literal)
	if !ok || lit.Token != syntax.STRING {
		return ""
	}
	s, _ := lit.Value.(string)
	return strings.TrimSpace(s)
}

func exprString(expr syntax.Expr) string {
	switch e := expr.(type) {
	case *syntax.Literal:
		return e.Raw
	case *syntax.Ident:
		return e.Name
	case *syntax.ListExpr:
		return "[]"
	case *syntax.DictExpr:
		return "{}"
	case *syntax.TupleExpr:
		return "()"
	case *syntax.UnaryExpr:
		if e.Op == syntax.MINUS {
			return "-" + exprString(e.X)
		}
		return exprString(e.X)
	default:
		return "..."
	}
}
