// Package macro loads user helper macros. Every .star file in the macros
// directory becomes a namespace; its public globals are callable from
// dynamic-code templates as namespace.name(...).
package macro

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/leapstack-labs/leapchart/internal/ident"
	starctx "github.com/leapstack-labs/leapchart/internal/starlark"
	"github.com/leapstack-labs/leapchart/internal/vars"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// Ext is the macro file extension.
const Ext = ".star"

// Module is one loaded macro file.
type Module struct {
	Namespace string // file name without extension
	Path      string
	Exports   starlark.StringDict // globals not starting with _
}

// Loader loads macro files from a directory.
type Loader struct {
	dir      string
	logger   *slog.Logger
	maxSteps uint64
}

// NewLoader creates a loader for dir.
func NewLoader(dir string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Loader{dir: dir, logger: logger}
}

// WithMaxSteps bounds the execution of each macro file's top level.
func (l *Loader) WithMaxSteps(n uint64) *Loader {
	l.maxSteps = n
	return l
}

// Dir returns the directory the loader reads.
func (l *Loader) Dir() string { return l.dir }

// Load executes every macro file in the directory, in file name order.
// A missing directory yields no modules and no error.
func (l *Loader) Load() ([]*Module, error) {
	if l.dir == "" {
		return nil, nil
	}
	info, err := os.Stat(l.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("accessing macros directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("macros path is not a directory: %s", l.dir)
	}

	files, err := filepath.Glob(filepath.Join(l.dir, "*"+Ext))
	if err != nil {
		return nil, fmt.Errorf("scanning macros directory: %w", err)
	}
	sort.Strings(files)

	modules := make([]*Module, 0, len(files))
	for _, file := range files {
		module, err := l.loadFile(file)
		if err != nil {
			return nil, err
		}
		modules = append(modules, module)
		l.logger.Debug("macro loaded", "namespace", module.Namespace, "exports", len(module.Exports))
	}
	return modules, nil
}

func (l *Loader) loadFile(path string) (*Module, error) {
	content, err := os.ReadFile(path) //nolint:gosec // G304: path comes from a glob within the macros directory
	if err != nil {
		return nil, &LoadError{File: path, Message: fmt.Sprintf("reading file: %v", err)}
	}

	namespace := strings.TrimSuffix(filepath.Base(path), Ext)
	if err := validateNamespace(namespace); err != nil {
		return nil, &LoadError{File: path, Message: err.Error()}
	}

	thread := starctx.NewThread("load:"+namespace, l.maxSteps, l.logger)
	globals, err := starlark.ExecFileOptions(&syntax.FileOptions{Set: true, While: true, TopLevelControl: true, Recursion: true}, thread, path, content, nil)
	if err != nil {
		return nil, &LoadError{File: path, Message: err.Error()}
	}

	exports := make(starlark.StringDict, len(globals))
	for name, value := range globals {
		if !strings.HasPrefix(name, "_") {
			exports[name] = value
		}
	}
	exports.Freeze()

	return &Module{Namespace: namespace, Path: path, Exports: exports}, nil
}

// reservedNamespaces would shadow names every template relies on.
func reservedNamespaces() map[string]struct{} {
	reserved := map[string]struct{}{
		vars.DataName:    {},
		vars.ColumnsName: {},
	}
	for _, h := range vars.Helpers() {
		reserved[h.Name] = struct{}{}
	}
	return reserved
}

func validateNamespace(name string) error {
	if !ident.Valid(name) {
		return fmt.Errorf("namespace %q is not a valid identifier", name)
	}
	if _, ok := reservedNamespaces()[name]; ok {
		return fmt.Errorf("namespace %q is reserved", name)
	}
	return nil
}

// Bindings turns modules into namespace bindings, in module order.
func Bindings(modules []*Module) []vars.Binding {
	namespaces := make(map[string]starlark.StringDict, len(modules))
	order := make([]string, 0, len(modules))
	for _, m := range modules {
		namespaces[m.Namespace] = m.Exports
		order = append(order, m.Namespace)
	}
	return starctx.ModuleBindings(namespaces, order)
}

// LoadError is an error loading one macro file.
type LoadError struct {
	File    string
	Message string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("macros/%s: %s", filepath.Base(e.File), e.Message)
}
