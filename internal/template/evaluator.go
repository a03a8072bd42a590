package template

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	starctx "github.com/leapstack-labs/leapchart/internal/starlark"
	"github.com/leapstack-labs/leapchart/internal/vars"
	"github.com/leapstack-labs/leapchart/pkg/core"
)

// maxCachedPrograms bounds the compiled program cache. The cache is reset
// once it fills up.
const maxCachedPrograms = 128

// Options configures an Evaluator.
type Options struct {
	Logger   *slog.Logger
	MaxSteps uint64 // per dynamic evaluation; 0 means starctx.DefaultMaxSteps
}

// Evaluator turns templates into configuration values. It is safe for
// concurrent use.
type Evaluator struct {
	logger   *slog.Logger
	maxSteps uint64

	mu       sync.Mutex
	programs map[string]*starctx.Program
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(opts Options) *Evaluator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Evaluator{
		logger:   logger,
		maxSteps: opts.MaxSteps,
		programs: make(map[string]*starctx.Program),
	}
}

// Run evaluates t against ctx and returns whatever the template produced,
// without checking its shape. flags decide the strategy.
func (e *Evaluator) Run(t Template, ctx *vars.Context, flags core.Flags) (any, error) {
	if ctx == nil {
		ctx = vars.Build(nil)
	}

	mode, err := SelectMode(t, flags.AdvancedMode())
	if err != nil {
		e.logger.Warn("template needs advanced mode", "template", t.Name)
		return nil, err
	}

	var out any
	switch mode {
	case ModeDynamic:
		out, err = e.evalDynamic(t, ctx)
	default:
		out, err = e.evalDeclarative(t, ctx)
	}
	if err != nil {
		e.logger.Error("template evaluation failed", "template", t.Name, "mode", mode.String(), "error", err)
		return nil, err
	}

	e.logger.Debug("template evaluated", "template", t.Name, "mode", mode.String())
	return out, nil
}

// Evaluate is Run followed by a check that the result is an object.
func (e *Evaluator) Evaluate(t Template, ctx *vars.Context, flags core.Flags) (map[string]any, error) {
	out, err := e.Run(t, ctx, flags)
	if err != nil {
		return nil, err
	}
	obj, ok := out.(map[string]any)
	if !ok {
		return nil, NewConfigShapeErrorf("template %s produced %s, want an object", t.Name, describe(out))
	}
	return obj, nil
}

func (e *Evaluator) evalDeclarative(t Template, ctx *vars.Context) (any, error) {
	evalCtx, err := declarativeContext(ctx)
	if err != nil {
		return nil, &EvaluationError{Template: t.Name, Mode: ModeDeclarative, Cause: err}
	}
	return evalObjectLiteral(t.Name, t.Source, evalCtx)
}

// program returns the compiled program for t with the given parameter list,
// compiling on a cache miss.
func (e *Evaluator) program(t Template, params []string) (*starctx.Program, error) {
	key := t.Name + "\x00" + strings.Join(params, ",") + "\x00" + t.Source

	e.mu.Lock()
	prog, ok := e.programs[key]
	e.mu.Unlock()
	if ok {
		return prog, nil
	}

	prog, err := starctx.Compile(t.Name, t.Source, params)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	if len(e.programs) >= maxCachedPrograms {
		clear(e.programs)
	}
	e.programs[key] = prog
	e.mu.Unlock()
	return prog, nil
}

// describe names the kind of a Go value for shape error messages.
func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "a string"
	case bool:
		return "a boolean"
	case int, int64, float64:
		return "a number"
	case []any:
		return "an array"
	case map[string]any:
		return "an object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
