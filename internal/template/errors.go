package template

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks. Every typed error below matches
// exactly one of them.
var (
	ErrModeRequired    = errors.New("advanced mode required")
	ErrTemplateSyntax  = errors.New("template syntax error")
	ErrUnknownVariable = errors.New("unknown variable")
	ErrEvaluation      = errors.New("template evaluation failed")
	ErrConfigShape     = errors.New("invalid configuration shape")
)

// Position tracks source location for error reporting.
type Position struct {
	File   string
	Line   int
	Column int
}

func (p Position) String() string {
	if p.File != "" {
		return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Error is implemented by template errors that carry a source position.
type Error interface {
	error
	Position() Position
}

// baseError provides common position handling.
type baseError struct {
	pos Position
	msg string
}

func (e *baseError) Position() Position { return e.pos }
func (e *baseError) Error() string {
	return fmt.Sprintf("%s: %s", e.pos, e.msg)
}

// ModeRequiredError is returned when a script-like template is evaluated
// without the advanced mode flag. It is raised before any parsing.
type ModeRequiredError struct {
	Template string
}

func (e *ModeRequiredError) Error() string {
	return "to process dynamic-code templates, set the ADVANCED MODE flag (isAdvancedMode)"
}

func (e *ModeRequiredError) Is(target error) bool { return target == ErrModeRequired }

// TemplateSyntaxError indicates a declarative template that does not parse
// as an object literal.
type TemplateSyntaxError struct {
	baseError
}

// NewTemplateSyntaxError creates a new syntax error.
func NewTemplateSyntaxError(pos Position, msg string) *TemplateSyntaxError {
	return &TemplateSyntaxError{baseError: baseError{pos: pos, msg: msg}}
}

func (e *TemplateSyntaxError) Is(target error) bool { return target == ErrTemplateSyntax }

// UnknownVariableError indicates a declarative reference to a name that is
// not in the evaluation context.
type UnknownVariableError struct {
	baseError
	Name string
}

// NewUnknownVariableError creates a new unknown variable error.
func NewUnknownVariableError(pos Position, name string) *UnknownVariableError {
	return &UnknownVariableError{
		baseError: baseError{pos: pos, msg: fmt.Sprintf("unknown variable %q", name)},
		Name:      name,
	}
}

func (e *UnknownVariableError) Is(target error) bool { return target == ErrUnknownVariable }

// EvaluationError wraps the original failure of a template that compiled or
// ran with an error.
type EvaluationError struct {
	Template string
	Mode     Mode
	Cause    error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluating %s template %s: %v", e.Mode, e.Template, e.Cause)
}

func (e *EvaluationError) Unwrap() error { return e.Cause }

func (e *EvaluationError) Is(target error) bool { return target == ErrEvaluation }

// ConfigShapeError indicates a result that is not a usable configuration
// object, or a configuration whose dataset is malformed.
type ConfigShapeError struct {
	Msg string
}

// NewConfigShapeErrorf creates a new shape error with formatting.
func NewConfigShapeErrorf(format string, args ...any) *ConfigShapeError {
	return &ConfigShapeError{Msg: fmt.Sprintf(format, args...)}
}

func (e *ConfigShapeError) Error() string {
	return "issue with parsing config: " + e.Msg
}

func (e *ConfigShapeError) Is(target error) bool { return target == ErrConfigShape }
