package starlark

import (
	"log/slog"

	"go.starlark.net/starlark"
)

// DefaultMaxSteps bounds a single template evaluation.
const DefaultMaxSteps uint64 = 10_000_000

// NewThread creates a thread for one template evaluation. print() output is
// routed to the logger at debug level; maxSteps of 0 means DefaultMaxSteps.
func NewThread(name string, maxSteps uint64, logger *slog.Logger) *starlark.Thread {
	if maxSteps == 0 {
		maxSteps = DefaultMaxSteps
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	thread := &starlark.Thread{
		Name: name,
		Print: func(_ *starlark.Thread, msg string) {
			logger.Debug("template print", "template", name, "msg", msg)
		},
	}
	thread.SetMaxExecutionSteps(maxSteps)
	return thread
}
