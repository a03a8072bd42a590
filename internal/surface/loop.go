package surface

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrLoopClosed is returned when posting to a loop that has stopped.
var ErrLoopClosed = errors.New("surface loop closed")

// DefaultFrameInterval is the delay between frames while work is queued.
const DefaultFrameInterval = 16 * time.Millisecond

// LoopOptions configures a Loop.
type LoopOptions struct {
	Logger        *slog.Logger
	Buffer        int
	FrameInterval time.Duration
}

// Loop serializes every event of one mount onto a single goroutine. It
// implements Scheduler; frames and timers run on the loop too.
type Loop struct {
	logger   *slog.Logger
	events   chan func()
	frames   FrameQueue
	interval time.Duration
	done     chan struct{}
}

// NewLoop creates a loop. Call Run to start processing.
func NewLoop(opts LoopOptions) *Loop {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	buffer := opts.Buffer
	if buffer <= 0 {
		buffer = 64
	}
	interval := opts.FrameInterval
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	l := &Loop{
		logger:   logger,
		events:   make(chan func(), buffer),
		interval: interval,
		done:     make(chan struct{}),
	}
	l.frames.Panicked = func(v any) {
		l.logger.Error("surface frame panicked", "panic", v)
	}
	return l
}

// Post queues fn to run on the loop goroutine.
func (l *Loop) Post(fn func()) error {
	select {
	case <-l.done:
		return ErrLoopClosed
	default:
	}
	select {
	case l.events <- fn:
		return nil
	case <-l.done:
		return ErrLoopClosed
	}
}

// Call runs fn on the loop goroutine and waits for its result.
func (l *Loop) Call(ctx context.Context, fn func() error) error {
	result := make(chan error, 1)
	if err := l.Post(func() { result <- fn() }); err != nil {
		return err
	}
	select {
	case err := <-result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrLoopClosed
	}
}

// RequestFrame implements Scheduler.
func (l *Loop) RequestFrame(fn func()) (cancel func()) {
	return l.frames.Schedule(fn)
}

// After implements Scheduler.
func (l *Loop) After(d time.Duration, fn func()) (cancel func()) {
	timer := time.AfterFunc(d, func() {
		_ = l.Post(fn)
	})
	return func() { timer.Stop() }
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} { return l.done }

// Run processes events until ctx is cancelled. Queued frames run one
// interval after the event that scheduled them.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	var frame <-chan time.Time
	for {
		if frame == nil && l.frames.Len() > 0 {
			frame = time.After(l.interval)
		}
		select {
		case <-ctx.Done():
			return nil
		case fn := <-l.events:
			l.exec(fn)
		case <-frame:
			frame = nil
			l.frames.Flush()
		}
	}
}

func (l *Loop) exec(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("surface event panicked", "panic", r)
		}
	}()
	fn()
}
