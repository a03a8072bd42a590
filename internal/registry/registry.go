// Package registry connects extensions to a host that may not be ready yet.
// Registrations made before the host publishes its API are queued and
// delivered once on Publish; later registrations are delivered immediately.
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// DefaultMaxQueued bounds the number of registrations waiting for Publish.
const DefaultMaxQueued = 64

// Registry errors.
var (
	ErrQueueFull        = errors.New("registration queue is full")
	ErrAlreadyPublished = errors.New("host API already published")
	ErrEmptyID          = errors.New("subscriber ID is required")
)

// Options configures a Registry.
type Options struct {
	MaxQueued int
	Logger    *slog.Logger
}

type subscriber[A any] struct {
	id  string
	run func(A) error
}

// Registry delivers a host API of type A to subscribers identified by ID.
// Each ID is delivered at most once; registering an ID again is a no-op.
type Registry[A any] struct {
	mu        sync.Mutex
	logger    *slog.Logger
	maxQueued int

	api       A
	published bool
	queue     []subscriber[A]
	seen      map[string]struct{}
}

// New creates an empty registry.
func New[A any](opts Options) *Registry[A] {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	maxQueued := opts.MaxQueued
	if maxQueued <= 0 {
		maxQueued = DefaultMaxQueued
	}
	return &Registry[A]{
		logger:    logger,
		maxQueued: maxQueued,
		seen:      make(map[string]struct{}),
	}
}

// Register subscribes run under id. If the API is already published run
// is called before Register returns.
func (r *Registry[A]) Register(id string, run func(A) error) error {
	if id == "" {
		return ErrEmptyID
	}

	r.mu.Lock()
	if _, dup := r.seen[id]; dup {
		r.mu.Unlock()
		r.logger.Debug("registration ignored, already registered", "subscriber", id)
		return nil
	}
	if !r.published {
		if len(r.queue) >= r.maxQueued {
			r.mu.Unlock()
			return fmt.Errorf("registering %s: %w", id, ErrQueueFull)
		}
		r.seen[id] = struct{}{}
		r.queue = append(r.queue, subscriber[A]{id: id, run: run})
		r.mu.Unlock()
		r.logger.Debug("registration queued", "subscriber", id)
		return nil
	}
	r.seen[id] = struct{}{}
	api := r.api
	r.mu.Unlock()

	return r.deliver(subscriber[A]{id: id, run: run}, api)
}

// Publish makes api available and delivers it to every queued subscriber
// in registration order. Errors from subscribers are joined; a failing
// subscriber does not stop the others.
func (r *Registry[A]) Publish(api A) error {
	r.mu.Lock()
	if r.published {
		r.mu.Unlock()
		return ErrAlreadyPublished
	}
	r.api = api
	r.published = true
	queue := r.queue
	r.queue = nil
	r.mu.Unlock()

	var errs []error
	for _, sub := range queue {
		if err := r.deliver(sub, api); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Published reports whether Publish has been called.
func (r *Registry[A]) Published() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.published
}

// Pending returns the number of queued registrations.
func (r *Registry[A]) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}

func (r *Registry[A]) deliver(sub subscriber[A], api A) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("subscriber %s panicked: %v", sub.id, p)
		}
		if err != nil {
			r.logger.Error("delivering host API failed", "subscriber", sub.id, "error", err)
		}
	}()
	if err := sub.run(api); err != nil {
		return fmt.Errorf("subscriber %s: %w", sub.id, err)
	}
	r.logger.Debug("host API delivered", "subscriber", sub.id)
	return nil
}
