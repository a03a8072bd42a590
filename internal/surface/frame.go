package surface

import "sync"

type frameTask struct {
	fn        func()
	cancelled bool
}

// FrameQueue is a FIFO of work deferred to the next frame.
type FrameQueue struct {
	// Panicked receives the value of a task that panicked. The remaining
	// tasks of the batch still run.
	Panicked func(v any)

	mu      sync.Mutex
	pending []*frameTask
}

// Schedule queues fn for the next Flush. The returned cancel func removes
// it if it has not run yet.
func (q *FrameQueue) Schedule(fn func()) (cancel func()) {
	task := &frameTask{fn: fn}
	q.mu.Lock()
	q.pending = append(q.pending, task)
	q.mu.Unlock()
	return func() {
		q.mu.Lock()
		task.cancelled = true
		q.mu.Unlock()
	}
}

// Len returns the number of queued tasks, cancelled ones included.
func (q *FrameQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Flush runs the tasks queued before the call, in order. Tasks scheduled
// while flushing wait for the next Flush. It returns how many tasks ran,
// panicking ones included.
func (q *FrameQueue) Flush() int {
	q.mu.Lock()
	batch := q.pending
	q.pending = nil
	q.mu.Unlock()

	ran := 0
	for _, task := range batch {
		q.mu.Lock()
		skip := task.cancelled
		q.mu.Unlock()
		if skip {
			continue
		}
		q.run(task.fn)
		ran++
	}
	return ran
}

func (q *FrameQueue) run(fn func()) {
	defer func() {
		if r := recover(); r != nil && q.Panicked != nil {
			q.Panicked(r)
		}
	}()
	fn()
}
