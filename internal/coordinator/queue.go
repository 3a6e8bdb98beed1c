package coordinator

import "sync"

// taskQueue is a thread-safe FIFO queue of pending tasks.
//
// The queue is unbounded so that Submit never blocks or fails while the
// engine is busy or still initializing.
//
// The queue uses a channel for signaling so the executor can block while
// idle instead of polling; the buffer of one coalesces bursts of pushes.
type taskQueue struct {
	mu     sync.Mutex
	tasks  []*task
	closed bool
	signal chan struct{} // Signals task availability (buffered, size 1)
}

// newTaskQueue creates an empty task queue.
func newTaskQueue() *taskQueue {
	return &taskQueue{
		tasks:  make([]*task, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// push appends a task and returns the new queue length.
// Returns false if the queue is closed.
func (q *taskQueue) push(t *task) (int, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return len(q.tasks), false
	}

	q.tasks = append(q.tasks, t)

	select {
	case q.signal <- struct{}{}:
	default:
	}

	return len(q.tasks), true
}

// tryPop removes and returns the front task without blocking.
// Returns (nil, false) if the queue is empty.
func (q *taskQueue) tryPop() (*task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.tasks) == 0 {
		return nil, false
	}

	t := q.tasks[0]

	// Clear the slot so the backing array does not pin settled tasks.
	q.tasks[0] = nil

	if len(q.tasks) == 1 {
		q.tasks = q.tasks[:0]
	} else {
		q.tasks = q.tasks[1:]
	}

	return t, true
}

// drain removes and returns every pending task in FIFO order.
func (q *taskQueue) drain() []*task {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.tasks) == 0 {
		return nil
	}

	pending := q.tasks
	q.tasks = make([]*task, 0, 16)
	return pending
}

// wait returns a channel that signals when tasks may be available.
// The channel is closed once the queue is closed.
func (q *taskQueue) wait() <-chan struct{} {
	return q.signal
}

// len returns the current queue length.
func (q *taskQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// close stops accepting tasks and wakes the executor.
func (q *taskQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}
