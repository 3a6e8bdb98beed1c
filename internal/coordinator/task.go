package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/roach88/ccstats/internal/metrics"
	"github.com/roach88/ccstats/internal/row"
)

// task is one submitted query waiting for, or undergoing, execution.
//
// A task is settled exactly once: by the executor with rows or an error, by
// ClearQueue/Shutdown with CANCELLED, or by its caller giving up in Wait.
// Whichever comes first wins; later settle calls are no-ops.
type task struct {
	id          string
	seq         int64
	sql         string
	submittedAt time.Time
	ctx         context.Context

	once sync.Once
	done chan struct{}
	rows []row.Row
	err  error
}

func newTask(ctx context.Context, id string, seq int64, sql string) *task {
	return &task{
		id:          id,
		seq:         seq,
		sql:         sql,
		submittedAt: time.Now(),
		ctx:         ctx,
		done:        make(chan struct{}),
	}
}

// settle records the outcome and counts it. Returns false if the task was
// already settled.
func (t *task) settle(rows []row.Row, err error) bool {
	settled := false
	t.once.Do(func() {
		t.rows = rows
		t.err = err
		close(t.done)
		settled = true
	})
	if settled {
		metrics.QueriesTotal.WithLabelValues(outcome(err)).Inc()
	}
	return settled
}

// isSettled reports whether an outcome has been recorded.
func (t *task) isSettled() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Future is the caller's handle on a submitted query.
type Future struct {
	t *task
}

// ID returns the task identifier.
func (f *Future) ID() string {
	return f.t.id
}

// Seq returns the submission sequence number. Tasks execute in Seq order.
func (f *Future) Seq() int64 {
	return f.t.seq
}

// Done is closed once the task is settled.
func (f *Future) Done() <-chan struct{} {
	return f.t.done
}

// Result returns the outcome of a settled task. It must only be called after
// Done is closed.
func (f *Future) Result() ([]row.Row, error) {
	return f.t.rows, f.t.err
}

// Wait blocks until the task is settled or ctx is done.
//
// If ctx ends first the task is settled with CANCELLED (or DEADLINE_EXCEEDED)
// and the executor skips it when its turn comes. A task that is already
// running keeps its connection until the driver observes the cancellation.
func (f *Future) Wait(ctx context.Context) ([]row.Row, error) {
	select {
	case <-f.t.done:
	case <-ctx.Done():
		f.t.settle(nil, contextError(f.t.id, ctx.Err()))
	}
	return f.t.rows, f.t.err
}
