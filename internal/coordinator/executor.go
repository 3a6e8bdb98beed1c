package coordinator

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/roach88/ccstats/internal/metrics"
	"github.com/roach88/ccstats/internal/row"
)

// run is the serial executor. It drains the queue one task at a time and
// blocks on the queue's signal channel while idle.
//
// CRITICAL: exactly one run goroutine exists per Coordinator. It is the only
// code that calls Conn.Query, which is what keeps the engine connection free
// of concurrent use.
func (c *Coordinator) run() {
	defer close(c.stopped)
	slog.Debug("executor started")

	for {
		if t, ok := c.queue.tryPop(); ok {
			c.processing.Store(true)
			c.execute(t)
			continue
		}

		c.processing.Store(false)

		// The signal channel closes when the queue is closed; an empty
		// closed queue means shutdown.
		if _, open := <-c.queue.wait(); !open && c.queue.len() == 0 {
			slog.Debug("executor stopped")
			return
		}
	}
}

// execute runs one task and settles it. It never panics the loop and never
// lets one task's failure affect the next.
func (c *Coordinator) execute(t *task) {
	metrics.QueueLength.Set(float64(c.queue.len()))

	if t.isSettled() {
		// Caller stopped waiting before the task reached the front.
		slog.Debug("skipping abandoned query", "task", t.id, "seq", t.seq)
		return
	}
	if err := t.ctx.Err(); err != nil {
		c.finish(t, nil, contextError(t.id, err))
		return
	}

	metrics.QueueWait.Observe(time.Since(t.submittedAt).Seconds())

	conn, err := c.connection(c.baseCtx)
	if err != nil {
		if !IsInitializationError(err) {
			err = newCancelledError(t.id, "coordinator shutting down")
		}
		c.finish(t, nil, err)
		return
	}

	ctx, cancel := c.queryContext(t)
	defer cancel()

	slog.Debug("executing query", "task", t.id, "seq", t.seq, "sql", preview(t.sql))
	start := time.Now()
	rows, err := conn.Query(ctx, t.sql)
	elapsed := time.Since(start)
	metrics.QueryDuration.Observe(elapsed.Seconds())

	if err != nil {
		c.finish(t, nil, c.classify(ctx, t, err))
		return
	}

	slog.Debug("query completed", "task", t.id, "rows", len(rows), "duration", elapsed)
	c.finish(t, rows, nil)
}

// finish settles t with the executor's result.
func (c *Coordinator) finish(t *task, rows []row.Row, err error) {
	if t.settle(rows, err) && err != nil {
		slog.Debug("query failed", "task", t.id, "error", err)
	}
}

// queryContext derives the execution context for t: the caller's context,
// bounded by the per-query timeout and cancelled when shutdown gives up
// waiting.
func (c *Coordinator) queryContext(t *task) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(t.ctx)
	if c.queryTimeout > 0 {
		var cancelTimeout context.CancelFunc
		ctx, cancelTimeout = context.WithTimeout(ctx, c.queryTimeout)
		prev := cancel
		cancel = func() {
			cancelTimeout()
			prev()
		}
	}

	stop := context.AfterFunc(c.baseCtx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// classify maps a failed statement to the coordinator error taxonomy.
func (c *Coordinator) classify(ctx context.Context, t *task, err error) error {
	switch {
	case t.ctx.Err() != nil:
		return contextError(t.id, t.ctx.Err())
	case c.baseCtx.Err() != nil:
		ce := newCancelledError(t.id, "coordinator shutting down")
		ce.Err = err
		return ce
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return newDeadlineError(t.id, err)
	default:
		return newQueryError(t.id, err)
	}
}

// preview shortens sql for debug logs.
func preview(sql string) string {
	const limit = 100
	if len(sql) <= limit {
		return sql
	}
	return sql[:limit] + "..."
}
