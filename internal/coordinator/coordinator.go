package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"time"

	"github.com/roach88/ccstats/internal/metrics"
	"github.com/roach88/ccstats/internal/row"
)

// DefaultHealthQuery is the no-op statement HealthCheck sends through the queue.
const DefaultHealthQuery = "SELECT 1 AS health_check"

// DefaultShutdownTimeout bounds how long a signal-triggered shutdown waits
// for the in-flight query.
const DefaultShutdownTimeout = 10 * time.Second

// Status is an instantaneous, possibly stale snapshot for diagnostics.
// Never use it to make scheduling decisions.
type Status struct {
	QueueLength   int  `json:"queueLength"`
	IsProcessing  bool `json:"isProcessing"`
	IsInitialized bool `json:"isInitialized"`
}

// Coordinator is the only entry point to the engine connection.
//
// Thread-safety model:
//   - Submit, Query, Warm, Status, HealthCheck, ClearQueue, Shutdown: safe
//     from any goroutine
//   - the executor goroutine is the only code that touches the connection
//     while a query runs
//
// A Coordinator is built once at startup and passed to whatever serves
// requests; its lifetime is the process's.
type Coordinator struct {
	life  *lifecycle
	queue *taskQueue
	clock *Clock
	ids   IDGenerator

	queryTimeout    time.Duration
	shutdownTimeout time.Duration
	healthQuery     string

	mu      sync.Mutex
	closed  bool
	started bool
	stopped chan struct{} // closed when the executor returns

	processing atomic.Bool

	baseCtx    context.Context
	cancelBase context.CancelFunc

	signalOnce  sync.Once
	stopSignals func()
	notify      func(chan<- os.Signal, ...os.Signal)
	stopNotify  func(chan<- os.Signal)
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithQueryTimeout bounds each query's execution time. Zero disables the
// limit; a slow query then holds the queue until it finishes.
func WithQueryTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		c.queryTimeout = d
	}
}

// WithShutdownTimeout bounds how long a signal-triggered Shutdown waits.
func WithShutdownTimeout(d time.Duration) Option {
	return func(c *Coordinator) {
		c.shutdownTimeout = d
	}
}

// WithIDGenerator overrides the task ID generator (UUIDv7 by default).
func WithIDGenerator(g IDGenerator) Option {
	return func(c *Coordinator) {
		c.ids = g
	}
}

// WithHealthQuery overrides the statement used by HealthCheck.
func WithHealthQuery(sql string) Option {
	return func(c *Coordinator) {
		c.healthQuery = sql
	}
}

// New creates a Coordinator that opens its connection with open on first use.
// No connection is created and no goroutine is started until the first
// Submit or Warm.
func New(open Opener, opts ...Option) *Coordinator {
	baseCtx, cancel := context.WithCancel(context.Background())

	c := &Coordinator{
		life:            newLifecycle(open),
		queue:           newTaskQueue(),
		clock:           NewClock(),
		ids:             UUIDv7Generator{},
		shutdownTimeout: DefaultShutdownTimeout,
		healthQuery:     DefaultHealthQuery,
		stopped:         make(chan struct{}),
		baseCtx:         baseCtx,
		cancelBase:      cancel,
		notify:          signal.Notify,
		stopNotify:      signal.Stop,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Submit enqueues sql and returns its Future. It never blocks and never
// fails to accept the task; after Shutdown the returned Future is already
// settled with a CLOSED error.
//
// ctx is the task's context: if it is done before the task starts the task
// is skipped, and while the task runs it is passed to the engine.
func (c *Coordinator) Submit(ctx context.Context, sql string) *Future {
	if ctx == nil {
		ctx = context.Background()
	}

	c.mu.Lock()
	t := newTask(ctx, c.ids.Generate(), c.clock.Next(), sql)
	if c.closed {
		c.mu.Unlock()
		t.settle(nil, newClosedError(t.id))
		return &Future{t: t}
	}

	n, ok := c.queue.push(t)
	if ok && !c.started {
		c.started = true
		go c.run()
	}
	c.mu.Unlock()

	if !ok {
		t.settle(nil, newClosedError(t.id))
		return &Future{t: t}
	}

	metrics.QueueLength.Set(float64(n))
	slog.Debug("query queued", "task", t.id, "seq", t.seq, "queue_length", n)
	return &Future{t: t}
}

// Query submits sql and waits for its rows.
func (c *Coordinator) Query(ctx context.Context, sql string) ([]row.Row, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	return c.Submit(ctx, sql).Wait(ctx)
}

// Warm creates the engine connection ahead of the first query. Concurrent
// calls, and a racing executor, share one attempt.
func (c *Coordinator) Warm(ctx context.Context) error {
	if c.isClosed() {
		return newClosedError("")
	}
	if _, err := c.connection(ctx); err != nil {
		if c.isClosed() {
			return newClosedError("")
		}
		return err
	}
	c.mu.Lock()
	closed, started := c.closed, c.started
	c.mu.Unlock()
	if closed {
		// Shutdown raced the attempt. With an executor running, Shutdown
		// closes the connection once the in-flight query is done; without
		// one, nothing else will.
		if !started {
			_ = c.life.close()
		}
		return newClosedError("")
	}
	return nil
}

// Status returns a diagnostic snapshot.
func (c *Coordinator) Status() Status {
	return Status{
		QueueLength:   c.queue.len(),
		IsProcessing:  c.processing.Load(),
		IsInitialized: c.life.initialized(),
	}
}

// HealthCheck runs a trivial statement through the normal queue, so it sees
// the same queueing delay and engine state as real work. It never returns an
// error; any failure reports false.
func (c *Coordinator) HealthCheck(ctx context.Context) bool {
	if _, err := c.Query(ctx, c.healthQuery); err != nil {
		slog.Warn("engine health check failed", "error", err)
		return false
	}
	return true
}

// ClearQueue settles every pending (not yet started) task with CANCELLED and
// returns how many there were. A running task is unaffected.
func (c *Coordinator) ClearQueue() int {
	pending := c.queue.drain()
	for _, t := range pending {
		t.settle(nil, newCancelledError(t.id, "queue cleared"))
	}
	metrics.QueueLength.Set(float64(c.queue.len()))
	if len(pending) > 0 {
		slog.Info("cleared pending queries", "count", len(pending))
	}
	return len(pending)
}

// Shutdown rejects pending work, waits for the in-flight query, and closes
// the connection. If ctx expires first the in-flight query is interrupted.
//
// CLOSED is terminal: later submissions fail fast instead of reinitializing.
// Safe to call more than once and from a signal handler.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	c.mu.Lock()
	already := c.closed
	c.closed = true
	started := c.started
	stopSignals := c.stopSignals
	c.mu.Unlock()

	if !already {
		slog.Info("coordinator shutting down", "submitted", c.clock.Current())
		c.ClearQueue()
		c.queue.close()
	}

	if started {
		select {
		case <-c.stopped:
		case <-ctx.Done():
			slog.Warn("shutdown deadline reached, interrupting in-flight query")
			c.cancelBase()
			<-c.stopped
		}
	}
	c.cancelBase()

	if stopSignals != nil {
		stopSignals()
	}

	if err := c.life.close(); err != nil {
		return fmt.Errorf("close engine connection: %w", err)
	}
	return nil
}

// isClosed reports whether Shutdown has been called.
func (c *Coordinator) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// connection obtains the engine connection. An initialization failure is
// delivered to every task queued at that moment as well as to the caller.
func (c *Coordinator) connection(ctx context.Context) (Conn, error) {
	conn, err := c.life.ensure(ctx)
	if err == nil {
		return conn, nil
	}
	if !IsInitializationError(err) {
		return nil, err
	}

	pending := c.queue.drain()
	for _, t := range pending {
		t.settle(nil, err)
	}
	if len(pending) > 0 {
		slog.Warn("rejected queued queries after initialization failure", "count", len(pending))
	}
	metrics.QueueLength.Set(float64(c.queue.len()))
	return nil, err
}
