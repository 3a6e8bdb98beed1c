package coordinator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/roach88/ccstats/internal/metrics"
	"github.com/roach88/ccstats/internal/row"
)

// Conn is a live handle to the embedded engine. It executes one statement at
// a time and is never called concurrently by the coordinator.
type Conn interface {
	Query(ctx context.Context, sql string) ([]row.Row, error)
	Close() error
}

// Opener creates a new engine connection. It is costly and is called at
// most once concurrently.
type Opener func(ctx context.Context) (Conn, error)

const initKey = "engine"

var (
	errNilConn             = errors.New("opener returned no connection")
	errClosedDuringOpening = errors.New("connection closed while initializing")
)

// lifecycle owns creation and teardown of the single engine connection.
//
// It is the only component that mutates connection state. Creation goes
// through a singleflight group so racing callers share one attempt; the
// group forgets the key once the attempt settles, so a failure is retried by
// the next caller.
type lifecycle struct {
	open  Opener
	group singleflight.Group

	mu   sync.Mutex
	conn Conn
	gen  uint64 // bumped by close to invalidate in-flight attempts

	attempts atomic.Int64
}

func newLifecycle(open Opener) *lifecycle {
	return &lifecycle{open: open}
}

// ensure returns the live connection, creating it if absent.
//
// ctx only bounds how long this caller waits. The attempt itself runs
// detached from ctx so one impatient waiter cannot fail the others.
func (l *lifecycle) ensure(ctx context.Context) (Conn, error) {
	if c := l.current(); c != nil {
		return c, nil
	}

	ch := l.group.DoChan(initKey, func() (any, error) {
		return l.create(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(Conn), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// create runs one initialization attempt.
func (l *lifecycle) create(ctx context.Context) (Conn, error) {
	l.mu.Lock()
	if l.conn != nil {
		c := l.conn
		l.mu.Unlock()
		return c, nil
	}
	gen := l.gen
	l.mu.Unlock()

	l.attempts.Add(1)
	slog.Info("initializing engine connection")

	conn, err := l.open(ctx)
	if err == nil && conn == nil {
		err = errNilConn
	}
	if err != nil {
		metrics.EngineInitializations.WithLabelValues("failure").Inc()
		slog.Error("engine initialization failed", "error", err)
		return nil, newInitializationError(err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.gen != gen {
		// close ran while we were opening; do not resurrect the connection.
		_ = conn.Close()
		metrics.EngineInitializations.WithLabelValues("failure").Inc()
		return nil, newInitializationError(errClosedDuringOpening)
	}

	l.conn = conn
	metrics.EngineInitializations.WithLabelValues("success").Inc()
	slog.Info("engine connection initialized")
	return conn, nil
}

// current returns the live connection or nil.
func (l *lifecycle) current() Conn {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.conn
}

// initialized reports whether a live connection exists.
func (l *lifecycle) initialized() bool {
	return l.current() != nil
}

// close releases the connection and resets to uninitialized. Idempotent.
// It does not wait for or cancel a running statement.
func (l *lifecycle) close() error {
	l.mu.Lock()
	conn := l.conn
	l.conn = nil
	l.gen++
	l.mu.Unlock()

	if conn == nil {
		return nil
	}

	slog.Info("closing engine connection")
	return conn.Close()
}
