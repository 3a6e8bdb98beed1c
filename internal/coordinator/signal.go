package coordinator

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"syscall"
)

// OnTermination registers the coordinator's cleanup handler for SIGINT and
// SIGTERM. On the first signal it runs Shutdown (bounded by the shutdown
// timeout) and then calls after, which typically exits the process or stops
// a server.
//
// At most one handler is registered per Coordinator: repeated calls return
// the stop function of the first registration and ignore after. The returned
// stop function unregisters the handler and is safe to call more than once.
func (c *Coordinator) OnTermination(after func(os.Signal)) (stop func()) {
	c.signalOnce.Do(func() {
		ch := make(chan os.Signal, 1)
		done := make(chan struct{})
		var stopOnce sync.Once

		stopFn := func() {
			stopOnce.Do(func() {
				c.stopNotify(ch)
				close(done)
			})
		}

		c.mu.Lock()
		c.stopSignals = stopFn
		c.mu.Unlock()

		c.notify(ch, os.Interrupt, syscall.SIGTERM)

		go func() {
			select {
			case sig := <-ch:
				slog.Info("received signal, shutting down", "signal", sig)
				ctx, cancel := context.WithTimeout(context.Background(), c.shutdownTimeout)
				if err := c.Shutdown(ctx); err != nil {
					slog.Error("shutdown failed", "error", err)
				}
				cancel()
				stopFn()
				if after != nil {
					after(sig)
				}
			case <-done:
			}
		}()
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopSignals
}
