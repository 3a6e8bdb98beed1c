package cli

import (
	"context"
	"log/slog"

	"github.com/roach88/ccstats/internal/config"
	"github.com/roach88/ccstats/internal/coordinator"
	"github.com/roach88/ccstats/internal/store"
	"github.com/roach88/ccstats/internal/usage"
)

// app wires one coordinator and the report service for a command run.
type app struct {
	cfg   config.Config
	coord *coordinator.Coordinator
	svc   *usage.Service
}

func newApp(cfg config.Config) *app {
	storeOpts := cfg.StoreOptions()
	open := func(ctx context.Context) (coordinator.Conn, error) {
		conn, err := store.Open(ctx, storeOpts)
		if err != nil {
			return nil, err
		}
		return conn, nil
	}

	coord := coordinator.New(open,
		coordinator.WithQueryTimeout(cfg.QueryTimeout),
		coordinator.WithShutdownTimeout(cfg.ShutdownTimeout),
	)
	return &app{
		cfg:   cfg,
		coord: coord,
		svc:   usage.NewService(coord, cfg.Sources()),
	}
}

// close shuts the coordinator down within the configured timeout.
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.coord.Shutdown(ctx); err != nil {
		slog.Error("coordinator shutdown failed", "error", err)
	}
}

// commandContext returns ctx, or Background when cobra has none.
func commandContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
