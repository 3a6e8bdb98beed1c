package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/ccstats/internal/api"
	"github.com/roach88/ccstats/internal/config"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Warm bool
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve usage statistics over HTTP",
		Long: `Start the HTTP API backed by a shared DuckDB connection.

The engine connection is created on the first request (or at startup with
--warm). SIGINT and SIGTERM reject queued queries, wait for the running one
and close the connection before the server exits.

Example:
  ccstats serve --listen 127.0.0.1:3000
  CCSTATS_QUERY_TIMEOUT=30s ccstats serve --warm`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().String("listen", "", "listen address (default 127.0.0.1:3000)")
	cmd.Flags().Duration("query-timeout", 0, "per-query execution limit (default 60s, 0 in config disables)")
	cmd.Flags().BoolVar(&opts.Warm, "warm", false, "open the engine connection at startup")
	_ = opts.v.BindPFlag(config.KeyListen, cmd.Flags().Lookup("listen"))
	_ = opts.v.BindPFlag(config.KeyQueryTimeout, cmd.Flags().Lookup("query-timeout"))

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cfg, err := opts.loadConfig(cmd)
	if err != nil {
		return err
	}

	a := newApp(cfg)
	defer a.close()

	ctx, cancel := context.WithCancel(commandContext(cmd.Context()))
	defer cancel()

	stop := a.coord.OnTermination(func(sig os.Signal) {
		cancel()
	})
	defer stop()

	if opts.Warm {
		slog.Info("warming engine connection", "driver", cfg.Driver)
		if err := a.coord.Warm(ctx); err != nil {
			return WrapExitError(ExitCommandError, "failed to initialize engine", err)
		}
	}

	srv, err := api.NewServer(a.coord, a.svc)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build server", err)
	}

	slog.Info("serving", "listen", cfg.Listen, "projects_dir", cfg.ProjectsDir, "driver", cfg.Driver)
	fmt.Fprintf(cmd.OutOrStdout(), "Serving on http://%s\n", cfg.Listen)
	fmt.Fprintln(cmd.OutOrStdout(), "Press Ctrl-C to stop.")

	if err := srv.Serve(ctx, cfg.Listen, cfg.ShutdownTimeout); err != nil {
		return WrapExitError(ExitCommandError, "server error", err)
	}
	slog.Info("server stopped gracefully")
	return nil
}
