package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/roach88/ccstats/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose   bool
	Format    string // "text" | "json" | "yaml"
	Config    string
	LogFormat string // "text" | "json"

	v *viper.Viper
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json", "yaml"}

// NewRootCommand creates the root command for the ccstats CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{v: config.New()}

	cmd := &cobra.Command{
		Use:   "ccstats",
		Short: "ccstats - Claude Code usage statistics",
		Long: `Analyze Claude Code session logs with an embedded DuckDB engine.

All queries, from the CLI or the HTTP API, share one engine connection and
run one at a time in submission order.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			if err := config.ReadFile(opts.v, opts.Config); err != nil {
				return WrapExitError(ExitCommandError, "failed to load config", err)
			}
			return nil
		},
	}

	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", "text", "output format (text|json|yaml)")
	flags.StringVar(&opts.Config, "config", "", "config file (default .ccstats.yaml)")
	flags.StringVar(&opts.LogFormat, "log-format", "text", "log format (text|json)")
	flags.String("driver", "", "engine driver (duckdb|sqlite3)")
	flags.String("projects-dir", "", "Claude projects log directory (default ~/.claude/projects)")
	flags.String("hooks-dir", "", "hook events directory (default ~/.claude/hooks)")

	_ = opts.v.BindPFlag(config.KeyVerbose, flags.Lookup("verbose"))
	_ = opts.v.BindPFlag(config.KeyLogFormat, flags.Lookup("log-format"))
	_ = opts.v.BindPFlag(config.KeyDriver, flags.Lookup("driver"))
	_ = opts.v.BindPFlag(config.KeyProjectsDir, flags.Lookup("projects-dir"))
	_ = opts.v.BindPFlag(config.KeyHooksDir, flags.Lookup("hooks-dir"))

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewHookCommand(opts))

	return cmd
}

// loadConfig resolves the configuration and installs the logger.
func (o *RootOptions) loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(o.v)
	if err != nil {
		return config.Config{}, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	setupLogging(cmd.ErrOrStderr(), cfg.LogFormat, cfg.Verbose)
	return cfg, nil
}

// formatter returns the output formatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
