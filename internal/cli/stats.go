package cli

import (
	"errors"
	"io"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/roach88/ccstats/internal/usage"
)

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print token usage, cost and hook statistics",
		Long: `Summarize every Claude Code session log: token totals, estimated cost in
USD, the ten most expensive projects and, when hook events were recorded,
hook statistics.

Example:
  ccstats stats
  ccstats stats --format yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd, rootOpts)
		},
	}
}

func runStats(cmd *cobra.Command, opts *RootOptions) error {
	cfg, err := opts.loadConfig(cmd)
	if err != nil {
		return err
	}

	a := newApp(cfg)
	defer a.close()

	out := opts.formatter(cmd)
	report, err := a.svc.Summary(commandContext(cmd.Context()))
	if err != nil {
		code := ExitFailure
		if errors.Is(err, usage.ErrNoProjectsDir) {
			code = ExitCommandError
		}
		if out.Structured() {
			_ = out.Error(errorCode(err), err.Error(), nil)
		}
		return WrapExitError(code, "failed to build report", err)
	}

	if out.Structured() {
		return out.Success(report)
	}
	writeReport(cmd.OutOrStdout(), report)
	return nil
}

// writeReport prints report for humans, with grouped thousands.
func writeReport(w io.Writer, r *usage.Report) {
	p := message.NewPrinter(language.English)

	p.Fprintf(w, "\n=== Token Usage Statistics ===\n")
	p.Fprintf(w, "Input tokens: %d\n", r.Tokens.Input)
	p.Fprintf(w, "Output tokens: %d\n", r.Tokens.Output)
	p.Fprintf(w, "Cache read tokens: %d\n", r.Tokens.CacheRead)
	p.Fprintf(w, "Cache creation tokens: %d\n", r.Tokens.CacheCreation)
	p.Fprintf(w, "Grand total tokens: %d\n", r.Tokens.Total)

	p.Fprintf(w, "\n=== Cost Analysis ===\n")
	p.Fprintf(w, "Total cost: $%.2f USD\n", r.TotalCostUSD)

	p.Fprintf(w, "\n=== Cost by Project (Top %d) ===\n", usage.TopProjectsLimit)
	for _, pc := range r.Projects {
		p.Fprintf(w, "%-30s: $%.2f USD\n", pc.Project, pc.CostUSD)
	}

	if r.Hooks == nil {
		return
	}
	p.Fprintf(w, "\n=== Hooks Statistics ===\n")
	p.Fprintf(w, "Total hook events: %d\n", r.Hooks.Total)

	p.Fprintf(w, "\nHook events by type:\n")
	for _, c := range r.Hooks.ByType {
		p.Fprintf(w, "  %-20s: %d\n", c.Name, c.Count)
	}

	p.Fprintf(w, "\nTop %d tool usage from hooks:\n", usage.TopToolsLimit)
	if len(r.Hooks.TopTools) == 0 {
		p.Fprintf(w, "  No tool usage data found\n")
	}
	for _, c := range r.Hooks.TopTools {
		p.Fprintf(w, "  %-20s: %d\n", c.Name, c.Count)
	}
}
