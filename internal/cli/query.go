package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/ccstats/internal/coordinator"
	"github.com/roach88/ccstats/internal/row"
)

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "query <sql>",
		Short: "Run a SQL statement on the engine",
		Long: `Run one SQL statement through the query coordinator and print the rows.

Example:
  ccstats query "SELECT 1 AS x"
  ccstats query --format json "SELECT count(*) AS n FROM read_json('~/.claude/projects/**/*.jsonl')"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, rootOpts, args[0])
		},
	}
}

func runQuery(cmd *cobra.Command, opts *RootOptions, sql string) error {
	cfg, err := opts.loadConfig(cmd)
	if err != nil {
		return err
	}

	a := newApp(cfg)
	defer a.close()

	out := opts.formatter(cmd)
	rows, err := a.coord.Query(commandContext(cmd.Context()), sql)
	if err != nil {
		if out.Structured() {
			_ = out.Error(errorCode(err), err.Error(), nil)
		}
		return WrapExitError(ExitFailure, "query failed", err)
	}

	if out.Structured() {
		if rows == nil {
			rows = []row.Row{}
		}
		return out.Success(rows)
	}
	writeTable(cmd.OutOrStdout(), rows)
	return nil
}

// errorCode names the coordinator failure class of err.
func errorCode(err error) string {
	var ce *coordinator.Error
	if errors.As(err, &ce) {
		return string(ce.Code)
	}
	return "ERROR"
}

// writeTable prints rows as aligned columns followed by a row count.
// Columns are the union over all rows, in first-seen order.
func writeTable(w io.Writer, rows []row.Row) {
	var cols []string
	seen := make(map[string]bool)
	for _, r := range rows {
		for _, c := range r.Columns() {
			if !seen[c] {
				seen[c] = true
				cols = append(cols, c)
			}
		}
	}

	if len(cols) > 0 {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, strings.Join(cols, "\t"))
		for _, r := range rows {
			cells := make([]string, len(cols))
			for i, c := range cols {
				s, ok := row.AsString(r.Get(c))
				if !ok {
					s = "NULL"
				}
				cells[i] = s
			}
			fmt.Fprintln(tw, strings.Join(cells, "\t"))
		}
		_ = tw.Flush()
	}

	noun := "rows"
	if len(rows) == 1 {
		noun = "row"
	}
	fmt.Fprintf(w, "(%d %s)\n", len(rows), noun)
}
