package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/ccstats/internal/hooks"
)

// NewHookCommand creates the hook command.
func NewHookCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "hook",
		Short: "Record a Claude Code hook event (pass-through)",
		Long: `Read a hook payload from stdin, append it to the day's hooks file and
copy stdin to stdout unchanged.

The event type comes from CLAUDE_HOOK_EVENT, or is inferred from the
payload: tool and result (PostToolUse), tool (PreToolUse), notification
(Notification), anything else (Unknown).

Example (in Claude Code settings):
  "command": "ccstats hook"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.loadConfig(cmd)
			if err != nil {
				return err
			}
			rec := hooks.NewRecorder(cfg.HooksDir)
			if _, err := rec.Record(cmd.InOrStdin(), cmd.OutOrStdout()); err != nil {
				return WrapExitError(ExitFailure, "hook handler error", err)
			}
			return nil
		},
	}
}
