// Command ccstats analyzes Claude Code usage logs.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/ccstats/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
