// Command mnemo composes Unicode symbols from mnemonics and inspects the
// dictionaries and recorded sessions behind them.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/mnemo/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
