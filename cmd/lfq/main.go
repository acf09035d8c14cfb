// Command lfq compiles combinator queries into Datalog programs.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/linearfn/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		// Commands report their own ExitErrors; anything else (bad flags,
		// unknown subcommands) is printed here.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
