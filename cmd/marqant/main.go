// Command marqant encodes, decodes and inspects token-substituted markdown
// documents and resolves published dictionaries.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/marqant/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		var exitErr *cli.ExitError
		// Commands report their own errors; bare cobra errors (unknown
		// flags, wrong arg counts) still need printing.
		if !errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
