// Command osiris compiles and runs OML pipelines (§6).
package main

import (
	"fmt"
	"os"

	"github.com/keboola/osiris/internal/cli"
)

func main() {
	rootCmd := cli.NewRootCommand()

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(cli.ExitCode(err))
}
