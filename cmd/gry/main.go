package main

import (
	"fmt"
	"os"

	"github.com/gridworks-io/grist/cmd/gry/commands"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	root := commands.NewRootCommand(version, commit, date)

	if err := root.Execute(); err != nil {
		if msg := err.Error(); msg != "" {
			fmt.Fprintln(os.Stderr, msg)
		}

		os.Exit(commands.ExitCode(err))
	}
}
