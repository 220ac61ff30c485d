// Command stakectl reports on a staking portfolio: value, yields,
// exceptions and reconciliation with custodian statements.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/etnz/stakefolio/cmd"
	"github.com/google/subcommands"
)

func main() {
	// when invoked by the shell for completion, complete and exit.
	cmd.Completion().Complete("stakectl")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	cmd.Register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
