package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/stakefolio/config"
	"github.com/google/subcommands"
)

type configCmd struct {
	check bool
}

func (*configCmd) Name() string     { return "config" }
func (*configCmd) Synopsis() string { return "validate and print the effective configuration" }
func (*configCmd) Usage() string {
	return `stakectl config [-check]

  Loads the configuration file, applies the defaults and the environment
  overrides (` + config.EnvLogLevel + `, ` + config.EnvLogFormat + `), validates it and
  prints the result as YAML.

`
}

func (c *configCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.check, "check", false, "Only validate the configuration, print nothing.")
}

func (c *configCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := config.LoadWithEnv(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid configuration %q: %v\n", *configFile, err)
		return subcommands.ExitFailure
	}
	if c.check {
		return subcommands.ExitSuccess
	}
	b, err := cfg.Encode()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding configuration: %v\n", err)
		return subcommands.ExitFailure
	}
	stdout.Write(b)
	return subcommands.ExitSuccess
}
