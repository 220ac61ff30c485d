package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/etnz/stakefolio"
	"github.com/etnz/stakefolio/metrics"
	"github.com/etnz/stakefolio/renderer"
	"github.com/google/subcommands"
)

// summaryCmd holds the flags for the 'summary' subcommand.
type summaryCmd struct {
	window       windowFlags
	by           string
	saveSnapshot string
	metricsFile  string
	json         bool
}

func (*summaryCmd) Name() string     { return "summary" }
func (*summaryCmd) Synopsis() string { return "show value, state buckets and allocations" }
func (*summaryCmd) Usage() string {
	return `stakectl summary [-d <date>] [-p <period>] [-calendar] [-by custodian|operator] [-save-snapshot <file>] [-metrics-file <file>] [-json]

  Aggregates the validators into state buckets and allocations, and computes
  the trailing APY of each allocation over the period ending on the date, or
  over the calendar period containing it with -calendar.

`
}

func (c *summaryCmd) SetFlags(f *flag.FlagSet) {
	c.window.SetFlags(f)
	f.StringVar(&c.by, "by", "custodian", "Group allocations by 'custodian' or 'operator'.")
	f.StringVar(&c.saveSnapshot, "save-snapshot", "", "Save the snapshot of this summary, to be compared by the next 'exceptions' run.")
	f.StringVar(&c.metricsFile, "metrics-file", "", "Write the summary gauges to this Prometheus textfile.")
	f.BoolVar(&c.json, "json", false, "Print the summary as JSON.")
}

func (c *summaryCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.by != "custodian" && c.by != "operator" {
		fmt.Fprintf(os.Stderr, "Error: -by must be 'custodian' or 'operator', got %q\n", c.by)
		return subcommands.ExitUsageError
	}
	rng, window, asOf, err := c.window.resolve(time.Now())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing window: %v\n", err)
		return subcommands.ExitUsageError
	}

	e, err := newEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer e.Close()

	validators, rewards, err := e.loadInputs(ctx)
	if err != nil {
		return e.failure(err, "loading inputs")
	}
	summary, err := stakefolio.NewPortfolioSummary(validators, rewards, window, asOf)
	if err != nil {
		return e.failure(err, "computing summary")
	}
	summary.Period = rng.Identifier()
	e.log.Info().Str("period", summary.Period).Stringer("value", summary.TotalValue).Stringer("apy", summary.BlendedAPY).Int("allocations", len(summary.Allocations)).Msg("summary computed")

	if err := saveSnapshot(c.saveSnapshot, summary.Snapshot()); err != nil {
		return e.failure(err, "saving snapshot")
	}
	if c.metricsFile != "" {
		m := metrics.New()
		m.ObserveSummary(summary)
		if err := m.WriteTextfile(c.metricsFile); err != nil {
			return e.failure(err, "writing metrics")
		}
	}

	if c.by == "operator" {
		operators, err := stakefolio.RollupByOperator(validators, rewards, window)
		if err != nil {
			return e.failure(err, "computing operator rollup")
		}
		if c.json {
			if err := printJSON(operators); err != nil {
				return e.failure(err, "printing operators")
			}
			return subcommands.ExitSuccess
		}
		printMarkdown(renderer.Allocations("Operators", operators, nil))
		return subcommands.ExitSuccess
	}

	if c.json {
		if err := printJSON(summary); err != nil {
			return e.failure(err, "printing summary")
		}
		return subcommands.ExitSuccess
	}
	printMarkdown(renderer.Summary(summary, e.cfg.Custodians))
	return subcommands.ExitSuccess
}

// bucketsCmd holds the flags for the 'buckets' subcommand.
type bucketsCmd struct {
	json bool
}

func (*bucketsCmd) Name() string     { return "buckets" }
func (*bucketsCmd) Synopsis() string { return "show the value held in each state" }
func (*bucketsCmd) Usage() string {
	return `stakectl buckets [-json]

  Partitions the validators' balances by lifecycle state: deposited,
  pending_activation, active, exiting and withdrawable.

`
}

func (c *bucketsCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.json, "json", false, "Print the buckets as JSON.")
}

func (c *bucketsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := newEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer e.Close()

	validators, err := decodeFile(*validatorsFile, e.decodeValidators)
	if err != nil {
		return e.failure(err, "loading validators")
	}
	buckets, err := stakefolio.AggregateByStateBucket(validators)
	if err != nil {
		return e.failure(err, "aggregating buckets")
	}
	if c.json {
		if err := printJSON(buckets); err != nil {
			return e.failure(err, "printing buckets")
		}
		return subcommands.ExitSuccess
	}
	printMarkdown(renderer.Buckets(buckets))
	return subcommands.ExitSuccess
}
