package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/etnz/stakefolio"
	"github.com/etnz/stakefolio/date"
	"github.com/etnz/stakefolio/metrics"
	"github.com/etnz/stakefolio/renderer"
	"github.com/google/subcommands"
	"github.com/jonboulle/clockwork"
)

// exceptionsCmd holds the flags for the 'exceptions' subcommand.
type exceptionsCmd struct {
	window       windowFlags
	previous     string
	saveSnapshot string
	metricsFile  string
	json         bool
}

func (*exceptionsCmd) Name() string     { return "exceptions" }
func (*exceptionsCmd) Synopsis() string { return "detect anomalies in the portfolio" }
func (*exceptionsCmd) Usage() string {
	return `stakectl exceptions [-d <date>] [-p <period>] [-calendar] [-previous <snapshot>] [-save-snapshot <file>] [-metrics-file <file>] [-json]

  Runs the five checks on the portfolio as of the date: portfolio value and
  validator count changes since the previous snapshot, validators stuck
  before activation, daily rewards anomaly over the period, and custodians
  whose yield trails the others.

  Thresholds are read from the 'detection' section of the configuration.

Usage Examples:
# Compare with yesterday's snapshot and save today's for tomorrow.
$ stakectl exceptions -previous snapshot.json -save-snapshot snapshot.json

`
}

func (c *exceptionsCmd) SetFlags(f *flag.FlagSet) {
	c.window.SetFlags(f)
	f.StringVar(&c.previous, "previous", "", "Snapshot of the previous run. Value and count changes are not checked without one.")
	f.StringVar(&c.saveSnapshot, "save-snapshot", "", "Save the current snapshot to this file, after reading -previous.")
	f.StringVar(&c.metricsFile, "metrics-file", "", "Write the summary and exception gauges to this Prometheus textfile.")
	f.BoolVar(&c.json, "json", false, "Print the exceptions as JSON.")
}

func (c *exceptionsCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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

	var previous stakefolio.Snapshot
	if c.previous != "" {
		previous, err = decodeFile(c.previous, stakefolio.DecodeSnapshot)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			e.log.Warn().Str("file", c.previous).Msg("no previous snapshot, changes are not checked")
		case err != nil:
			return e.failure(err, "loading previous snapshot")
		}
	}

	days := rng
	if today := date.Of(asOf); rng.Contains(today) && asOf.Before(stakefolio.WindowOf(rng).End) {
		// today is not over, its rewards are partial.
		days.To = today.Add(-1)
	}
	state := stakefolio.DetectionState{
		Previous:    previous,
		Current:     summary.Snapshot(),
		Transit:     stakefolio.TransitValidators(validators),
		Rewards:     stakefolio.DailyRewards(rewards, days),
		Performance: stakefolio.Performances(summary.Allocations, e.cfg.Custodians),
	}
	// checks are evaluated as of the summary, not as of the wall clock.
	detector := stakefolio.NewDetector(stakefolio.WithClock(clockwork.NewFakeClockAt(asOf)))
	exceptions, err := detector.Run(state, e.cfg.DetectionConfig())
	if err != nil {
		return e.failure(err, "detecting exceptions")
	}
	for _, ex := range exceptions {
		e.log.Info().Str("type", string(ex.Type)).Str("severity", string(ex.Severity)).Str("id", ex.ID).Msg(ex.Title)
	}

	if err := saveSnapshot(c.saveSnapshot, summary.Snapshot()); err != nil {
		return e.failure(err, "saving snapshot")
	}
	if c.metricsFile != "" {
		m := metrics.New()
		m.ObserveSummary(summary)
		m.ObserveExceptions(exceptions)
		if err := m.WriteTextfile(c.metricsFile); err != nil {
			return e.failure(err, "writing metrics")
		}
	}

	if c.json {
		if exceptions == nil {
			exceptions = []stakefolio.Exception{}
		}
		if err := printJSON(exceptions); err != nil {
			return e.failure(err, "printing exceptions")
		}
		return subcommands.ExitSuccess
	}
	printMarkdown(renderer.Exceptions(exceptions))
	return subcommands.ExitSuccess
}
