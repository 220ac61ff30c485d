package cmd

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/etnz/stakefolio"
	"github.com/etnz/stakefolio/metrics"
	"github.com/etnz/stakefolio/renderer"
	"github.com/etnz/stakefolio/statement"
	"github.com/google/subcommands"
	"golang.org/x/sync/errgroup"
)

// exportFlags collects repeated -export source=path flags.
type exportFlags []export

type export struct{ source, path string }

func (e *exportFlags) String() string {
	parts := make([]string, len(*e))
	for i, x := range *e {
		parts[i] = x.source + "=" + x.path
	}
	return strings.Join(parts, ",")
}

func (e *exportFlags) Set(v string) error {
	source, path, ok := strings.Cut(v, "=")
	if !ok || source == "" || path == "" {
		return fmt.Errorf("want source=path, got %q", v)
	}
	*e = append(*e, export{source: source, path: path})
	return nil
}

// reconcileCmd holds the flags for the 'reconcile' subcommand.
type reconcileCmd struct {
	statements  string
	exports     exportFlags
	metricsFile string
	json        bool
}

func (*reconcileCmd) Name() string { return "reconcile" }
func (*reconcileCmd) Synopsis() string {
	return "reconcile internal totals with custodian statements"
}
func (*reconcileCmd) Usage() string {
	return `stakectl reconcile [-statements <file>] [-export <custodian>=<file>]... [-metrics-file <file>] [-json]

  Compares the value held through each custodian with the total reported by
  the custodian, and classifies the variance using the 'reconciliation'
  bands of the configuration.

  Statements are read from a JSONL file of canonical statements, and from
  native custodian exports decoded with the 'statements' formats of the
  configuration.

Usage Examples:
$ stakectl reconcile -export coinbase=coinbase-2025-03-31.json -export anchorage=anchorage.json

`
}

func (c *reconcileCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.statements, "statements", "", "Canonical custodian statements (JSONL).")
	f.Var(&c.exports, "export", "Native custodian export, as custodian=path. Can be repeated.")
	f.StringVar(&c.metricsFile, "metrics-file", "", "Write the reconciliation gauges to this Prometheus textfile.")
	f.BoolVar(&c.json, "json", false, "Print the reports as JSON.")
}

func (c *reconcileCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.statements == "" && len(c.exports) == 0 {
		fmt.Fprintf(os.Stderr, "Error: at least one of -statements or -export is required\n")
		return subcommands.ExitUsageError
	}

	e, err := newEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer e.Close()

	reconciler, err := stakefolio.NewReconciler(e.cfg.Bands())
	if err != nil {
		return e.failure(err, "configuring reconciliation")
	}

	validators, err := decodeFile(*validatorsFile, e.decodeValidators)
	if err != nil {
		return e.failure(err, "loading validators")
	}
	statements, err := c.loadStatements(ctx, e)
	if err != nil {
		return e.failure(err, "loading statements")
	}

	reports, err := reconciler.ReconcileAll(stakefolio.InternalTotals(validators), statements)
	if err != nil {
		return e.failure(err, "reconciling")
	}
	for _, r := range reports {
		e.log.Info().Str("source", r.Source).Str("status", string(r.Status)).Stringer("variance", r.Variance).Msg("reconciled")
	}

	if c.metricsFile != "" {
		m := metrics.New()
		m.ObserveReports(reports)
		if err := m.WriteTextfile(c.metricsFile); err != nil {
			return e.failure(err, "writing metrics")
		}
	}

	if c.json {
		if err := printJSON(reports); err != nil {
			return e.failure(err, "printing reports")
		}
		return subcommands.ExitSuccess
	}
	printMarkdown(renderer.Reconciliation(reports))
	return subcommands.ExitSuccess
}

// loadStatements reads the canonical statements then every export, in flag order.
func (c *reconcileCmd) loadStatements(ctx context.Context, e *env) ([]stakefolio.CustodianStatement, error) {
	var canonical []stakefolio.CustodianStatement
	exported := make([]stakefolio.CustodianStatement, len(c.exports))

	formats := make([]statement.Format, len(c.exports))
	for i, x := range c.exports {
		format, ok := e.cfg.Statements[x.source]
		if !ok {
			return nil, fmt.Errorf("no statement format configured for %q", x.source)
		}
		formats[i] = format
	}

	g, _ := errgroup.WithContext(ctx)
	if c.statements != "" {
		g.Go(func() (err error) {
			canonical, err = decodeFile(c.statements, stakefolio.DecodeStatements)
			return err
		})
	}
	for i, x := range c.exports {
		g.Go(func() (err error) {
			exported[i], err = decodeFile(x.path, func(r io.Reader) (stakefolio.CustodianStatement, error) {
				return statement.Decode(r, formats[i])
			})
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	e.log.Info().Int("statements", len(canonical)).Int("exports", len(exported)).Msg("statements loaded")
	return append(canonical, exported...), nil
}
