// Package cmd implements the stakectl command line.
package cmd

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/stakefolio"
	"github.com/etnz/stakefolio/config"
	"github.com/etnz/stakefolio/date"
	"github.com/etnz/stakefolio/logging"
	"github.com/google/subcommands"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&summaryCmd{}, "portfolio")
	c.Register(&bucketsCmd{}, "portfolio")
	c.Register(&exceptionsCmd{}, "portfolio")
	c.Register(&reconcileCmd{}, "portfolio")
	c.Register(&configCmd{}, "")
	c.Register(&topicCmd{}, "")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var configFile = flag.String("config", "stakefolio.yaml", "Path to the configuration file (YAML)")
var validatorsFile = flag.String("validators", "validators.jsonl", "Path to the validator records (JSONL)")
var rewardsFile = flag.String("rewards", "rewards.jsonl", "Path to the reward events (JSONL)")

// stdout is where reports are written.
var stdout io.Writer = os.Stdout

// markdownStyle is the glamour style used to print reports, "auto" detects the terminal.
var markdownStyle = "auto"

// env is what every command needs: the configuration and a logger.
type env struct {
	cfg    *config.Config
	log    zerolog.Logger
	closer io.Closer
}

func newEnv() (*env, error) {
	cfg, err := config.LoadWithEnv(*configFile)
	if err != nil {
		return nil, fmt.Errorf("loading configuration %q: %w", *configFile, err)
	}
	log, closer, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("config", *configFile).Str("taxonomy", cfg.Taxonomy).Msg("configuration loaded")
	return &env{cfg: cfg, log: log, closer: closer}, nil
}

func (e *env) Close() { e.closer.Close() }

// failure reports err and returns the failure exit status.
func (e *env) failure(err error, msg string) subcommands.ExitStatus {
	e.log.Error().Err(err).Msg(msg)
	fmt.Fprintf(os.Stderr, "Error %s: %v\n", msg, err)
	return subcommands.ExitFailure
}

// loadInputs decodes the validators and the reward events concurrently.
func (e *env) loadInputs(ctx context.Context) ([]stakefolio.ValidatorRecord, []stakefolio.RewardEvent, error) {
	var validators []stakefolio.ValidatorRecord
	var rewards []stakefolio.RewardEvent
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		validators, err = decodeFile(*validatorsFile, e.decodeValidators)
		return err
	})
	g.Go(func() (err error) {
		rewards, err = decodeFile(*rewardsFile, stakefolio.DecodeRewards)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	e.log.Info().Int("validators", len(validators)).Int("rewards", len(rewards)).Msg("inputs loaded")
	return validators, rewards, nil
}

func (e *env) decodeValidators(r io.Reader) ([]stakefolio.ValidatorRecord, error) {
	return stakefolio.DecodeValidators(r, e.cfg.StateTaxonomy())
}

func decodeFile[T any](path string, decode func(io.Reader) (T, error)) (T, error) {
	var zero T
	f, err := os.Open(path)
	if err != nil {
		return zero, err
	}
	defer f.Close()
	v, err := decode(f)
	if err != nil {
		return zero, fmt.Errorf("decoding %q: %w", path, err)
	}
	return v, nil
}

// windowFlags selects the yield window: the trailing period ending on the
// date, or with -calendar the calendar period containing it.
type windowFlags struct {
	date     string
	period   string
	calendar bool
}

func (w *windowFlags) SetFlags(f *flag.FlagSet) {
	f.StringVar(&w.date, "d", date.Today().String(), "Last day of the yield window.")
	f.StringVar(&w.period, "p", "month", "Length of the trailing yield window: day, week, month, quarter or year.")
	f.BoolVar(&w.calendar, "calendar", false, "Use the calendar period containing the date (e.g. March, or 2025-Q1) instead of the trailing one.")
}

// resolve returns the days of the window, the window and the as-of time:
// now when the window contains today, the end of the window otherwise.
func (w *windowFlags) resolve(now time.Time) (date.Range, stakefolio.Window, time.Time, error) {
	on, err := date.Parse(w.date)
	if err != nil {
		return date.Range{}, stakefolio.Window{}, time.Time{}, err
	}
	p, err := date.ParsePeriod(w.period)
	if err != nil {
		return date.Range{}, stakefolio.Window{}, time.Time{}, err
	}
	rng := p.Trailing(on)
	if w.calendar {
		rng = p.Range(on)
	}
	window := stakefolio.WindowOf(rng)
	asOf := window.End
	if rng.Contains(date.Of(now)) {
		asOf = now.UTC()
		window.End = asOf
	}
	return rng, window, asOf, nil
}

// printMarkdown renders markdown for the terminal. The raw markdown is
// printed if it cannot be rendered.
func printMarkdown(md string) {
	opt := glamour.WithAutoStyle()
	if markdownStyle != "auto" {
		opt = glamour.WithStandardStyle(markdownStyle)
	}
	r, err := glamour.NewTermRenderer(opt, glamour.WithWordWrap(120))
	if err != nil {
		fmt.Fprint(stdout, md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Fprint(stdout, md)
		return
	}
	fmt.Fprint(stdout, out)
}

// printJSON writes v as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// saveSnapshot writes s to path, when path is set.
func saveSnapshot(path string, s stakefolio.Snapshot) error {
	if path == "" {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := stakefolio.EncodeSnapshot(f, s); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
