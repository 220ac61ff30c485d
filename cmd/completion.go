package cmd

import (
	"github.com/etnz/stakefolio/date"
	"github.com/etnz/stakefolio/docs"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// Completion describes the command line for shell completion.
func Completion() *complete.Command {
	global := map[string]complete.Predictor{
		"config":     predict.Files("*.yaml"),
		"validators": predict.Files("*.jsonl"),
		"rewards":    predict.Files("*.jsonl"),
	}
	window := map[string]complete.Predictor{
		"d":        predict.Something,
		"p":        predict.Set(date.Periods()),
		"calendar": predict.Nothing,
	}
	with := func(flags map[string]complete.Predictor, more map[string]complete.Predictor) map[string]complete.Predictor {
		res := make(map[string]complete.Predictor, len(flags)+len(more))
		for k, v := range flags {
			res[k] = v
		}
		for k, v := range more {
			res[k] = v
		}
		return res
	}

	topics, _ := docs.Topics()

	return &complete.Command{
		Flags: global,
		Sub: map[string]*complete.Command{
			"summary": {Flags: with(window, map[string]complete.Predictor{
				"by":            predict.Set{"custodian", "operator"},
				"save-snapshot": predict.Files("*.json"),
				"metrics-file":  predict.Files("*.prom"),
				"json":          predict.Nothing,
			})},
			"buckets": {Flags: map[string]complete.Predictor{"json": predict.Nothing}},
			"exceptions": {Flags: with(window, map[string]complete.Predictor{
				"previous":      predict.Files("*.json"),
				"save-snapshot": predict.Files("*.json"),
				"metrics-file":  predict.Files("*.prom"),
				"json":          predict.Nothing,
			})},
			"reconcile": {Flags: map[string]complete.Predictor{
				"statements":   predict.Files("*.jsonl"),
				"export":       predict.Something,
				"metrics-file": predict.Files("*.prom"),
				"json":         predict.Nothing,
			}},
			"config": {Flags: map[string]complete.Predictor{"check": predict.Nothing}},
			"topic":  {Args: predict.Set(append(topics, "*"))},
			"help":   {},
		},
	}
}
