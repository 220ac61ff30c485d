// Package statement imports custodian statements from the JSON exports of
// custodians, whatever their shape, using JSONPath expressions.
package statement

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/stakefolio"
)

// Unit is the unit of the total in an export.
type Unit string

const (
	Gwei  Unit = "gwei"
	Ether Unit = "eth"
)

// Format describes where to find a statement in a custodian export.
//
//	{"account": {"custodian": "coinbase", "staked": "64.5", "asOf": "2025-03-31"}}
//
// is read with TotalPath "$.account.staked", DatePath "$.account.asOf" and Unit "eth".
type Format struct {
	// Source is the custodian the statement is for. It is used when
	// SourcePath is empty.
	Source string `yaml:"source,omitempty"`
	// SourcePath locates the custodian ID in the export.
	SourcePath string `yaml:"source_path,omitempty"`
	TotalPath  string `yaml:"total_path" validate:"required"`
	// DatePath locates the report date, RFC3339, a plain date or unix seconds.
	// Without one the statement is undated.
	DatePath string `yaml:"date_path,omitempty"`
	Unit     Unit   `yaml:"unit" default:"gwei" validate:"oneof=gwei eth"`
}

// Decode reads a single JSON export and extracts the statement described by f.
func Decode(r io.Reader, f Format) (stakefolio.CustodianStatement, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber() // keep amounts exact
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return stakefolio.CustodianStatement{}, fmt.Errorf("decoding export: %w", err)
	}
	return Extract(doc, f)
}

// Extract extracts the statement from an already decoded JSON document.
func Extract(doc any, f Format) (s stakefolio.CustodianStatement, err error) {
	s.Source = f.Source
	if f.SourcePath != "" {
		v, err := get(doc, f.SourcePath)
		if err != nil {
			return s, err
		}
		src, ok := v.(string)
		if !ok || src == "" {
			return s, fmt.Errorf("source at %q is not a string: %v", f.SourcePath, v)
		}
		s.Source = src
	}
	if s.Source == "" {
		return s, fmt.Errorf("statement has no source")
	}

	v, err := get(doc, f.TotalPath)
	if err != nil {
		return s, err
	}
	if s.TotalValue, err = parseAmount(v, f.Unit); err != nil {
		return s, fmt.Errorf("total at %q: %w", f.TotalPath, err)
	}

	if f.DatePath != "" {
		v, err := get(doc, f.DatePath)
		if err != nil {
			return s, err
		}
		if s.ReportDate, err = parseDate(v); err != nil {
			return s, fmt.Errorf("date at %q: %w", f.DatePath, err)
		}
	}
	return s, nil
}

func get(doc any, path string) (any, error) {
	v, err := jsonpath.Get(path, doc)
	if err != nil {
		return nil, fmt.Errorf("error evaluating %q: %w", path, err)
	}
	// jsonpath returns a list for wildcards and filters: keep the first answer.
	if list, ok := v.([]any); ok {
		if len(list) == 0 {
			return nil, fmt.Errorf("nothing found at %q", path)
		}
		v = list[0]
	}
	return v, nil
}

func parseAmount(v any, unit Unit) (stakefolio.Gwei, error) {
	var str string
	switch x := v.(type) {
	case json.Number:
		str = x.String()
	case string:
		str = strings.ReplaceAll(strings.TrimSpace(x), ",", "")
	case float64:
		str = strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return stakefolio.Gwei{}, fmt.Errorf("not an amount: %v", v)
	}
	switch unit {
	case Ether:
		return stakefolio.ParseETH(str)
	case Gwei, "":
		return stakefolio.ParseGwei(str)
	default:
		return stakefolio.Gwei{}, fmt.Errorf("unknown unit %q", unit)
	}
}

func parseDate(v any) (time.Time, error) {
	switch x := v.(type) {
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.DateOnly} {
			if t, err := time.Parse(layout, strings.TrimSpace(x)); err == nil {
				return t.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("invalid date %q", x)
	case json.Number:
		sec, err := x.Int64()
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", x, err)
		}
		return time.Unix(sec, 0).UTC(), nil
	case float64:
		return time.Unix(int64(x), 0).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("not a date: %v", v)
	}
}
