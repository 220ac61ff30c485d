package date

import (
	"fmt"
	"strings"
)

type Period int

const (
	Daily Period = iota
	Weekly
	Monthly
	Quarterly
	Yearly
)

func (p Period) String() string {
	switch p {
	case Daily:
		return "daily"
	case Weekly:
		return "weekly"
	case Monthly:
		return "monthly"
	case Quarterly:
		return "quarterly"
	case Yearly:
		return "yearly"
	default:
		return fmt.Sprintf("period(%d)", int(p))
	}
}

// Name returns the singular noun for the period (e.g., "day", "week", "month").
func (p Period) Name() string {
	switch p {
	case Daily:
		return "day"
	case Weekly:
		return "week"
	case Monthly:
		return "month"
	case Quarterly:
		return "quarter"
	case Yearly:
		return "year"
	default:
		return "period"
	}
}

// Range returns the calendar range of period p containing d.
func (p Period) Range(d Date) Range {
	return Range{From: d.StartOf(p), To: d.EndOf(p)}
}

// Days returns the conventional length of a trailing period: 1, 7, 30, 91 or 365 days.
func (p Period) Days() int {
	switch p {
	case Daily:
		return 1
	case Weekly:
		return 7
	case Monthly:
		return 30
	case Quarterly:
		return 91
	case Yearly:
		return 365
	default:
		panic(fmt.Sprintf("unknown period %d", p))
	}
}

// Trailing returns the range of p.Days() days that ends on d.
// For instance a trailing month ending on 2025-03-31 starts on 2025-03-02.
func (p Period) Trailing(d Date) Range {
	return Range{From: d.Add(1 - p.Days()), To: d}
}

// Periods lists the valid period names, for flags usage and completion.
func Periods() []string {
	var names []string
	for p := Daily; p <= Yearly; p++ {
		names = append(names, p.Name())
	}
	return names
}

// ParsePeriod parses a period from its name ("month") or its adjective ("monthly").
func ParsePeriod(s string) (Period, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for p := Daily; p <= Yearly; p++ {
		if s == p.Name() || s == p.String() {
			return p, nil
		}
	}
	return Daily, fmt.Errorf("unknown period %q", s)
}
