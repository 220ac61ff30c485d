package stakefolio

import (
	"fmt"
	"time"

	"github.com/etnz/stakefolio/date"
)

// daysPerYear is the annualization basis of trailing yields.
const daysPerYear = 365

// Window is a closed time interval [Start, End].
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewWindow returns the window [start, end].
func NewWindow(start, end time.Time) Window { return Window{Start: start, End: end} }

// WindowOf returns the window covering every instant of the days in r, in UTC.
func WindowOf(r date.Range) Window {
	return Window{
		Start: r.From.Time(),
		End:   r.To.Add(1).Time().Add(-time.Nanosecond),
	}
}

// Contains reports whether t is in the window, boundaries included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Days returns the duration of the window in fractional days.
func (w Window) Days() float64 {
	return w.End.Sub(w.Start).Hours() / 24
}

func (w Window) String() string {
	return fmt.Sprintf("[%s, %s]", w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
}

// TrailingAPY returns the annualized rate of return earned by 'principal'
// from the reward events that fall within the window.
//
// Events outside the window are ignored even if present. Rewards are summed
// exactly and only the final ratio is a float:
//
//	apy = sum(rewards in window) / principal * 365 / window.Days()
//
// A zero principal or no reward in the window yields 0.
func TrailingAPY(events []RewardEvent, principal Gwei, window Window) (Rate, error) {
	days := window.Days()
	if days <= 0 {
		return 0, fmt.Errorf("%w %v", ErrEmptyWindow, window)
	}
	if principal.IsZero() {
		return 0, nil
	}
	var earned Gwei
	for _, e := range events {
		if window.Contains(e.Timestamp) {
			earned = earned.Add(e.Amount)
		}
	}
	if earned.IsZero() {
		return 0, nil
	}
	return Rate(earned.Ratio(principal) * daysPerYear / days), nil
}
