package stakefolio

import (
	"errors"
	"testing"
	"time"

	"github.com/etnz/stakefolio/date"
)

func TestTrailingAPY(t *testing.T) {
	window := NewWindow(day(time.March, 1), day(time.March, 31))
	events := []RewardEvent{
		R("v1", 0.05, day(time.March, 10)),
		R("v1", 0.05, day(time.March, 20)),
	}
	got, err := TrailingAPY(events, E(32), window)
	if err != nil {
		t.Fatalf("TrailingAPY() unexpected error: %v", err)
	}
	if got <= 0.03 || got >= 0.05 {
		t.Errorf("TrailingAPY() = %s, want between 3%% and 5%%", got)
	}
	// 0.1 / 32 * 365 / 30
	if want := Rate(0.1 / 32 * 365 / 30); !got.Equal(want) {
		t.Errorf("TrailingAPY() = %v, want %v", got, want)
	}
}

func TestTrailingAPY_OutsideWindow(t *testing.T) {
	window := NewWindow(day(time.March, 1), day(time.March, 31))
	inside := []RewardEvent{R("v1", 0.05, day(time.March, 1)), R("v1", 0.05, day(time.March, 31))}
	outside := append(inside,
		R("v1", 10, day(time.February, 28)),
		R("v1", 10, day(time.March, 31).Add(time.Nanosecond)),
	)
	want, err := TrailingAPY(inside, E(32), window)
	if err != nil {
		t.Fatalf("TrailingAPY() unexpected error: %v", err)
	}
	got, err := TrailingAPY(outside, E(32), window)
	if err != nil {
		t.Fatalf("TrailingAPY() unexpected error: %v", err)
	}
	if got != want {
		t.Errorf("TrailingAPY() with events outside the window = %v, want %v", got, want)
	}
}

func TestTrailingAPY_Zero(t *testing.T) {
	window := NewWindow(day(time.March, 1), day(time.March, 31))
	events := []RewardEvent{R("v1", 0.05, day(time.March, 10))}

	if got, err := TrailingAPY(events, Gwei{}, window); err != nil || got != 0 {
		t.Errorf("TrailingAPY(zero principal) = %v, %v, want 0", got, err)
	}
	if got, err := TrailingAPY(nil, E(32), window); err != nil || got != 0 {
		t.Errorf("TrailingAPY(no reward) = %v, %v, want 0", got, err)
	}
}

func TestTrailingAPY_EmptyWindow(t *testing.T) {
	for _, w := range []Window{
		NewWindow(day(time.March, 1), day(time.March, 1)),
		NewWindow(day(time.March, 31), day(time.March, 1)),
	} {
		if _, err := TrailingAPY(nil, E(32), w); !errors.Is(err, ErrEmptyWindow) {
			t.Errorf("TrailingAPY(%v) error = %v, want %v", w, err, ErrEmptyWindow)
		}
	}
}

func TestWindowOf(t *testing.T) {
	w := WindowOf(date.NewRange(date.New(2025, time.March, 1), date.New(2025, time.March, 30)))
	if !w.Start.Equal(day(time.March, 1)) {
		t.Errorf("Start = %v, want %v", w.Start, day(time.March, 1))
	}
	if !w.Contains(day(time.March, 31).Add(-time.Nanosecond)) || w.Contains(day(time.March, 31)) {
		t.Errorf("%v does not cover exactly the last day", w)
	}
	if d := w.Days(); d < 29.99 || d > 30 {
		t.Errorf("Days() = %v, want 30", d)
	}
}
