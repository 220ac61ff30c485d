// Package date provides day-granularity dates, periods and ranges used to
// select reporting windows.
package date

import (
	"fmt"
	"time"
)

const readDateFormat = "2006-1-2" // Permissive read date format (allows single-digit month/day).

// DateFormat is the format used to represent dates as strings in ISO-8601 format.
const DateFormat = "2006-01-02" // write date format

const Day = 24 * time.Hour

// Date represents a date with day-level granularity.
type Date struct {
	y int
	m time.Month
	d int
}

// New returns a normalized Date for the given year, month, and day.
func New(year int, month time.Month, day int) Date {
	d := Date{year, month, day}
	d.y, d.m, d.d = d.Time().Date()
	return d
}

// Of returns the UTC day containing t.
func Of(t time.Time) Date { return New(t.UTC().Date()) }

// Today returns the current date.
func Today() Date { return Of(time.Now()) }

// Time returns the canonical representation of that day: midnight UTC.
func (d Date) Time() time.Time { return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, time.UTC) }

// Year returns current year.
func (d Date) Year() int { return d.y }

// Month returns the month of the date.
func (d Date) Month() time.Month { return d.m }

// Day returns current day of the month.
func (d Date) Day() int { return d.d }

// Weekday returns the day of the week for the date.
func (d Date) Weekday() time.Weekday { return d.Time().Weekday() }

// ISOWeek returns the ISO 8601 year and week number in which d occurs.
func (d Date) ISOWeek() (year, week int) { return d.Time().ISOWeek() }

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool { return d.y == 0 && d.m == 0 && d.d == 0 }

// Before reports whether the day d is before x.
func (d Date) Before(x Date) bool { return d.Time().Before(x.Time()) }

// After reports whether the day d is after x.
func (d Date) After(x Date) bool { return d.Time().After(x.Time()) }

// Add returns a new Date with the given number of days added.
func (d Date) Add(i int) Date { return New(d.y, d.m, d.d+i) }

// Format formats the date using a time layout.
func (d Date) Format(layout string) string { return d.Time().Format(layout) }

// String format the date in its standard format.
func (d Date) String() string { return d.Time().Format(DateFormat) }

// StartOf returns the first day of the period containing d.
func (d Date) StartOf(period Period) Date {
	switch period {
	case Daily:
		return d
	case Weekly:
		offset := int(d.Weekday() - time.Monday)
		if offset < 0 {
			offset += 7
		}
		return d.Add(-offset)
	case Monthly:
		return New(d.y, d.m, 1)
	case Quarterly:
		quarter := (d.m - 1) / 3
		return New(d.y, quarter*3+1, 1)
	case Yearly:
		return New(d.y, time.January, 1)
	default:
		panic(fmt.Sprintf("unknown period %d", period))
	}
}

// EndOf returns the last day of the period containing d.
func (d Date) EndOf(period Period) Date {
	switch period {
	case Daily:
		return d
	case Weekly:
		return d.StartOf(Weekly).Add(6)
	case Monthly:
		return New(d.y, d.m+1, 0)
	case Quarterly:
		quarter := (d.m - 1) / 3
		return New(d.y, quarter*3+4, 0)
	case Yearly:
		return New(d.y, time.December, 31)
	default:
		panic(fmt.Sprintf("unknown period %d", period))
	}
}

// Parse parses a Date from a string. It is lenient and accepts formats like "2025-7-1".
func Parse(str string) (Date, error) {
	on, err := time.Parse(readDateFormat, str)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q want format %q: %w", str, readDateFormat, err)
	}
	return New(on.Date()), nil
}
