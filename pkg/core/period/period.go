// Package period enumerates the calendar periods a lease spans and measures
// how much of a date range falls inside each of them.
package period

import (
	"errors"
	"time"
)

// ErrInvalidDateRange is returned when expiration is not after commencement.
var ErrInvalidDateRange = errors.New("invalid date range: expiration must be after commencement")

// Granularity selects calendar years or calendar months.
type Granularity int

const (
	Annual Granularity = iota
	Monthly
)

func (g Granularity) String() string {
	if g == Monthly {
		return "monthly"
	}
	return "annual"
}

// Range is an inclusive date range.
type Range struct {
	Start time.Time
	End   time.Time
}

// Valid reports whether both ends are set and Start <= End.
func (r Range) Valid() bool {
	return !r.Start.IsZero() && !r.End.IsZero() && !r.End.Before(r.Start)
}

// Period is one calendar year or month, clipped to the lease dates.
type Period struct {
	Index int
	Year  int
	Month time.Month // zero for annual periods
	Start time.Time
	End   time.Time
}

// Range returns the clipped span of the period.
func (p Period) Range() Range { return Range{Start: p.Start, End: p.End} }

// Label is "2024" for annual periods and "2024-03" for monthly ones.
func (p Period) Label() string {
	if p.Month == 0 {
		return p.Start.Format("2006")
	}
	return p.Start.Format("2006-01")
}

// Months is the inclusive count of calendar months the period touches.
func (p Period) Months() int {
	return monthOrdinal(p.End) - monthOrdinal(p.Start) + 1
}

// Split returns the calendar months of p as monthly periods clipped to p.
// A monthly period splits into itself.
func (p Period) Split() []Period {
	if p.Month != 0 {
		return []Period{p}
	}
	start, end := truncate(p.Start), truncate(p.End)
	out := make([]Period, 0, p.Months())
	for ord := monthOrdinal(start); ord <= monthOrdinal(end); ord++ {
		year, month := fromOrdinal(ord)
		first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		out = append(out, Period{
			Index: len(out),
			Year:  year,
			Month: month,
			Start: later(first, start),
			End:   earlier(first.AddDate(0, 1, -1), end),
		})
	}
	return out
}

// Resolve returns the ordered calendar periods between commencement and expiration.
// The first and last periods are clipped to the lease dates.
func Resolve(commencement, expiration time.Time, g Granularity) ([]Period, error) {
	if commencement.IsZero() || expiration.IsZero() || !expiration.After(commencement) {
		return nil, ErrInvalidDateRange
	}
	commencement = truncate(commencement)
	expiration = truncate(expiration)

	var periods []Period
	switch g {
	case Monthly:
		first := monthOrdinal(commencement)
		last := monthOrdinal(expiration)
		periods = make([]Period, 0, last-first+1)
		for ord := first; ord <= last; ord++ {
			year, month := fromOrdinal(ord)
			start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
			end := start.AddDate(0, 1, -1)
			periods = append(periods, Period{
				Index: len(periods),
				Year:  year,
				Month: month,
				Start: later(start, commencement),
				End:   earlier(end, expiration),
			})
		}
	default:
		periods = make([]Period, 0, expiration.Year()-commencement.Year()+1)
		for year := commencement.Year(); year <= expiration.Year(); year++ {
			start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
			end := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
			periods = append(periods, Period{
				Index: len(periods),
				Year:  year,
				Start: later(start, commencement),
				End:   earlier(end, expiration),
			})
		}
	}
	return periods, nil
}

// OverlapUnits measures the overlap of two inclusive ranges.
// Annual granularity counts calendar months inclusively, so ranges sharing a single
// day count as one month. Monthly granularity answers 0 or 1.
func OverlapUnits(a, b Range, g Granularity) int {
	if !a.Valid() || !b.Valid() {
		return 0
	}
	start := later(truncate(a.Start), truncate(b.Start))
	end := earlier(truncate(a.End), truncate(b.End))
	if end.Before(start) {
		return 0
	}
	if g == Monthly {
		return 1
	}
	return monthOrdinal(end) - monthOrdinal(start) + 1
}

// TermMonths is the number of whole months from commencement through expiration,
// where expiration is the last day of the lease.
func TermMonths(commencement, expiration time.Time) int {
	if commencement.IsZero() || expiration.IsZero() || expiration.Before(commencement) {
		return 0
	}
	return MonthsBetween(commencement, truncate(expiration).AddDate(0, 0, 1))
}

// MonthsBetween counts whole months from a to b (0 when b is before a).
func MonthsBetween(a, b time.Time) int {
	if b.Before(a) {
		return 0
	}
	months := monthOrdinal(b) - monthOrdinal(a)
	if b.Day() < a.Day() {
		months--
	}
	return max(months, 0)
}

// MonthOffset is the number of calendar months from the month of a to the month of b.
func MonthOffset(a, b time.Time) int {
	return monthOrdinal(b) - monthOrdinal(a)
}

func monthOrdinal(t time.Time) int {
	return t.Year()*12 + int(t.Month()) - 1
}

func fromOrdinal(ord int) (int, time.Month) {
	return ord / 12, time.Month(ord%12 + 1)
}

func truncate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func later(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earlier(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
