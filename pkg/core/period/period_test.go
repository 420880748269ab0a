package period

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestResolveAnnualClipsFirstAndLastYear(t *testing.T) {
	periods, err := Resolve(date(2024, time.July, 15), date(2027, time.March, 31), Annual)
	require.NoError(t, err)
	require.Len(t, periods, 4)

	assert.Equal(t, 2024, periods[0].Year)
	assert.Equal(t, date(2024, time.July, 15), periods[0].Start)
	assert.Equal(t, date(2024, time.December, 31), periods[0].End)
	assert.Equal(t, 6, periods[0].Months())

	assert.Equal(t, 12, periods[1].Months())
	assert.Equal(t, date(2027, time.March, 31), periods[3].End)
	assert.Equal(t, 3, periods[3].Months())

	for i, p := range periods {
		assert.Equal(t, i, p.Index)
		assert.Equal(t, time.Month(0), p.Month)
	}
}

func TestResolveMonthly(t *testing.T) {
	periods, err := Resolve(date(2024, time.November, 10), date(2025, time.February, 9), Monthly)
	require.NoError(t, err)
	require.Len(t, periods, 4)
	assert.Equal(t, "2024-11", periods[0].Label())
	assert.Equal(t, date(2024, time.November, 10), periods[0].Start)
	assert.Equal(t, date(2024, time.November, 30), periods[0].End)
	assert.Equal(t, "2025-02", periods[3].Label())
	assert.Equal(t, date(2025, time.February, 9), periods[3].End)
}

func TestResolveRejectsInvertedRange(t *testing.T) {
	_, err := Resolve(date(2025, time.January, 1), date(2024, time.January, 1), Annual)
	assert.True(t, errors.Is(err, ErrInvalidDateRange))

	_, err = Resolve(date(2025, time.January, 1), date(2025, time.January, 1), Monthly)
	assert.True(t, errors.Is(err, ErrInvalidDateRange))

	_, err = Resolve(time.Time{}, date(2025, time.January, 1), Annual)
	assert.True(t, errors.Is(err, ErrInvalidDateRange))
}

func TestOverlapUnitsAnnualIsInclusive(t *testing.T) {
	year := Range{Start: date(2024, time.January, 1), End: date(2024, time.December, 31)}

	full := Range{Start: date(2023, time.June, 1), End: date(2026, time.June, 1)}
	assert.Equal(t, 12, OverlapUnits(full, year, Annual))

	// a single shared day still counts as one month
	sameDay := Range{Start: date(2024, time.December, 31), End: date(2025, time.March, 1)}
	assert.Equal(t, 1, OverlapUnits(sameDay, year, Annual))

	// mid-month to mid-month spans both end months
	partial := Range{Start: date(2024, time.March, 15), End: date(2024, time.May, 2)}
	assert.Equal(t, 3, OverlapUnits(partial, year, Annual))

	disjoint := Range{Start: date(2025, time.January, 1), End: date(2025, time.December, 31)}
	assert.Equal(t, 0, OverlapUnits(disjoint, year, Annual))
}

func TestOverlapUnitsMonthly(t *testing.T) {
	month := Range{Start: date(2024, time.March, 1), End: date(2024, time.March, 31)}
	assert.Equal(t, 1, OverlapUnits(Range{Start: date(2024, time.January, 1), End: date(2024, time.December, 31)}, month, Monthly))
	assert.Equal(t, 1, OverlapUnits(Range{Start: date(2024, time.March, 31), End: date(2024, time.April, 30)}, month, Monthly))
	assert.Equal(t, 0, OverlapUnits(Range{Start: date(2024, time.April, 1), End: date(2024, time.April, 30)}, month, Monthly))
}

func TestOverlapUnitsInvalidRange(t *testing.T) {
	inverted := Range{Start: date(2024, time.May, 1), End: date(2024, time.January, 1)}
	year := Range{Start: date(2024, time.January, 1), End: date(2024, time.December, 31)}
	assert.Equal(t, 0, OverlapUnits(inverted, year, Annual))
	assert.Equal(t, 0, OverlapUnits(Range{}, year, Annual))
}

func TestTermMonths(t *testing.T) {
	assert.Equal(t, 60, TermMonths(date(2024, time.January, 1), date(2028, time.December, 31)))
	assert.Equal(t, 60, TermMonths(date(2024, time.July, 15), date(2029, time.July, 14)))
	assert.Equal(t, 0, TermMonths(date(2024, time.July, 15), date(2024, time.July, 1)))
	assert.Equal(t, 14, MonthOffset(date(2024, time.November, 20), date(2026, time.January, 3)))
}

func TestSplitMatchesMonthlyResolve(t *testing.T) {
	annual, err := Resolve(date(2024, time.July, 15), date(2025, time.March, 10), Annual)
	require.NoError(t, err)
	monthly, err := Resolve(date(2024, time.July, 15), date(2025, time.March, 10), Monthly)
	require.NoError(t, err)

	var split []Period
	for _, p := range annual {
		months := p.Split()
		assert.Len(t, months, p.Months())
		split = append(split, months...)
	}
	require.Len(t, split, len(monthly))
	for i := range monthly {
		assert.Equal(t, monthly[i].Start, split[i].Start)
		assert.Equal(t, monthly[i].End, split[i].End)
		assert.Equal(t, monthly[i].Month, split[i].Month)
	}

	assert.Equal(t, []Period{monthly[2]}, monthly[2].Split())
}
