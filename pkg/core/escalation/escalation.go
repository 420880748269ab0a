// Package escalation resolves escalated rates for fixed and custom escalation variants.
package escalation

import (
	"math"
	"sort"

	"lease_economics/pkg/core/lease"
)

// ResolveRate returns baseValue escalated from startYear to asOfYear.
//
// Fixed: baseValue * (1 + min(rate, cap))^(asOfYear - startYear).
// Custom: the rate of the first period (sorted by start, ties in input order) whose
// calendar-year range contains asOfYear, applied with the same exponent; no match means
// no escalation. Negative rates are clamped to 0 and years before startYear are not
// discounted back.
func ResolveRate(v lease.EscalationVariant, baseValue float64, asOfYear, startYear int) float64 {
	years := asOfYear - startYear
	if years <= 0 {
		return baseValue
	}
	rate := AnnualRate(v, asOfYear)
	if rate == 0 {
		return baseValue
	}
	return baseValue * math.Pow(1+rate, float64(years))
}

// AnnualRate is the clamped rate a variant applies in the given calendar year.
func AnnualRate(v lease.EscalationVariant, year int) float64 {
	var rate float64
	switch v.Kind {
	case lease.EscalationFixed:
		rate = v.Rate
		if v.Cap != nil && *v.Cap < rate {
			rate = *v.Cap
		}
	case lease.EscalationCustom:
		if p, ok := matchPeriod(v.Periods, year); ok {
			rate = p.Rate
		}
	}
	if rate < 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return 0
	}
	return rate
}

func matchPeriod(periods []lease.EscalationPeriod, year int) (lease.EscalationPeriod, bool) {
	ordered := periods
	if !sort.SliceIsSorted(periods, func(i, j int) bool {
		return periods[i].Start.Before(periods[j].Start.Time)
	}) {
		ordered = append([]lease.EscalationPeriod(nil), periods...)
		sort.SliceStable(ordered, func(i, j int) bool {
			return ordered[i].Start.Before(ordered[j].Start.Time)
		})
	}
	for _, p := range ordered {
		if !p.Start.IsSet() {
			continue
		}
		endYear := p.Start.Year()
		if p.End.IsSet() {
			endYear = p.End.Year()
		}
		if year >= p.Start.Year() && year <= endYear {
			return p, true
		}
	}
	return lease.EscalationPeriod{}, false
}
