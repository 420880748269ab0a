// Package equivalency converts between negotiation levers (TI allowance, free rent,
// rent rate and term) while holding NPV constant at the lease's discount rate.
//
// All conversions share one valuation basis: the lease's calendar-year periods,
// weighted by the months each covers and discounted 1-indexed at the discount rate.
// TI is valued at the first period's discount factor.
package equivalency

import (
	"fmt"
	"math"

	"lease_economics/pkg/core/cashflow"
	"lease_economics/pkg/core/lease"
	"lease_economics/pkg/core/metrics"
	"lease_economics/pkg/core/period"
)

// basis is the shared valuation basis for one lease.
type basis struct {
	rate     float64
	rsf      float64
	commYear int
	firstDF  float64

	// Σ (months/12) × df over the annual periods
	weightedDF float64
	// discounted base rent PSF per month, from the first rent-paying month
	monthlyValue []float64
}

func newBasis(l lease.LeaseDescription) (*basis, error) {
	n := lease.Normalize(l)
	periods, err := period.Resolve(n.Commencement.Time, n.Expiration.Time, period.Annual)
	if err != nil {
		return nil, err
	}
	b := &basis{
		rate:     n.Rate(),
		rsf:      n.RSF,
		commYear: n.Commencement.Year(),
		firstDF:  metrics.DiscountFactor(n.Rate(), 1),
	}
	for _, p := range periods {
		b.weightedDF += float64(p.Months()) / 12 * metrics.DiscountFactor(b.rate, float64(p.Index+1))
	}

	if b.rsf > 0 {
		started := false
		for _, line := range cashflow.BuildMonthly(n) {
			if !started && line.BaseRent <= 0 {
				continue
			}
			started = true
			df := metrics.DiscountFactor(b.rate, float64(line.Year-b.commYear+1))
			b.monthlyValue = append(b.monthlyValue, line.BaseRent/b.rsf*df)
		}
	}
	return b, nil
}

func (b *basis) usable() bool {
	return b.weightedDF > 0 && b.firstDF > 0 && !math.IsNaN(b.weightedDF)
}

// TIToRateEquivalentPSFYr is the rent reduction ($/SF/yr over the whole term) worth the
// same NPV as tiPSF of TI allowance paid at commencement.
func TIToRateEquivalentPSFYr(l lease.LeaseDescription, tiPSF float64) float64 {
	b, err := newBasis(l)
	if err != nil || !b.usable() {
		return 0
	}
	return tiPSF * b.firstDF / b.weightedDF
}

// RateToTIEquivalentPSF is the inverse of TIToRateEquivalentPSFYr.
func RateToTIEquivalentPSF(l lease.LeaseDescription, ratePSF float64) float64 {
	b, err := newBasis(l)
	if err != nil || !b.usable() {
		return 0
	}
	return ratePSF * b.weightedDF / b.firstDF
}

// FreeRentToRateEquivalentPSFYr values the first months of rent (escalated, month by
// month) and spreads that value over the term as a $/SF/yr rate reduction.
func FreeRentToRateEquivalentPSFYr(l lease.LeaseDescription, months int) float64 {
	b, err := newBasis(l)
	if err != nil || !b.usable() || months <= 0 {
		return 0
	}
	return b.freeRentValue(months) / b.weightedDF
}

// RateToFreeRentMonths is the whole number of free months closest in value to a
// ratePSF reduction over the term. Rounding makes it lossy for arbitrary rates.
func RateToFreeRentMonths(l lease.LeaseDescription, ratePSF float64) int {
	b, err := newBasis(l)
	if err != nil || !b.usable() || ratePSF <= 0 {
		return 0
	}
	target := ratePSF * b.weightedDF
	prev := 0.0
	for k, v := range b.monthlyValue {
		cum := prev + v
		if cum >= target {
			if target-prev < cum-target {
				return k
			}
			return k + 1
		}
		prev = cum
	}
	return len(b.monthlyValue)
}

func (b *basis) freeRentValue(months int) float64 {
	total := 0.0
	for k := 0; k < months && k < len(b.monthlyValue); k++ {
		total += b.monthlyValue[k]
	}
	return total
}

// TermExtensionToAdditionalTIPSF is the extra TI ($/SF at commencement) a landlord can
// fund from the base rent of extending the lease by extensionMonths.
// The last rent row is carried into the extension.
func TermExtensionToAdditionalTIPSF(l lease.LeaseDescription, extensionMonths int) float64 {
	if extensionMonths <= 0 {
		return 0
	}
	current := lease.Normalize(l)
	if current.RSF <= 0 {
		return 0
	}
	b, err := newBasis(current)
	if err != nil || !b.usable() {
		return 0
	}

	extended := Extend(current, extensionMonths)
	before := baseRentNPV(cashflow.BuildAnnual(current), b.rate)
	after := baseRentNPV(cashflow.BuildAnnual(extended), b.rate)
	return math.Max(0, after-before) / current.RSF / b.firstDF
}

// Extend returns a copy of l with expiration pushed out by months. Rent rows that ran
// to the old expiration run to the new one.
func Extend(l lease.LeaseDescription, months int) lease.LeaseDescription {
	n := lease.Normalize(l)
	if !n.Expiration.IsSet() || months <= 0 {
		return n
	}
	oldExp := n.Expiration
	// step from the day after expiration so month-end leases stay month-end
	newExp := lease.Date{Time: oldExp.AddDate(0, 0, 1).AddDate(0, months, -1)}
	n.Expiration = newExp
	n.Term = nil
	for i := range n.RentSchedule {
		if n.RentSchedule[i].End.Equal(oldExp.Time) {
			n.RentSchedule[i].End = newExp
		}
	}
	return n
}

func baseRentNPV(lines []cashflow.Line, rate float64) float64 {
	flows := make([]float64, len(lines))
	for i, line := range lines {
		flows[i] = line.BaseRent
	}
	return metrics.NPVFlows(flows, rate)
}

// =============================================================================
// DISPATCH
// =============================================================================

// Kind names one conversion.
type Kind string

const (
	TIToRate           Kind = "ti_to_rate"
	RateToTI           Kind = "rate_to_ti"
	FreeRentToRate     Kind = "free_rent_to_rate"
	RateToFreeRent     Kind = "rate_to_free_rent"
	TermExtensionToTI  Kind = "term_extension_to_ti"
	DefaultEquivalency Kind = TIToRate
)

// Result is one conversion with its inputs echoed back.
type Result struct {
	Kind         Kind    `json:"kind"`
	Input        float64 `json:"input"`
	Output       float64 `json:"output"`
	DiscountRate float64 `json:"discount_rate"`
}

// Convert runs the conversion named by kind. Month inputs are rounded to whole months.
func Convert(l lease.LeaseDescription, kind Kind, value float64) (Result, error) {
	if kind == "" {
		kind = DefaultEquivalency
	}
	res := Result{Kind: kind, Input: value, DiscountRate: lease.Normalize(l).Rate()}
	switch kind {
	case TIToRate:
		res.Output = TIToRateEquivalentPSFYr(l, value)
	case RateToTI:
		res.Output = RateToTIEquivalentPSF(l, value)
	case FreeRentToRate:
		res.Output = FreeRentToRateEquivalentPSFYr(l, int(math.Round(value)))
	case RateToFreeRent:
		res.Output = float64(RateToFreeRentMonths(l, value))
	case TermExtensionToTI:
		res.Output = TermExtensionToAdditionalTIPSF(l, int(math.Round(value)))
	default:
		return Result{}, fmt.Errorf("unknown equivalency %q", kind)
	}
	return res, nil
}
