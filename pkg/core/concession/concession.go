// Package concession resolves free-rent credits and landlord concession totals.
package concession

import (
	"math"
	"time"

	"lease_economics/pkg/core/lease"
	"lease_economics/pkg/core/period"
)

// RateFunc returns a PSF/yr rate in effect during a calendar year.
type RateFunc func(year int) float64

// MonthRateFunc returns the PSF/yr base rent rate charged during one calendar month,
// zero for months the tenant owes no base rent.
type MonthRateFunc func(month period.Period) float64

// AbatementInput is everything the abatement resolver reads.
type AbatementInput struct {
	Variant      *lease.AbatementVariant
	Commencement time.Time
	// FirstRentRate is the unescalated rate of the first rent row (at-commencement anchor).
	FirstRentRate float64
	RentRate      MonthRateFunc
	OpexRate      RateFunc
	RSF           float64
}

// ResolveAbatement returns one credit (<= 0) per period, index-aligned with periods.
//
// AtCommencement credits the first rent row's unescalated rate for
// min(months, 12 - commencement month index) months, inside the commencement calendar
// year only and never past expiration. Free rent that would spill into the next year
// is not modeled in this mode.
//
// Custom credits each month of a window at the base rent charged that month, plus the
// tenant's opex rate for base-plus-NNN windows, across year boundaries. Months before
// rent start carry no base rent, so only their opex share is credited.
func ResolveAbatement(in AbatementInput, periods []period.Period, g period.Granularity) []float64 {
	credits := make([]float64, len(periods))
	if in.Variant == nil || in.RSF <= 0 || len(periods) == 0 {
		return credits
	}

	switch in.Variant.Kind {
	case lease.AbatementAtCommencement:
		resolveAtCommencement(in, periods, g, credits)
	case lease.AbatementCustom:
		resolveCustom(in, periods, g, credits)
	}

	for i, c := range credits {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			credits[i] = 0
		}
	}
	return credits
}

func resolveAtCommencement(in AbatementInput, periods []period.Period, g period.Granularity, credits []float64) {
	monthIndex := int(in.Commencement.Month()) - 1
	months := min(in.Variant.Months, 12-monthIndex)
	if months <= 0 {
		return
	}

	year := in.Commencement.Year()
	ratePSF := in.FirstRentRate
	if in.Variant.AppliesTo == lease.BasePlusNNN && in.OpexRate != nil {
		ratePSF += in.OpexRate(year)
	}
	monthly := ratePSF * in.RSF / 12

	for i, p := range periods {
		if p.Year != year {
			continue
		}
		switch g {
		case period.Monthly:
			if period.MonthOffset(in.Commencement, p.Start) < months {
				credits[i] = -monthly
			}
		default:
			credits[i] = -monthly * float64(min(months, p.Months()))
		}
	}
}

func resolveCustom(in AbatementInput, periods []period.Period, g period.Granularity, credits []float64) {
	for _, ap := range in.Variant.Periods {
		window := period.Range{Start: ap.Start.Time, End: ap.End.Time}
		if !window.Valid() {
			continue
		}
		for i, p := range periods {
			if period.OverlapUnits(window, p.Range(), g) == 0 {
				continue
			}
			for _, m := range p.Split() {
				if period.OverlapUnits(window, m.Range(), period.Monthly) == 0 {
					continue
				}
				ratePSF := 0.0
				if in.RentRate != nil {
					ratePSF = in.RentRate(m)
				}
				if ap.AppliesTo == lease.BasePlusNNN && in.OpexRate != nil {
					ratePSF += in.OpexRate(m.Year)
				}
				credits[i] -= ratePSF * in.RSF / 12
			}
		}
	}
}

// Totals summarizes landlord concessions for one lease.
type Totals struct {
	TIAllowance      float64 `json:"ti_allowance"`
	TIShortfall      float64 `json:"ti_shortfall"`
	MovingAllowance  float64 `json:"moving_allowance"`
	OtherCredits     float64 `json:"other_credits"`
	FreeRentMonths   int     `json:"free_rent_months"`
	FreeRentValue    float64 `json:"free_rent_value"`
	TotalConcessions float64 `json:"total_concessions"`
}

// ComputeTotals aggregates concessions; credits are the resolved abatement credits.
func ComputeTotals(c lease.Concessions, rsf float64, credits []float64) Totals {
	rsf = math.Max(rsf, 0)
	t := Totals{
		TIAllowance:     math.Max(c.TIAllowancePSF, 0) * rsf,
		TIShortfall:     TIShortfall(c, rsf),
		MovingAllowance: math.Max(c.MovingAllowance, 0),
		OtherCredits:    math.Max(c.OtherCredits, 0),
		FreeRentMonths:  c.Abatement.TotalMonths(),
	}
	for _, credit := range credits {
		t.FreeRentValue -= credit
	}
	t.TotalConcessions = t.TIAllowance + t.MovingAllowance + t.OtherCredits + t.FreeRentValue
	return t
}

// TIShortfall is the tenant-funded excess of actual TI cost over the allowance.
func TIShortfall(c lease.Concessions, rsf float64) float64 {
	if rsf <= 0 {
		return 0
	}
	return math.Max(0, c.TIActualCostPSF-c.TIAllowancePSF) * rsf
}
