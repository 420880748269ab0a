package amortization

import (
	"math"
	"time"

	"lease_economics/pkg/core/period"
)

// DefaultInterestRate is used for unamortized-cost schedules when none is configured.
const DefaultInterestRate = 0.08

// UnamortizedInput describes the deal costs a landlord recovers over the lease term.
type UnamortizedInput struct {
	Commencement    time.Time
	Expiration      time.Time
	TerminationDate time.Time

	RSF             float64
	TIAllowancePSF  float64
	TIActualCostPSF float64 // overage is max(0, actual - allowance)
	FreeRentMonths  float64
	MonthlyRent     float64 // values the free-rent months
	Brokerage       float64
	OtherCosts      float64

	// InterestRate overrides DefaultInterestRate when set.
	InterestRate *float64
}

// UnamortizedCosts is what remains unrecovered at the termination date.
type UnamortizedCosts struct {
	TI              float64 `json:"ti"`
	TIOverage       float64 `json:"ti_overage"`
	FreeRent        float64 `json:"free_rent"`
	Brokerage       float64 `json:"brokerage"`
	Other           float64 `json:"other"`
	Total           float64 `json:"total"`
	InterestRate    float64 `json:"interest_rate"`
	TermMonths      int     `json:"term_months"`
	MonthsElapsed   int     `json:"months_elapsed"`
	MonthsRemaining int     `json:"months_remaining"`
}

// CalculateUnamortizedCosts amortizes each cost category independently with the
// present-value method over the full term and reads each balance at the termination date.
// Invalid dates, terms or non-finite amounts yield an all-zero result instead of an error.
func CalculateUnamortizedCosts(in UnamortizedInput) UnamortizedCosts {
	rate := DefaultInterestRate
	if in.InterestRate != nil {
		rate = *in.InterestRate
	}
	if !finite(rate, in.RSF, in.TIAllowancePSF, in.TIActualCostPSF, in.FreeRentMonths, in.MonthlyRent, in.Brokerage, in.OtherCosts) || rate < 0 {
		return UnamortizedCosts{}
	}
	if in.Commencement.IsZero() || in.Expiration.IsZero() || in.TerminationDate.IsZero() {
		return UnamortizedCosts{}
	}
	if !in.Expiration.After(in.Commencement) || in.TerminationDate.Before(in.Commencement) {
		return UnamortizedCosts{}
	}

	termMonths := period.TermMonths(in.Commencement, in.Expiration)
	if termMonths <= 0 {
		return UnamortizedCosts{}
	}
	elapsed := min(period.MonthsBetween(in.Commencement, in.TerminationDate), termMonths)

	rsf := math.Max(in.RSF, 0)
	remaining := func(principal float64) float64 {
		return BalanceAfter(BuildSchedule(principal, rate, termMonths), elapsed)
	}

	out := UnamortizedCosts{
		TI:              remaining(math.Max(in.TIAllowancePSF, 0) * rsf),
		TIOverage:       remaining(math.Max(0, in.TIActualCostPSF-in.TIAllowancePSF) * rsf),
		FreeRent:        remaining(math.Max(in.FreeRentMonths, 0) * math.Max(in.MonthlyRent, 0)),
		Brokerage:       remaining(math.Max(in.Brokerage, 0)),
		Other:           remaining(math.Max(in.OtherCosts, 0)),
		InterestRate:    rate,
		TermMonths:      termMonths,
		MonthsElapsed:   elapsed,
		MonthsRemaining: termMonths - elapsed,
	}
	out.Total = out.TI + out.TIOverage + out.FreeRent + out.Brokerage + out.Other
	return out
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
