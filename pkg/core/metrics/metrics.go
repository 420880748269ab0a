// Package metrics derives investment metrics from a cashflow line sequence.
package metrics

import (
	"math"

	"lease_economics/pkg/core/cashflow"
)

// NPV discounts each line's net cash flow, the first line one full period out.
func NPV(lines []cashflow.Line, rate float64) float64 {
	return NPVFlows(cashflow.NetFlows(lines), rate)
}

// NPVFlows is NPV over raw flows: Σ flow[i] / (1+rate)^(i+1).
// A zero rate returns the plain sum.
func NPVFlows(flows []float64, rate float64) float64 {
	if rate <= -1 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return 0
	}
	total := 0.0
	factor := 1.0
	for _, f := range flows {
		factor *= 1 + rate
		total += f / factor
	}
	return finiteOr(total, 0)
}

// DiscountFactor is (1+rate)^-t.
func DiscountFactor(rate, t float64) float64 {
	if rate <= -1 {
		return 0
	}
	return math.Pow(1+rate, -t)
}

// EffectiveRentPSF is Σ net cash flow / (max(1, rsf) × max(1, years)).
func EffectiveRentPSF(lines []cashflow.Line, rsf, years float64) float64 {
	total := 0.0
	for _, l := range lines {
		total += l.NetCashFlow
	}
	return safeDiv(total, math.Max(1, rsf)*math.Max(1, years))
}

// =============================================================================
// IRR
// =============================================================================

const (
	irrMaxIter   = 100
	irrTolerance = 1e-6
	irrFloor     = -0.9999
	irrMinDeriv  = 1e-12
	defaultGuess = 0.10
)

// IRR solves NPV(rate) = 0 with Newton-Raphson starting from 10%.
func IRR(lines []cashflow.Line) float64 {
	return IRRWithGuess(cashflow.NetFlows(lines), defaultGuess)
}

// IRRWithGuess runs at most 100 Newton steps and stops once |NPV| < 1e-6.
// If the derivative vanishes the last rate reached is returned; the result is always finite.
func IRRWithGuess(flows []float64, guess float64) float64 {
	if len(flows) == 0 || math.IsNaN(guess) || math.IsInf(guess, 0) {
		return 0
	}
	r := math.Max(guess, irrFloor)
	for iter := 0; iter < irrMaxIter; iter++ {
		npv, deriv := npvAndDeriv(flows, r)
		if math.Abs(npv) < irrTolerance {
			return r
		}
		if math.Abs(deriv) < irrMinDeriv || math.IsNaN(deriv) || math.IsInf(deriv, 0) {
			return r
		}
		next := r - npv/deriv
		if math.IsNaN(next) || math.IsInf(next, 0) {
			return r
		}
		r = math.Max(next, irrFloor)
	}
	return r
}

// npvAndDeriv evaluates Σ f_t/(1+r)^t and its derivative Σ -t·f_t/(1+r)^(t+1).
// Roots coincide with the 1-indexed NPV used for valuation.
func npvAndDeriv(flows []float64, r float64) (float64, float64) {
	var npv, deriv float64
	for t, f := range flows {
		disc := math.Pow(1+r, float64(t))
		npv += f / disc
		deriv += -float64(t) * f / (disc * (1 + r))
	}
	return npv, deriv
}

// HasSignChange reports whether flows contain both a negative and a positive value,
// the precondition for an IRR or payback period to mean anything.
func HasSignChange(flows []float64) bool {
	var neg, pos bool
	for _, f := range flows {
		neg = neg || f < 0
		pos = pos || f > 0
	}
	return neg && pos
}

// =============================================================================
// PAYBACK AND RATIOS
// =============================================================================

// PaybackPeriod is the number of periods until cumulative net cash flow turns
// non-negative, interpolated linearly inside the period where it happens.
// A sequence that never recovers returns the period count.
func PaybackPeriod(lines []cashflow.Line) float64 {
	return PaybackPeriodFlows(cashflow.NetFlows(lines))
}

// PaybackPeriodFlows is PaybackPeriod over raw flows.
func PaybackPeriodFlows(flows []float64) float64 {
	cumulative := 0.0
	for i, f := range flows {
		prev := cumulative
		cumulative += f
		if cumulative < 0 {
			continue
		}
		if prev >= 0 || f == 0 {
			return float64(i)
		}
		return float64(i) + math.Min(1, -prev/f)
	}
	return float64(len(flows))
}

// CashOnCashReturn is annual pre-tax cash flow over cash invested.
func CashOnCashReturn(annualCashFlow, cashInvested float64) float64 {
	return safeDiv(annualCashFlow, cashInvested)
}

// ROI is (total return - invested) / invested.
func ROI(totalReturn, invested float64) float64 {
	return safeDiv(totalReturn-invested, invested)
}

// AverageAnnualReturn spreads ROI evenly over the holding years.
func AverageAnnualReturn(totalReturn, invested, years float64) float64 {
	return safeDiv(ROI(totalReturn, invested), years)
}

// YieldOnCost is stabilized annual net income over total project cost.
func YieldOnCost(annualNetIncome, totalCost float64) float64 {
	return safeDiv(annualNetIncome, totalCost)
}

// EquityMultiple is total distributions over equity invested.
func EquityMultiple(totalDistributions, equityInvested float64) float64 {
	return safeDiv(totalDistributions, equityInvested)
}

// safeDiv returns 0 instead of dividing by zero or producing a non-finite result.
func safeDiv(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return finiteOr(numerator/denominator, 0)
}

func finiteOr(v, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}
	return v
}
