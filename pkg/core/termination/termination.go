// Package termination prices a tenant's early-termination option: the fee owed at a
// termination date and the economics of exercising it against running the full term.
package termination

import (
	"math"

	"lease_economics/pkg/core/amortization"
	"lease_economics/pkg/core/cashflow"
	"lease_economics/pkg/core/lease"
	"lease_economics/pkg/core/metrics"
)

// FeeInput selects the termination date and option terms. A zero TerminationDate falls
// back to the option's earliest date; a nil Option uses the lease's first termination option.
type FeeInput struct {
	TerminationDate lease.Date
	Option          *lease.LeaseOption
}

// Fee is the early-termination fee and its parts.
type Fee struct {
	TerminationDate lease.Date                    `json:"termination_date"`
	Unamortized     amortization.UnamortizedCosts `json:"unamortized"`
	MonthlyRent     float64                       `json:"monthly_rent"`
	PenaltyMonths   float64                       `json:"penalty_months"`
	Penalty         float64                       `json:"penalty"`
	FixedFee        float64                       `json:"fixed_fee"`
	Total           float64                       `json:"total"`
}

// CalculateEarlyTerminationFee is unamortized deal costs plus penalty months of the rent
// in effect at the termination date plus any fixed fee the option names.
func CalculateEarlyTerminationFee(l lease.LeaseDescription, in FeeInput) Fee {
	n := lease.Normalize(l)
	opt := resolveOption(n, in.Option)
	date := in.TerminationDate
	if !date.IsSet() {
		date = opt.EarliestDate
	}

	monthlyRent := rentInEffect(n, date)
	brokerage := 0.0
	other := 0.0
	if tc := n.TransactionCosts; tc != nil {
		brokerage = math.Max(tc.BrokerageFees, 0)
		other = math.Max(tc.Resolved()-brokerage, 0)
	}

	unamortized := amortization.CalculateUnamortizedCosts(amortization.UnamortizedInput{
		Commencement:    n.Commencement.Time,
		Expiration:      n.Expiration.Time,
		TerminationDate: date.Time,
		RSF:             n.RSF,
		TIAllowancePSF:  n.Concessions.TIAllowancePSF,
		TIActualCostPSF: n.Concessions.TIActualCostPSF,
		FreeRentMonths:  float64(n.Concessions.Abatement.TotalMonths()),
		MonthlyRent:     monthlyRent,
		Brokerage:       brokerage,
		OtherCosts:      other,
		InterestRate:    opt.InterestRate,
	})

	fee := Fee{
		TerminationDate: date,
		Unamortized:     unamortized,
		MonthlyRent:     monthlyRent,
		PenaltyMonths:   math.Max(opt.PenaltyMonths, 0),
		FixedFee:        math.Max(opt.Fee, 0),
	}
	fee.Penalty = fee.PenaltyMonths * monthlyRent
	fee.Total = unamortized.Total + fee.Penalty + fee.FixedFee
	if math.IsNaN(fee.Total) || math.IsInf(fee.Total, 0) {
		return Fee{TerminationDate: date}
	}
	return fee
}

func resolveOption(n lease.LeaseDescription, opt *lease.LeaseOption) lease.LeaseOption {
	if opt != nil {
		return *opt
	}
	if opts := n.TerminationOptions(); len(opts) > 0 {
		return opts[0]
	}
	return lease.LeaseOption{Type: lease.OptionTermination}
}

// rentInEffect is the monthly base rent of the month containing date, or of the last
// month when date falls after expiration.
func rentInEffect(n lease.LeaseDescription, date lease.Date) float64 {
	months := cashflow.BuildMonthly(n)
	if len(months) == 0 || !date.IsSet() {
		return 0
	}
	for _, m := range months {
		if !date.Before(m.Start.Time) && !date.After(m.End.Time) {
			return m.BaseRent
		}
	}
	if date.After(months[len(months)-1].End.Time) {
		return months[len(months)-1].BaseRent
	}
	return months[0].BaseRent
}

// =============================================================================
// SCENARIO
// =============================================================================

// Scenario compares exercising a termination option against running the full term.
// Costs are from the tenant's side: Savings > 0 means terminating is cheaper.
type Scenario struct {
	Feasible bool   `json:"feasible"`
	Reason   string `json:"reason,omitempty"`

	TerminationDate lease.Date `json:"termination_date"`
	NoticeDeadline  lease.Date `json:"notice_deadline"`
	Fee             Fee        `json:"fee"`

	Cashflow []cashflow.Line `json:"cashflow"`

	TotalCostFullTerm        float64 `json:"total_cost_full_term"`
	TotalCostWithTermination float64 `json:"total_cost_with_termination"`
	NPVFullTerm              float64 `json:"npv_full_term"`
	NPVWithTermination       float64 `json:"npv_with_termination"`
	Savings                  float64 `json:"savings"`
	NPVSavings               float64 `json:"npv_savings"`
}

// BuildTerminationScenario truncates the lease the day before the termination date,
// pays the fee in the final period and values both paths at the lease discount rate.
// A termination date outside the lease yields an infeasible scenario, not an error.
func BuildTerminationScenario(l lease.LeaseDescription, in FeeInput) Scenario {
	n := lease.Normalize(l)
	opt := resolveOption(n, in.Option)
	date := in.TerminationDate
	if !date.IsSet() {
		date = opt.EarliestDate
	}

	sc := Scenario{TerminationDate: date}
	switch {
	case !n.Commencement.IsSet() || !n.Expiration.IsSet():
		sc.Reason = "lease dates are incomplete"
		return sc
	case !date.IsSet():
		sc.Reason = "no termination date"
		return sc
	case !date.After(n.Commencement.Time):
		sc.Reason = "termination date is not after commencement"
		return sc
	case date.After(n.Expiration.Time):
		sc.Reason = "termination date is after expiration"
		return sc
	}

	sc.NoticeDeadline = lease.Date{Time: date.AddDate(0, -max(opt.NoticeMonths, 0), 0)}
	sc.Fee = CalculateEarlyTerminationFee(n, FeeInput{TerminationDate: date, Option: &opt})

	full := cashflow.BuildAnnual(n)
	truncated := cashflow.BuildAnnual(Truncate(n, date))
	if len(truncated) == 0 {
		sc.Reason = "termination leaves no lease periods"
		return sc
	}

	flows := cashflow.NetFlows(truncated)
	flows[len(flows)-1] += sc.Fee.Total

	rate := n.Rate()
	sc.Feasible = true
	sc.Cashflow = truncated
	sc.TotalCostFullTerm = cashflow.Sum(full).NetCashFlow
	sc.TotalCostWithTermination = sum(flows)
	sc.NPVFullTerm = metrics.NPV(full, rate)
	sc.NPVWithTermination = metrics.NPVFlows(flows, rate)
	sc.Savings = sc.TotalCostFullTerm - sc.TotalCostWithTermination
	sc.NPVSavings = sc.NPVFullTerm - sc.NPVWithTermination
	return sc
}

// Truncate returns a normalized copy of l that expires the day before date.
// Rent rows past the new expiration are clipped or dropped; the financing term is kept
// so amortized payments stop at termination and the remainder shows up in the fee.
func Truncate(l lease.LeaseDescription, date lease.Date) lease.LeaseDescription {
	n := lease.Normalize(l)
	exp := lease.Date{Time: date.AddDate(0, 0, -1)}
	if !exp.Before(n.Expiration.Time) {
		return n
	}
	n.Expiration = exp
	n.Term = nil

	var rows []lease.RentRow
	for _, row := range n.RentSchedule {
		if row.Start.After(exp.Time) {
			continue
		}
		if row.End.After(exp.Time) {
			row.End = exp
		}
		rows = append(rows, row)
	}
	n.RentSchedule = rows
	return n
}

func sum(values []float64) float64 {
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total
}
