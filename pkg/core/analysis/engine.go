// Package analysis is the top-level lease economics entry point: cashflow, metrics,
// concessions and the optional monthly view in one result.
package analysis

import (
	"fmt"

	"lease_economics/pkg/core/cashflow"
	"lease_economics/pkg/core/concession"
	"lease_economics/pkg/core/lease"
	"lease_economics/pkg/core/metrics"
	"lease_economics/pkg/core/period"
	"lease_economics/pkg/core/validate"
)

// Engine runs the full analysis of a lease.
type Engine struct {
	// IncludeMonthly adds MonthlyEconomics to every result.
	IncludeMonthly bool
}

// NewEngine returns an engine that includes the monthly view.
func NewEngine() *Engine {
	return &Engine{IncludeMonthly: true}
}

// AnalyzeLease runs NewEngine().Analyze and never fails: a lease whose dates do not
// form a range yields an analysis with no lines and zero metrics.
func AnalyzeLease(l lease.LeaseDescription) LeaseAnalysis {
	res, err := NewEngine().Analyze(l)
	if err != nil {
		n := lease.Normalize(l)
		return LeaseAnalysis{
			LeaseID:   l.ID,
			LeaseName: l.Name,
			Cashflow:  []cashflow.Line{},
			Totals:    cashflow.Sum(nil),
			Metrics:   Metrics{DiscountRate: n.Rate()},
			Issues:    inputIssues(n),
		}
	}
	return *res
}

// BuildAnnualCashflow is the annual line sequence AnalyzeLease reports.
func BuildAnnualCashflow(l lease.LeaseDescription) []cashflow.Line {
	return cashflow.BuildAnnual(l)
}

// Analyze computes the annual cashflow, metrics and concessions of l.
func (e *Engine) Analyze(l lease.LeaseDescription) (*LeaseAnalysis, error) {
	n := lease.Normalize(l)

	// 1. Annual cashflow
	lines, err := cashflow.Build(n, period.Annual)
	if err != nil {
		return nil, fmt.Errorf("lease %q: %w", l.ID, err)
	}
	years := n.TermYears()
	flows := cashflow.NetFlows(lines)

	result := &LeaseAnalysis{
		LeaseID:      n.ID,
		LeaseName:    n.Name,
		Cashflow:     lines,
		Totals:       cashflow.Sum(lines),
		Years:        years,
		NoteSections: n.NoteSections(),
	}

	// 2. Metrics
	result.Metrics = Metrics{
		NPV:              metrics.NPV(lines, n.Rate()),
		EffectiveRentPSF: metrics.EffectiveRentPSF(lines, n.RSF, years),
		DiscountRate:     n.Rate(),
		TotalCashflow:    result.Totals.NetCashFlow,
	}
	if metrics.HasSignChange(flows) {
		irr := metrics.IRR(lines)
		payback := metrics.PaybackPeriod(lines)
		result.Metrics.IRR = &irr
		result.Metrics.PaybackPeriod = &payback
	}

	// 3. Concessions
	credits := make([]float64, len(lines))
	for i, line := range lines {
		credits[i] = line.AbatementCredit
	}
	result.Concessions = concession.ComputeTotals(n.Concessions, n.RSF, credits)

	// 4. Monthly view
	if e.IncludeMonthly {
		result.MonthlyEconomics = buildMonthlyEconomics(n, years)
	}

	// 5. Input findings and tie-outs
	result.Issues = inputIssues(n)
	if result.MonthlyEconomics != nil {
		report := validate.Reconcile(lines, result.MonthlyEconomics.Lines, validate.DefaultTolerance)
		result.Issues = append(result.Issues, report.Issues()...)
	}

	return result, nil
}

func inputIssues(n lease.LeaseDescription) []validate.Issue {
	issues := validate.Lease(n)
	for _, step := range validate.RentSteps(n, validate.DefaultRentStepThreshold) {
		if step.IsOutlier {
			issues = append(issues, validate.Issue{
				Field:    "rent_schedule",
				Severity: validate.SeverityWarning,
				Message:  fmt.Sprintf("step on %s: %s", step.To, step.Reason),
			})
		}
	}
	return issues
}

func buildMonthlyEconomics(n lease.LeaseDescription, years float64) *MonthlyEconomics {
	lines := cashflow.BuildMonthly(n)
	me := &MonthlyEconomics{
		Lines:                lines,
		RentSchedule:         make([]MonthlyRent, len(lines)),
		AmortizationSchedule: cashflow.AmortizationSchedule(n),
	}

	var baseRent, abatement float64
	for i, line := range lines {
		row := MonthlyRent{
			Period:          line.Period,
			BaseRent:        line.BaseRent,
			AbatementCredit: line.AbatementCredit,
			NetRent:         line.BaseRent + line.AbatementCredit,
		}
		if n.RSF > 0 {
			row.RatePSF = line.BaseRent * 12 / n.RSF
		}
		me.RentSchedule[i] = row
		baseRent += line.BaseRent
		abatement += line.AbatementCredit
	}

	if n.RSF > 0 && years > 0 {
		me.BlendedRatePSF = (baseRent + abatement) / n.RSF / years
	}
	return me
}
