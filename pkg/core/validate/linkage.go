package validate

import (
	"fmt"
	"math"

	"lease_economics/pkg/core/cashflow"
)

// DefaultTolerance is one cent.
const DefaultTolerance = 0.01

// =============================================================================
// ANNUAL / MONTHLY LINKAGE
// =============================================================================

// ReconciliationReport ties the annual cashflow to the monthly one and checks
// each line's own arithmetic.
type ReconciliationReport struct {
	Buckets      []BucketLink `json:"buckets"`
	Lines        []LineCheck  `json:"lines,omitempty"` // unbalanced lines only
	AllPassed    bool         `json:"all_passed"`
	FailedChecks []string     `json:"failed_checks,omitempty"`
}

// BucketLink validates: Σ annual bucket == Σ monthly bucket
type BucketLink struct {
	Bucket     cashflow.Bucket `json:"bucket"`
	Annual     float64         `json:"annual"`
	Monthly    float64         `json:"monthly"`
	Difference float64         `json:"difference"`
	IsLinked   bool            `json:"is_linked"`
	Tolerance  float64         `json:"tolerance"`
}

// LineCheck validates: NetCashFlow == Subtotal + credits + one-time + amortized
type LineCheck struct {
	Period      string  `json:"period"`
	Subtotal    float64 `json:"subtotal"`
	NetCashFlow float64 `json:"net_cash_flow"`
	ComputedNet float64 `json:"computed_net"`
	Difference  float64 `json:"difference"`
	IsBalanced  bool    `json:"is_balanced"`
	Tolerance   float64 `json:"tolerance"`
}

// CheckLineEquation recomputes a line's subtotal and net from its buckets.
func CheckLineEquation(l cashflow.Line, tolerance float64) LineCheck {
	subtotal := l.BaseRent + l.Operating + l.Parking + l.OtherRecurring
	computed := subtotal + l.AbatementCredit + l.TIShortfall + l.TransactionCosts + l.AmortizedCosts
	diff := l.NetCashFlow - computed
	return LineCheck{
		Period:      l.Period,
		Subtotal:    l.Subtotal,
		NetCashFlow: l.NetCashFlow,
		ComputedNet: computed,
		Difference:  diff,
		IsBalanced:  math.Abs(diff) <= tolerance && math.Abs(l.Subtotal-subtotal) <= tolerance,
		Tolerance:   tolerance,
	}
}

// Reconcile checks that annual and monthly lines carry the same totals per bucket
// and that every line balances. tolerance <= 0 means DefaultTolerance.
func Reconcile(annual, monthly []cashflow.Line, tolerance float64) *ReconciliationReport {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	report := &ReconciliationReport{AllPassed: true}

	// 1. Bucket totals
	a, m := cashflow.Sum(annual), cashflow.Sum(monthly)
	for _, b := range cashflow.Buckets {
		link := BucketLink{
			Bucket:    b,
			Annual:    a.Value(b),
			Monthly:   m.Value(b),
			Tolerance: tolerance,
		}
		link.Difference = link.Annual - link.Monthly
		link.IsLinked = math.Abs(link.Difference) <= tolerance
		if !link.IsLinked {
			report.AllPassed = false
			report.FailedChecks = append(report.FailedChecks,
				fmt.Sprintf("annual %s %.2f != monthly %.2f", b, link.Annual, link.Monthly))
		}
		report.Buckets = append(report.Buckets, link)
	}

	// 2. Line arithmetic
	for _, set := range [][]cashflow.Line{annual, monthly} {
		for _, l := range set {
			check := CheckLineEquation(l, tolerance)
			if check.IsBalanced {
				continue
			}
			report.AllPassed = false
			report.Lines = append(report.Lines, check)
			report.FailedChecks = append(report.FailedChecks,
				fmt.Sprintf("%s net %.2f != computed %.2f", l.Period, l.NetCashFlow, check.ComputedNet))
		}
	}

	return report
}

// Issues turns failed checks into error findings.
func (r *ReconciliationReport) Issues() []Issue {
	if r == nil || r.AllPassed {
		return nil
	}
	issues := make([]Issue, 0, len(r.FailedChecks))
	for _, msg := range r.FailedChecks {
		issues = append(issues, Issue{Field: "cashflow", Severity: SeverityError, Message: msg})
	}
	return issues
}
