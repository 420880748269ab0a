// Package validate checks lease inputs before they are priced and ties out the
// cashflows the builder produces.
package validate

import (
	"fmt"
	"math"

	"lease_economics/pkg/core/lease"
)

// Severity ranks an Issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// DefaultRentStepThreshold flags rent steps above 25% as suspicious.
const DefaultRentStepThreshold = 25.0

// Issue is one finding about a lease or its cashflow.
type Issue struct {
	Field    string   `json:"field"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, is := range issues {
		if is.Severity == SeverityError {
			return true
		}
	}
	return false
}

// =============================================================================
// LEASE INPUT CHECKS
// =============================================================================

// Lease lists problems in l. Nothing here blocks pricing: the engine clamps or
// defaults bad values, and these findings explain what it did.
func Lease(l lease.LeaseDescription) []Issue {
	n := lease.Normalize(l)
	var issues []Issue
	add := func(field string, sev Severity, format string, args ...interface{}) {
		issues = append(issues, Issue{Field: field, Severity: sev, Message: fmt.Sprintf(format, args...)})
	}

	// 1. Dates
	switch {
	case !n.Commencement.IsSet():
		add("commencement", SeverityError, "commencement date is required")
	case !n.Expiration.IsSet():
		add("expiration", SeverityError, "expiration date or term is required")
	case n.Expiration.Before(n.Commencement.Time):
		add("expiration", SeverityError, "expiration %s is before commencement %s", n.Expiration, n.Commencement)
	}
	if n.RentStart.IsSet() && n.Expiration.IsSet() && n.RentStart.After(n.Expiration.Time) {
		add("rent_start", SeverityWarning, "rent start %s is after expiration; no base rent is charged", n.RentStart)
	}

	// 2. Size and rate
	if l.RSF <= 0 {
		add("rsf", SeverityWarning, "rentable square feet is not positive; per-foot amounts are zero")
	}
	if n.Rate() <= -1 {
		add("discount_rate", SeverityError, "discount rate %.4f must be above -100%%; NPV is reported as zero", n.Rate())
	}

	// 3. Rent schedule
	if len(n.RentSchedule) == 0 {
		add("rent_schedule", SeverityWarning, "no rent rows; base rent is zero")
	}
	for i, row := range n.RentSchedule {
		field := fmt.Sprintf("rent_schedule[%d]", i)
		if row.RatePSF < 0 {
			add(field+".rate_psf", SeverityError, "rate %.2f is negative", row.RatePSF)
		}
		if row.End.Before(row.Start.Time) {
			add(field, SeverityWarning, "row ends %s before it starts %s and is ignored", row.End, row.Start)
		}
		if i > 0 && !row.Start.After(n.RentSchedule[i-1].End.Time) {
			add(field, SeverityWarning, "row starting %s overlaps the previous row; both are charged", row.Start)
		}
	}

	// 4. Concessions
	c := n.Concessions
	if c.TIActualCostPSF > 0 && c.TIActualCostPSF < c.TIAllowancePSF {
		add("concessions.ti_allowance_psf", SeverityInfo,
			"allowance %.2f exceeds actual cost %.2f; the excess is not credited", c.TIAllowancePSF, c.TIActualCostPSF)
	}
	if months := c.Abatement.TotalMonths(); months > 0 && months >= n.TermMonths() && n.TermMonths() > 0 {
		add("concessions.abatement", SeverityWarning, "%d free months cover the whole %d month term", months, n.TermMonths())
	}

	// 5. Financing and options
	if f := n.Financing; f != nil && f.InterestRate < 0 {
		add("financing.interest_rate", SeverityWarning, "negative financing rate %.4f", f.InterestRate)
	}
	for i, o := range n.Options {
		if o.Type != lease.OptionTermination || !o.EarliestDate.IsSet() || !n.Expiration.IsSet() {
			continue
		}
		if o.EarliestDate.After(n.Expiration.Time) || !o.EarliestDate.After(n.Commencement.Time) {
			add(fmt.Sprintf("options[%d].earliest_date", i), SeverityWarning,
				"termination date %s is outside the lease term", o.EarliestDate)
		}
	}

	return issues
}

// =============================================================================
// RENT STEP OUTLIERS
// =============================================================================

// RentStep is the change between two consecutive rent rows.
type RentStep struct {
	From      lease.Date `json:"from"`
	To        lease.Date `json:"to"`
	FromRate  float64    `json:"from_rate"`
	ToRate    float64    `json:"to_rate"`
	ChangePct float64    `json:"change_pct"`
	IsOutlier bool       `json:"is_outlier"`
	Reason    string     `json:"reason,omitempty"`
}

// CalculateStepChange returns (current - prior) / prior * 100, or 0 when prior is 0.
func CalculateStepChange(current, prior float64) float64 {
	if prior == 0 {
		return 0
	}
	return (current - prior) / prior * 100
}

// RentSteps compares each rent row with the one before it and flags drops to zero
// and changes larger than thresholdPct (<= 0 means DefaultRentStepThreshold).
func RentSteps(l lease.LeaseDescription, thresholdPct float64) []RentStep {
	if thresholdPct <= 0 {
		thresholdPct = DefaultRentStepThreshold
	}
	rows := lease.Normalize(l).RentSchedule
	var steps []RentStep
	for i := 1; i < len(rows); i++ {
		prior, current := rows[i-1].RatePSF, rows[i].RatePSF
		step := RentStep{
			From:      rows[i-1].Start,
			To:        rows[i].Start,
			FromRate:  prior,
			ToRate:    current,
			ChangePct: CalculateStepChange(current, prior),
		}
		switch {
		case current == 0 && prior > 0:
			step.IsOutlier = true
			step.Reason = "rate drops to zero (free rent belongs in concessions)"
		case math.Abs(step.ChangePct) > thresholdPct:
			step.IsOutlier = true
			step.Reason = fmt.Sprintf("change of %.1f%% exceeds threshold of %.1f%%", step.ChangePct, thresholdPct)
		}
		steps = append(steps, step)
	}
	return steps
}
