// Package amortization spreads one-time deal costs over a term and measures what
// is left unrecovered at any month of that term.
package amortization

import (
	"math"

	"lease_economics/pkg/core/lease"
)

// Row is one month of an amortization schedule. Period is 0-based.
type Row struct {
	Period           int     `json:"period"`
	BeginningBalance float64 `json:"beginning_balance"`
	Payment          float64 `json:"payment"`
	Interest         float64 `json:"interest"`
	Principal        float64 `json:"principal"`
	EndingBalance    float64 `json:"ending_balance"`
}

// BuildSchedule is the present-value (level payment) schedule at annualRate/12 per month.
// A zero monthly rate degrades to straight-line.
func BuildSchedule(principal, annualRate float64, totalMonths int) []Row {
	if !validInputs(principal, totalMonths) {
		return nil
	}
	monthlyRate := annualRate / 12
	if monthlyRate <= 0 || math.IsNaN(monthlyRate) || math.IsInf(monthlyRate, 0) {
		return BuildStraightLineSchedule(principal, totalMonths)
	}

	payment := principal * monthlyRate / (1 - math.Pow(1+monthlyRate, -float64(totalMonths)))
	rows := make([]Row, totalMonths)
	balance := principal
	for i := 0; i < totalMonths; i++ {
		interest := balance * monthlyRate
		principalPaid := payment - interest
		pay := payment
		if i == totalMonths-1 {
			// close out rounding drift so the schedule ends at exactly zero
			principalPaid = balance
			pay = interest + principalPaid
		}
		rows[i] = Row{
			Period:           i,
			BeginningBalance: balance,
			Payment:          pay,
			Interest:         interest,
			Principal:        principalPaid,
			EndingBalance:    balance - principalPaid,
		}
		balance -= principalPaid
	}
	return rows
}

// BuildStraightLineSchedule reduces principal by a constant amount each month with no interest.
func BuildStraightLineSchedule(principal float64, totalMonths int) []Row {
	if !validInputs(principal, totalMonths) {
		return nil
	}
	step := principal / float64(totalMonths)
	rows := make([]Row, totalMonths)
	balance := principal
	for i := 0; i < totalMonths; i++ {
		paid := step
		if i == totalMonths-1 {
			paid = balance
		}
		rows[i] = Row{
			Period:           i,
			BeginningBalance: balance,
			Payment:          paid,
			Principal:        paid,
			EndingBalance:    balance - paid,
		}
		balance -= paid
	}
	return rows
}

// BuildScheduleForMethod dispatches on the financing method.
func BuildScheduleForMethod(principal, annualRate float64, totalMonths int, method lease.AmortizationMethod) []Row {
	if method == lease.PresentValue {
		return BuildSchedule(principal, annualRate, totalMonths)
	}
	return BuildStraightLineSchedule(principal, totalMonths)
}

// TotalPayments sums the payment column.
func TotalPayments(rows []Row) float64 {
	total := 0.0
	for _, r := range rows {
		total += r.Payment
	}
	return total
}

// BalanceAfter is the ending balance after monthsElapsed payments.
// Zero elapsed months returns the principal; past the end returns 0.
func BalanceAfter(rows []Row, monthsElapsed int) float64 {
	if len(rows) == 0 {
		return 0
	}
	if monthsElapsed <= 0 {
		return rows[0].BeginningBalance
	}
	if monthsElapsed >= len(rows) {
		return 0
	}
	return rows[monthsElapsed-1].EndingBalance
}

// TerminationFeeAtMonth is schedule[monthIndex].EndingBalance plus the rent penalty.
// An index past the schedule leaves only the penalty; a negative index uses the full principal.
func TerminationFeeAtMonth(schedule []Row, monthIndex int, penaltyMonths, currentMonthlyRent float64) float64 {
	penalty := math.Max(penaltyMonths, 0) * math.Max(currentMonthlyRent, 0)
	switch {
	case len(schedule) == 0 || monthIndex >= len(schedule):
		return penalty
	case monthIndex < 0:
		return schedule[0].BeginningBalance + penalty
	}
	return schedule[monthIndex].EndingBalance + penalty
}

func validInputs(principal float64, totalMonths int) bool {
	return totalMonths > 0 && principal > 0 && !math.IsNaN(principal) && !math.IsInf(principal, 0)
}
