package lease

import (
	"math"
	"sort"

	"lease_economics/pkg/core/period"
)

// Normalize returns a pre-resolved copy of l. Every builder runs it, so callers may
// pass either raw or already-normalized leases; applying it twice changes nothing.
//
// Configuration errors never fail here: they are clamped or defaulted so that an
// in-progress lease still produces numbers.
func Normalize(l LeaseDescription) LeaseDescription {
	n := l.Clone()

	if n.RSF < 0 || math.IsNaN(n.RSF) || math.IsInf(n.RSF, 0) {
		n.RSF = 0
	}
	if n.LeaseType == "" {
		n.LeaseType = FullService
	}

	// 1. Expiration from the term block
	if !n.Expiration.IsSet() && n.Commencement.IsSet() && n.Term != nil {
		months := n.Term.Years*12 + n.Term.Months
		if n.Term.AbatementExtendsTerm {
			months += n.Concessions.Abatement.TotalMonths()
		}
		if months > 0 {
			n.Expiration = Date{n.Commencement.AddDate(0, months, -1)}
		}
	}

	// 2. Rent start only matters when it defers rent
	if n.RentStart.IsSet() && !n.RentStart.After(n.Commencement.Time) {
		n.RentStart = Date{}
	}

	if n.Operating.BaseYear == 0 && n.Commencement.IsSet() {
		n.Operating.BaseYear = n.Commencement.Year()
	}

	// 3. Rent rows: fill starts in input order, sort, then close open ends
	for i := range n.RentSchedule {
		if n.RentSchedule[i].Start.IsSet() {
			continue
		}
		if i > 0 && n.RentSchedule[i-1].End.IsSet() {
			n.RentSchedule[i].Start = Date{n.RentSchedule[i-1].End.AddDate(0, 0, 1)}
		} else {
			n.RentSchedule[i].Start = n.Commencement
		}
	}
	sort.SliceStable(n.RentSchedule, func(i, j int) bool {
		return n.RentSchedule[i].Start.Before(n.RentSchedule[j].Start.Time)
	})
	for i := range n.RentSchedule {
		if n.RentSchedule[i].End.IsSet() {
			continue
		}
		if i+1 < len(n.RentSchedule) && n.RentSchedule[i+1].Start.After(n.RentSchedule[i].Start.Time) {
			n.RentSchedule[i].End = Date{n.RentSchedule[i+1].Start.AddDate(0, 0, -1)}
		} else {
			n.RentSchedule[i].End = n.Expiration
		}
	}

	// 4. Custom periods sorted by start
	SortEscalationPeriods(&n.Operating.Escalation)
	if n.RentEscalation != nil {
		SortEscalationPeriods(n.RentEscalation)
	}
	if n.Parking != nil {
		SortEscalationPeriods(&n.Parking.Escalation)
	}
	for i := range n.OtherRecurring {
		SortEscalationPeriods(&n.OtherRecurring[i].Escalation)
	}
	if a := n.Concessions.Abatement; a != nil {
		for i := range a.Periods {
			p := &a.Periods[i]
			if !p.End.IsSet() && p.Start.IsSet() && p.Months > 0 {
				p.End = Date{p.Start.AddDate(0, p.Months, -1)}
			}
			if p.AppliesTo == "" {
				p.AppliesTo = BaseOnly
			}
		}
		sort.SliceStable(a.Periods, func(i, j int) bool {
			return a.Periods[i].Start.Before(a.Periods[j].Start.Time)
		})
		if a.AppliesTo == "" {
			a.AppliesTo = BaseOnly
		}
	}

	// 5. Derived totals and defaults
	if n.TransactionCosts != nil && n.TransactionCosts.Total <= 0 {
		n.TransactionCosts.Total = n.TransactionCosts.Sum()
	}
	if n.Financing != nil {
		if n.Financing.Method == "" {
			n.Financing.Method = StraightLine
		}
		if n.Financing.TermMonths <= 0 {
			n.Financing.TermMonths = period.TermMonths(n.Commencement.Time, n.Expiration.Time)
		}
	}
	if n.DiscountRate == nil {
		rate := DefaultDiscountRate
		n.DiscountRate = &rate
	}
	return n
}

// SortEscalationPeriods orders custom periods by start, keeping input order on ties.
func SortEscalationPeriods(e *EscalationVariant) {
	if e == nil || len(e.Periods) < 2 {
		return
	}
	sort.SliceStable(e.Periods, func(i, j int) bool {
		return e.Periods[i].Start.Before(e.Periods[j].Start.Time)
	})
}

// TermMonths is the lease term in whole months.
func (l LeaseDescription) TermMonths() int {
	return period.TermMonths(l.Commencement.Time, l.Expiration.Time)
}

// TermYears is the lease term in (fractional) years.
func (l LeaseDescription) TermYears() float64 {
	return float64(l.TermMonths()) / 12
}
