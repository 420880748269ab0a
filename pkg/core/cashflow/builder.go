package cashflow

import (
	"math"

	"lease_economics/pkg/core/amortization"
	"lease_economics/pkg/core/concession"
	"lease_economics/pkg/core/escalation"
	"lease_economics/pkg/core/lease"
	"lease_economics/pkg/core/period"
)

// BuildAnnual returns one line per calendar year of the lease.
// A lease whose dates do not form a valid range yields no lines.
func BuildAnnual(l lease.LeaseDescription) []Line {
	lines, _ := Build(l, period.Annual)
	return lines
}

// BuildMonthly returns one line per calendar month of the lease.
func BuildMonthly(l lease.LeaseDescription) []Line {
	lines, _ := Build(l, period.Monthly)
	return lines
}

// Build normalizes l and produces its cashflow at the given granularity.
// The only error is period.ErrInvalidDateRange.
func Build(l lease.LeaseDescription, g period.Granularity) ([]Line, error) {
	b, err := newBuilder(lease.Normalize(l), g)
	if err != nil {
		return nil, err
	}
	return b.build(), nil
}

// AmortizationSchedule is the schedule behind the amortized_costs column, or nil
// when the lease finances nothing.
func AmortizationSchedule(l lease.LeaseDescription) []amortization.Row {
	return financedSchedule(lease.Normalize(l))
}

type builder struct {
	l       lease.LeaseDescription
	g       period.Granularity
	periods []period.Period

	commencementYear int
	baseYearOpex     float64
}

func newBuilder(l lease.LeaseDescription, g period.Granularity) (*builder, error) {
	periods, err := period.Resolve(l.Commencement.Time, l.Expiration.Time, g)
	if err != nil {
		return nil, err
	}
	b := &builder{
		l:                l,
		g:                g,
		periods:          periods,
		commencementYear: l.Commencement.Year(),
	}
	b.baseYearOpex = b.opexRate(l.Operating.BaseYear)
	return b, nil
}

func (b *builder) build() []Line {
	lines := make([]Line, len(b.periods))
	credits := concession.ResolveAbatement(concession.AbatementInput{
		Variant:       b.l.Concessions.Abatement,
		Commencement:  b.l.Commencement.Time,
		FirstRentRate: b.l.FirstRentRate(),
		RentRate:      b.rentRateForMonth,
		OpexRate:      b.tenantOpexPSF,
		RSF:           b.l.RSF,
	}, b.periods, b.g)
	amortized := b.amortizedByPeriod()

	for i, p := range b.periods {
		line := Line{
			Period:          p.Label(),
			Index:           p.Index,
			Year:            p.Year,
			Month:           int(p.Month),
			Start:           lease.Date{Time: p.Start},
			End:             lease.Date{Time: p.End},
			BaseRent:        b.baseRent(p),
			Operating:       b.operating(p),
			Parking:         b.parking(p),
			OtherRecurring:  b.otherRecurring(p),
			AbatementCredit: credits[i],
			AmortizedCosts:  amortized[i],
		}
		if i == 0 {
			line.TIShortfall, line.TransactionCosts = b.oneTimeCosts()
		}
		lines[i] = sanitize(line).totaled()
	}
	return lines
}

// units is the number of months a period covers (always 1 for monthly periods).
func (b *builder) units(p period.Period) float64 {
	if b.g == period.Monthly {
		return 1
	}
	return float64(p.Months())
}

// =============================================================================
// RECURRING CHARGES
// =============================================================================

func (b *builder) rowRate(row lease.RentRow, year int) float64 {
	startYear := b.commencementYear
	if row.Start.IsSet() {
		startYear = row.Start.Year()
	}
	if e := b.l.RentEscalation; e != nil && e.Kind != lease.EscalationNone {
		return escalation.ResolveRate(*e, row.RatePSF, year, startYear)
	}
	return escalation.ResolveRate(lease.FixedEscalation(row.Escalation), row.RatePSF, year, startYear)
}

// rentWindow is the span a row charges rent over, starting no earlier than rent start.
func (b *builder) rentWindow(row lease.RentRow) period.Range {
	window := period.Range{Start: row.Start.Time, End: row.End.Time}
	if b.l.RentStart.IsSet() && b.l.RentStart.After(window.Start) {
		window.Start = b.l.RentStart.Time
	}
	return window
}

// rentRateForMonth is the escalated PSF rate charged during month, summed over the
// rows that charge it; base rent for that month is this rate * rsf / 12.
func (b *builder) rentRateForMonth(month period.Period) float64 {
	total := 0.0
	for _, row := range b.l.RentSchedule {
		if period.OverlapUnits(b.rentWindow(row), month.Range(), period.Monthly) > 0 {
			total += b.rowRate(row, month.Year)
		}
	}
	return total
}

func (b *builder) baseRent(p period.Period) float64 {
	total := 0.0
	for _, row := range b.l.RentSchedule {
		units := period.OverlapUnits(b.rentWindow(row), p.Range(), b.g)
		if units == 0 {
			continue
		}
		total += b.rowRate(row, p.Year) * b.l.RSF * float64(units) / 12
	}
	return total
}

func (b *builder) opexRate(year int) float64 {
	return escalation.ResolveRate(b.l.Operating.Escalation, b.l.Operating.BasePSF, year, b.commencementYear)
}

// tenantOpexPSF is what the tenant pays per foot: the full escalated rate on a
// triple-net lease, only the increase over the base year on a full-service lease.
func (b *builder) tenantOpexPSF(year int) float64 {
	rate := b.opexRate(year)
	if b.l.LeaseType == lease.TripleNet {
		return rate
	}
	return math.Max(0, rate-b.baseYearOpex)
}

func (b *builder) operating(p period.Period) float64 {
	return b.tenantOpexPSF(p.Year) * b.l.RSF * b.units(p) / 12
}

func (b *builder) parking(p period.Period) float64 {
	pk := b.l.Parking
	if pk == nil || pk.Stalls <= 0 {
		return 0
	}
	monthly := escalation.ResolveRate(pk.Escalation, pk.MonthlyRate, p.Year, b.commencementYear)
	return monthly * float64(pk.Stalls) * b.units(p)
}

func (b *builder) otherRecurring(p period.Period) float64 {
	total := 0.0
	for _, c := range b.l.OtherRecurring {
		total += escalation.ResolveRate(c.Escalation, c.AnnualAmount, p.Year, b.commencementYear) * b.units(p) / 12
	}
	return total
}

// =============================================================================
// ONE-TIME AND FINANCED COSTS
// =============================================================================

func (b *builder) oneTimeCosts() (tiShortfall, transactionCosts float64) {
	f := b.l.Financing
	if f == nil || !f.AmortizeTIShortfall {
		tiShortfall = concession.TIShortfall(b.l.Concessions, b.l.RSF)
	}
	if f == nil || !f.AmortizeTransactionCosts {
		transactionCosts = math.Max(b.l.TransactionCosts.Resolved(), 0)
	}
	return tiShortfall, transactionCosts
}

func financedPrincipal(l lease.LeaseDescription) float64 {
	f := l.Financing
	if f == nil {
		return 0
	}
	principal := 0.0
	if f.AmortizeTIAllowance {
		principal += math.Max(l.Concessions.TIAllowancePSF, 0) * math.Max(l.RSF, 0)
	}
	if f.AmortizeTIShortfall {
		principal += concession.TIShortfall(l.Concessions, l.RSF)
	}
	if f.AmortizeTransactionCosts {
		principal += math.Max(l.TransactionCosts.Resolved(), 0)
	}
	return principal
}

func financedSchedule(l lease.LeaseDescription) []amortization.Row {
	principal := financedPrincipal(l)
	if principal <= 0 {
		return nil
	}
	f := l.Financing
	return amortization.BuildScheduleForMethod(principal, f.InterestRate, f.TermMonths, f.Method)
}

// amortizedByPeriod maps schedule months (offsets from the commencement month)
// onto the periods they fall in.
func (b *builder) amortizedByPeriod() []float64 {
	out := make([]float64, len(b.periods))
	schedule := financedSchedule(b.l)
	if len(schedule) == 0 {
		return out
	}
	commencement := b.l.Commencement.Time
	for i, p := range b.periods {
		first := period.MonthOffset(commencement, p.Start)
		last := period.MonthOffset(commencement, p.End)
		for k := max(first, 0); k <= last && k < len(schedule); k++ {
			out[i] += schedule[k].Payment
		}
	}
	return out
}

func sanitize(l Line) Line {
	for _, bucket := range Buckets {
		v := l.Value(bucket)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			l = l.WithValue(bucket, 0)
		}
	}
	return l
}
