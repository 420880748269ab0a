// Package lease defines the lease description consumed by the economics engine.
// Values are immutable snapshots: the engine copies before it resolves anything.
package lease

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DefaultDiscountRate is the valuation basis when a lease does not carry its own.
const DefaultDiscountRate = 0.08

// =============================================================================
// DATES
// =============================================================================

const dateLayout = "2006-01-02"

// Date is a calendar date. The zero value means "not set".
type Date struct {
	time.Time
}

// NewDate builds a UTC calendar date.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate accepts YYYY-MM-DD or RFC3339.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return Date{t}, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return NewDate(t.Year(), t.Month(), t.Day()), nil
}

// IsSet reports whether the date carries a value.
func (d Date) IsSet() bool { return !d.IsZero() }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(dateLayout))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// =============================================================================
// ESCALATION
// =============================================================================

// EscalationKind discriminates EscalationVariant.
type EscalationKind string

const (
	EscalationNone   EscalationKind = ""
	EscalationFixed  EscalationKind = "fixed"
	EscalationCustom EscalationKind = "custom"
)

// EscalationPeriod is one explicit rate-change window of a custom escalation.
type EscalationPeriod struct {
	Start Date    `json:"start"`
	End   Date    `json:"end"`
	Rate  float64 `json:"rate"`
}

// EscalationVariant is either Fixed{Rate, Cap} or Custom{Periods}.
type EscalationVariant struct {
	Kind    EscalationKind     `json:"type"`
	Rate    float64            `json:"rate,omitempty"`
	Cap     *float64           `json:"cap,omitempty"`
	Periods []EscalationPeriod `json:"periods,omitempty"`
}

// FixedEscalation returns a fixed annual escalation without a cap.
func FixedEscalation(rate float64) EscalationVariant {
	return EscalationVariant{Kind: EscalationFixed, Rate: rate}
}

// CappedEscalation returns a fixed annual escalation limited to cap.
func CappedEscalation(rate, cap float64) EscalationVariant {
	return EscalationVariant{Kind: EscalationFixed, Rate: rate, Cap: &cap}
}

// CustomEscalation returns an escalation driven by explicit periods.
func CustomEscalation(periods ...EscalationPeriod) EscalationVariant {
	return EscalationVariant{Kind: EscalationCustom, Periods: periods}
}

// =============================================================================
// ABATEMENT
// =============================================================================

// AbatementKind discriminates AbatementVariant.
type AbatementKind string

const (
	AbatementNone           AbatementKind = ""
	AbatementAtCommencement AbatementKind = "at_commencement"
	AbatementCustom         AbatementKind = "custom"
)

// AbatementScope says whether free rent also waives operating charges.
type AbatementScope string

const (
	BaseOnly    AbatementScope = "base_only"
	BasePlusNNN AbatementScope = "base_plus_nnn"
)

// AbatementPeriod is one explicit free-rent window.
type AbatementPeriod struct {
	Start     Date           `json:"start"`
	End       Date           `json:"end"`
	Months    int            `json:"months,omitempty"`
	AppliesTo AbatementScope `json:"applies_to,omitempty"`
}

// AbatementVariant is either AtCommencement{Months, AppliesTo} or Custom{Periods}.
type AbatementVariant struct {
	Kind      AbatementKind     `json:"type"`
	Months    int               `json:"months,omitempty"`
	AppliesTo AbatementScope    `json:"applies_to,omitempty"`
	Periods   []AbatementPeriod `json:"periods,omitempty"`
}

// AtCommencement returns a free-rent block starting at commencement.
func AtCommencement(months int, scope AbatementScope) *AbatementVariant {
	return &AbatementVariant{Kind: AbatementAtCommencement, Months: months, AppliesTo: scope}
}

// CustomAbatement returns free rent over explicit periods.
func CustomAbatement(periods ...AbatementPeriod) *AbatementVariant {
	return &AbatementVariant{Kind: AbatementCustom, Periods: periods}
}

// TotalMonths is the number of free-rent months the variant grants.
func (a *AbatementVariant) TotalMonths() int {
	if a == nil {
		return 0
	}
	switch a.Kind {
	case AbatementAtCommencement:
		return max(a.Months, 0)
	case AbatementCustom:
		total := 0
		for _, p := range a.Periods {
			total += periodMonths(p)
		}
		return total
	}
	return 0
}

func periodMonths(p AbatementPeriod) int {
	if p.Months > 0 {
		return p.Months
	}
	if !p.Start.IsSet() || !p.End.IsSet() || p.End.Before(p.Start.Time) {
		return 0
	}
	return (p.End.Year()-p.Start.Year())*12 + int(p.End.Month()) - int(p.Start.Month()) + 1
}

// =============================================================================
// LEASE DESCRIPTION
// =============================================================================

// LeaseType decides how operating expenses pass through.
type LeaseType string

const (
	FullService LeaseType = "full_service"
	TripleNet   LeaseType = "triple_net"
)

// LeaseTerm is an optional term block used when expiration is not given.
type LeaseTerm struct {
	Years                int  `json:"years"`
	Months               int  `json:"months"`
	AbatementExtendsTerm bool `json:"abatement_extends_term"`
}

// OperatingExpenses is the opex block. BaseYear applies to full-service leases.
type OperatingExpenses struct {
	BasePSF    float64           `json:"base_psf"`
	BaseYear   int               `json:"base_year,omitempty"`
	Escalation EscalationVariant `json:"escalation"`
}

// RentRow is one row of the rent schedule. Escalation is the row-local annual rate.
type RentRow struct {
	Start      Date    `json:"start"`
	End        Date    `json:"end"`
	RatePSF    float64 `json:"rate_psf"`
	Escalation float64 `json:"escalation,omitempty"`
}

// Concessions groups landlord-funded credits.
type Concessions struct {
	TIAllowancePSF  float64           `json:"ti_allowance_psf"`
	TIActualCostPSF float64           `json:"ti_actual_cost_psf"`
	MovingAllowance float64           `json:"moving_allowance"`
	OtherCredits    float64           `json:"other_credits"`
	Abatement       *AbatementVariant `json:"abatement,omitempty"`
}

// Parking is charged per stall per month.
type Parking struct {
	Stalls      int               `json:"stalls"`
	MonthlyRate float64           `json:"monthly_rate"`
	Escalation  EscalationVariant `json:"escalation"`
}

// RecurringCharge is an additional annual charge (storage, signage, ...).
type RecurringCharge struct {
	Name         string            `json:"name"`
	AnnualAmount float64           `json:"annual_amount"`
	Escalation   EscalationVariant `json:"escalation"`
}

// TransactionCosts are one-time deal costs. Total is derived when left at zero.
type TransactionCosts struct {
	LegalFees     float64 `json:"legal_fees"`
	BrokerageFees float64 `json:"brokerage_fees"`
	DueDiligence  float64 `json:"due_diligence"`
	Environmental float64 `json:"environmental"`
	Other         float64 `json:"other"`
	Total         float64 `json:"total"`
}

// Sum adds the component fees.
func (t TransactionCosts) Sum() float64 {
	return t.LegalFees + t.BrokerageFees + t.DueDiligence + t.Environmental + t.Other
}

// Resolved returns Total, falling back to the component sum.
func (t *TransactionCosts) Resolved() float64 {
	if t == nil {
		return 0
	}
	if t.Total > 0 {
		return t.Total
	}
	return t.Sum()
}

// AmortizationMethod selects how a financed cost is spread.
type AmortizationMethod string

const (
	StraightLine AmortizationMethod = "straight_line"
	PresentValue AmortizationMethod = "present_value"
)

// Financing says which one-time costs are amortized and how.
type Financing struct {
	AmortizeTIAllowance      bool               `json:"amortize_ti_allowance"`
	AmortizeTIShortfall      bool               `json:"amortize_ti_shortfall"`
	AmortizeTransactionCosts bool               `json:"amortize_transaction_costs"`
	Method                   AmortizationMethod `json:"method"`
	InterestRate             float64            `json:"interest_rate"`
	TermMonths               int                `json:"term_months,omitempty"`
}

// OptionType enumerates lease options.
type OptionType string

const (
	OptionRenewal     OptionType = "renewal"
	OptionExpansion   OptionType = "expansion"
	OptionTermination OptionType = "termination"
	OptionROFR        OptionType = "rofr"
	OptionROFO        OptionType = "rofo"
)

// LeaseOption is a tenant option. Fee/penalty/notice fields apply to termination options.
type LeaseOption struct {
	Type          OptionType `json:"type"`
	Description   string     `json:"description,omitempty"`
	EarliestDate  Date       `json:"earliest_date"`
	NoticeMonths  int        `json:"notice_months,omitempty"`
	PenaltyMonths float64    `json:"penalty_months,omitempty"`
	Fee           float64    `json:"fee,omitempty"`
	InterestRate  *float64   `json:"interest_rate,omitempty"`
	TermMonths    int        `json:"term_months,omitempty"`
	RatePSF       float64    `json:"rate_psf,omitempty"`
}

// LeaseDescription is the full structured description of one lease.
type LeaseDescription struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status,omitempty"`

	RSF       float64   `json:"rsf"`
	LeaseType LeaseType `json:"lease_type"`

	Commencement Date       `json:"commencement"`
	RentStart    Date       `json:"rent_start"`
	Expiration   Date       `json:"expiration"`
	Term         *LeaseTerm `json:"term,omitempty"`

	Operating      OperatingExpenses  `json:"operating"`
	RentSchedule   []RentRow          `json:"rent_schedule"`
	RentEscalation *EscalationVariant `json:"rent_escalation,omitempty"`

	Concessions      Concessions       `json:"concessions"`
	Parking          *Parking          `json:"parking,omitempty"`
	OtherRecurring   []RecurringCharge `json:"other_recurring,omitempty"`
	TransactionCosts *TransactionCosts `json:"transaction_costs,omitempty"`
	Financing        *Financing        `json:"financing,omitempty"`
	Options          []LeaseOption     `json:"options,omitempty"`

	DiscountRate *float64 `json:"discount_rate,omitempty"`
	Notes        string   `json:"notes,omitempty"`
}

// Rate returns the discount rate, defaulting to DefaultDiscountRate.
func (l LeaseDescription) Rate() float64 {
	if l.DiscountRate == nil {
		return DefaultDiscountRate
	}
	return *l.DiscountRate
}

// FirstRentRate is the unescalated rate of the earliest rent row.
func (l LeaseDescription) FirstRentRate() float64 {
	first := -1
	for i, row := range l.RentSchedule {
		if first < 0 || (row.Start.IsSet() && row.Start.Before(l.RentSchedule[first].Start.Time)) {
			first = i
		}
	}
	if first < 0 {
		return 0
	}
	return l.RentSchedule[first].RatePSF
}

// TerminationOptions returns the termination options in input order.
func (l LeaseDescription) TerminationOptions() []LeaseOption {
	var out []LeaseOption
	for _, o := range l.Options {
		if o.Type == OptionTermination {
			out = append(out, o)
		}
	}
	return out
}

// Clone returns a deep copy that shares no slices or pointers with l.
func (l LeaseDescription) Clone() LeaseDescription {
	c := l
	if l.Term != nil {
		t := *l.Term
		c.Term = &t
	}
	c.Operating.Escalation = l.Operating.Escalation.clone()
	c.RentSchedule = append([]RentRow(nil), l.RentSchedule...)
	if l.RentEscalation != nil {
		e := l.RentEscalation.clone()
		c.RentEscalation = &e
	}
	if l.Concessions.Abatement != nil {
		a := *l.Concessions.Abatement
		a.Periods = append([]AbatementPeriod(nil), a.Periods...)
		c.Concessions.Abatement = &a
	}
	if l.Parking != nil {
		p := *l.Parking
		p.Escalation = l.Parking.Escalation.clone()
		c.Parking = &p
	}
	if l.OtherRecurring != nil {
		c.OtherRecurring = make([]RecurringCharge, len(l.OtherRecurring))
		for i, r := range l.OtherRecurring {
			r.Escalation = r.Escalation.clone()
			c.OtherRecurring[i] = r
		}
	}
	if l.TransactionCosts != nil {
		t := *l.TransactionCosts
		c.TransactionCosts = &t
	}
	if l.Financing != nil {
		f := *l.Financing
		c.Financing = &f
	}
	if l.Options != nil {
		c.Options = make([]LeaseOption, len(l.Options))
		for i, o := range l.Options {
			if o.InterestRate != nil {
				r := *o.InterestRate
				o.InterestRate = &r
			}
			c.Options[i] = o
		}
	}
	if l.DiscountRate != nil {
		r := *l.DiscountRate
		c.DiscountRate = &r
	}
	return c
}

func (e EscalationVariant) clone() EscalationVariant {
	c := e
	if e.Cap != nil {
		v := *e.Cap
		c.Cap = &v
	}
	c.Periods = append([]EscalationPeriod(nil), e.Periods...)
	return c
}
