package analysis

import (
	"lease_economics/pkg/core/amortization"
	"lease_economics/pkg/core/cashflow"
	"lease_economics/pkg/core/concession"
	"lease_economics/pkg/core/validate"
)

// LeaseAnalysis is the complete economics profile of one lease.
type LeaseAnalysis struct {
	LeaseID   string `json:"lease_id"`
	LeaseName string `json:"lease_name"`

	// 1. Annual cashflow and its totals
	Cashflow []cashflow.Line `json:"cashflow"`
	Totals   cashflow.Line   `json:"totals"`
	Years    float64         `json:"years"`

	// 2. Summary metrics
	Metrics Metrics `json:"metrics"`

	// 3. Landlord concessions
	Concessions concession.Totals `json:"concessions"`

	// 4. Monthly view (only when requested)
	MonthlyEconomics *MonthlyEconomics `json:"monthly_economics,omitempty"`

	NoteSections []string `json:"note_sections,omitempty"`

	// 5. Input findings and cashflow tie-out failures
	Issues []validate.Issue `json:"issues,omitempty"`
}

// Metrics are derived from the annual net cash flow.
// IRR and PaybackPeriod are nil unless the flows change sign.
type Metrics struct {
	NPV              float64  `json:"npv"`
	EffectiveRentPSF float64  `json:"effective_rent_psf"`
	IRR              *float64 `json:"irr,omitempty"`
	PaybackPeriod    *float64 `json:"payback_period,omitempty"`
	DiscountRate     float64  `json:"discount_rate"`
	TotalCashflow    float64  `json:"total_cashflow"`
}

// MonthlyEconomics is the monthly-granularity companion to the annual cashflow.
type MonthlyEconomics struct {
	Lines                []cashflow.Line    `json:"lines"`
	RentSchedule         []MonthlyRent      `json:"rent_schedule"`
	AmortizationSchedule []amortization.Row `json:"amortization_schedule,omitempty"`
	BlendedRatePSF       float64            `json:"blended_rate_psf"`
}

// MonthlyRent is one month of base rent after abatement.
type MonthlyRent struct {
	Period          string  `json:"period"`
	RatePSF         float64 `json:"rate_psf"` // annualized
	BaseRent        float64 `json:"base_rent"`
	AbatementCredit float64 `json:"abatement_credit"`
	NetRent         float64 `json:"net_rent"`
}
