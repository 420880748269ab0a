// Package cashflow builds period-by-period lease cashflow lines.
package cashflow

import "lease_economics/pkg/core/lease"

// Bucket names one cashflow column.
type Bucket string

const (
	BaseRent         Bucket = "base_rent"
	Operating        Bucket = "operating"
	Parking          Bucket = "parking"
	OtherRecurring   Bucket = "other_recurring"
	AbatementCredit  Bucket = "abatement_credit"
	TIShortfall      Bucket = "ti_shortfall"
	TransactionCosts Bucket = "transaction_costs"
	AmortizedCosts   Bucket = "amortized_costs"
)

// Buckets lists every column that feeds net cash flow, in declaration order.
var Buckets = []Bucket{
	BaseRent,
	Operating,
	Parking,
	OtherRecurring,
	AbatementCredit,
	TIShortfall,
	TransactionCosts,
	AmortizedCosts,
}

// Line is one annual or monthly period of a lease cashflow.
// Costs to the tenant are positive; AbatementCredit is <= 0.
type Line struct {
	Period string     `json:"period"`
	Index  int        `json:"index"`
	Year   int        `json:"year"`
	Month  int        `json:"month,omitempty"`
	Start  lease.Date `json:"start"`
	End    lease.Date `json:"end"`

	BaseRent         float64 `json:"base_rent"`
	Operating        float64 `json:"operating"`
	Parking          float64 `json:"parking"`
	OtherRecurring   float64 `json:"other_recurring"`
	AbatementCredit  float64 `json:"abatement_credit"`
	TIShortfall      float64 `json:"ti_shortfall"`
	TransactionCosts float64 `json:"transaction_costs"`
	AmortizedCosts   float64 `json:"amortized_costs"`

	Subtotal    float64 `json:"subtotal"`
	NetCashFlow float64 `json:"net_cash_flow"`
}

// Value returns the amount in one bucket.
func (l Line) Value(b Bucket) float64 {
	switch b {
	case BaseRent:
		return l.BaseRent
	case Operating:
		return l.Operating
	case Parking:
		return l.Parking
	case OtherRecurring:
		return l.OtherRecurring
	case AbatementCredit:
		return l.AbatementCredit
	case TIShortfall:
		return l.TIShortfall
	case TransactionCosts:
		return l.TransactionCosts
	case AmortizedCosts:
		return l.AmortizedCosts
	}
	return 0
}

// WithValue returns a copy of l with one bucket replaced and the totals recomputed.
func (l Line) WithValue(b Bucket, v float64) Line {
	switch b {
	case BaseRent:
		l.BaseRent = v
	case Operating:
		l.Operating = v
	case Parking:
		l.Parking = v
	case OtherRecurring:
		l.OtherRecurring = v
	case AbatementCredit:
		l.AbatementCredit = v
	case TIShortfall:
		l.TIShortfall = v
	case TransactionCosts:
		l.TransactionCosts = v
	case AmortizedCosts:
		l.AmortizedCosts = v
	}
	return l.totaled()
}

func (l Line) totaled() Line {
	l.Subtotal = l.BaseRent + l.Operating + l.Parking + l.OtherRecurring
	l.NetCashFlow = l.Subtotal + l.AbatementCredit + l.TIShortfall + l.TransactionCosts + l.AmortizedCosts
	return l
}

// NetFlows extracts the net cash flow column.
func NetFlows(lines []Line) []float64 {
	flows := make([]float64, len(lines))
	for i, l := range lines {
		flows[i] = l.NetCashFlow
	}
	return flows
}

// Sum adds every bucket across lines into a single totals line.
func Sum(lines []Line) Line {
	var total Line
	total.Period = "total"
	for _, l := range lines {
		total.BaseRent += l.BaseRent
		total.Operating += l.Operating
		total.Parking += l.Parking
		total.OtherRecurring += l.OtherRecurring
		total.AbatementCredit += l.AbatementCredit
		total.TIShortfall += l.TIShortfall
		total.TransactionCosts += l.TransactionCosts
		total.AmortizedCosts += l.AmortizedCosts
	}
	return total.totaled()
}
