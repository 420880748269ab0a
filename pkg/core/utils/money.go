package utils

import (
	"math"

	"github.com/shopspring/decimal"
)

// RoundMoney rounds to cents using decimal arithmetic (half away from zero).
// Only presentation layers call it; the engine keeps full float precision.
func RoundMoney(v float64) float64 {
	return RoundTo(v, 2)
}

// RoundTo rounds v to the given number of decimal places.
func RoundTo(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

// FormatMoney renders v with two decimals, e.g. "-500000.00".
func FormatMoney(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0.00"
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}
