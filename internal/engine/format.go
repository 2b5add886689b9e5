package engine

import "github.com/shopspring/decimal"

// formatPercent renders a fraction as a percentage with the given decimal
// places: 0.025 -> "2.50%".
func formatPercent(fraction float64, places int32) string {
	return decimal.NewFromFloat(fraction).Shift(2).StringFixed(places) + "%"
}

// round rounds half away from zero on the decimal representation, so 0.675
// rounds to 0.68 rather than following the binary float.
func round(x float64, places int32) float64 {
	return decimal.NewFromFloat(x).Round(places).InexactFloat64()
}
