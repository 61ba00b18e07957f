package exporter

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// valuePlaces is the number of decimals every exported value carries
const valuePlaces = 2

// formatFloat formats a value with exactly two decimal places. Rounding goes
// through decimal so 2.675 exports as 2.68 rather than the float64 2.67.
func formatFloat(f float64) string {
	return decimal.NewFromFloat(f).StringFixed(valuePlaces)
}

// roundFloat rounds a value the same way formatFloat prints it
func roundFloat(f float64) float64 {
	v, _ := decimal.NewFromFloat(f).Round(valuePlaces).Float64()
	return v
}

// formatInt formats an integer for CSV output
func formatInt(i int) string {
	return strconv.Itoa(i)
}

// formatLeaders joins the agencies sharing a cell maximum
func formatLeaders(leaders []string) string {
	return strings.Join(leaders, "; ")
}
