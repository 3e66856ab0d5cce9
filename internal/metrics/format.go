package metrics

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// NormalizePercent converts a 0-100 percentage to a 0-1 fraction.
func NormalizePercent(v float64) float64 {
	return v / 100
}

// FormatPercent renders a 0-1 fraction as a percentage: 0.25 -> "25.0%".
func FormatPercent(fraction float64, decimals int) string {
	return FormatPoints(fraction*100, decimals)
}

// FormatPoints renders a value already in percentage points: 25 -> "25.00%"
// with two decimals.
func FormatPoints(points float64, decimals int) string {
	return printer.Sprintf("%.*f%%", decimals, points)
}

// FormatCurrency renders dollars with thousands separators and cents.
func FormatCurrency(v float64) string {
	return printer.Sprintf("$%.2f", v)
}

// FormatCount renders an integer with thousands separators.
func FormatCount(v int64) string {
	return printer.Sprintf("%d", v)
}

// FormatNumber renders v with thousands separators and a fixed number of decimals.
func FormatNumber(v float64, decimals int) string {
	return printer.Sprintf("%.*f", decimals, v)
}

// Round rounds half away from zero at the given decimal places.
func Round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
