package util

import (
	"fmt"
	"math"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatCurrency formats a dollar amount with thousands separators and two decimals.
// Examples: 215432.891 -> "$215,432.89", -1234 -> "$-1,234.00"
func FormatCurrency(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Sprintf("$%v", v)
	}
	return "$" + printer.Sprintf("%.2f", v)
}

// FormatInt formats an integer with thousands separators.
// Examples: 500 -> "500", 10000 -> "10,000"
func FormatInt(n int) string {
	return printer.Sprintf("%d", n)
}

// FormatDuration renders short latencies in the most readable unit.
// Examples: 850µs -> "850µs", 12.3ms -> "12.3ms", 2.5s -> "2.50s"
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%.1fms", float64(d)/float64(time.Millisecond))
	default:
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
}
