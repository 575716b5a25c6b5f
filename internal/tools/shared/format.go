package shared

import (
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Money formats an amount as "$1,234.56".
func Money(amount decimal.Decimal) string {
	f := amount.Round(2).InexactFloat64()
	if f < 0 {
		return "-$" + humanize.FormatFloat("#,###.##", -f)
	}
	return "$" + humanize.FormatFloat("#,###.##", f)
}

// Number formats a value with thousands separators and two decimals.
func Number(v decimal.Decimal) string {
	return humanize.FormatFloat("#,###.##", v.Round(2).InexactFloat64())
}

// Float converts a decimal for a JSON result, rounded to two places.
func Float(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

// Symbols splits a comma separated ticker list, upper-casing and dropping
// blanks and duplicates.
func Symbols(list string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, s := range strings.Split(list, ",") {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
