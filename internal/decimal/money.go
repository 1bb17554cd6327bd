package decimal

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Zero is decimal zero
var Zero = decimal.Zero

// Parse parses a Facturae numeric value. Surrounding whitespace is ignored;
// the digits given are kept as-is, no rounding is applied.
func Parse(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(s))
}

// Sum sums a slice of decimals
func Sum(values []decimal.Decimal) decimal.Decimal {
	result := Zero
	for _, v := range values {
		result = result.Add(v)
	}
	return result
}

// FormatMoney renders an amount with exactly two decimals using the Spanish
// convention: "." for thousands and "," for decimals (1.234,56).
func FormatMoney(d decimal.Decimal) string {
	return formatFixed(d, 2)
}

// FormatFixed renders d with the given number of decimals, Spanish style
func FormatFixed(d decimal.Decimal, places int32) string {
	return formatFixed(d, places)
}

// FormatRate renders a percentage without trailing zeros: 21, 10,5
func FormatRate(d decimal.Decimal) string {
	s := d.String()
	if strings.Contains(s, ".") {
		s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	}
	return groupThousands(s)
}

// FormatQuantity renders a quantity with at least two decimals, keeping any
// extra precision from the source.
func FormatQuantity(d decimal.Decimal) string {
	places := -d.Exponent()
	if places < 2 {
		places = 2
	}
	return formatFixed(d, places)
}

func formatFixed(d decimal.Decimal, places int32) string {
	return groupThousands(d.StringFixed(places))
}

// groupThousands converts a "-1234.5" style string to "-1.234,5"
func groupThousands(s string) string {
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, fracPart, hasFrac := strings.Cut(s, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteByte(',')
		b.WriteString(fracPart)
	}
	return b.String()
}
