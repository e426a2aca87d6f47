package extract

import (
	"strconv"
	"strings"
)

// ParseAmount turns a raw amount candidate into a canonical float. It
// disambiguates the two thousands/decimal conventions:
//
//	"1.234,56" -> 1234.56   (comma appears last: comma is the decimal point)
//	"1,234.56" -> 1234.56   (dot appears last: dot is the decimal point)
//	"1234,56"  -> 1234.56   (<=2 digits after the only comma: decimal comma)
//	"1,234"    -> 1234      (>2 digits after the only comma: thousands comma)
//
// It never fails loudly: unparseable input yields (0, false).
func ParseAmount(candidate string) (float64, bool) {
	var b strings.Builder
	for _, r := range candidate {
		if (r >= '0' && r <= '9') || r == ',' || r == '.' {
			b.WriteRune(r)
		}
	}
	clean := b.String()
	if clean == "" {
		return 0, false
	}

	lastComma := strings.LastIndexByte(clean, ',')
	lastDot := strings.LastIndexByte(clean, '.')

	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			// European style: dots are thousands separators.
			clean = strings.ReplaceAll(clean, ".", "")
			clean = strings.ReplaceAll(clean, ",", ".")
		} else {
			clean = strings.ReplaceAll(clean, ",", "")
		}
	case lastComma >= 0:
		if len(clean)-lastComma-1 <= 2 {
			// Decimal comma: drop any earlier thousands commas.
			clean = strings.ReplaceAll(clean[:lastComma], ",", "") + "." + clean[lastComma+1:]
		} else {
			clean = strings.ReplaceAll(clean, ",", "")
		}
	}

	value, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}
