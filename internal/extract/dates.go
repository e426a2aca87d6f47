package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Numeric layouts tried in order. Ambiguous D/M vs M/D input resolves
// day-first, matching the Latin American invoices this system targets.
var dateLayouts = []string{
	"2006-01-02",
	"2006-1-2",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2-1-2006",
	"02/01/06",
	"2/1/06",
	"January 2, 2006",
	"Jan 2, 2006",
	"January 2 2006",
	"2 January 2006",
	"2 January, 2006",
}

var spanishMonths = map[string]time.Month{
	"enero": time.January, "febrero": time.February, "marzo": time.March,
	"abril": time.April, "mayo": time.May, "junio": time.June,
	"julio": time.July, "agosto": time.August, "septiembre": time.September,
	"setiembre": time.September, "octubre": time.October,
	"noviembre": time.November, "diciembre": time.December,
}

var spanishDateRe = regexp.MustCompile(`(?i)(\d{1,2})\s+de\s+(\p{L}{3,12})\s+de\s+(\d{4})`)

// NormalizeDate converts a raw date candidate to ISO YYYY-MM-DD. When the
// candidate cannot be parsed it is returned as-is with ok=false so callers
// can keep the raw value.
func NormalizeDate(candidate string) (string, bool) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return "", false
	}

	if m := spanishDateRe.FindStringSubmatch(candidate); m != nil {
		if month, ok := spanishMonths[strings.ToLower(m[2])]; ok {
			day, _ := strconv.Atoi(m[1])
			year, _ := strconv.Atoi(m[3])
			if day >= 1 && day <= 31 {
				return fmt.Sprintf("%04d-%02d-%02d", year, int(month), day), true
			}
		}
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, candidate); err == nil {
			return t.Format("2006-01-02"), true
		}
	}
	return candidate, false
}

// EmailDateISO extracts the date part of an email date string. Headers
// arrive either as "YYYY-MM-DD HH:MM:SS" from the fetcher or in RFC form.
func EmailDateISO(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	head := raw
	if i := strings.IndexByte(raw, ' '); i > 0 {
		head = raw[:i]
	}
	if iso, ok := NormalizeDate(head); ok {
		return iso
	}

	for _, layout := range []string{time.RFC1123Z, time.RFC1123, time.RFC822Z, time.RFC822} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return raw
}
