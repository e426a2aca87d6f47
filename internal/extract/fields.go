package extract

import (
	"strings"
	"unicode"
)

// FieldExtractor runs the compiled pattern cascades against normalized text
// and collects every match for every pattern, not just the first. Candidate
// selection happens afterwards, per field, via the Select helpers.
type FieldExtractor struct {
	patterns *PatternSet
}

// NewFieldExtractor wraps a compiled PatternSet.
func NewFieldExtractor(patterns *PatternSet) *FieldExtractor {
	return &FieldExtractor{patterns: patterns}
}

// Extract returns the raw candidate lists keyed by field. Fields with no
// match are absent from the map.
func (fe *FieldExtractor) Extract(text string) map[Field][]string {
	candidates := make(map[Field][]string)
	for _, field := range fieldOrder {
		for _, re := range fe.patterns.fields[field] {
			for _, m := range re.FindAllStringSubmatch(text, -1) {
				if len(m) > 1 {
					if c := strings.TrimSpace(m[1]); c != "" {
						candidates[field] = append(candidates[field], c)
					}
				}
			}
		}
	}
	return candidates
}

// SelectAmount parses every candidate and picks the maximum value. The
// total is usually the largest number on an invoice; this is a deliberate,
// documented heuristic and a known source of misclassification when a
// quantity or phone number outgrows the real total.
func SelectAmount(candidates []string) (float64, bool) {
	var best float64
	found := false
	for _, c := range candidates {
		if v, ok := ParseAmount(c); ok {
			if !found || v > best {
				best = v
				found = true
			}
		}
	}
	return best, found
}

// SelectFirstAmount parses candidates in pattern-priority order and returns
// the first one that parses. Used for tax amounts, where the cascade order
// already encodes specificity.
func SelectFirstAmount(candidates []string) (float64, bool) {
	for _, c := range candidates {
		if v, ok := ParseAmount(c); ok {
			return v, true
		}
	}
	return 0, false
}

// SelectVendor prefers a candidate containing "@" whose local part is not a
// generic automated sender; otherwise the longest candidate that is not
// purely numeric.
func SelectVendor(candidates []string) string {
	for _, c := range candidates {
		if strings.ContainsRune(c, '@') && !isGenericSender(c) {
			return c
		}
	}
	best := ""
	for _, c := range candidates {
		if len(c) > 3 && !isAllDigits(c) && len(c) > len(best) {
			best = c
		}
	}
	return best
}

func isGenericSender(candidate string) bool {
	lower := strings.ToLower(candidate)
	for _, g := range genericLocalParts {
		if strings.Contains(lower, g) {
			return true
		}
	}
	return false
}

// SelectConcept prefers the longest candidate exceeding ten characters.
// When none qualifies it scans the normalized text for a line that reads
// like a description: 10-150 characters, at least two real words, not all
// digits, no address.
func SelectConcept(candidates []string, normalizedText string) string {
	longest := ""
	for _, c := range candidates {
		if len(c) > len(longest) {
			longest = c
		}
	}
	if len(longest) > 10 {
		return longest
	}
	return inferConceptFromContext(normalizedText)
}

func inferConceptFromContext(text string) string {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) < 10 || len(line) > 150 {
			continue
		}
		if isAllDigits(line) || strings.ContainsRune(line, '@') {
			continue
		}
		if countRealWords(line) >= 2 {
			return line
		}
	}
	return ""
}

// SelectFirst returns the first non-empty candidate; the pattern list order
// defines precedence for invoice numbers, dates and tax IDs.
func SelectFirst(candidates []string) string {
	for _, c := range candidates {
		if c = strings.TrimSpace(c); c != "" {
			return c
		}
	}
	return ""
}

func isAllDigits(s string) bool {
	seen := false
	for _, r := range s {
		if unicode.IsDigit(r) {
			seen = true
			continue
		}
		if unicode.IsSpace(r) || r == '.' || r == ',' || r == '-' {
			continue
		}
		return false
	}
	return seen
}

func countRealWords(line string) int {
	count := 0
	for _, w := range strings.Fields(line) {
		letters := 0
		for _, r := range w {
			if unicode.IsLetter(r) {
				letters++
			}
		}
		if letters >= 2 {
			count++
		}
	}
	return count
}
