package solver

import (
	"regexp"
	"strconv"
	"strings"
)

// Shared extraction patterns. All solvers receive lowercased text, so the
// patterns are written lowercase-only.
var (
	amountRe  = regexp.MustCompile(`\$?\d[\d,]*(?:\.\d+)?\s*(?:million|thousand|[km])?\b`)
	percentRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:%|percent)`)
	yearsRe   = regexp.MustCompile(`(?:over|for|in)?\s*(\d+)[-\s]*(?:years?|yrs?)\b`)
)

// parseAmount converts a matched amount string ("$120,000", "1.5m",
// "250k") to a float.
func parseAmount(s string) (float64, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "$")

	mult := 1.0
	switch {
	case strings.HasSuffix(s, "million"):
		mult, s = 1e6, strings.TrimSuffix(s, "million")
	case strings.HasSuffix(s, "thousand"):
		mult, s = 1e3, strings.TrimSuffix(s, "thousand")
	case strings.HasSuffix(s, "m"):
		mult, s = 1e6, strings.TrimSuffix(s, "m")
	case strings.HasSuffix(s, "k"):
		mult, s = 1e3, strings.TrimSuffix(s, "k")
	}

	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v * mult, true
}

// firstAmount returns the first parseable amount in text.
func firstAmount(text string) (float64, bool) {
	for _, m := range amountRe.FindAllString(text, -1) {
		if v, ok := parseAmount(m); ok {
			return v, true
		}
	}
	return 0, false
}

// amountAfter returns the first amount captured by re's group 1.
func amountAfter(re *regexp.Regexp, text string) (float64, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	return parseAmount(m[1])
}

// percentAfter returns the first percentage in text as a fraction.
func percentAfter(text string) (float64, bool) {
	m := percentRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v / 100, true
}

// yearsIn returns the first year count in text.
func yearsIn(text string) (int, bool) {
	m := yearsRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// maskMatch blanks out the span re matches so later scans skip it.
func maskMatch(re *regexp.Regexp, text string) string {
	loc := re.FindStringIndex(text)
	if loc == nil {
		return text
	}
	return text[:loc[0]] + strings.Repeat(" ", loc[1]-loc[0]) + text[loc[1]:]
}

// amountList parses a run of amounts ("500, 700 and 900") captured right
// after a trigger phrase.
func amountList(segment string) []float64 {
	var flows []float64
	for _, m := range amountRe.FindAllString(segment, -1) {
		if v, ok := parseAmount(m); ok {
			flows = append(flows, v)
		}
	}
	return flows
}

// round2 rounds to cents. Results are money; sub-cent noise from float
// math reads as a bug to users.
func round2(v float64) float64 {
	if v < 0 {
		return float64(int64(v*100-0.5)) / 100
	}
	return float64(int64(v*100+0.5)) / 100
}
