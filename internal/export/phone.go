package export

import "strings"

// digitsOf strips everything but digits.
func digitsOf(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// normalizeDigits reduces a 10-digit or 11-digit-with-leading-1 number
// to its 10 significant digits. Anything else is not normalizable.
func normalizeDigits(s string) (string, bool) {
	d := digitsOf(s)
	switch {
	case len(d) == 10:
		return d, true
	case len(d) == 11 && d[0] == '1':
		return d[1:], true
	default:
		return "", false
	}
}

// phoneDigits formats a phone as a raw 10-digit string (Planning
// Center convention). Malformed input passes through unchanged.
func phoneDigits(phone *string) string {
	if phone == nil {
		return ""
	}
	if d, ok := normalizeDigits(*phone); ok {
		return d
	}
	return *phone
}

// phonePretty formats a phone as (NNN) NNN-NNNN (Breeze convention).
// Malformed input passes through unchanged.
func phonePretty(phone *string) string {
	if phone == nil {
		return ""
	}
	d, ok := normalizeDigits(*phone)
	if !ok {
		return *phone
	}
	return "(" + d[0:3] + ") " + d[3:6] + "-" + d[6:10]
}
