package export

import "strings"

// splitName breaks a display name into first/last. One-word names have
// an empty last name; everything after the first word joins into the
// last name.
func splitName(name string) (first, last string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}
