// Package ticket recognises issue keys such as "PROJ-123".
package ticket

import "regexp"

var pattern = regexp.MustCompile(`^[A-Z]+-[0-9]+$`)

// IsTicket reports whether s is exactly an issue key: uppercase letters, a
// single hyphen, then digits.
func IsTicket(s string) bool {
	return pattern.MatchString(s)
}

// Extract returns the names that are issue keys, preserving order.
func Extract(names []string) []string {
	var out []string
	for _, n := range names {
		if IsTicket(n) {
			out = append(out, n)
		}
	}
	return out
}
