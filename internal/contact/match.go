package contact

import "strings"

// Matches reports whether c satisfies a free-text query.
//
// A blank query matches every contact. Otherwise the lowercased query must be a
// substring of the lowercased full name or of any phone number as stored.
// Phone numbers are not normalized: "650 555" only matches numbers that contain
// that exact text.
func Matches(c Contact, query string) bool {
	if strings.TrimSpace(query) == "" {
		return true
	}

	q := strings.ToLower(query)
	if strings.Contains(strings.ToLower(c.FullName()), q) {
		return true
	}

	for _, p := range c.PhoneNumbers {
		if strings.Contains(p.Number, q) {
			return true
		}
	}
	return false
}
