package user

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Filter returns the records whose first name, last name or email contains
// query, ignoring case. Order is preserved. An empty query returns records.
func Filter(records []Record, query string) []Record {
	if query == "" {
		return records
	}

	// A Caser carries state and must not be shared between goroutines.
	lower := cases.Lower(language.Und)
	needle := lower.String(query)

	out := make([]Record, 0, len(records))
	for _, r := range records {
		if matches(lower, r, needle) {
			out = append(out, r)
		}
	}
	return out
}

func matches(lower cases.Caser, r Record, needle string) bool {
	return strings.Contains(lower.String(r.FirstName), needle) ||
		strings.Contains(lower.String(r.LastName), needle) ||
		strings.Contains(lower.String(r.Email), needle)
}
