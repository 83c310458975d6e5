// Package normalize cleans user input before it is stored or compared.
package normalize

import "strings"

// Email returns a normalized form of an email address suitable for
// storage and comparisons: surrounding whitespace trimmed, lower-cased.
func Email(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}

// Category lower-cases and trims a listing category so "Food " matches "food".
func Category(c string) string {
	return strings.ToLower(strings.TrimSpace(c))
}

// Text trims surrounding whitespace and collapses internal runs of
// whitespace (including newlines) to a single space. Used for titles,
// names and locations.
func Text(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
