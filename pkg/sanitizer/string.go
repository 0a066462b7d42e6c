// Package sanitizer normalizes free-text input before validation and storage.
// All functions are idempotent and never return errors; invalid input
// degrades to the empty string.
package sanitizer

import (
	"strings"
	"unicode"
)

// TrimAndNormalize trims leading and trailing whitespace and collapses any
// internal whitespace run into a single space.
func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)

	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

// NormalizeNote normalizes a reservation note. The note is otherwise opaque
// to the service; only whitespace is touched.
func NormalizeNote(note string) string {
	return TrimAndNormalize(note)
}
