// Package strings provides string helpers for user-facing messages.
package strings

import "fmt"

// Pluralize appends an "s" to word unless count is exactly one. Good
// enough for the nouns driveman prints (file, folder, item, error).
func Pluralize(word string, count int) string {
	if count == 1 {
		return word
	}
	return word + "s"
}

// CountNoun formats a count with its pluralized noun: "1 file", "3 files".
func CountNoun(count int, word string) string {
	return fmt.Sprintf("%d %s", count, Pluralize(word, count))
}

// Truncate shortens s to at most max bytes, appending "..." when cut.
// Notification bodies and log summaries use it to keep errors readable.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
