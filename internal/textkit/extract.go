// Package textkit implements the text-to-candidate-word pipeline: token
// extraction, validity filtering, frequency aggregation and locale-aware
// segment counting.
package textkit

import "regexp"

// wordPattern matches an English word token: one or more ASCII letters,
// optionally followed by repeated hyphen-or-apostrophe + letters groups.
// Tokens with digits, underscores or non-ASCII letters inside never match
// as a whole, so "user_name" yields "user" and "name" separately.
var wordPattern = regexp.MustCompile(`\b[a-zA-Z]+(?:['-][a-zA-Z]+)*\b`)

// Extract tokenizes raw text into candidate word strings in page order.
// The result is not deduplicated and case is preserved.
func Extract(text string) []string {
	return wordPattern.FindAllString(text, -1)
}
