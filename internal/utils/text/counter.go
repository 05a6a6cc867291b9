// Package text provides rune-aware helpers for article and translation text.
package text

import "unicode/utf8"

// CountRunes counts Unicode characters rather than bytes, so Chinese and
// Japanese titles are measured the way readers see them.
func CountRunes(s string) int {
	return utf8.RuneCountInString(s)
}

// Truncate cuts s to at most n runes. It never splits a multi-byte character.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if CountRunes(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
