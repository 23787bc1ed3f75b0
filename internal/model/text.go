package model

import (
	"strings"
	"unicode/utf8"
)

// Truncate shortens s to at most n runes, ending in "…" when cut. n <= 0
// disables truncation.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:n-1])) + "…"
}
