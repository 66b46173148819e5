package utils

import "strings"

// Truncate returns s truncated to maxLen characters, with "..." appended if
// truncated. The cut falls on a rune boundary so truncated output stays
// valid UTF-8. If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen]) + "..."
}

// Snippet produces a compact single-line preview of a longer text blob:
// whitespace trimmed, newlines collapsed to spaces, truncated to maxLen.
// Used for logged retrieved chunks and interactive labeling output.
func Snippet(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")
	return Truncate(s, maxLen)
}
