// Package logutil trims payloads before they reach logs or the sync log.
package logutil

import "unicode/utf8"

// TruncateForLog shortens s to at most maxLen bytes without splitting a
// UTF-8 sequence and marks the cut with "...".
func TruncateForLog(s string, maxLen int) string {
	if maxLen <= 0 {
		return "..."
	}
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
