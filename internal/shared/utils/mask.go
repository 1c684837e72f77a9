package utils

import "strings"

// MaskSecret keeps the first and last two characters of a credential so
// vendor app keys and card numbers can be correlated in logs.
// Example: "AK8812345601" -> "AK********01"
func MaskSecret(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
