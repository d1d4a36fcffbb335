package model

import "strings"

// Slugify lower-cases s and collapses every run of characters outside
// [a-z0-9_-] into a single hyphen. Hyphens already in s are kept as they
// are, and leading or trailing hyphens are trimmed.
func Slugify(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pendingDash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		default:
			pendingDash = true
		}
	}
	return strings.Trim(b.String(), "-")
}
