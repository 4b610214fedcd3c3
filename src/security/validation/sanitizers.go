package validation

import (
	"strings"
	"unicode"
)

// StripUnprintable drops control and format characters such as a byte order
// mark or stray NULs from uploaded text. Tab and line breaks are kept.
func StripUnprintable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == '\t' || r == '\n' || r == '\r' {
			return r
		}
		return -1 // Drop the rune
	}, s)
}
