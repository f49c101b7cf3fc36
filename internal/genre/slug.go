// Package genre provides the default onboarding genre taxonomy, alias
// resolution, and slug normalization.
package genre

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Slugify converts a string to a URL-safe slug.
// "Science Fiction" -> "science-fiction".
// "Sword & Sorcery" -> "sword-and-sorcery".
// "Café Noir" -> "cafe-noir".
func Slugify(s string) string {
	s = strings.ReplaceAll(s, "&", " and ")

	// Decompose accents so the base letter survives the ASCII filter.
	s = norm.NFKD.String(s)

	var b strings.Builder
	b.Grow(len(s))
	pendingDash := false
	for _, r := range s {
		switch {
		case r > unicode.MaxASCII:
			continue
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
		case r >= 'A' && r <= 'Z':
			r = unicode.ToLower(r)
		default:
			pendingDash = b.Len() > 0
			continue
		}
		if pendingDash {
			b.WriteByte('-')
			pendingDash = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
