// Package normalize holds the canonicalization rules applied to
// user-supplied identity fields before they are stored or compared.
package normalize

import (
	"strings"
	"unicode"
)

// Email lowercases and trims an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace but preserves case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// Domain lowercases and trims a domain, stripping a leading "@".
func Domain(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.TrimPrefix(s, "@")
}

// Slug derives a URL slug from a display name: lowercase, runs of
// non-alphanumerics collapsed to single hyphens, no leading or
// trailing hyphen.
func Slug(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			prevHyphen = false
		default:
			if !prevHyphen {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
