package provisioning

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	nonSlugChars  = regexp.MustCompile(`[^a-z0-9-]`)
	hyphenRun     = regexp.MustCompile(`-+`)
)

// NormalizeSlug turns a display name into a URL-safe candidate slug.
// Accents are stripped, so "Farmácia São João" becomes "farmacia-sao-joao".
// An empty or symbol-only name yields "".
func NormalizeSlug(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, err := transform.String(t, name)
	if err != nil {
		s = name
	}

	s = strings.TrimSpace(strings.ToLower(s))
	s = whitespaceRun.ReplaceAllString(s, "-")
	s = nonSlugChars.ReplaceAllString(s, "")
	s = hyphenRun.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
