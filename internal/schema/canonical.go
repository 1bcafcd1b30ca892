package schema

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// canonical normalizes a header cell for name-based matching: the UTF-8 BOM
// and surrounding space are stripped, diacritics are removed, and the result
// is lowercased. Matching by canonical name keeps the contracts stable across
// export tools that vary header casing or sneak a BOM into the first cell.
func canonical(s string) string {
	s = strings.TrimPrefix(s, "\uFEFF")
	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)
	if ascii, _, err := transform.String(t, s); err == nil {
		s = ascii
	}
	return strings.ToLower(strings.TrimSpace(s))
}
