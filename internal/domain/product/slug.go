package product

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	slugInvalid   = regexp.MustCompile(`[^\w\s-]`)
	slugSeparator = regexp.MustCompile(`[-\s]+`)
)

// Slugify converts s to a URL slug: accents are folded to ASCII, anything
// that is not a letter, digit, underscore, space or hyphen is dropped, and
// runs of spaces and hyphens collapse into a single hyphen.
func Slugify(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), runes.Remove(runes.Predicate(isNonASCII)))
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = slugInvalid.ReplaceAllString(strings.ToLower(folded), "")
	return strings.Trim(slugSeparator.ReplaceAllString(folded, "-"), "-_")
}

func isNonASCII(r rune) bool {
	return r > unicode.MaxASCII
}
