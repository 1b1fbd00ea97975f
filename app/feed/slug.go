package feed

import (
	"strings"
	"unicode"

	"github.com/gosimple/slug"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var slugQuotes = strings.NewReplacer("'", "", "’", "", "\"", "")

// Slugify turns a title into a lower-case, hyphen separated ASCII slug.
// Letters outside the Latin alphabet are transliterated, so the result is
// empty only when the title has nothing that can be spelled in ASCII.
func Slugify(title string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

	result, _, err := transform.String(t, title)
	if err != nil {
		result = title
	}

	return slug.Make(slugQuotes.Replace(result))
}
