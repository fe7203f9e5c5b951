// Package taxonomy provides the fixed genre taxonomy, keyword signatures, and title/slug normalization.
package taxonomy

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	// Matches any non-alphanumeric character.
	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
	// Matches multiple hyphens.
	multipleHyphens = regexp.MustCompile(`-+`)
)

// Slugify converts a string to a URL-safe slug.
// "Science Fiction" -> "science-fiction".
// "Sci-Fi/Fantasy" -> "sci-fi-fantasy".
func Slugify(s string) string {
	// Normalize unicode (decompose accented characters).
	s = norm.NFKD.String(s)

	// Remove non-ASCII characters.
	s = strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII {
			return -1
		}
		return r
	}, s)

	s = strings.ToLower(s)
	s = nonAlphanumeric.ReplaceAllString(s, "-")
	s = multipleHyphens.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	return s
}

// leading articles dropped from title keys so "The Martian" and "Martian"
// collide on the same catalog entry.
var leadingArticles = []string{"the ", "a ", "an "}

// TitleKey normalizes a book title to its canonical matching key.
// Lowercased, unicode-decomposed, leading article removed, punctuation
// stripped, whitespace collapsed. The key is what the catalog's uniqueness
// constraint is declared on.
func TitleKey(title string) string {
	s := norm.NFKD.String(title)
	s = strings.ToLower(strings.TrimSpace(s))

	for _, article := range leadingArticles {
		if strings.HasPrefix(s, article) {
			s = s[len(article):]
			break
		}
	}

	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}
