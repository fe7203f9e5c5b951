// Package normalize cleans raw skeet text into plain text and a token stream.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/net/html"
)

var (
	// Bare URLs in post text.
	urlPattern = regexp.MustCompile(`\bhttps?://\S+|\bwww\.\S+`)
	// Handles like @alice.bsky.social.
	mentionPattern = regexp.MustCompile(`@[\w.-]+`)
	// Hashtags; the leading # is dropped but the tag word is kept since it
	// often carries genre signal (#scifi, #romance).
	hashtagPattern = regexp.MustCompile(`#(\w+)`)
	// Runs of whitespace.
	spacePattern = regexp.MustCompile(`\s+`)
)

// Result is the output of normalizing one post.
type Result struct {
	Text   string   // cleaned text; case and quotes preserved for the extractor
	Tokens []string // lowercase word tokens for classification
}

// IsEmpty reports whether normalization produced nothing usable.
// Downstream stages treat this as "no candidates".
func (r Result) IsEmpty() bool {
	return r.Text == "" || len(r.Tokens) == 0
}

// Post normalizes raw post text. It strips embedded markup, URLs, and
// mentions, unwraps hashtags, drops emoji and other symbol runes, and
// collapses whitespace. Capitalization and quotation marks survive because
// the entity extractor depends on them. Degenerate input yields an empty
// Result; there is no error path.
func Post(raw string) Result {
	text := stripMarkup(raw)

	text = urlPattern.ReplaceAllString(text, " ")
	text = mentionPattern.ReplaceAllString(text, " ")
	text = hashtagPattern.ReplaceAllString(text, "$1")
	text = stripSymbols(text)
	text = strings.TrimSpace(spacePattern.ReplaceAllString(text, " "))

	return Result{
		Text:   text,
		Tokens: Tokenize(text),
	}
}

// Tokenize splits text into lowercase word tokens.
// Apostrophes and hyphens inside words are kept ("don't", "sci-fi").
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '\'' && r != '-'
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, "'-")
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// stripMarkup removes HTML/XML tags from post text, keeping text content.
// Posts arriving through embeds or link cards occasionally carry markup.
func stripMarkup(raw string) string {
	if !strings.ContainsRune(raw, '<') {
		return raw
	}

	var b strings.Builder
	tokenizer := html.NewTokenizer(strings.NewReader(raw))
	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			b.Write(tokenizer.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			// Tags become word boundaries.
			b.WriteByte(' ')
		}
	}
}

// stripSymbols drops emoji and other symbol runes, plus null bytes which
// upset the database layer. Punctuation is kept.
func stripSymbols(s string) string {
	return strings.Map(func(r rune) rune {
		if r == 0 {
			return -1
		}
		if unicode.IsSymbol(r) {
			return ' '
		}
		return r
	}, s)
}
