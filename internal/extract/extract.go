// Package extract finds candidate book titles in normalized post text.
//
// The extractor is a pure function of its input: it mutates no external
// state and returns the same spans for the same text. Candidates come from
// two heuristics - quoted phrases and runs of title-cased words - scored by
// surface features (quoting, casing, length, nearby reading cues). The
// underlying scoring never leaks: callers only see CandidateSpan values.
package extract

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/bookskyapp/booksky-server/internal/domain"
)

// Base score and feature boosts. A quoted, title-cased, multi-word phrase
// next to a reading cue saturates near certainty; a bare capitalized pair
// lands above the default floor but below the creation threshold, so it can
// match the catalog without minting new books.
const (
	baseScore      = 0.35
	quotedBoost    = 0.25
	titleCaseBoost = 0.20
	multiWordBoost = 0.10
	cueBoost       = 0.10
	maxScore       = 0.99

	maxSpanWords = 8
)

var (
	// Quoted phrases: straight and curly quotes. A straight opening quote
	// must not sit inside a word, or contraction apostrophes ("don't") would
	// pair with a title's opening quote and destroy the span.
	quotedPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:^|[^\pL\pN])'([^']{2,80})'`),
		regexp.MustCompile(`"([^"]{2,80})"`),
		regexp.MustCompile(`“([^”]{2,80})”`),
		regexp.MustCompile(`‘([^’]{2,80})’`),
	}

	// Words with their offsets.
	wordPattern = regexp.MustCompile(`[\pL\pN][\pL\pN'’.-]*`)

	// Author attribution immediately after a span: "by Andy Weir" or
	// "by N.K. Jemisin". Name tokens are initials runs or plain capitalized
	// words; a bare period ends the attribution so the next sentence's first
	// word is never swallowed.
	authorPattern = regexp.MustCompile(`^\s*by\s+((?:(?:[A-Z]\.){1,3}|[A-Z][\w'-]*)(?:\s+(?:(?:[A-Z]\.){1,3}|[A-Z][\w'-]*)){0,2})`)
)

// cueWords are reading signals that boost a nearby candidate.
var cueWords = map[string]bool{
	"reading": true, "read": true, "reread": true,
	"finished": true, "finish": true, "started": true, "starting": true,
	"book": true, "novel": true, "audiobook": true,
	"recommend": true, "recommended": true, "review": true,
	"loved": true, "devoured": true,
}

// connectorWords may appear lowercase inside a title-cased run
// ("A Game of Thrones") without breaking it.
var connectorWords = map[string]bool{
	"of": true, "the": true, "and": true, "a": true, "an": true,
	"in": true, "to": true, "for": true, "on": true, "at": true,
}

// Extractor produces candidate title spans from normalized text.
type Extractor struct {
	floor float64
}

// New creates an extractor that drops spans scoring below floor.
func New(floor float64) *Extractor {
	return &Extractor{floor: floor}
}

// Candidates extracts candidate spans from normalized text, ordered by
// descending confidence with ties broken by leftmost position. Spans below
// the configured floor are dropped, not reported. Empty text yields nil.
func (e *Extractor) Candidates(text string) []domain.CandidateSpan {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	words := scanWords(text)
	spans := e.quotedSpans(text, words)
	spans = append(spans, e.titleCaseSpans(text, words, spans)...)

	kept := spans[:0]
	for _, s := range spans {
		if s.Confidence >= e.floor {
			kept = append(kept, s)
		}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		if kept[i].Confidence != kept[j].Confidence {
			return kept[i].Confidence > kept[j].Confidence
		}
		return kept[i].Start < kept[j].Start
	})

	if len(kept) == 0 {
		return nil
	}
	return kept
}

// word is a token with its byte offsets in the source text.
type word struct {
	text       string
	start, end int
}

func scanWords(text string) []word {
	idx := wordPattern.FindAllStringIndex(text, -1)
	words := make([]word, len(idx))
	for i, loc := range idx {
		words[i] = word{text: text[loc[0]:loc[1]], start: loc[0], end: loc[1]}
	}
	return words
}

// quotedSpans finds explicitly quoted phrases.
func (e *Extractor) quotedSpans(text string, words []word) []domain.CandidateSpan {
	var spans []domain.CandidateSpan
	for _, pat := range quotedPatterns {
		for _, loc := range pat.FindAllStringSubmatchIndex(text, -1) {
			inner := text[loc[2]:loc[3]]
			innerWords := wordPattern.FindAllString(inner, -1)
			if len(innerWords) == 0 || len(innerWords) > maxSpanWords {
				continue
			}

			score := baseScore + quotedBoost
			if isTitleCased(innerWords) {
				score += titleCaseBoost
			}
			if len(innerWords) >= 2 {
				score += multiWordBoost
			}
			if hasNearbyCue(words, loc[0]) {
				score += cueBoost
			}

			spans = append(spans, domain.CandidateSpan{
				Text:       strings.TrimSpace(inner),
				Start:      loc[2],
				End:        loc[3],
				Confidence: clamp(score),
				AuthorHint: authorAfter(text, loc[1]),
				Quoted:     true,
			})
		}
	}
	return spans
}

// titleCaseSpans finds runs of capitalized words outside already-claimed
// quoted regions. A run needs at least two capitalized words; lowercase
// connector words may sit inside it.
func (e *Extractor) titleCaseSpans(text string, words []word, claimed []domain.CandidateSpan) []domain.CandidateSpan {
	var spans []domain.CandidateSpan

	i := 0
	for i < len(words) {
		if !isCapitalized(words[i].text) {
			i++
			continue
		}

		// Extend the run over capitals and lowercase connectors, then trim
		// trailing connectors so a run never ends on "of" or "the".
		j := i + 1
		capCount := 1
		lastCap := i
		for j < len(words) && j-i < maxSpanWords {
			w := words[j].text
			if isCapitalized(w) {
				capCount++
				lastCap = j
			} else if !connectorWords[strings.ToLower(w)] {
				break
			}
			j++
		}
		j = lastCap + 1

		if capCount < 2 {
			i++
			continue
		}

		// A run right after "by" is an author attribution, not a title.
		if i > 0 && strings.EqualFold(words[i-1].text, "by") {
			i = j
			continue
		}

		start, end := words[i].start, words[j-1].end
		if overlapsAny(start, end, claimed) {
			i = j
			continue
		}

		score := baseScore + titleCaseBoost + multiWordBoost
		if hasNearbyCue(words, start) {
			score += cueBoost
		}

		spans = append(spans, domain.CandidateSpan{
			Text:       text[start:end],
			Start:      start,
			End:        end,
			Confidence: clamp(score),
			AuthorHint: authorAfter(text, end),
		})
		i = j
	}

	return spans
}

// isCapitalized reports whether a word begins with an uppercase letter and
// is not shouting (all caps words longer than 3 runes are treated as noise).
func isCapitalized(w string) bool {
	runes := []rune(w)
	if !unicode.IsUpper(runes[0]) {
		return false
	}
	if len(runes) > 3 && strings.ToUpper(w) == w {
		return false
	}
	return true
}

// isTitleCased reports whether every significant word is capitalized.
func isTitleCased(ws []string) bool {
	capCount := 0
	for _, w := range ws {
		if isCapitalized(w) {
			capCount++
			continue
		}
		if !connectorWords[strings.ToLower(w)] {
			return false
		}
	}
	return capCount > 0
}

// hasNearbyCue reports whether a reading cue appears within the three words
// preceding the given byte offset.
func hasNearbyCue(words []word, offset int) bool {
	// Find the last word ending at or before offset.
	last := -1
	for i, w := range words {
		if w.end <= offset {
			last = i
		} else {
			break
		}
	}
	for i := last; i >= 0 && i > last-3; i-- {
		if cueWords[strings.ToLower(words[i].text)] {
			return true
		}
	}
	return false
}

// authorAfter extracts a "by <Name>" attribution following a span, if any.
func authorAfter(text string, offset int) string {
	if offset >= len(text) {
		return ""
	}
	m := authorPattern.FindStringSubmatch(text[offset:])
	if m == nil {
		return ""
	}
	return m[1]
}

func overlapsAny(start, end int, spans []domain.CandidateSpan) bool {
	for _, s := range spans {
		if start < s.End && end > s.Start {
			return true
		}
	}
	return false
}

func clamp(score float64) float64 {
	if score > maxScore {
		return maxScore
	}
	return score
}
