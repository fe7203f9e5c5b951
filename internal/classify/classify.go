// Package classify assigns a genre to a resolved post by scoring the
// taxonomy's keyword signatures against the post text and book title.
// Classification is pure and deterministic: the same input text always
// yields the same genre, and every input yields one (the fallback when
// nothing scores).
package classify

import (
	"sort"
	"strings"

	"github.com/bookskyapp/booksky-server/internal/taxonomy"
)

// Result is the classifier's verdict for one post.
type Result struct {
	Slug     string  // selected genre slug, never empty
	Score    float64 // winning signature score; 0 for the fallback
	Fallback bool    // true when no signature cleared the minimum
}

// Classifier scores taxonomy signatures against text.
type Classifier struct {
	signatures []taxonomy.Signature
	fallback   string
	minScore   float64
}

// New creates a classifier over the given signatures. MinScore is the
// lowest winning score that avoids the fallback genre.
func New(signatures []taxonomy.Signature, minScore float64) *Classifier {
	c := &Classifier{
		signatures: signatures,
		fallback:   taxonomy.UnclassifiedSlug,
		minScore:   minScore,
	}
	for _, sig := range signatures {
		if sig.Fallback {
			c.fallback = sig.Slug
			break
		}
	}
	return c
}

// Classify scores every signature against the combined post text and book
// title and returns the best one. Ties break on signature priority, lower
// first, so the result is stable across runs.
func (c *Classifier) Classify(postText, bookTitle string) Result {
	haystack := normalizeText(postText + " " + bookTitle)

	type scored struct {
		slug     string
		score    float64
		priority int
	}
	var best *scored

	for i := range c.signatures {
		sig := &c.signatures[i]
		if sig.Fallback {
			continue
		}
		score := scoreSignature(sig, haystack)
		if score < c.minScore {
			continue
		}
		if best == nil ||
			score > best.score ||
			(score == best.score && sig.Priority < best.priority) {
			best = &scored{slug: sig.Slug, score: score, priority: sig.Priority}
		}
	}

	if best == nil {
		return Result{Slug: c.fallback, Fallback: true}
	}
	return Result{Slug: best.slug, Score: best.score}
}

// Scores returns the per-signature scores for diagnostics, highest first.
func (c *Classifier) Scores(postText, bookTitle string) map[string]float64 {
	haystack := normalizeText(postText + " " + bookTitle)
	scores := make(map[string]float64, len(c.signatures))
	for i := range c.signatures {
		sig := &c.signatures[i]
		if sig.Fallback {
			continue
		}
		scores[sig.Slug] = scoreSignature(sig, haystack)
	}
	return scores
}

// scoreSignature sums the weights of every keyword present in the text.
// Each keyword counts once no matter how often it appears; repetition is
// enthusiasm, not evidence.
func scoreSignature(sig *taxonomy.Signature, haystack string) float64 {
	var score float64
	for _, kw := range sig.Keywords {
		if containsTerm(haystack, kw.Term) {
			score += kw.Weight
		}
	}
	return score
}

// containsTerm reports whether term occurs in haystack on word boundaries.
// Both inputs are already lowercase; haystack words are space-separated.
func containsTerm(haystack, term string) bool {
	idx := 0
	for {
		i := strings.Index(haystack[idx:], term)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(term)

		startOK := start == 0 || haystack[start-1] == ' '
		endOK := end == len(haystack) || haystack[end] == ' '
		if startOK && endOK {
			return true
		}
		idx = start + 1
	}
}

// normalizeText lowercases and reduces text to space-separated words,
// keeping in-word hyphens so terms like "sci-fi" survive.
func normalizeText(s string) string {
	s = strings.ToLower(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// RankedSlugs returns the taxonomy slugs in deterministic priority order.
// Used by callers that need a stable display order.
func (c *Classifier) RankedSlugs() []string {
	sigs := make([]taxonomy.Signature, len(c.signatures))
	copy(sigs, c.signatures)
	sort.Slice(sigs, func(i, j int) bool { return sigs[i].Priority < sigs[j].Priority })

	slugs := make([]string, len(sigs))
	for i, sig := range sigs {
		slugs[i] = sig.Slug
	}
	return slugs
}
