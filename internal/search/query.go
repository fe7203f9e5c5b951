package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Candidate is one book surfaced for a title lookup, with Bleve's
// relevance score. The resolver applies its own similarity threshold on
// top; the score here only orders candidates.
type Candidate struct {
	BookID   string  `json:"book_id"`
	Title    string  `json:"title"`
	TitleKey string  `json:"title_key"`
	Author   string  `json:"author,omitempty"`
	Score    float64 `json:"score"`
}

// Candidates returns books whose title or aliases plausibly match the
// given text, best first. An empty result means the catalog has nothing
// close and the caller should consider creating a new entry.
func (bi *BookIndex) Candidates(ctx context.Context, title string, limit int) ([]Candidate, error) {
	bi.mu.RLock()
	defer bi.mu.RUnlock()

	if limit <= 0 {
		limit = 10
	}

	searchRequest := bleve.NewSearchRequestOptions(buildTitleQuery(title), limit, 0, false)
	searchRequest.Fields = []string{"id", "title", "title_key", "author"}

	searchResult, err := bi.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("execute title search: %w", err)
	}

	candidates := make([]Candidate, 0, len(searchResult.Hits))
	for _, hit := range searchResult.Hits {
		c := Candidate{BookID: hit.ID, Score: hit.Score}
		if t, ok := hit.Fields["title"].(string); ok {
			c.Title = t
		}
		if k, ok := hit.Fields["title_key"].(string); ok {
			c.TitleKey = k
		}
		if a, ok := hit.Fields["author"].(string); ok {
			c.Author = a
		}
		candidates = append(candidates, c)
	}
	return candidates, nil
}

// buildTitleQuery combines match, fuzzy, and prefix queries over the title
// and alias fields so both typos and partial renderings surface candidates.
func buildTitleQuery(title string) query.Query {
	if title == "" {
		return bleve.NewMatchNoneQuery()
	}

	var queries []query.Query

	titleMatch := bleve.NewMatchQuery(title)
	titleMatch.SetField("title")
	titleMatch.SetBoost(3.0)
	queries = append(queries, titleMatch)

	aliasMatch := bleve.NewMatchQuery(title)
	aliasMatch.SetField("aliases")
	aliasMatch.SetBoost(2.0)
	queries = append(queries, aliasMatch)

	fuzzyQuery := bleve.NewFuzzyQuery(title)
	fuzzyQuery.SetFuzziness(1)
	fuzzyQuery.SetField("title")
	fuzzyQuery.SetBoost(0.8)
	queries = append(queries, fuzzyQuery)

	if len(title) >= 2 {
		prefixQuery := bleve.NewPrefixQuery(strings.ToLower(title))
		prefixQuery.SetField("title")
		prefixQuery.SetBoost(0.5)
		queries = append(queries, prefixQuery)
	}

	return bleve.NewDisjunctionQuery(queries...)
}
