// Package domain contains the core business entities for the Booksky catalog.
package domain

// Book is a canonical catalog entry representing a single title.
// Books are created lazily the first time a post resolves confidently to a
// title that is not yet in the catalog, and are reused by every later post
// naming the same title.
type Book struct {
	Syncable
	Title    string   `json:"title"`
	TitleKey string   `json:"title_key"` // normalized matching key, unique across the catalog
	Author   string   `json:"author,omitempty"`
	Aliases  []string `json:"aliases,omitempty"` // known alternate renderings of the title
}

// HasAlias reports whether the given normalized key is a known alias.
func (b *Book) HasAlias(key string) bool {
	for _, a := range b.Aliases {
		if a == key {
			return true
		}
	}
	return false
}

// AddAlias records an alternate rendering of the title.
// Duplicates and the canonical key itself are ignored.
func (b *Book) AddAlias(key string) bool {
	if key == "" || key == b.TitleKey || b.HasAlias(key) {
		return false
	}
	b.Aliases = append(b.Aliases, key)
	return true
}
