package domain

import "time"

// Post is a short social-media post (a "skeet") as ingested from the feed.
// Posts are immutable once ingested; only the text field is required by the
// classification pipeline, the rest is provenance.
type Post struct {
	Syncable
	Handle      string    `json:"handle,omitempty"`
	DisplayName string    `json:"display_name,omitempty"`
	Text        string    `json:"text"`
	URI         string    `json:"uri"` // source identifier, unique per post
	LikeCount   int       `json:"like_count"`
	PostedAt    time.Time `json:"posted_at"`
}
