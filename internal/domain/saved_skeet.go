package domain

// SavedSkeet links a Post to exactly one Book and exactly one Genre.
// A SavedSkeet must never reference a missing book or genre; the store
// enforces this with foreign keys and the pipeline enforces it at write
// time. Rows are immutable once created - a reclassification would create
// a superseding row rather than rewrite an existing one.
type SavedSkeet struct {
	Syncable
	PostID  string `json:"post_id"`
	BookID  string `json:"book_id"`
	GenreID string `json:"genre_id"`
}
