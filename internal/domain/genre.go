package domain

// Genre is one entry of the fixed classification taxonomy.
// Genres are pre-seeded and never created by the pipeline; the classifier
// only selects among existing rows.
type Genre struct {
	Syncable
	Name        string `json:"name"`                  // Display name: "Science Fiction"
	Slug        string `json:"slug"`                  // Stable key: "science-fiction"
	Description string `json:"description,omitempty"` // Optional description
	Priority    int    `json:"priority"`              // Deterministic tie-break order (lower wins)
	Fallback    bool   `json:"fallback"`              // True only for the Unclassified genre
}
