package domain

// CandidateSpan is a possible book title found in post text.
// Spans are ephemeral: they are produced per extraction, consumed by the
// resolver, and never persisted. Offsets index into the normalized text the
// span was extracted from.
type CandidateSpan struct {
	Text       string  `json:"text"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Confidence float64 `json:"confidence"` // [0,1]
	AuthorHint string  `json:"author_hint,omitempty"`
	Quoted     bool    `json:"quoted"`
}
