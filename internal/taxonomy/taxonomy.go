package taxonomy

// Keyword is a single weighted signal in a genre signature.
// Weight encodes term specificity: a phrase like "space opera" is a much
// stronger sci-fi signal than the bare word "space".
type Keyword struct {
	Term   string  // lowercase; may be a multi-word phrase
	Weight float64 // signal strength when the term appears
}

// Signature defines how a genre is recognized in free text.
type Signature struct {
	Name        string
	Slug        string
	Description string
	Priority    int // deterministic tie-break order; lower wins
	Fallback    bool
	Keywords    []Keyword
}

// UnclassifiedSlug is the slug of the fallback genre assigned when no
// signature clears the minimum score.
const UnclassifiedSlug = "unclassified"

// Defaults is the fixed taxonomy the classifier selects from.
// Seeded once at setup; the pipeline never adds to it.
var Defaults = []Signature{
	{
		Name:        "Science Fiction",
		Slug:        "science-fiction",
		Description: "Speculative fiction grounded in science and technology.",
		Priority:    1,
		Keywords: []Keyword{
			{Term: "space opera", Weight: 3},
			{Term: "first contact", Weight: 3},
			{Term: "time travel", Weight: 3},
			{Term: "hard sci-fi", Weight: 3},
			{Term: "sci-fi", Weight: 2.5},
			{Term: "scifi", Weight: 2.5},
			{Term: "science fiction", Weight: 2.5},
			{Term: "cyberpunk", Weight: 2.5},
			{Term: "dystopian", Weight: 2},
			{Term: "spaceship", Weight: 2},
			{Term: "starship", Weight: 2},
			{Term: "astronaut", Weight: 2},
			{Term: "android", Weight: 1.5},
			{Term: "alien", Weight: 1.5},
			{Term: "mars", Weight: 1.5},
			{Term: "galaxy", Weight: 1},
			{Term: "space", Weight: 1},
			{Term: "robot", Weight: 1},
			{Term: "future", Weight: 0.5},
		},
	},
	{
		Name:        "Fantasy",
		Slug:        "fantasy",
		Description: "Magic, mythical creatures, and invented worlds.",
		Priority:    2,
		Keywords: []Keyword{
			{Term: "epic fantasy", Weight: 3},
			{Term: "urban fantasy", Weight: 3},
			{Term: "sword and sorcery", Weight: 3},
			{Term: "fantasy", Weight: 2.5},
			{Term: "sorcerer", Weight: 2},
			{Term: "sorceress", Weight: 2},
			{Term: "wizard", Weight: 2},
			{Term: "dragon", Weight: 2},
			{Term: "elves", Weight: 2},
			{Term: "witch", Weight: 1.5},
			{Term: "magic", Weight: 1.5},
			{Term: "kingdom", Weight: 1},
			{Term: "quest", Weight: 1},
			{Term: "prophecy", Weight: 1},
			{Term: "sword", Weight: 0.5},
		},
	},
	{
		Name:        "Self-Help",
		Slug:        "self-help",
		Description: "Personal development and practical life advice.",
		Priority:    3,
		Keywords: []Keyword{
			{Term: "self-help", Weight: 3},
			{Term: "self help", Weight: 3},
			{Term: "personal development", Weight: 3},
			{Term: "personal growth", Weight: 2.5},
			{Term: "atomic habits", Weight: 2.5},
			{Term: "habits", Weight: 2},
			{Term: "productivity", Weight: 2},
			{Term: "mindfulness", Weight: 2},
			{Term: "motivation", Weight: 1.5},
			{Term: "discipline", Weight: 1.5},
			{Term: "life changing", Weight: 1.5},
			{Term: "improve", Weight: 1},
			{Term: "success", Weight: 1},
			{Term: "goals", Weight: 0.5},
		},
	},
	{
		Name:        "Romance",
		Slug:        "romance",
		Description: "Love stories with the relationship at the center.",
		Priority:    4,
		Keywords: []Keyword{
			{Term: "enemies to lovers", Weight: 3},
			{Term: "slow burn", Weight: 3},
			{Term: "love triangle", Weight: 3},
			{Term: "romantic comedy", Weight: 2.5},
			{Term: "rom-com", Weight: 2.5},
			{Term: "romance", Weight: 2.5},
			{Term: "romantic", Weight: 2},
			{Term: "swoon", Weight: 2},
			{Term: "love story", Weight: 2},
			{Term: "heartbreak", Weight: 1.5},
			{Term: "wedding", Weight: 1},
			{Term: "love", Weight: 0.5},
			{Term: "heart", Weight: 0.5},
		},
	},
	{
		Name:        "Thriller",
		Slug:        "thriller",
		Description: "Suspense, crime, and high-stakes tension.",
		Priority:    5,
		Keywords: []Keyword{
			{Term: "psychological thriller", Weight: 3},
			{Term: "serial killer", Weight: 3},
			{Term: "plot twist", Weight: 2.5},
			{Term: "thriller", Weight: 2.5},
			{Term: "whodunit", Weight: 2.5},
			{Term: "suspense", Weight: 2},
			{Term: "murder", Weight: 2},
			{Term: "detective", Weight: 2},
			{Term: "conspiracy", Weight: 1.5},
			{Term: "mystery", Weight: 1.5},
			{Term: "crime", Weight: 1.5},
			{Term: "twist", Weight: 1},
			{Term: "killer", Weight: 1},
		},
	},
	{
		Name:        "Unclassified",
		Slug:        UnclassifiedSlug,
		Description: "Fallback for posts with no clear genre signal.",
		Priority:    100,
		Fallback:    true,
	},
}

// BySlug returns the signature for a slug, or nil if the taxonomy has none.
func BySlug(slug string) *Signature {
	for i := range Defaults {
		if Defaults[i].Slug == slug {
			return &Defaults[i]
		}
	}
	return nil
}

// FallbackSignature returns the Unclassified fallback entry.
func FallbackSignature() *Signature {
	for i := range Defaults {
		if Defaults[i].Fallback {
			return &Defaults[i]
		}
	}
	return nil
}
