package taxonomy

import "testing"

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Science Fiction": "science-fiction",
		"Sci-Fi/Fantasy":  "sci-fi-fantasy",
		"  Self-Help  ":   "self-help",
		"Café Society":    "cafe-society",
		"":                "",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q): got %q, want %q", in, got, want)
		}
	}
}

func TestTitleKey(t *testing.T) {
	cases := map[string]string{
		"The Martian":            "martian",
		"Martian":                "martian",
		"A Game of Thrones":      "game of thrones",
		"Project Hail Mary":      "project hail mary",
		"Harry Potter & Friends": "harry potter friends",
		"  Dune!  ":              "dune",
	}
	for in, want := range cases {
		if got := TitleKey(in); got != want {
			t.Errorf("TitleKey(%q): got %q, want %q", in, got, want)
		}
	}
}

func TestTitleKeyCollision(t *testing.T) {
	// Variant renderings of the same title must share a key.
	if TitleKey("The Hobbit") != TitleKey("the hobbit!") {
		t.Error("expected article and punctuation variants to collide")
	}
}

func TestDefaultsWellFormed(t *testing.T) {
	seenSlug := make(map[string]bool)
	seenPriority := make(map[int]bool)
	var fallbacks int

	for _, sig := range Defaults {
		if sig.Slug == "" || sig.Name == "" {
			t.Errorf("signature %+v missing slug or name", sig)
		}
		if seenSlug[sig.Slug] {
			t.Errorf("duplicate slug %q", sig.Slug)
		}
		seenSlug[sig.Slug] = true
		if seenPriority[sig.Priority] {
			t.Errorf("duplicate priority %d (%s): tie-break would be ambiguous", sig.Priority, sig.Slug)
		}
		seenPriority[sig.Priority] = true
		if sig.Fallback {
			fallbacks++
			if len(sig.Keywords) != 0 {
				t.Errorf("fallback genre %q must not carry keywords", sig.Slug)
			}
		}
	}

	if fallbacks != 1 {
		t.Fatalf("expected exactly one fallback genre, got %d", fallbacks)
	}
	if FallbackSignature() == nil || FallbackSignature().Slug != UnclassifiedSlug {
		t.Error("FallbackSignature should return the unclassified entry")
	}
}

func TestBySlug(t *testing.T) {
	if got := BySlug("science-fiction"); got == nil || got.Name != "Science Fiction" {
		t.Errorf("BySlug(science-fiction): got %+v", got)
	}
	if got := BySlug("no-such-genre"); got != nil {
		t.Errorf("BySlug on unknown slug should return nil, got %+v", got)
	}
}
