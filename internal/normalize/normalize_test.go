package normalize

import (
	"reflect"
	"strings"
	"testing"
)

func TestPostStripsMentionsAndURLs(t *testing.T) {
	got := Post("Just finished 'Project Hail Mary' @alice.bsky.social https://example.com/review")

	if strings.Contains(got.Text, "@alice") {
		t.Errorf("mention not stripped: %q", got.Text)
	}
	if strings.Contains(got.Text, "http") || strings.Contains(got.Text, "example.com") {
		t.Errorf("URL not stripped: %q", got.Text)
	}
	if !strings.Contains(got.Text, "'Project Hail Mary'") {
		t.Errorf("quoted title must survive normalization: %q", got.Text)
	}
}

func TestPostUnwrapsHashtags(t *testing.T) {
	got := Post("loved this one #scifi #BookSky")

	if strings.ContainsRune(got.Text, '#') {
		t.Errorf("hashtag marker not removed: %q", got.Text)
	}
	// Tag words are kept - they carry genre signal.
	found := false
	for _, tok := range got.Tokens {
		if tok == "scifi" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected scifi token, got %v", got.Tokens)
	}
}

func TestPostStripsMarkupAndEmoji(t *testing.T) {
	got := Post("<p>Reading <b>Dune</b> tonight</p> \U0001F4DA✨")

	if strings.ContainsAny(got.Text, "<>") {
		t.Errorf("markup not stripped: %q", got.Text)
	}
	if !strings.Contains(got.Text, "Dune") {
		t.Errorf("text content lost: %q", got.Text)
	}
	for _, r := range got.Text {
		if r > 0x1F000 {
			t.Errorf("emoji survived: %q", got.Text)
		}
	}
}

func TestPostPreservesCase(t *testing.T) {
	got := Post("Just finished Project Hail Mary yesterday")
	if !strings.Contains(got.Text, "Project Hail Mary") {
		t.Errorf("title casing must be preserved: %q", got.Text)
	}
}

func TestPostDegenerateInput(t *testing.T) {
	for _, raw := range []string{"", "   ", "@a @b", "https://x.com", "\U0001F600\U0001F600"} {
		got := Post(raw)
		if !got.IsEmpty() {
			t.Errorf("Post(%q) should be empty, got %+v", raw, got)
		}
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("Don't miss this Sci-Fi gem, folks!")
	want := []string{"don't", "miss", "this", "sci-fi", "gem", "folks"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize: got %v, want %v", got, want)
	}
}
