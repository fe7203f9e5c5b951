package extract

import (
	"testing"

	"github.com/bookskyapp/booksky-server/internal/domain"
)

const defaultFloor = 0.40

func candidates(t *testing.T, text string) []domain.CandidateSpan {
	t.Helper()
	return New(defaultFloor).Candidates(text)
}

func TestQuotedTitleWithCue(t *testing.T) {
	got := candidates(t, "Just finished 'Project Hail Mary' loved it")

	if len(got) == 0 {
		t.Fatal("expected at least one candidate")
	}
	top := got[0]
	if top.Text != "Project Hail Mary" {
		t.Errorf("top candidate: got %q", top.Text)
	}
	if !top.Quoted {
		t.Error("expected quoted span")
	}
	if top.Confidence < 0.9 {
		t.Errorf("quoted title-cased span near a cue should score high, got %v", top.Confidence)
	}
}

func TestNoCandidatesInPlainChatter(t *testing.T) {
	got := candidates(t, "just had coffee, nothing special")
	if len(got) != 0 {
		t.Errorf("expected no candidates, got %+v", got)
	}
}

func TestTitleCaseRun(t *testing.T) {
	got := candidates(t, "been rereading A Game of Thrones this month")

	if len(got) != 1 {
		t.Fatalf("expected one candidate, got %+v", got)
	}
	if got[0].Text != "A Game of Thrones" {
		t.Errorf("got %q", got[0].Text)
	}
	if got[0].Quoted {
		t.Error("unquoted run reported as quoted")
	}
}

func TestRunDoesNotEndOnConnector(t *testing.T) {
	got := candidates(t, "reading Red Rising of course it rules")

	if len(got) != 1 {
		t.Fatalf("expected one candidate, got %+v", got)
	}
	if got[0].Text != "Red Rising" {
		t.Errorf("trailing connector should be trimmed, got %q", got[0].Text)
	}
}

func TestSentenceInitialWordAlone(t *testing.T) {
	// A single sentence-initial capital is not a title.
	got := candidates(t, "Tonight was quiet and rainy")
	if len(got) != 0 {
		t.Errorf("expected nothing, got %+v", got)
	}
}

func TestAuthorHint(t *testing.T) {
	got := candidates(t, "finished 'The Martian' by Andy Weir last night")

	if len(got) == 0 {
		t.Fatal("expected a candidate")
	}
	if got[0].AuthorHint != "Andy Weir" {
		t.Errorf("author hint: got %q", got[0].AuthorHint)
	}
}

func TestAuthorHintStopsAtSentenceEnd(t *testing.T) {
	got := candidates(t, "Just finished 'Project Hail Mary' by Andy Weir. What a ride!")

	if len(got) == 0 {
		t.Fatal("expected a candidate")
	}
	if got[0].AuthorHint != "Andy Weir" {
		t.Errorf("author hint must not cross the sentence boundary: got %q", got[0].AuthorHint)
	}
}

func TestAuthorHintKeepsInitials(t *testing.T) {
	got := candidates(t, "reading 'The Fifth Season' by N.K. Jemisin right now")

	if len(got) == 0 {
		t.Fatal("expected a candidate")
	}
	if got[0].AuthorHint != "N.K. Jemisin" {
		t.Errorf("author hint: got %q", got[0].AuthorHint)
	}
}

func TestContractionDoesNotOpenQuote(t *testing.T) {
	got := candidates(t, "I don't think 'Project Hail Mary' gets enough love, what a ride")

	if len(got) == 0 {
		t.Fatal("expected a candidate")
	}
	top := got[0]
	if top.Text != "Project Hail Mary" {
		t.Errorf("top candidate: got %q", top.Text)
	}
	if !top.Quoted {
		t.Error("the quoted title should survive a preceding contraction")
	}
}

func TestOrderingByConfidenceThenPosition(t *testing.T) {
	got := candidates(t, `Silly Rabbit stuff and then I read "Leviathan Wakes" twice`)

	if len(got) < 2 {
		t.Fatalf("expected two candidates, got %+v", got)
	}
	if got[0].Text != "Leviathan Wakes" {
		t.Errorf("quoted span should rank first, got %q", got[0].Text)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Confidence > got[i-1].Confidence {
			t.Errorf("candidates not sorted by confidence: %+v", got)
		}
		if got[i].Confidence == got[i-1].Confidence && got[i].Start < got[i-1].Start {
			t.Errorf("ties not broken leftmost-first: %+v", got)
		}
	}
}

func TestFloorDropsWeakSpans(t *testing.T) {
	strict := New(0.95)
	got := strict.Candidates("been reading A Game of Thrones again")
	if len(got) != 0 {
		t.Errorf("floor should drop unquoted runs, got %+v", got)
	}
}

func TestDeterministic(t *testing.T) {
	text := "Just finished 'Project Hail Mary' by Andy Weir and started Leviathan Wakes"
	a := candidates(t, text)
	b := candidates(t, text)
	if len(a) != len(b) {
		t.Fatalf("non-deterministic candidate count: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("candidate %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestEmptyInput(t *testing.T) {
	if got := candidates(t, ""); got != nil {
		t.Errorf("expected nil for empty text, got %+v", got)
	}
	if got := candidates(t, "   "); got != nil {
		t.Errorf("expected nil for blank text, got %+v", got)
	}
}
