package validation

import (
	"testing"

	domainerrors "github.com/bookskyapp/booksky-server/internal/errors"
)

type ingestRequest struct {
	Text string `json:"text" validate:"required,max=1000"`
	URI  string `json:"uri" validate:"required"`
}

func TestValidateValidStruct(t *testing.T) {
	v := New()

	req := ingestRequest{Text: "reading a book", URI: "at://did:plc:abc/post/1"}
	if err := v.Validate(req); err != nil {
		t.Fatalf("valid struct rejected: %v", err)
	}
}

func TestValidateMissingField(t *testing.T) {
	v := New()

	err := v.Validate(ingestRequest{Text: "no uri"})
	if err == nil {
		t.Fatal("missing field accepted")
	}

	var domainErr *domainerrors.Error
	if !domainerrors.As(err, &domainErr) {
		t.Fatalf("error type = %T, want *errors.Error", err)
	}
	if domainErr.Code != domainerrors.CodeValidation {
		t.Errorf("code = %s, want %s", domainErr.Code, domainerrors.CodeValidation)
	}

	details, ok := domainErr.Details.(map[string]string)
	if !ok {
		t.Fatalf("details type = %T, want map[string]string", domainErr.Details)
	}
	if details["uri"] != "is required" {
		t.Errorf("uri message = %q, want %q", details["uri"], "is required")
	}
}

func TestValidateUsesJSONTagNames(t *testing.T) {
	v := New()

	err := v.Validate(ingestRequest{URI: "at://x"})
	var domainErr *domainerrors.Error
	if !domainerrors.As(err, &domainErr) {
		t.Fatalf("unexpected error type %T", err)
	}
	details := domainErr.Details.(map[string]string)
	if _, ok := details["text"]; !ok {
		t.Errorf("expected json tag name 'text' in details, got %v", details)
	}
}
