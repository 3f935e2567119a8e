package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationErrorUnwraps(t *testing.T) {
	err := fmt.Errorf("create post: %w", Invalid("title", "The title field is required."))
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError")
	}
	if got := ve.Fields["title"]; len(got) != 1 {
		t.Fatalf("unexpected fields: %v", ve.Fields)
	}
}

func TestUnknownIDsListsSortedIDs(t *testing.T) {
	err := UnknownIDs("categories", []uint{9, 3})
	want := "The selected categories are invalid: 3, 9."
	if err.Error() != want {
		t.Fatalf("expected %q, got %q", want, err.Error())
	}
}

func TestSentinelWrappers(t *testing.T) {
	if !errors.Is(NotFound("post"), ErrNotFound) {
		t.Fatalf("NotFound should wrap ErrNotFound")
	}
	if !errors.Is(Conflict("name taken"), ErrConflict) {
		t.Fatalf("Conflict should wrap ErrConflict")
	}
}
