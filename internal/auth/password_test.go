package auth

import "testing"

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatal(err)
	}
	if hash == "correct horse" {
		t.Fatal("hash must not equal plaintext")
	}
	if err := VerifyPassword(hash, "correct horse"); err != nil {
		t.Fatalf("expected match: %v", err)
	}
	if err := VerifyPassword(hash, "wrong"); err == nil {
		t.Fatal("expected mismatch")
	}
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	if _, err := HashPassword(""); err == nil {
		t.Fatal("expected error for empty password")
	}
	if err := VerifyPassword("", "x"); err == nil {
		t.Fatal("expected error for empty hash")
	}
}
