package auth

import (
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHashAndCompare(t *testing.T) {
	h := PasswordHasher{Cost: bcrypt.MinCost}

	hash, err := h.Hash("correct horse")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "correct horse" {
		t.Fatalf("expected hash to differ from password")
	}
	if err := h.Compare(hash, "correct horse"); err != nil {
		t.Fatalf("expected match, got %v", err)
	}
	if err := h.Compare(hash, "wrong"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}
}

func TestPasswordCompareMalformedHash(t *testing.T) {
	if err := (PasswordHasher{}).Compare("not-a-hash", "x"); !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("expected ErrPasswordMismatch, got %v", err)
	}
}

func TestParseRole(t *testing.T) {
	if r, ok := ParseRole(" Admin "); !ok || r != RoleAdmin {
		t.Fatalf("expected admin, got %q %v", r, ok)
	}
	if _, ok := ParseRole("manager"); ok {
		t.Fatalf("expected manager to be rejected")
	}
}
