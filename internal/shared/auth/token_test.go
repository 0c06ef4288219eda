package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var issueTime = time.Date(2025, time.June, 1, 9, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestCodec(t *testing.T, now time.Time) *TokenCodec {
	t.Helper()
	codec, err := NewTokenCodec("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	return codec.WithClock(fixedClock(now))
}

func TestNewTokenCodecRequiresSecret(t *testing.T) {
	if _, err := NewTokenCodec("  ", time.Hour); err == nil {
		t.Fatalf("expected error for empty secret")
	}
	codec, err := NewTokenCodec("s", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if codec.TTL() != DefaultTokenTTL {
		t.Fatalf("expected default ttl, got %s", codec.TTL())
	}
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	codec := newTestCodec(t, issueTime)
	p := Principal{ID: "u-1", Username: "alice", Email: "alice@example.com", Role: RoleEmployee}

	token, expiresAt, err := codec.Issue(p)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !expiresAt.Equal(issueTime.Add(time.Hour)) {
		t.Fatalf("expected expiry %s, got %s", issueTime.Add(time.Hour), expiresAt)
	}

	claims, err := codec.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Principal() != p {
		t.Fatalf("expected %+v, got %+v", p, claims.Principal())
	}
	if claims.ID == "" {
		t.Fatalf("expected token id to be set")
	}
}

func TestIssueRejectsUnknownRole(t *testing.T) {
	codec := newTestCodec(t, issueTime)
	if _, _, err := codec.Issue(Principal{ID: "u-1", Role: "owner"}); err == nil {
		t.Fatalf("expected error for unknown role")
	}
	if _, _, err := codec.Issue(Principal{Role: RoleAdmin}); err == nil {
		t.Fatalf("expected error for empty subject")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	codec := newTestCodec(t, issueTime)
	token, _, err := codec.Issue(Principal{ID: "u-1", Role: RoleEmployee})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	codec.WithClock(fixedClock(issueTime.Add(time.Hour + time.Second)))
	if _, err := codec.Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	other, err := NewTokenCodec("other-secret", time.Hour)
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	other.WithClock(fixedClock(issueTime))
	token, _, err := other.Issue(Principal{ID: "u-1", Role: RoleAdmin})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	codec := newTestCodec(t, issueTime)
	if _, err := codec.Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestVerifyRejectsMalformedToken(t *testing.T) {
	codec := newTestCodec(t, issueTime)
	for _, token := range []string{"garbage", "a.b.c", ""} {
		if _, err := codec.Verify(token); !errors.Is(err, ErrTokenInvalid) {
			t.Fatalf("token %q: expected ErrTokenInvalid, got %v", token, err)
		}
	}
}

func TestVerifyRejectsNoneAlgorithm(t *testing.T) {
	claims := Claims{
		Role: RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u-1",
			ExpiresAt: jwt.NewNumericDate(issueTime.Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	codec := newTestCodec(t, issueTime)
	if _, err := codec.Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestVerifyRejectsTokenWithoutExpiry(t *testing.T) {
	claims := Claims{
		Role:             RoleEmployee,
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u-1"},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	codec := newTestCodec(t, issueTime)
	if _, err := codec.Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestVerifyRejectsForgedRole(t *testing.T) {
	claims := Claims{
		Role: "superuser",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u-1",
			ExpiresAt: jwt.NewNumericDate(issueTime.Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	codec := newTestCodec(t, issueTime)
	if _, err := codec.Verify(token); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}
