package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenTTL bounds how long a session token stays valid.
const DefaultTokenTTL = time.Hour

// Claims is the payload of a session token.
type Claims struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	jwt.RegisteredClaims
}

// Principal returns the identity embedded in the claims.
func (c Claims) Principal() Principal {
	return Principal{
		ID:       c.Subject,
		Username: c.Username,
		Email:    c.Email,
		Role:     c.Role,
	}
}

// TokenCodec issues and verifies signed, time-limited session tokens.
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenCodec builds an HS256 codec. A non-positive ttl uses DefaultTokenTTL.
func NewTokenCodec(secret string, ttl time.Duration) (*TokenCodec, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("jwt secret not configured")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenCodec{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// WithClock overrides the time source, for tests.
func (tc *TokenCodec) WithClock(now func() time.Time) *TokenCodec {
	tc.now = now
	return tc
}

// TTL returns the validity window of issued tokens.
func (tc *TokenCodec) TTL() time.Duration {
	return tc.ttl
}

// Issue signs a token for p.
func (tc *TokenCodec) Issue(p Principal) (string, time.Time, error) {
	if p.ID == "" {
		return "", time.Time{}, errors.New("subject is required")
	}
	if !p.Role.Valid() {
		return "", time.Time{}, fmt.Errorf("invalid role %q", p.Role)
	}
	now := tc.now().UTC()
	expiresAt := now.Add(tc.ttl)
	claims := Claims{
		Username: p.Username,
		Email:    p.Email,
		Role:     p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tc.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks signature and expiry. Every failure is reported as ErrTokenInvalid.
func (tc *TokenCodec) Verify(token string) (Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return tc.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(tc.now),
	)
	if err != nil || !parsed.Valid {
		return Claims{}, ErrTokenInvalid
	}
	if claims.Subject == "" || !claims.Role.Valid() {
		return Claims{}, ErrTokenInvalid
	}
	return claims, nil
}
