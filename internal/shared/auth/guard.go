package auth

import (
	"context"
	"strings"
	"time"

	"portal-backend/internal/shared/metrics"
	"portal-backend/internal/shared/telemetry"
)

// Guard resolves a raw bearer token into a Principal and enforces role sets.
// It has no side effects beyond reading the optional denylist.
type Guard struct {
	Codec    *TokenCodec
	Denylist Denylist
}

// NewGuard constructs a Guard. denylist may be nil, in which case tokens stay
// valid until they expire.
func NewGuard(codec *TokenCodec, denylist Denylist) *Guard {
	return &Guard{Codec: codec, Denylist: denylist}
}

// Authorize verifies rawToken and, when required is non-empty, checks that the
// token's role is one of required. An empty required set admits any valid identity.
func (g *Guard) Authorize(ctx context.Context, rawToken string, required ...Role) (Principal, error) {
	claims, err := g.Verify(ctx, rawToken)
	if err != nil {
		return Principal{}, err
	}
	if len(required) > 0 && !hasRole(required, claims.Role) {
		metrics.IncAuthFailure("insufficient_permission")
		return Principal{}, ErrInsufficientPermission
	}
	return claims.Principal(), nil
}

// Verify checks the token and the denylist and returns the full claims.
func (g *Guard) Verify(ctx context.Context, rawToken string) (Claims, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		metrics.IncAuthFailure("token_missing")
		return Claims{}, ErrTokenMissing
	}
	claims, err := g.Codec.Verify(rawToken)
	if err != nil {
		metrics.IncAuthFailure("token_invalid")
		return Claims{}, ErrTokenInvalid
	}
	if g.Denylist != nil {
		revoked, err := g.Denylist.IsRevoked(ctx, claims.ID)
		if err != nil {
			// Fail open: the token is still signed and unexpired.
			telemetry.Warn("auth.denylist_unavailable", map[string]any{"err": err.Error()})
		} else if revoked {
			metrics.IncAuthFailure("token_invalid")
			return Claims{}, ErrTokenInvalid
		}
	}
	return claims, nil
}

// Revoke places the token on the denylist for the rest of its lifetime.
// Without a denylist it is a no-op.
func (g *Guard) Revoke(ctx context.Context, claims Claims) error {
	if g.Denylist == nil || claims.ExpiresAt == nil {
		return nil
	}
	remaining := time.Until(claims.ExpiresAt.Time)
	if g.Codec != nil && g.Codec.now != nil {
		remaining = claims.ExpiresAt.Time.Sub(g.Codec.now())
	}
	return g.Denylist.Revoke(ctx, claims.ID, remaining)
}

// CanRevoke reports whether logout can invalidate tokens before expiry.
func (g *Guard) CanRevoke() bool {
	return g.Denylist != nil
}

func hasRole(set []Role, r Role) bool {
	for _, candidate := range set {
		if candidate == r {
			return true
		}
	}
	return false
}
