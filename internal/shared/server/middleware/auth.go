package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"portal-backend/internal/shared/auth"
	"portal-backend/internal/shared/server/respond"
	"portal-backend/internal/shared/telemetry"
)

const (
	userIDKey    = "userId"
	userRoleKey  = "userRole"
	principalKey = "principal"
	rawTokenKey  = "rawToken"
)

// Authorizer is the access guard contract the middleware depends on.
type Authorizer interface {
	Authorize(ctx context.Context, rawToken string, required ...auth.Role) (auth.Principal, error)
}

// Auth rejects requests without a valid bearer token. When roles are given the
// token's role must be one of them.
func Auth(guard Authorizer, roles ...auth.Role) gin.HandlerFunc {
	return authenticate(guard, false, roles)
}

// AuthWithQueryToken is Auth that also accepts ?token= for contexts that cannot
// set headers, such as a browser following a download link. Query tokens end up
// in access logs and browser history, so only mount this on download routes.
func AuthWithQueryToken(guard Authorizer, roles ...auth.Role) gin.HandlerFunc {
	return authenticate(guard, true, roles)
}

func authenticate(guard Authorizer, allowQuery bool, roles []auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}

		token := TokenFromHeader(c.GetHeader("Authorization"))
		if token == "" && allowQuery {
			if token = strings.TrimSpace(c.Query("token")); token != "" {
				telemetry.Warn("auth.query_token", map[string]any{
					"path":       c.FullPath(),
					"request_id": RequestIDFromContext(c),
				})
			}
		}

		principal, err := guard.Authorize(c.Request.Context(), token, roles...)
		if err != nil {
			AbortWithAuthError(c, err)
			return
		}

		c.Set(principalKey, principal)
		c.Set(rawTokenKey, token)
		c.Set(userIDKey, principal.ID)
		c.Set(userRoleKey, string(principal.Role))
		c.Next()
	}
}

// AbortWithAuthError maps guard errors to their stable response kinds.
func AbortWithAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, auth.ErrTokenMissing):
		respond.Error(c, http.StatusUnauthorized, "token_missing", "Access token missing", nil)
	case errors.Is(err, auth.ErrInsufficientPermission):
		respond.Error(c, http.StatusForbidden, "insufficient_permission", "Insufficient permissions", nil)
	default:
		respond.Error(c, http.StatusUnauthorized, "token_invalid", "Invalid or expired token", nil)
	}
}

// TokenFromHeader extracts the bearer token. Anything other than
// "Bearer <token>" counts as no token.
func TokenFromHeader(header string) string {
	header = strings.TrimSpace(header)
	if len(header) < len("Bearer ") || !strings.EqualFold(header[:len("Bearer ")], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(header[len("Bearer "):])
}

// PrincipalFromContext fetches the identity set by the auth middleware.
func PrincipalFromContext(c *gin.Context) (auth.Principal, bool) {
	if c == nil {
		return auth.Principal{}, false
	}
	val, ok := c.Get(principalKey)
	if !ok {
		return auth.Principal{}, false
	}
	p, ok := val.(auth.Principal)
	return p, ok
}

// RawTokenFromContext returns the bearer token the request was authorized with.
func RawTokenFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(rawTokenKey)
}

// UserIDFromContext fetches the user ID set by the auth middleware.
func UserIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	val, _ := c.Get(userIDKey)
	if id, ok := val.(string); ok {
		return id
	}
	return ""
}
