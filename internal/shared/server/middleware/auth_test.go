package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"portal-backend/internal/shared/auth"
)

type fakeAuthorizer struct {
	principal auth.Principal
	err       error
	gotToken  string
	gotRoles  []auth.Role
}

func (f *fakeAuthorizer) Authorize(_ context.Context, rawToken string, required ...auth.Role) (auth.Principal, error) {
	f.gotToken = rawToken
	f.gotRoles = required
	if rawToken == "" {
		return auth.Principal{}, auth.ErrTokenMissing
	}
	if f.err != nil {
		return auth.Principal{}, f.err
	}
	return f.principal, nil
}

func newAuthRouter(mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(mw)
	router.GET("/api/v1/files/mine", func(c *gin.Context) {
		p, ok := PrincipalFromContext(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": p.ID, "token": RawTokenFromContext(c), "userId": UserIDFromContext(c)})
	})
	return router
}

func decodeErrorCode(t *testing.T, resp *httptest.ResponseRecorder) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return payload.Error.Code
}

func TestAuthAllowsOptionsWithoutIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Auth(&fakeAuthorizer{}))
	router.OPTIONS("/api/v1/files/mine", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/files/mine", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
}

func TestAuthMissingToken(t *testing.T) {
	router := newAuthRouter(Auth(&fakeAuthorizer{}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/files/mine", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
	if code := decodeErrorCode(t, resp); code != "token_missing" {
		t.Fatalf("expected token_missing, got %s", code)
	}
}

func TestAuthNonBearerHeaderCountsAsMissing(t *testing.T) {
	router := newAuthRouter(Auth(&fakeAuthorizer{}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/files/mine", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if code := decodeErrorCode(t, resp); code != "token_missing" {
		t.Fatalf("expected token_missing, got %s", code)
	}
}

func TestAuthInvalidToken(t *testing.T) {
	router := newAuthRouter(Auth(&fakeAuthorizer{err: auth.ErrTokenInvalid}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/files/mine", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
	if code := decodeErrorCode(t, resp); code != "token_invalid" {
		t.Fatalf("expected token_invalid, got %s", code)
	}
}

func TestAuthInsufficientPermission(t *testing.T) {
	authz := &fakeAuthorizer{err: auth.ErrInsufficientPermission}
	router := newAuthRouter(Auth(authz, auth.RoleAdmin))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/files/mine", nil)
	req.Header.Set("Authorization", "Bearer employee-token")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
	if code := decodeErrorCode(t, resp); code != "insufficient_permission" {
		t.Fatalf("expected insufficient_permission, got %s", code)
	}
	if len(authz.gotRoles) != 1 || authz.gotRoles[0] != auth.RoleAdmin {
		t.Fatalf("expected required roles [admin], got %v", authz.gotRoles)
	}
}

func TestAuthStoresPrincipal(t *testing.T) {
	authz := &fakeAuthorizer{principal: auth.Principal{ID: "u-1", Role: auth.RoleEmployee}}
	router := newAuthRouter(Auth(authz))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/files/mine", nil)
	req.Header.Set("Authorization", "bearer tok-1")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var payload map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload["id"] != "u-1" || payload["userId"] != "u-1" {
		t.Fatalf("expected principal u-1, got %v", payload)
	}
	if payload["token"] != "tok-1" {
		t.Fatalf("expected raw token tok-1, got %q", payload["token"])
	}
}

func TestAuthIgnoresQueryTokenByDefault(t *testing.T) {
	router := newAuthRouter(Auth(&fakeAuthorizer{principal: auth.Principal{ID: "u-1", Role: auth.RoleEmployee}}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/files/mine?token=tok-1", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestAuthWithQueryTokenAcceptsQuery(t *testing.T) {
	authz := &fakeAuthorizer{principal: auth.Principal{ID: "u-1", Role: auth.RoleEmployee}}
	router := newAuthRouter(AuthWithQueryToken(authz))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/files/mine?token=tok-1", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if authz.gotToken != "tok-1" {
		t.Fatalf("expected query token forwarded, got %q", authz.gotToken)
	}
}

func TestAuthHeaderWinsOverQuery(t *testing.T) {
	authz := &fakeAuthorizer{principal: auth.Principal{ID: "u-1", Role: auth.RoleEmployee}}
	router := newAuthRouter(AuthWithQueryToken(authz))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/files/mine?token=from-query", nil)
	req.Header.Set("Authorization", "Bearer from-header")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if authz.gotToken != "from-header" {
		t.Fatalf("expected header token, got %q", authz.gotToken)
	}
}

func TestTokenFromHeader(t *testing.T) {
	cases := map[string]string{
		"":                "",
		"Bearer":          "",
		"Bearer ":         "",
		"Bearer abc":      "abc",
		"bearer abc":      "abc",
		"  Bearer  abc  ": "abc",
		"Token abc":       "",
	}
	for header, want := range cases {
		if got := TokenFromHeader(header); got != want {
			t.Fatalf("TokenFromHeader(%q): expected %q, got %q", header, want, got)
		}
	}
}
