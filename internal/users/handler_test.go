package users

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"

	"portal-backend/internal/shared/auth"
	"portal-backend/internal/shared/cache"
)

func newTestRouter(t *testing.T, svc *Service) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	NewHandler(svc, svc.Guard, nil).RegisterRoutes(r.Group("/api/v1"))
	return r
}

func doJSON(r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details struct {
			Fields map[string]string `json:"fields"`
		} `json:"details"`
	} `json:"error"`
}

func decodeAPIError(t *testing.T, w *httptest.ResponseRecorder) apiError {
	t.Helper()
	var body apiError
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, w.Body.String())
	}
	return body
}

func adminToken(t *testing.T, svc *Service) string {
	t.Helper()
	admin, err := svc.CreateUser(context.Background(), RegisterInput{
		Username: "root", Email: "root@example.com", Password: "password123", Role: "admin",
	})
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	session, err := svc.issue(admin)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return session.Token
}

func TestRegisterEndpoint(t *testing.T) {
	svc := newTestService(t, nil)
	r := newTestRouter(t, svc)

	w := doJSON(r, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "alice", "email": "alice@example.com", "password": "password123",
		"role": "employee", "department": "HR",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var session sessionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &session); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if session.Token == "" || session.User.Email != "alice@example.com" || session.User.Status != "active" {
		t.Fatalf("unexpected session: %+v", session)
	}

	w = doJSON(r, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "alice2", "email": "ALICE@example.com", "password": "password123",
		"role": "employee", "department": "HR",
	})
	if w.Code != http.StatusConflict || decodeAPIError(t, w).Error.Code != "email_taken" {
		t.Fatalf("duplicate email: expected 409 email_taken, got %d %s", w.Code, w.Body.String())
	}
}

func TestRegisterEndpointNamesInvalidFields(t *testing.T) {
	svc := newTestService(t, nil)
	r := newTestRouter(t, svc)

	w := doJSON(r, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "alice", "email": "not-an-email", "password": "short", "role": "employee",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	body := decodeAPIError(t, w)
	if body.Error.Code != "validation_error" {
		t.Fatalf("expected validation_error, got %q", body.Error.Code)
	}
	fields := body.Error.Details.Fields
	if fields["email"] != "email must be a valid email address" {
		t.Fatalf("unexpected email message: %v", fields)
	}
	if fields["password"] != "password must be at least 8 characters" {
		t.Fatalf("unexpected password message: %v", fields)
	}
	if _, ok := fields["username"]; ok {
		t.Fatalf("valid field reported: %v", fields)
	}

	w = doJSON(r, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"username": "a", "email": "a@example.com", "password": "password123", "role": "admin",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("admin self-register: expected 400, got %d", w.Code)
	}
}

func TestLoginEndpoint(t *testing.T) {
	svc := newTestService(t, nil)
	r := newTestRouter(t, svc)
	register(t, svc, "alice", "alice@example.com", "employee", "HR")

	w := doJSON(r, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "Alice@Example.com", "password": "password123",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(r, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "wrong-password",
	})
	if w.Code != http.StatusUnauthorized || decodeAPIError(t, w).Error.Code != "invalid_credentials" {
		t.Fatalf("wrong password: expected 401 invalid_credentials, got %d %s", w.Code, w.Body.String())
	}

	w = doJSON(r, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"email": "alice@example.com"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing password: expected 400, got %d", w.Code)
	}
	if fields := decodeAPIError(t, w).Error.Details.Fields; fields["password"] != "password is required" {
		t.Fatalf("unexpected fields: %v", fields)
	}
}

func TestLogoutRevokesTokenOverHTTP(t *testing.T) {
	mr := miniredis.RunT(t)
	client := cache.New(mr.Addr(), "", 0)
	t.Cleanup(func() { _ = client.Close() })
	svc := newTestService(t, auth.NewRedisDenylist(client))
	r := newTestRouter(t, svc)
	session := register(t, svc, "alice", "alice@example.com", "employee", "HR")

	if w := doJSON(r, http.MethodGet, "/api/v1/users/me", session.Token, nil); w.Code != http.StatusOK {
		t.Fatalf("me before logout: expected 200, got %d", w.Code)
	}

	w := doJSON(r, http.MethodPost, "/api/v1/auth/logout", session.Token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("logout: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var out struct {
		Revoked bool `json:"revoked"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil || !out.Revoked {
		t.Fatalf("expected revoked=true, got %s", w.Body.String())
	}

	w = doJSON(r, http.MethodGet, "/api/v1/users/me", session.Token, nil)
	if w.Code != http.StatusUnauthorized || decodeAPIError(t, w).Error.Code != "token_invalid" {
		t.Fatalf("me after logout: expected 401 token_invalid, got %d %s", w.Code, w.Body.String())
	}
	if w := doJSON(r, http.MethodPost, "/api/v1/auth/logout", session.Token, nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("second logout: expected 401, got %d", w.Code)
	}
}

func TestLogoutWithoutDenylistReportsNotRevoked(t *testing.T) {
	svc := newTestService(t, nil)
	r := newTestRouter(t, svc)
	session := register(t, svc, "alice", "alice@example.com", "employee", "HR")

	w := doJSON(r, http.MethodPost, "/api/v1/auth/logout", session.Token, nil)
	if w.Code != http.StatusOK || w.Body.String() != `{"revoked":false}` {
		t.Fatalf("expected revoked=false, got %d %s", w.Code, w.Body.String())
	}
	if w := doJSON(r, http.MethodGet, "/api/v1/users/me", session.Token, nil); w.Code != http.StatusOK {
		t.Fatalf("token should stay valid, got %d", w.Code)
	}
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	svc := newTestService(t, nil)
	r := newTestRouter(t, svc)
	alice := register(t, svc, "alice", "alice@example.com", "employee", "HR")

	w := doJSON(r, http.MethodGet, "/api/v1/admin/employees", alice.Token, nil)
	if w.Code != http.StatusForbidden || decodeAPIError(t, w).Error.Code != "insufficient_permission" {
		t.Fatalf("employee: expected 403 insufficient_permission, got %d %s", w.Code, w.Body.String())
	}
	w = doJSON(r, http.MethodPut, "/api/v1/admin/employees/"+alice.User.ID+"/status", alice.Token, map[string]string{"userStatus": "inactive"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("employee status update: expected 403, got %d", w.Code)
	}
	if w := doJSON(r, http.MethodGet, "/api/v1/admin/employees", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: expected 401, got %d", w.Code)
	}
}

func TestAdminListEmployeesFilters(t *testing.T) {
	svc := newTestService(t, nil)
	r := newTestRouter(t, svc)
	token := adminToken(t, svc)
	register(t, svc, "alice", "alice@example.com", "employee", "HR")
	register(t, svc, "bob", "bob@example.com", "employee", "Engineering")

	list := func(query string) []UserResponse {
		t.Helper()
		w := doJSON(r, http.MethodGet, "/api/v1/admin/employees"+query, token, nil)
		if w.Code != http.StatusOK {
			t.Fatalf("list %q: expected 200, got %d: %s", query, w.Code, w.Body.String())
		}
		var out []UserResponse
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode: %v", err)
		}
		return out
	}

	if got := list("?role=employee&department=HR"); len(got) != 1 || got[0].Username != "alice" {
		t.Fatalf("department filter: %+v", got)
	}
	if got := list("?role=all&status=all&department=all"); len(got) != 3 {
		t.Fatalf("expected every account, got %d", len(got))
	}
	if got := list("?role=admin"); len(got) != 1 || got[0].Role != "admin" {
		t.Fatalf("role filter: %+v", got)
	}

	w := doJSON(r, http.MethodGet, "/api/v1/admin/employees?role=manager", token, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad role: expected 400, got %d", w.Code)
	}
	w = doJSON(r, http.MethodGet, "/api/v1/admin/employees?status=suspended", token, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad status: expected 400, got %d", w.Code)
	}
}

func TestAdminStatusUpdate(t *testing.T) {
	svc := newTestService(t, nil)
	r := newTestRouter(t, svc)
	token := adminToken(t, svc)
	alice := register(t, svc, "alice", "alice@example.com", "employee", "HR")
	path := "/api/v1/admin/employees/" + alice.User.ID + "/status"

	w := doJSON(r, http.MethodPut, path, token, map[string]string{"userStatus": "Inactive"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var updated UserResponse
	if err := json.Unmarshal(w.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if updated.Status != "inactive" {
		t.Fatalf("expected inactive, got %q", updated.Status)
	}

	w = doJSON(r, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "password123",
	})
	if w.Code != http.StatusForbidden || decodeAPIError(t, w).Error.Code != "account_inactive" {
		t.Fatalf("inactive login: expected 403 account_inactive, got %d %s", w.Code, w.Body.String())
	}

	if w := doJSON(r, http.MethodPut, path, token, map[string]string{"userStatus": "on-leave"}); w.Code != http.StatusBadRequest {
		t.Fatalf("unknown status: expected 400, got %d", w.Code)
	}
	w = doJSON(r, http.MethodPut, path, token, map[string]string{})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing status: expected 400, got %d", w.Code)
	}
	if fields := decodeAPIError(t, w).Error.Details.Fields; fields["userStatus"] != "userStatus is required" {
		t.Fatalf("unexpected fields: %v", fields)
	}
	w = doJSON(r, http.MethodPut, "/api/v1/admin/employees/no-such-user/status", token, map[string]string{"userStatus": "active"})
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown id: expected 404, got %d", w.Code)
	}
}

func TestAdminProfileUpdate(t *testing.T) {
	svc := newTestService(t, nil)
	r := newTestRouter(t, svc)
	token := adminToken(t, svc)
	alice := register(t, svc, "alice", "alice@example.com", "employee", "HR")
	path := "/api/v1/admin/employees/" + alice.User.ID

	w := doJSON(r, http.MethodPut, path, token, map[string]string{
		"department": "Finance", "email": "alice.w@example.com",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var updated UserResponse
	if err := json.Unmarshal(w.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if updated.Department != "Finance" || updated.Email != "alice.w@example.com" || updated.Username != "alice" {
		t.Fatalf("unexpected profile: %+v", updated)
	}

	stored, err := svc.Get(context.Background(), alice.User.ID)
	if err != nil || stored.Department != "Finance" {
		t.Fatalf("update not persisted: %+v %v", stored, err)
	}

	w = doJSON(r, http.MethodPut, path, token, map[string]string{"email": "nope"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad email: expected 400, got %d", w.Code)
	}
	if fields := decodeAPIError(t, w).Error.Details.Fields; fields["email"] == "" {
		t.Fatalf("expected email field error, got %s", w.Body.String())
	}
	if w := doJSON(r, http.MethodPut, path, token, map[string]string{"role": "manager"}); w.Code != http.StatusBadRequest {
		t.Fatalf("bad role: expected 400, got %d", w.Code)
	}
}
