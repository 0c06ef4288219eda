package users

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"portal-backend/internal/shared/auth"
	"portal-backend/internal/shared/server/middleware"
	"portal-backend/internal/shared/server/respond"
	"portal-backend/internal/shared/telemetry"
)

// Handler serves authentication, profile and admin account routes.
type Handler struct {
	Svc       *Service
	Guard     middleware.Authorizer
	AuthLimit gin.HandlerFunc
}

func NewHandler(svc *Service, guard middleware.Authorizer, authLimit gin.HandlerFunc) *Handler {
	return &Handler{Svc: svc, Guard: guard, AuthLimit: authLimit}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	authGroup := rg.Group("/auth")
	if h.AuthLimit != nil {
		authGroup.Use(h.AuthLimit)
	}
	authGroup.POST("/register", h.register)
	authGroup.POST("/login", h.login)
	authGroup.POST("/logout", middleware.Auth(h.Guard), h.logout)

	rg.GET("/users/me", middleware.Auth(h.Guard), h.me)

	admin := rg.Group("/admin", middleware.Auth(h.Guard, auth.RoleAdmin))
	admin.GET("/employees", h.listEmployees)
	admin.PUT("/employees/:id/status", h.updateStatus)
	admin.PUT("/employees/:id", h.updateProfile)
}

type registerRequest struct {
	Username   string `json:"username" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=8"`
	Role       string `json:"role" binding:"required"`
	Department string `json:"department"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequestBody(c, err, &req)
		return
	}
	session, err := h.Svc.Register(c.Request.Context(), RegisterInput(req))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.Created(c, toSessionResponse(session))
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequestBody(c, err, &req)
		return
	}
	session, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, toSessionResponse(session))
}

func (h *Handler) logout(c *gin.Context) {
	revoked, err := h.Svc.Logout(c.Request.Context(), middleware.RawTokenFromContext(c))
	if err != nil {
		if errors.Is(err, auth.ErrTokenInvalid) || errors.Is(err, auth.ErrTokenMissing) {
			middleware.AbortWithAuthError(c, err)
			return
		}
		telemetry.Error("users.logout_failed", map[string]any{
			"user_id": middleware.UserIDFromContext(c),
			"err":     err.Error(),
		})
		respond.Error(c, http.StatusServiceUnavailable, "store_unavailable", "Logout could not be completed", nil)
		return
	}
	respond.OK(c, gin.H{"revoked": revoked})
}

func (h *Handler) me(c *gin.Context) {
	user, err := h.Svc.Get(c.Request.Context(), middleware.UserIDFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, toResponse(user))
}

func (h *Handler) listEmployees(c *gin.Context) {
	filter := Filter{}
	if raw := c.Query("role"); raw != "" && raw != "all" {
		role, ok := auth.ParseRole(raw)
		if !ok {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid role", nil)
			return
		}
		filter.Role = role
	}
	if raw := c.Query("status"); raw != "" && raw != "all" {
		status, ok := ParseStatus(raw)
		if !ok {
			respond.Error(c, http.StatusBadRequest, "validation_error", "invalid status", nil)
			return
		}
		filter.Status = status
	}
	if dept := c.Query("department"); dept != "" && dept != "all" {
		filter.Department = dept
	}

	list, err := h.Svc.ListEmployees(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	resp := make([]UserResponse, 0, len(list))
	for _, u := range list {
		resp = append(resp, toResponse(u))
	}
	respond.OK(c, resp)
}

type statusRequest struct {
	Status string `json:"userStatus" binding:"required"`
}

func (h *Handler) updateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequestBody(c, err, &req)
		return
	}
	user, err := h.Svc.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, toResponse(user))
}

type profileRequest struct {
	Username   string `json:"username"`
	Email      string `json:"email" binding:"omitempty,email"`
	Department string `json:"department"`
	Role       string `json:"role"`
	Status     string `json:"userStatus"`
}

func (h *Handler) updateProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequestBody(c, err, &req)
		return
	}
	user, err := h.Svc.UpdateProfile(c.Request.Context(), c.Param("id"), ProfileInput(req))
	if err != nil {
		writeError(c, err)
		return
	}
	respond.OK(c, toResponse(user))
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
	case errors.Is(err, ErrEmailTaken):
		respond.Error(c, http.StatusConflict, "email_taken", "Email already in use", nil)
	case errors.Is(err, ErrInvalidCredentials):
		respond.Error(c, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password", nil)
	case errors.Is(err, ErrAccountInactive):
		respond.Error(c, http.StatusForbidden, "account_inactive", "Account is inactive", nil)
	case errors.Is(err, ErrNotFound):
		respond.Error(c, http.StatusNotFound, "not_found", "user not found", nil)
	case errors.Is(err, ErrStoreUnavailable):
		telemetry.Error("users.store_unavailable", map[string]any{"err": err.Error()})
		respond.Error(c, http.StatusServiceUnavailable, "store_unavailable", "Service temporarily unavailable", nil)
	default:
		telemetry.Error("users.internal_error", map[string]any{"err": err.Error()})
		respond.Error(c, http.StatusInternalServerError, "internal_error", "Unexpected server error", nil)
	}
}

// badRequestBody reports a bind failure, listing failing fields when the body
// parsed but did not validate.
func badRequestBody(c *gin.Context, err error, req any) {
	var details any
	if fields := validationDetails(err, req); len(fields) > 0 {
		details = gin.H{"fields": fields}
	}
	respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", details)
}
