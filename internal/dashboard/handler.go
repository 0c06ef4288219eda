package dashboard

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"portal-backend/internal/shared/server/middleware"
	"portal-backend/internal/shared/server/respond"
	"portal-backend/internal/shared/telemetry"
)

type Handler struct {
	Svc   *Service
	Guard middleware.Authorizer
}

func NewHandler(svc *Service, guard middleware.Authorizer) *Handler {
	return &Handler{Svc: svc, Guard: guard}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/dashboard/summary", middleware.Auth(h.Guard), h.summary)
}

func (h *Handler) summary(c *gin.Context) {
	principal, _ := middleware.PrincipalFromContext(c)
	summary, err := h.Svc.Summary(c.Request.Context(), principal)
	if err != nil {
		telemetry.Error("dashboard.summary_failed", map[string]any{
			"user_id": principal.ID,
			"err":     err.Error(),
		})
		respond.Error(c, http.StatusServiceUnavailable, "store_unavailable", "Problem building dashboard summary", nil)
		return
	}
	respond.OK(c, summary)
}
