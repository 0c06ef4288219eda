package compliance

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"portal-backend/internal/shared/auth"
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
	rg.GET("/reports/compliance", middleware.Auth(h.Guard, auth.RoleAdmin), h.report)
}

type windowResponse struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type reportResponse struct {
	Window  *windowResponse `json:"window"`
	Rows    []Row           `json:"rows"`
	Summary Summary         `json:"summary"`
}

func (h *Handler) report(c *gin.Context) {
	q := Query{
		Category:   c.Query("fileType"),
		Department: c.Query("department"),
	}
	if month := c.Query("month"); month != "" {
		w, err := ParseMonth(month)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, "validation_error", "month must be YYYY-MM", nil)
			return
		}
		q.Window = &w
	}

	rows, err := h.Svc.Compute(c.Request.Context(), q)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidWindow), errors.Is(err, ErrInvalidFilter):
			respond.Error(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
		case errors.Is(err, ErrStoreUnavailable):
			telemetry.Error("compliance.store_unavailable", map[string]any{"err": err.Error()})
			respond.Error(c, http.StatusServiceUnavailable, "store_unavailable", "Service temporarily unavailable", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "Unexpected server error", nil)
		}
		return
	}

	resp := reportResponse{Rows: rows, Summary: Summarize(rows)}
	if q.Window != nil {
		resp.Window = &windowResponse{Start: q.Window.Start, End: q.Window.End}
	}
	respond.OK(c, resp)
}
