package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"portal-backend/internal/shared/config"
	"portal-backend/internal/shared/metrics"
	"portal-backend/internal/shared/server/middleware"
	"portal-backend/internal/shared/server/respond"
)

// Routes is implemented by every feature handler.
type Routes interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Pinger reports the health of a backing dependency.
type Pinger func(ctx context.Context) error

type RouterDeps struct {
	Config   config.Config
	Handlers []Routes
	Checks   map[string]Pinger
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(deps.Config.CORSAllowOrigin),
		metrics.Middleware(),
	)

	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.GET("/health", healthHandler(deps.Checks))
	for _, h := range deps.Handlers {
		if h != nil {
			h.RegisterRoutes(api)
		}
	}

	return r
}

func healthHandler(checks map[string]Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		deps := gin.H{}
		for name, ping := range checks {
			if ping == nil {
				continue
			}
			if err := ping(ctx); err != nil {
				deps[name] = "down"
				status = http.StatusServiceUnavailable
				continue
			}
			deps[name] = "ok"
		}
		respond.JSON(c, status, gin.H{"ok": status == http.StatusOK, "dependencies": deps})
	}
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
