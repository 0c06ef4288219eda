package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"portal-backend/internal/compliance"
	"portal-backend/internal/dashboard"
	"portal-backend/internal/files"
	"portal-backend/internal/shared/auth"
	"portal-backend/internal/shared/cache"
	"portal-backend/internal/shared/config"
	"portal-backend/internal/shared/server"
	"portal-backend/internal/shared/server/middleware"
	"portal-backend/internal/shared/storage/db"
	"portal-backend/internal/shared/storage/object"
	localstore "portal-backend/internal/shared/storage/object/local"
	s3store "portal-backend/internal/shared/storage/object/s3"
	"portal-backend/internal/shared/telemetry"
	"portal-backend/internal/users"
)

const authRateLimitGroup = "AUTH"

// openDB is swapped in tests to hand Build a mock connection.
var openDB = buildDB

// App holds shared dependencies and the wired router.
type App struct {
	Config            config.Config
	Router            *gin.Engine
	DB                *sql.DB
	Cache             *cache.Client
	Store             object.ObjectStore
	Tokens            *auth.TokenCodec
	Guard             *auth.Guard
	UsersRepo         users.Repo
	FilesRepo         files.Repo
	UsersService      *users.Service
	FilesService      *files.Service
	ComplianceService *compliance.Service
	DashboardService  *dashboard.Service
}

// Build connects backing stores, constructs services and wires routes.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}

	sqlDB, err := openDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	closeDB := func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		closeDB()
		return nil, err
	}

	tokens, err := auth.NewTokenCodec(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		closeDB()
		return nil, fmt.Errorf("token codec: %w", err)
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Cache:  buildCache(ctx, cfg),
		Store:  store,
		Tokens: tokens,
	}
	var denylist auth.Denylist
	if app.Cache != nil {
		denylist = auth.NewRedisDenylist(app.Cache)
	}
	app.Guard = auth.NewGuard(tokens, denylist)

	buildServices(app)
	app.Router = buildRouter(app)
	return app, nil
}

// Close releases connections held by the app.
func (a *App) Close() error {
	var errs []error
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	if a.Cache != nil {
		errs = append(errs, a.Cache.Close())
	}
	return errors.Join(errs...)
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if config.IsDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repos", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, errors.New("DATABASE_URL is required")
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err == nil {
		err = db.RunMigrations(ctx, sqlDB)
		if err != nil {
			_ = sqlDB.Close()
		}
	}
	if err != nil {
		if config.IsDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repos", map[string]any{"reason": "database unavailable", "err": err.Error()})
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, errors.New("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

// buildCache returns nil when Redis is not configured or not reachable;
// logout then relies on token expiry alone.
func buildCache(ctx context.Context, cfg config.Config) *cache.Client {
	if cfg.RedisAddr == "" {
		return nil
	}
	c := cache.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err := c.Ping(ctx); err != nil {
		telemetry.Warn("bootstrap.redis_unavailable", map[string]any{"addr": cfg.RedisAddr, "err": err.Error()})
		_ = c.Close()
		return nil
	}
	return c
}

func buildServices(app *App) {
	if app.DB != nil {
		app.UsersRepo = &users.PGRepo{DB: app.DB}
		app.FilesRepo = &files.PGRepo{DB: app.DB}
	} else {
		app.UsersRepo = users.NewMemoryRepo()
		app.FilesRepo = files.NewMemoryRepo()
	}

	app.UsersService = users.NewService(app.UsersRepo, app.Tokens, app.Guard)
	app.UsersService.AllowAdminSignup = app.Config.AllowAdminSignup
	app.FilesService = files.NewService(app.Store, app.FilesRepo)
	app.ComplianceService = compliance.NewService(employeeSource{svc: app.UsersService}, app.FilesRepo, app.Config.GracePeriod)
	app.DashboardService = dashboard.NewService(app.FilesRepo, app.UsersService)
}

func buildRouter(app *App) *gin.Engine {
	authLimit := middleware.RateLimit(middleware.RateLimitConfig{
		Rules: map[string]middleware.RateLimitRule{
			authRateLimitGroup: {Rate: app.Config.AuthRateLimitRPS, Burst: app.Config.AuthRateLimitBurst},
		},
		GroupFor: func(*gin.Context) string { return authRateLimitGroup },
	})

	checks := map[string]server.Pinger{}
	if app.DB != nil {
		checks["database"] = app.DB.PingContext
	}
	if app.Cache != nil {
		checks["redis"] = app.Cache.Ping
	}

	return server.NewRouter(server.RouterDeps{
		Config: app.Config,
		Handlers: []server.Routes{
			users.NewHandler(app.UsersService, app.Guard, authLimit),
			files.NewHandler(app.FilesService, app.Guard, app.Config.MaxUploadBytes),
			compliance.NewHandler(app.ComplianceService, app.Guard),
			dashboard.NewHandler(app.DashboardService, app.Guard),
		},
		Checks: checks,
	})
}

// employeeSource exposes active and inactive employee accounts to the
// compliance report. Admins are never reported.
type employeeSource struct {
	svc *users.Service
}

func (e employeeSource) Employees(ctx context.Context, department string) ([]compliance.Employee, error) {
	list, err := e.svc.ListEmployees(ctx, users.Filter{Role: auth.RoleEmployee, Department: department})
	if err != nil {
		return nil, err
	}
	out := make([]compliance.Employee, 0, len(list))
	for _, u := range list {
		out = append(out, compliance.Employee{ID: u.ID, Name: u.Username, Department: u.Department})
	}
	return out, nil
}
