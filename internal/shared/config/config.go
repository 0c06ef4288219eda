package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"portal-backend/internal/shared/telemetry"
)

// Config holds application configuration.
type Config struct {
	Port               string
	Env                string
	CORSAllowOrigin    []string
	DatabaseURL        string
	ObjectStoreType    string
	LocalStoreDir      string
	AWSRegion          string
	S3Bucket           string
	S3Prefix           string
	SSEKMSKeyID        string
	JWTSecret          string
	TokenTTL           time.Duration
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	GracePeriod        time.Duration
	MaxUploadBytes     int64
	AllowAdminSignup   bool
	LogLevel           string
	AuthRateLimitRPS   float64
	AuthRateLimitBurst int
}

var defaults = map[string]any{
	"PORT":                    "8080",
	"ENV":                     "dev",
	"CORS_ALLOW_ORIGINS":      "http://localhost:5173",
	"OBJECT_STORE":            "local",
	"LOCAL_STORE_DIR":         "./data",
	"TOKEN_TTL":               "1h",
	"REDIS_DB":                0,
	"COMPLIANCE_GRACE_PERIOD": "720h",
	"MAX_UPLOAD_BYTES":        int64(25 << 20),
	"ALLOW_ADMIN_SIGNUP":      false,
	"LOG_LEVEL":               "info",
	"AUTH_RATE_LIMIT_RPS":     0.5,
	"AUTH_RATE_LIMIT_BURST":   5,
}

// Load reads configuration from defaults, optional .env files and the environment.
func Load() Config {
	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(v, ".env", "cmd/.env")
	v.AutomaticEnv()

	return fromViper(v)
}

func fromViper(v *viper.Viper) Config {
	env := normalizeEnv(v.GetString("ENV"))
	cfg := Config{
		Port:               v.GetString("PORT"),
		Env:                env,
		CORSAllowOrigin:    splitAndTrim(v.GetString("CORS_ALLOW_ORIGINS")),
		DatabaseURL:        strings.TrimSpace(v.GetString("DATABASE_URL")),
		ObjectStoreType:    normalizeStoreType(v.GetString("OBJECT_STORE")),
		LocalStoreDir:      v.GetString("LOCAL_STORE_DIR"),
		AWSRegion:          v.GetString("AWS_REGION"),
		S3Bucket:           v.GetString("S3_BUCKET"),
		S3Prefix:           v.GetString("S3_PREFIX"),
		SSEKMSKeyID:        v.GetString("SSE_KMS_KEY_ID"),
		JWTSecret:          strings.TrimSpace(v.GetString("JWT_SECRET")),
		TokenTTL:           durationOr(v, "TOKEN_TTL", time.Hour),
		RedisAddr:          strings.TrimSpace(v.GetString("REDIS_ADDR")),
		RedisPassword:      v.GetString("REDIS_PASSWORD"),
		RedisDB:            v.GetInt("REDIS_DB"),
		GracePeriod:        durationOr(v, "COMPLIANCE_GRACE_PERIOD", 30*24*time.Hour),
		MaxUploadBytes:     v.GetInt64("MAX_UPLOAD_BYTES"),
		AllowAdminSignup:   v.GetBool("ALLOW_ADMIN_SIGNUP"),
		LogLevel:           v.GetString("LOG_LEVEL"),
		AuthRateLimitRPS:   v.GetFloat64("AUTH_RATE_LIMIT_RPS"),
		AuthRateLimitBurst: v.GetInt("AUTH_RATE_LIMIT_BURST"),
	}

	if env == "production" {
		if cfg.DatabaseURL == "" {
			telemetry.Error("config.invalid", map[string]any{"reason": "DATABASE_URL is required in production"})
		}
		if cfg.JWTSecret == "" {
			telemetry.Error("config.invalid", map[string]any{"reason": "JWT_SECRET is required in production"})
		}
	}
	if cfg.JWTSecret == "" && env != "production" {
		cfg.JWTSecret = "dev-secret"
	}
	return cfg
}

// IsDevLike reports whether env permits in-memory fallbacks.
func IsDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func durationOr(v *viper.Viper, key string, def time.Duration) time.Duration {
	d := v.GetDuration(key)
	if d <= 0 {
		telemetry.Warn("config.duration_default", map[string]any{"key": key, "default": def.String()})
		return def
	}
	return d
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}
