package main

import (
	"context"
	"errors"
	"os"

	"portal-backend/cmd/portalctl/commands"
	"portal-backend/internal/bootstrap"
	"portal-backend/internal/shared/config"
	"portal-backend/internal/shared/telemetry"
)

func main() {
	cfg := config.Load()
	telemetry.SetLevel(cfg.LogLevel)

	open := func(ctx context.Context) (*bootstrap.App, error) {
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required")
		}
		return bootstrap.Build(ctx, cfg)
	}

	root := commands.NewRootCmd(commands.Env{Open: open, DatabaseURL: cfg.DatabaseURL})
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
