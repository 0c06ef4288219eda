package commands

import (
	"context"

	"github.com/spf13/cobra"

	"portal-backend/internal/bootstrap"
)

// Env carries what subcommands need to reach the portal's stores.
type Env struct {
	Open        func(ctx context.Context) (*bootstrap.App, error)
	DatabaseURL string
}

// NewRootCmd creates the root command
func NewRootCmd(env Env) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "portalctl",
		Short:         "Administer the employee document portal",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(
		newCreateUserCommand(env),
		newReportCommand(env),
		newMigrateCommand(env),
	)

	return rootCmd
}

func withApp(cmd *cobra.Command, env Env, fn func(app *bootstrap.App) error) error {
	app, err := env.Open(cmd.Context())
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(app)
}
