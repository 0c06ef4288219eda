package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"portal-backend/internal/shared/storage/db"
)

func newMigrateCommand(env Env) *cobra.Command {
	return &cobra.Command{
		Use:     "migrate",
		Args:    cobra.NoArgs,
		Aliases: []string{"m"},
		Short:   "Apply database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if env.DatabaseURL == "" {
				return errors.New("DATABASE_URL is required")
			}
			sqlDB, err := db.Connect(cmd.Context(), env.DatabaseURL, db.OptionsFromEnv(db.DefaultMigrateOptions()))
			if err != nil {
				return err
			}
			defer sqlDB.Close()
			if err := db.RunMigrations(cmd.Context(), sqlDB); err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return err
		},
	}
}
