package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"portal-backend/internal/bootstrap"
	"portal-backend/internal/users"
)

func newCreateUserCommand(env Env) *cobra.Command {
	var in users.RegisterInput

	cmd := &cobra.Command{
		Use:   "create-user",
		Args:  cobra.NoArgs,
		Short: "Create an account of any role, admins included",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, env, func(app *bootstrap.App) error {
				user, err := app.UsersService.CreateUser(cmd.Context(), in)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "created %s %s (%s)\n", user.Role, user.Email, user.ID)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&in.Username, "username", "", "display name")
	cmd.Flags().StringVar(&in.Email, "email", "", "login email")
	cmd.Flags().StringVar(&in.Password, "password", "", "initial password")
	cmd.Flags().StringVar(&in.Role, "role", "employee", "employee or admin")
	cmd.Flags().StringVar(&in.Department, "department", "", "department name")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}
