package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reviewdesk/reviewdesk/internal/shared"
	"github.com/reviewdesk/reviewdesk/internal/users"
)

func newUsersCmd(rt *runtime) *cobra.Command {
	usersCmd := &cobra.Command{
		Use:   "users",
		Short: "Manage user roles",
	}

	var role string
	grantCmd := &cobra.Command{
		Use:     "grant <email>",
		Short:   "Assign a role to an existing user",
		Example: "reviewctl users grant editor@example.com --role content",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if role == "" {
				return errors.New("--role is required")
			}
			pool, err := rt.connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			svc := users.NewService(users.NewRepository(pool), shared.NewAuditLogger(pool))
			user, err := svc.GrantByEmail(cmd.Context(), args[0], role)
			if err != nil {
				return fmt.Errorf("grant %s to %s: %w", role, args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", user.Email, user.RoleName)
			return nil
		},
	}
	grantCmd.Flags().StringVar(&role, "role", "", "role name (superadmin, content, customer or a custom role)")

	usersCmd.AddCommand(grantCmd)
	return usersCmd
}
